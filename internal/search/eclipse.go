package search

import (
	"fmt"
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/frame"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// Eclipse kind bits, the caller-facing wire values.
const (
	EclCentral      = 1
	EclNoncentral   = 2
	EclTotal        = 4
	EclAnnular      = 8
	EclPartial      = 16
	EclAnnularTotal = 32
	EclPenumbral    = 64
)

// EclipseKindName renders an eclipse kind bit-set for display.
func EclipseKindName(kind int) string {
	switch {
	case kind&EclAnnularTotal != 0:
		return "hybrid"
	case kind&EclTotal != 0:
		return "total"
	case kind&EclAnnular != 0:
		return "annular"
	case kind&EclPartial != 0:
		return "partial"
	case kind&EclPenumbral != 0:
		return "penumbral"
	}
	return "none"
}

const (
	synodicMonth = 29.530588853
	// True lunations run as short as about 29.27 days, so scanning from
	// one syzygy to the next must step by less than that or a short
	// lunation ends up skipped entirely.
	lunationStep = synodicMonth - 2
	earthRadKm   = 6378.137
	sunRadKm     = 696000.0
	moonRadKm    = 1737.4
	// Danjon's enlargement of the Earth shadow for the atmosphere.
	shadowEnlarge = 1.02
)

// Lunar eclipse time slots follow the established wire layout: index 0
// is the maximum, 2/3 the partial phase begin/end, 4/5 the total phase,
// 6/7 the penumbral phase. Indices 1, 8 and 9 are reserved and zero.
type LunarEclipse struct {
	Outcome
	Kind         int
	Times        [10]float64 // Julian Day UT
	UmbralMag    float64
	PenumbralMag float64
}

// lunarGeom holds the shadow geometry at one moment.
type lunarGeom struct {
	sep    float64 // moon to shadow-center separation, degrees
	umbra  float64 // umbral shadow radius, degrees
	penum  float64 // penumbral shadow radius, degrees
	moonSD float64 // lunar semidiameter, degrees
}

func (e *Engine) lunarGeomAt(jdTT float64) (lunarGeom, error) {
	var g lunarGeom
	sun, err := position.Calc(e.st, jdTT, ephem.Sun, 0)
	if err != nil {
		return g, err
	}
	moon, err := position.Calc(e.st, jdTT, ephem.Moon, 0)
	if err != nil {
		return g, err
	}
	g.sep = sepDeg(moon.Data[0], moon.Data[1], angle.Degnorm(sun.Data[0]+180), -sun.Data[1])

	moonKm := moon.Data[2] * auKm
	sunKm := sun.Data[2] * auKm
	parMoon := angle.Asind(earthRadKm / moonKm)
	parSun := angle.Asind(earthRadKm / sunKm)
	sdSun := angle.Asind(sunRadKm / sunKm)
	g.moonSD = angle.Asind(moonRadKm / moonKm)
	g.umbra = shadowEnlarge * (parMoon + parSun - sdSun)
	g.penum = shadowEnlarge * (parMoon + parSun + sdSun)
	return g, nil
}

func (g lunarGeom) umbralMag() float64    { return (g.umbra + g.moonSD - g.sep) / (2 * g.moonSD) }
func (g lunarGeom) penumbralMag() float64 { return (g.penum + g.moonSD - g.sep) / (2 * g.moonSD) }

// LunarEclipseWhen searches from jdUT for the next lunar eclipse (or the
// previous one with Backward). The scan steps opposition to opposition,
// so MaxSteps counts synodic months; the default covers about forty
// years.
func (e *Engine) LunarEclipseWhen(jdUT float64, opts Options) (LunarEclipse, error) {
	id, log := e.begin("lunar-eclipse", jdUT)
	res := LunarEclipse{Outcome: Outcome{TraceID: id, Status: ephem.StatusOK}}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = 500
	}
	snap := e.st.Snapshot()

	jdTT, _ := timescale.UTToTT(jdUT, snap)
	t := jdTT
	res.State = Seeking
	for i := 0; i < opts.MaxSteps; i++ {
		res.Steps++
		opp, err := e.nextOpposition(t, opts.Backward)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		g, err := e.lunarGeomAt(opp)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		if g.penumbralMag() > 0 {
			res.State = Refining
			if err := e.refineLunar(opp, &res, snap); err != nil {
				res.Outcome = errOutcome(res.Outcome, err)
				return res, err
			}
			res.State = Found
			log.Debug("search found", "jd_max", res.Times[0], "kind", EclipseKindName(res.Kind), "steps", res.Steps)
			return res, nil
		}
		if opts.Backward {
			t = opp - lunationStep
		} else {
			t = opp + lunationStep
		}
	}
	res.State = Exhausted
	res.Message = fmt.Sprintf("no lunar eclipse within %d lunations", opts.MaxSteps)
	log.Debug("search exhausted", "steps", res.Steps)
	return res, nil
}

// nextOpposition refines the Full Moon nearest ahead of (or behind)
// jdTT to the moment of exact opposition in longitude.
func (e *Engine) nextOpposition(jdTT float64, backward bool) (float64, error) {
	return e.nextPhaseAngle(jdTT, 180, backward)
}

// nextPhaseAngle finds the next moment the Moon's elongation from the
// Sun passes target degrees (0 for New Moon, 180 for Full Moon).
func (e *Engine) nextPhaseAngle(jdTT, target float64, backward bool) (float64, error) {
	f := func(jd float64) (float64, error) {
		sun, err := position.Calc(e.st, jd, ephem.Sun, 0)
		if err != nil {
			return 0, err
		}
		moon, err := position.Calc(e.st, jd, ephem.Moon, 0)
		if err != nil {
			return 0, err
		}
		return angle.Difdeg2n(moon.Data[0]-sun.Data[0], target), nil
	}
	// The elongation gains ~12.2 deg/day; one-day steps cannot skip a
	// crossing. Reject the wrap at the opposite phase.
	var out Outcome
	t := jdTT
	for {
		lo, hi, err := bracket(f, t, 1.0, 40, backward, &out)
		if err != nil {
			return 0, err
		}
		if out.State == Exhausted {
			return 0, fmt.Errorf("lunation bracket not found near jd %.1f", jdTT)
		}
		v, err := f(lo)
		if err != nil {
			return 0, err
		}
		if math.Abs(v) < 90 {
			return bisect(f, lo, hi)
		}
		if backward {
			t = lo
		} else {
			t = hi
		}
	}
}

// refineLunar fills the maximum, magnitudes and contact times around a
// confirmed eclipse opposition.
func (e *Engine) refineLunar(oppTT float64, res *LunarEclipse, snap *state.Snapshot) error {
	sepAt := func(jd float64) (float64, error) {
		g, err := e.lunarGeomAt(jd)
		if err != nil {
			return 0, err
		}
		return g.sep, nil
	}
	maxTT, err := minimize(sepAt, oppTT-1, oppTT+1)
	if err != nil {
		return err
	}
	g, err := e.lunarGeomAt(maxTT)
	if err != nil {
		return err
	}
	res.UmbralMag = g.umbralMag()
	res.PenumbralMag = g.penumbralMag()
	switch {
	case res.UmbralMag >= 1:
		res.Kind = EclTotal
	case res.UmbralMag > 0:
		res.Kind = EclPartial
	default:
		res.Kind = EclPenumbral
	}

	res.Times[0] = e.toUT(maxTT, snap)
	// Contact times: separation crossing each shadow boundary.
	contacts := []struct {
		radius   float64
		beginIdx int
		endIdx   int
	}{
		{g.penum + g.moonSD, 6, 7},
		{g.umbra + g.moonSD, 2, 3},
		{g.umbra - g.moonSD, 4, 5},
	}
	for _, c := range contacts {
		crossing := func(jd float64) (float64, error) {
			gg, err := e.lunarGeomAt(jd)
			if err != nil {
				return 0, err
			}
			return gg.sep - c.radius, nil
		}
		v, err := crossing(maxTT)
		if err != nil {
			return err
		}
		if v >= 0 {
			continue // this phase is not reached
		}
		begin, err := bisect(crossing, maxTT-0.5, maxTT)
		if err != nil {
			return err
		}
		end, err := bisect(crossing, maxTT, maxTT+0.5)
		if err != nil {
			return err
		}
		res.Times[c.beginIdx] = e.toUT(begin, snap)
		res.Times[c.endIdx] = e.toUT(end, snap)
	}
	return nil
}

func (e *Engine) toUT(jdTT float64, snap *state.Snapshot) float64 {
	jdUT, _ := timescale.TTToUT(jdTT, snap)
	return jdUT
}

// LunarAttr reports the circumstances of a lunar eclipse in progress at
// one moment for one observer. The azimuth and altitude slots are kept
// for wire compatibility and carry the Moon's horizontal position.
type LunarAttr struct {
	UmbralMag     float64
	PenumbralMag  float64
	Azimuth       float64
	TrueAlt       float64
	ApparentAlt   float64
	OppositionDeg float64 // angular distance from exact opposition
	Status        ephem.Status
	Message       string
}

// LunarEclipseHow evaluates the eclipse magnitudes at jdUT as seen from
// geo. Magnitudes at or below zero mean no eclipse is in progress.
func (e *Engine) LunarEclipseHow(jdUT float64, geo state.Observer) (LunarAttr, error) {
	var attr LunarAttr
	snap := e.st.Snapshot()
	jdTT, _ := timescale.UTToTT(jdUT, snap)

	g, err := e.lunarGeomAt(jdTT)
	if err != nil {
		return attr, err
	}
	attr.UmbralMag = g.umbralMag()
	attr.PenumbralMag = g.penumbralMag()

	moon, err := position.CalcUT(e.st, jdUT, ephem.Moon, 0)
	if err != nil {
		return attr, err
	}
	sun, err := position.CalcUT(e.st, jdUT, ephem.Sun, 0)
	if err != nil {
		return attr, err
	}
	attr.OppositionDeg = math.Abs(angle.Difdeg2n(moon.Data[0]-sun.Data[0], 180))
	hor := frame.AzAlt(jdUT, frame.Ecliptic, geo, 0, 0, [3]float64{moon.Data[0], moon.Data[1], moon.Data[2]}, snap)
	attr.Azimuth = hor.AzimuthDeg
	attr.TrueAlt = hor.TrueAltDeg
	attr.ApparentAlt = hor.AppAltDeg
	attr.Status = ephem.StatusOK
	if attr.PenumbralMag <= 0 {
		attr.Status = ephem.StatusWarn
		attr.Message = "no lunar eclipse in progress at this time"
	}
	return attr, nil
}

// SolarEclipse is the outcome of a global solar eclipse search. Times
// index 0 is the maximum; 2/3 are the global begin/end of the partial
// phase, 4/5 of the central phase. Gamma is the least distance of the
// shadow axis from the geocenter in Earth radii, signed by hemisphere.
type SolarEclipse struct {
	Outcome
	Kind   int
	Times  [10]float64
	Gamma  float64
	MagMax float64
}

// solarGeom is the shadow-axis geometry at one moment, lengths in AU.
type solarGeom struct {
	axisDist float64 // shadow axis to geocenter
	gamma    float64 // axisDist in Earth radii, signed by shadow-axis z
	umbra    float64 // umbral radius in the fundamental plane (negative: annular)
	penum    float64 // penumbral radius in the fundamental plane
}

const earthRadAU = earthRadKm / auKm

func (e *Engine) solarGeomAt(jdTT float64) (solarGeom, error) {
	var g solarGeom
	sun, err := position.Calc(e.st, jdTT, ephem.Sun, ephem.FlagXYZ|ephem.FlagTruePos)
	if err != nil {
		return g, err
	}
	moon, err := position.Calc(e.st, jdTT, ephem.Moon, ephem.FlagXYZ|ephem.FlagTruePos)
	if err != nil {
		return g, err
	}
	s := [3]float64{sun.Data[0], sun.Data[1], sun.Data[2]}
	m := [3]float64{moon.Data[0], moon.Data[1], moon.Data[2]}

	// Shadow axis: the line from the Sun through the Moon.
	var d [3]float64
	var dn float64
	for i := range d {
		d[i] = m[i] - s[i]
	}
	dn = math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	for i := range d {
		d[i] /= dn
	}
	// Closest point of the axis to the geocenter, measured from the Moon.
	t := -(m[0]*d[0] + m[1]*d[1] + m[2]*d[2])
	var p [3]float64
	for i := range p {
		p[i] = m[i] + t*d[i]
	}
	g.axisDist = math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	g.gamma = g.axisDist / earthRadAU
	if p[2] < 0 {
		g.gamma = -g.gamma
	}

	sunRadAU := sunRadKm / auKm
	moonRadAU := moonRadKm / auKm
	sinPen := (sunRadAU + moonRadAU) / dn
	sinUmb := (sunRadAU - moonRadAU) / dn
	g.penum = moonRadAU + t*sinPen
	g.umbra = moonRadAU - t*sinUmb
	return g, nil
}

// SolarEclipseWhenGlob searches from jdUT for the next solar eclipse
// visible anywhere on Earth. MaxSteps counts lunations.
func (e *Engine) SolarEclipseWhenGlob(jdUT float64, opts Options) (SolarEclipse, error) {
	id, log := e.begin("solar-eclipse", jdUT)
	res := SolarEclipse{Outcome: Outcome{TraceID: id, Status: ephem.StatusOK}}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = 500
	}
	snap := e.st.Snapshot()
	jdTT, _ := timescale.UTToTT(jdUT, snap)

	t := jdTT
	res.State = Seeking
	for i := 0; i < opts.MaxSteps; i++ {
		res.Steps++
		conj, err := e.nextPhaseAngle(t, 0, opts.Backward)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		g, err := e.solarGeomAt(conj)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		if g.axisDist < g.penum+earthRadAU {
			res.State = Refining
			if err := e.refineSolar(conj, &res, snap); err != nil {
				res.Outcome = errOutcome(res.Outcome, err)
				return res, err
			}
			res.State = Found
			log.Debug("search found", "jd_max", res.Times[0], "kind", EclipseKindName(res.Kind), "steps", res.Steps)
			return res, nil
		}
		if opts.Backward {
			t = conj - lunationStep
		} else {
			t = conj + lunationStep
		}
	}
	res.State = Exhausted
	res.Message = fmt.Sprintf("no solar eclipse within %d lunations", opts.MaxSteps)
	log.Debug("search exhausted", "steps", res.Steps)
	return res, nil
}

func (e *Engine) refineSolar(conjTT float64, res *SolarEclipse, snap *state.Snapshot) error {
	axis := func(jd float64) (float64, error) {
		g, err := e.solarGeomAt(jd)
		if err != nil {
			return 0, err
		}
		return g.axisDist, nil
	}
	maxTT, err := minimize(axis, conjTT-1, conjTT+1)
	if err != nil {
		return err
	}
	g, err := e.solarGeomAt(maxTT)
	if err != nil {
		return err
	}
	res.Gamma = g.gamma
	central := g.axisDist < earthRadAU
	switch {
	case central && g.umbra > 0:
		res.Kind = EclTotal | EclCentral
	case central && g.umbra <= 0:
		res.Kind = EclAnnular | EclCentral
	default:
		res.Kind = EclPartial | EclNoncentral
	}
	// A coarse depth measure: how deeply the penumbra overlaps Earth,
	// normalized to the penumbral diameter.
	res.MagMax = (g.penum + earthRadAU - g.axisDist) / (2 * g.penum)

	res.Times[0] = e.toUT(maxTT, snap)
	contacts := []struct {
		reach    float64
		beginIdx int
		endIdx   int
	}{
		{g.penum + earthRadAU, 2, 3},
	}
	if central {
		contacts = append(contacts, struct {
			reach    float64
			beginIdx int
			endIdx   int
		}{earthRadAU, 4, 5})
	}
	for _, c := range contacts {
		crossing := func(jd float64) (float64, error) {
			gg, err := e.solarGeomAt(jd)
			if err != nil {
				return 0, err
			}
			return gg.axisDist - c.reach, nil
		}
		v, err := crossing(maxTT)
		if err != nil {
			return err
		}
		if v >= 0 {
			continue
		}
		begin, err := bisect(crossing, maxTT-0.25, maxTT)
		if err != nil {
			return err
		}
		end, err := bisect(crossing, maxTT, maxTT+0.25)
		if err != nil {
			return err
		}
		res.Times[c.beginIdx] = e.toUT(begin, snap)
		res.Times[c.endIdx] = e.toUT(end, snap)
	}
	return nil
}

// LocalEclipse is the outcome of an observer-bound solar eclipse or
// occultation search. Times index 0 is the local maximum, 1/4 the first
// and last contact.
type LocalEclipse struct {
	Outcome
	Kind        int
	Times       [7]float64
	Magnitude   float64
	Obscuration float64
}

// SolarEclipseWhenLoc searches for the next solar eclipse visible at
// geo: the topocentric Sun and Moon discs must overlap with the Sun
// above the horizon.
func (e *Engine) SolarEclipseWhenLoc(jdUT float64, geo state.Observer, opts Options) (LocalEclipse, error) {
	return e.occultWhenLoc(jdUT, ephem.Sun, "", geo, opts, "solar-eclipse-local")
}

// OccultWhenLoc searches for the next occultation of a body or fixed
// star by the Moon as seen from geo.
func (e *Engine) OccultWhenLoc(jdUT float64, body ephem.Body, star string, geo state.Observer, opts Options) (LocalEclipse, error) {
	if body == ephem.Moon && star == "" {
		err := fmt.Errorf("%w: the Moon cannot occult itself", ephem.ErrUnknownBody)
		return LocalEclipse{Outcome: errOutcome(Outcome{}, err)}, err
	}
	return e.occultWhenLoc(jdUT, body, star, geo, opts, "occultation")
}

func (e *Engine) occultWhenLoc(jdUT float64, body ephem.Body, star string, geo state.Observer, opts Options, kind string) (LocalEclipse, error) {
	id, log := e.begin(kind, jdUT)
	res := LocalEclipse{Outcome: Outcome{TraceID: id, Status: ephem.StatusOK}}
	if geo.LatDeg < -90 || geo.LatDeg > 90 {
		err := fmt.Errorf("%w: latitude %v", ErrBadGeo, geo.LatDeg)
		res.Outcome = errOutcome(res.Outcome, err)
		return res, err
	}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = 240
	}
	e = e.withObserver(geo)
	snap := e.st.Snapshot()
	jdTT, _ := timescale.UTToTT(jdUT, snap)

	// overlap < 0 while the discs intersect.
	overlap := func(jd float64) (float64, error) {
		sep, rT, rM, err := e.topoSep(jd, body, star)
		if err != nil {
			return 0, err
		}
		return sep - (rT + rM), nil
	}

	// Conjunctions in longitude are candidate moments; the Moon laps a
	// slow target about monthly.
	t := jdTT
	res.State = Seeking
	for i := 0; i < opts.MaxSteps; i++ {
		res.Steps++
		conj, err := e.nextConjWith(t, body, star, opts.Backward)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		minTT, err := minimize(func(jd float64) (float64, error) {
			sep, _, _, err := e.topoSep(jd, body, star)
			return sep, err
		}, conj-1, conj+1)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		v, err := overlap(minTT)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		visible, err := e.aboveHorizon(minTT, body, star, geo, snap)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		if v < 0 && visible {
			res.State = Refining
			if err := e.refineLocal(minTT, body, star, overlap, &res, snap); err != nil {
				res.Outcome = errOutcome(res.Outcome, err)
				return res, err
			}
			res.State = Found
			log.Debug("search found", "jd_max", res.Times[0], "steps", res.Steps)
			return res, nil
		}
		if opts.Backward {
			t = conj - lunationStep
		} else {
			t = conj + lunationStep
		}
	}
	res.State = Exhausted
	res.Message = fmt.Sprintf("no event within %d lunations", opts.MaxSteps)
	log.Debug("search exhausted", "steps", res.Steps)
	return res, nil
}

// withObserver derives an engine whose context carries geo as the
// topocentric observer, leaving the shared context untouched so
// concurrent searches never see each other's observers.
func (e *Engine) withObserver(geo state.Observer) *Engine {
	st := e.st.Clone()
	st.SetTopo(geo.LonDeg, geo.LatDeg, geo.AltM)
	return &Engine{st: st, log: e.log}
}

// topoSep returns the topocentric separation between the Moon and the
// target, plus both apparent semidiameters, degrees.
func (e *Engine) topoSep(jdTT float64, body ephem.Body, star string) (sep, rTarget, rMoon float64, err error) {
	moon, err := position.Calc(e.st, jdTT, ephem.Moon, ephem.FlagTopo)
	if err != nil {
		return 0, 0, 0, err
	}
	var lon, lat, dist float64
	if star != "" {
		r, _, err := position.FixStar(e.st, star, jdTT, ephem.FlagTopo)
		if err != nil {
			return 0, 0, 0, err
		}
		lon, lat, dist = r.Data[0], r.Data[1], 0
	} else {
		r, err := position.Calc(e.st, jdTT, body, ephem.FlagTopo)
		if err != nil {
			return 0, 0, 0, err
		}
		lon, lat, dist = r.Data[0], r.Data[1], r.Data[2]
	}
	sep = sepDeg(moon.Data[0], moon.Data[1], lon, lat)
	rMoon = semidiameterDeg(ephem.Moon, moon.Data[2])
	if star == "" {
		rTarget = semidiameterDeg(body, dist)
	}
	return sep, rTarget, rMoon, nil
}

// nextConjWith finds the Moon's next conjunction in longitude with the
// target.
func (e *Engine) nextConjWith(jdTT float64, body ephem.Body, star string, backward bool) (float64, error) {
	f := func(jd float64) (float64, error) {
		moon, err := position.Calc(e.st, jd, ephem.Moon, 0)
		if err != nil {
			return 0, err
		}
		var lon float64
		if star != "" {
			r, _, err := position.FixStar(e.st, star, jd, 0)
			if err != nil {
				return 0, err
			}
			lon = r.Data[0]
		} else {
			r, err := position.Calc(e.st, jd, body, 0)
			if err != nil {
				return 0, err
			}
			lon = r.Data[0]
		}
		return angle.Difdeg2n(moon.Data[0]-lon, 0), nil
	}
	var out Outcome
	t := jdTT
	for {
		lo, hi, err := bracket(f, t, 1.0, 40, backward, &out)
		if err != nil {
			return 0, err
		}
		if out.State == Exhausted {
			return 0, fmt.Errorf("conjunction bracket not found near jd %.1f", jdTT)
		}
		v, err := f(lo)
		if err != nil {
			return 0, err
		}
		if math.Abs(v) < 90 {
			return bisect(f, lo, hi)
		}
		if backward {
			t = lo
		} else {
			t = hi
		}
	}
}

func (e *Engine) aboveHorizon(jdTT float64, body ephem.Body, star string, geo state.Observer, snap *state.Snapshot) (bool, error) {
	jdUT, _ := timescale.TTToUT(jdTT, snap)
	var lon, lat, dist float64
	if star != "" {
		r, _, err := position.FixStar(e.st, star, jdTT, 0)
		if err != nil {
			return false, err
		}
		lon, lat, dist = r.Data[0], r.Data[1], 1
	} else {
		r, err := position.Calc(e.st, jdTT, body, 0)
		if err != nil {
			return false, err
		}
		lon, lat, dist = r.Data[0], r.Data[1], r.Data[2]
	}
	hor := frame.AzAlt(jdUT, frame.Ecliptic, geo, 0, 0, [3]float64{lon, lat, dist}, snap)
	return hor.TrueAltDeg > -1, nil
}

// refineLocal pins the local maximum and the first and last contacts
// around a confirmed overlap.
func (e *Engine) refineLocal(minTT float64, body ephem.Body, star string, overlap scanFn, res *LocalEclipse, snap *state.Snapshot) error {
	sep, rT, rM, err := e.topoSep(minTT, body, star)
	if err != nil {
		return err
	}
	res.Times[0] = e.toUT(minTT, snap)
	if rT > 0 {
		res.Magnitude = (rT + rM - sep) / (2 * rT)
		res.Obscuration = obscuration(rT, rM, sep)
		switch {
		case sep <= rM-rT:
			res.Kind = EclTotal
		case sep <= rT-rM:
			res.Kind = EclAnnular
		default:
			res.Kind = EclPartial
		}
		if res.Magnitude > 1 {
			res.Magnitude = 1
		}
	} else {
		// Point target: covered or not.
		res.Magnitude = 1
		res.Obscuration = 1
		res.Kind = EclTotal
	}

	begin, err := bisect(overlap, minTT-0.25, minTT)
	if err != nil {
		return err
	}
	end, err := bisect(overlap, minTT, minTT+0.25)
	if err != nil {
		return err
	}
	res.Times[1] = e.toUT(begin, snap)
	res.Times[4] = e.toUT(end, snap)
	return nil
}

// obscuration is the fraction of the target disc area covered by a disc
// of radius rM at center separation sep.
func obscuration(rT, rM, sep float64) float64 {
	if sep >= rT+rM {
		return 0
	}
	if sep <= math.Abs(rT-rM) {
		if rM >= rT {
			return 1
		}
		return (rM * rM) / (rT * rT)
	}
	// Lens area of two intersecting circles.
	d := sep
	a1 := rT * rT * math.Acos((d*d+rT*rT-rM*rM)/(2*d*rT))
	a2 := rM * rM * math.Acos((d*d+rM*rM-rT*rT)/(2*d*rM))
	a3 := 0.5 * math.Sqrt((-d+rT+rM)*(d+rT-rM)*(d-rT+rM)*(d+rT+rM))
	return (a1 + a2 - a3) / (math.Pi * rT * rT)
}

// SolarEclipseHow evaluates the local circumstances of a solar eclipse
// at one moment: magnitude, diameter ratio, obscuration and the Sun's
// horizontal position.
type SolarAttr struct {
	Magnitude   float64
	Ratio       float64 // lunar to solar apparent diameter
	Obscuration float64
	Separation  float64
	Azimuth     float64
	TrueAlt     float64
	ApparentAlt float64
	Status      ephem.Status
	Message     string
}

func (e *Engine) SolarEclipseHow(jdUT float64, geo state.Observer) (SolarAttr, error) {
	var attr SolarAttr
	if geo.LatDeg < -90 || geo.LatDeg > 90 {
		return attr, fmt.Errorf("%w: latitude %v", ErrBadGeo, geo.LatDeg)
	}
	e = e.withObserver(geo)
	snap := e.st.Snapshot()
	jdTT, _ := timescale.UTToTT(jdUT, snap)

	sep, rSun, rMoon, err := e.topoSep(jdTT, ephem.Sun, "")
	if err != nil {
		return attr, err
	}
	attr.Separation = sep
	attr.Ratio = rMoon / rSun
	attr.Magnitude = (rSun + rMoon - sep) / (2 * rSun)
	if attr.Magnitude < 0 {
		attr.Magnitude = 0
	} else if attr.Magnitude > 1 {
		attr.Magnitude = 1
	}
	attr.Obscuration = obscuration(rSun, rMoon, sep)

	sun, err := position.CalcUT(e.st, jdUT, ephem.Sun, 0)
	if err != nil {
		return attr, err
	}
	hor := frame.AzAlt(jdUT, frame.Ecliptic, geo, 0, 0, [3]float64{sun.Data[0], sun.Data[1], sun.Data[2]}, snap)
	attr.Azimuth = hor.AzimuthDeg
	attr.TrueAlt = hor.TrueAltDeg
	attr.ApparentAlt = hor.AppAltDeg
	attr.Status = ephem.StatusOK
	if attr.Obscuration == 0 {
		attr.Status = ephem.StatusWarn
		attr.Message = "no solar eclipse in progress at this place and time"
	}
	return attr, nil
}
