// Package position computes apparent, astrometric and geometric body
// positions from raw ephemeris state vectors: light-time, aberration,
// gravitational deflection, precession, nutation, frame shifts and the
// sidereal-zodiac offset, with optional speed components.
package position

import (
	"fmt"
	"math"
	"strings"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/frame"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// lightTimeAUDay is the light travel time for one AU, in days.
const lightTimeAUDay = 0.0057755183

// sunGravAU is 2*GM_sun/c^2 in AU, the deflection scale at the solar limb.
const sunGravAU = 1.974125e-8

// speedStep is the differencing interval (days) for output speeds.
const speedStep = 0.05

// Result is the outcome of one position calculation. Data layout depends
// on the flags: ecliptic (lon, lat, dist) by default, equatorial
// (RA, dec, dist) with the equatorial flag, cartesian (x, y, z) with the
// XYZ flag; slots 3..5 hold the daily speeds of slots 0..2 when speed is
// requested and zeros otherwise. Angles are degrees unless the radians
// flag is set; distances are AU.
type Result struct {
	Data    [6]float64
	Flags   ephem.Flags
	Status  ephem.Status
	Message string
}

// Calc computes the position of body at jdTT under the given flags.
// Soft degradations (backend substitution, flag corrections) surface in
// Result.Status and Result.Message; hard failures return an error wrapping
// one of the ephem sentinel errors.
func Calc(ctx *state.Context, jdTT float64, body ephem.Body, fl ephem.Flags) (Result, error) {
	snap := ctx.Snapshot()
	var warns []string

	f, warn := fl.Normalize()
	if warn != "" {
		warns = append(warns, warn)
	}
	if snap.SiderealSet {
		f |= ephem.FlagSidereal
	}
	if !body.Valid() {
		err := fmt.Errorf("%w: %d", ephem.ErrUnknownBody, int(body))
		return errResult(f, err), err
	}

	if body == ephem.EclNut {
		return eclNutResult(jdTT, f, warns), nil
	}

	prov, backend, warn := ephem.Resolve(f.Backend())
	if warn != "" {
		warns = append(warns, warn)
		f = f.WithBackend(backend)
	}

	pol, err := computePolar(snap, prov, jdTT, body, f)
	if err != nil {
		return errResult(f, err), err
	}

	res := Result{Flags: f}
	res.Data[0], res.Data[1], res.Data[2] = pol[0], pol[1], pol[2]

	if f&ephem.FlagSpeed != 0 {
		p1, err := computePolar(snap, prov, jdTT-speedStep, body, f)
		if err != nil {
			return errResult(f, err), err
		}
		p2, err := computePolar(snap, prov, jdTT+speedStep, body, f)
		if err != nil {
			return errResult(f, err), err
		}
		res.Data[3], res.Data[4], res.Data[5] = polarRates(p1, p2, f)
	}

	formatAngles(&res.Data, f)
	res.Status, res.Message = joinWarns(warns)
	return res, nil
}

// CalcUT is Calc with a universal-time argument. Delta-T conversion uses
// the snapshot's override or tidal acceleration when set.
func CalcUT(ctx *state.Context, jdUT float64, body ephem.Body, fl ephem.Flags) (Result, error) {
	snap := ctx.Snapshot()
	jdTT, warn := timescale.UTToTT(jdUT, snap)
	res, err := Calc(ctx, jdTT, body, fl)
	if warn != "" && err == nil {
		res.Status, res.Message = appendWarn(res.Status, res.Message, warn)
	}
	return res, err
}

// computePolar runs the full reduction for one instant and returns polar
// coordinates: (lon, lat, distAU) ecliptic, or (RA, dec, distAU) when the
// equatorial flag is set, always in degrees. Cartesian output is handled
// by the caller from the same polar triple.
func computePolar(snap *state.Snapshot, prov ephem.Provider, jdTT float64, body ephem.Body, f ephem.Flags) ([3]float64, error) {
	earth, err := prov.State(jdTT, ephem.Earth)
	if err != nil {
		return [3]float64{}, err
	}

	geocentric := f&(ephem.FlagHelio|ephem.FlagBary) == 0

	// The observer offset is evaluated once at reception time and
	// applied after every body fetch, so the light-time distance below
	// is itself observer-relative. For the Moon the offset is the
	// dominant term, about one degree of parallax at the horizon.
	var obs [3]float64
	topo := f&ephem.FlagTopo != 0 && geocentric
	if topo {
		obs, err = observerJ2000(snap, jdTT)
		if err != nil {
			return [3]float64{}, err
		}
	}

	rel, err := centerRelative(prov, jdTT, body, f, earth)
	if err != nil {
		return [3]float64{}, err
	}
	if topo {
		for k := 0; k < 3; k++ {
			rel[k] -= obs[k]
		}
	}

	// Light time: re-fetch the body at emission time.
	if f&ephem.FlagTruePos == 0 && body != ephem.Sun {
		for i := 0; i < 2; i++ {
			tau := vnorm(rel) * lightTimeAUDay
			past, err := centerRelative(prov, jdTT-tau, body, f, earth)
			if err != nil {
				return [3]float64{}, err
			}
			rel = past
			if topo {
				for k := 0; k < 3; k++ {
					rel[k] -= obs[k]
				}
			}
		}
	}

	if geocentric && f&ephem.FlagTruePos == 0 {
		if f&ephem.FlagNoAberr == 0 {
			rel = aberrate(rel, earth.Vel)
		}
		if f&ephem.FlagNoGDefl == 0 && body != ephem.Sun {
			rel = deflect(rel, earth.Pos)
		}
	}

	pol := reduceFrame(rel, jdTT, f)
	if f&ephem.FlagSidereal != 0 && f&ephem.FlagEquatorial == 0 {
		pol[0] = angle.Degnorm(pol[0] - ayanamsa(jdTT, snap))
	}
	return pol, nil
}

// centerRelative returns the body position relative to the requested
// center (geocenter by default) in ecliptic J2000 cartesian AU.
func centerRelative(prov ephem.Provider, jdTT float64, body ephem.Body, f ephem.Flags, earth ephem.StateVector) ([3]float64, error) {
	st, err := prov.State(jdTT, body)
	if err != nil {
		return [3]float64{}, err
	}

	// Heliocentric position of the body.
	helio := st.Pos
	if st.Frame == ephem.Geocentric {
		for k := 0; k < 3; k++ {
			helio[k] += earth.Pos[k]
		}
	}

	switch {
	case f&ephem.FlagHelio != 0:
		return helio, nil
	case f&ephem.FlagBary != 0:
		sun := sunBarycentric(prov, jdTT)
		for k := 0; k < 3; k++ {
			helio[k] += sun[k]
		}
		return helio, nil
	default:
		var geo [3]float64
		if st.Frame == ephem.Geocentric {
			return st.Pos, nil
		}
		for k := 0; k < 3; k++ {
			geo[k] = helio[k] - earth.Pos[k]
		}
		return geo, nil
	}
}

// Inverse mass ratios Sun/planet for the bodies that dominate the solar
// barycenter offset.
var baryMasses = []struct {
	body ephem.Body
	invM float64
}{
	{ephem.Jupiter, 1047.3486},
	{ephem.Saturn, 3497.898},
	{ephem.Uranus, 22902.98},
	{ephem.Neptune, 19412.24},
}

// sunBarycentric approximates the Sun's position relative to the solar
// system barycenter from the giant planets.
func sunBarycentric(prov ephem.Provider, jdTT float64) [3]float64 {
	var sun [3]float64
	for _, m := range baryMasses {
		st, err := prov.State(jdTT, m.body)
		if err != nil {
			continue
		}
		w := 1.0 / (m.invM + 1.0)
		for k := 0; k < 3; k++ {
			sun[k] -= st.Pos[k] * w
		}
	}
	// sun holds -sum(w*r); the barycentric Sun is the negation.
	for k := 0; k < 3; k++ {
		sun[k] = -sun[k]
	}
	return sun
}

// aberrate applies annual aberration, preserving the geometric distance.
func aberrate(rel [3]float64, earthVel [3]float64) [3]float64 {
	d := vnorm(rel)
	if d == 0 {
		return rel
	}
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = rel[k] + d*lightTimeAUDay*earthVel[k]
	}
	scale := d / vnorm(out)
	for k := 0; k < 3; k++ {
		out[k] *= scale
	}
	return out
}

// deflect bends the apparent direction by solar gravity, preserving the
// geometric distance.
func deflect(rel [3]float64, earthHelio [3]float64) [3]float64 {
	d := vnorm(rel)
	if d == 0 {
		return rel
	}
	// Sun as seen from the observer.
	var toSun [3]float64
	for k := 0; k < 3; k++ {
		toSun[k] = -earthHelio[k]
	}
	eDist := vnorm(toSun)
	if eDist == 0 {
		return rel
	}
	// Sun-to-body vector.
	var sb [3]float64
	for k := 0; k < 3; k++ {
		sb[k] = rel[k] - toSun[k]
	}
	sbDist := vnorm(sb)
	if sbDist == 0 {
		return rel
	}

	var p, e, q [3]float64
	for k := 0; k < 3; k++ {
		p[k] = rel[k] / d
		e[k] = toSun[k] / eDist
		q[k] = sb[k] / sbDist
	}
	g1 := sunGravAU / eDist
	qe := dot(q, e)
	if qe <= -1+1e-9 {
		return rel // body behind the Sun, formula degenerates
	}
	pq := dot(p, q)
	pe := dot(p, e)
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = p[k] + g1/(1+qe)*(pq*e[k]-pe*q[k])
	}
	scale := d / vnorm(out)
	for k := 0; k < 3; k++ {
		out[k] = out[k] * scale
	}
	return out
}

// reduceFrame takes an ecliptic J2000 cartesian vector and produces the
// output polar triple per the precession/nutation/equatorial flags:
// always degrees and AU here, radians and cartesian are applied later.
func reduceFrame(rel [3]float64, jdTT float64, f ephem.Flags) [3]float64 {
	pol := frame.CartToPol(rel)

	epsOut := timescale.MeanObliquity(timescale.J2000)
	if f&ephem.FlagJ2000 == 0 {
		pol = frame.PrecessEcl(pol, jdTT, frame.J2000ToDate)
		epsOut = timescale.MeanObliquity(jdTT)
		if f&ephem.FlagNoNut == 0 {
			dpsi, deps := timescale.Nutation(jdTT)
			pol[0] = angle.Degnorm(pol[0] + dpsi)
			epsOut += deps
		}
	}

	if f&ephem.FlagEquatorial != 0 {
		pol = frame.Cotrans(pol, -epsOut)
	}
	return pol
}

// observerJ2000 returns the observer's geocentric position in the
// ecliptic J2000 frame, AU. The observer is located from the snapshot's
// topocentric setting; sidereal time places the Earth-fixed position in
// the celestial frame.
func observerJ2000(snap *state.Snapshot, jdTT float64) ([3]float64, error) {
	if !snap.TopoSet {
		return [3]float64{}, fmt.Errorf("%w: topocentric flag without observer position", ephem.ErrDataUnavailable)
	}
	jdUT, _ := timescale.TTToUT(jdTT, snap)
	gastDeg := timescale.SiderealTime(jdUT, snap) * 15.0

	ecef := geodeticECEF(snap.Observer)
	lonEq := angle.Degnorm(gastDeg + snap.Observer.LonDeg)

	// Rotate the meridian-plane position to the equinox frame of date.
	rxy := math.Hypot(ecef[0], ecef[1])
	eq := [3]float64{
		rxy * angle.Cosd(lonEq),
		rxy * angle.Sind(lonEq),
		ecef[2],
	}
	const auM = 1.495978707e11
	for k := 0; k < 3; k++ {
		eq[k] /= auM
	}

	// Equatorial of date -> ecliptic of date -> ecliptic J2000.
	epsTrue := timescale.TrueObliquity(jdTT)
	polEcl := frame.Cotrans(frame.CartToPol(eq), epsTrue)
	polJ2000 := frame.PrecessEcl(polEcl, jdTT, frame.DateToJ2000)
	return frame.PolToCart(polJ2000), nil
}

// geodeticECEF converts geodetic observer coordinates to Earth-fixed
// cartesian meters on the WGS-84 ellipsoid, with the x axis through the
// observer's meridian plane (longitude handled by the caller).
func geodeticECEF(o state.Observer) [3]float64 {
	const (
		a = 6378137.0
		f = 1.0 / 298.257223563
	)
	e2 := f * (2 - f)
	sinLat := angle.Sind(o.LatDeg)
	cosLat := angle.Cosd(o.LatDeg)
	n := a / math.Sqrt(1-e2*sinLat*sinLat)
	return [3]float64{
		(n + o.AltM) * cosLat,
		0,
		(n*(1-e2) + o.AltM) * sinLat,
	}
}

// eclNutResult serves the ecliptic/nutation pseudo-body.
func eclNutResult(jdTT float64, f ephem.Flags, warns []string) Result {
	dpsi, deps := timescale.Nutation(jdTT)
	meanEps := timescale.MeanObliquity(jdTT)
	res := Result{Flags: f}
	res.Data[0] = meanEps + deps
	res.Data[1] = meanEps
	res.Data[2] = dpsi
	res.Data[3] = deps
	if f&ephem.FlagRadians != 0 {
		for k := 0; k < 4; k++ {
			res.Data[k] *= angle.DegToRad
		}
	}
	res.Status, res.Message = joinWarns(warns)
	return res
}

// polarRates turns two bracketing polar triples into daily rates, taking
// the short way around for the angular components.
func polarRates(p1, p2 [3]float64, f ephem.Flags) (dlon, dlat, ddist float64) {
	dt := 2 * speedStep
	dlon = angle.Difdeg2n(p2[0], p1[0]) / dt
	dlat = (p2[1] - p1[1]) / dt
	ddist = (p2[2] - p1[2]) / dt
	return dlon, dlat, ddist
}

// formatAngles applies the sidereal offset, cartesian conversion and
// radians conversion to a finished Data block.
func formatAngles(data *[6]float64, f ephem.Flags) {
	if f&ephem.FlagXYZ != 0 {
		pos := frame.PolToCart([3]float64{data[0], data[1], data[2]})
		vel := frame.PolSpToCartSp([3]float64{data[0], data[1], data[2]},
			[3]float64{data[3], data[4], data[5]})
		data[0], data[1], data[2] = pos[0], pos[1], pos[2]
		data[3], data[4], data[5] = vel[0], vel[1], vel[2]
		return
	}
	if f&ephem.FlagRadians != 0 {
		for k := 0; k < 2; k++ {
			data[k] *= angle.DegToRad
			data[k+3] *= angle.DegToRad
		}
	}
}

func errResult(f ephem.Flags, err error) Result {
	return Result{Flags: f, Status: ephem.StatusErr, Message: err.Error()}
}

func joinWarns(warns []string) (ephem.Status, string) {
	if len(warns) == 0 {
		return ephem.StatusOK, ""
	}
	return ephem.StatusWarn, strings.Join(warns, "; ")
}

func appendWarn(s ephem.Status, msg, warn string) (ephem.Status, string) {
	if msg == "" {
		return ephem.StatusWarn, warn
	}
	return ephem.StatusWarn, msg + "; " + warn
}

func vnorm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
