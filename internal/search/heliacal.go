package search

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/frame"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/state"
)

// HeliacalEvent selects which visibility transition to search for.
type HeliacalEvent int

const (
	// MorningFirst is the heliacal rising: the first dawn on which the
	// object becomes visible after its conjunction with the Sun.
	MorningFirst HeliacalEvent = iota + 1
	// MorningLast is the last dawn visibility before the object is lost
	// in daylight.
	MorningLast
	// EveningFirst is the first dusk visibility.
	EveningFirst
	// EveningLast is the heliacal setting: the last dusk on which the
	// object remains visible.
	EveningLast
)

func (ev HeliacalEvent) String() string {
	switch ev {
	case MorningFirst:
		return "morning first"
	case MorningLast:
		return "morning last"
	case EveningFirst:
		return "evening first"
	case EveningLast:
		return "evening last"
	}
	return fmt.Sprintf("heliacal(%d)", int(ev))
}

// Atmosphere carries the observing-site atmosphere for the visibility
// model. Zero pressure selects the standard atmosphere.
type Atmosphere struct {
	Pressure    float64 // hPa
	Temperature float64 // deg C
	Humidity    float64 // relative, 0..1
}

// ObserverModel describes the observer for the visibility limit. A zero
// value is a standard naked-eye observer.
type ObserverModel struct {
	Age           float64 // years; 0 selects the reference age
	Magnification float64 // optical aid; <= 1 means naked eye
}

// ErrHeliacalDomain reports a geographic latitude outside the validity
// band of the visibility model.
var ErrHeliacalDomain = errors.New("search: heliacal model limited to latitudes within 60 degrees")

// HeliacalResult is the visibility window on the event day, Julian Day
// UT: first moment the object is visible, the optimum and the last
// moment. Meaningful only when the state is Found.
type HeliacalResult struct {
	Outcome
	Start   float64
	Optimum float64
	End     float64
}

// HeliacalPheno reports the quantities entering the visibility decision
// at one moment.
type HeliacalPheno struct {
	AltObject   float64 // true altitude of the object, degrees
	AltSun      float64
	AzObject    float64
	AzSun       float64
	ArcVis      float64 // altitude difference object minus Sun
	RequiredArc float64 // visibility limit for this object and observer
	Magnitude   float64
	Visible     bool
}

// planetByName resolves the bodies the heliacal model knows; anything
// else is treated as a fixed-star name.
var planetByName = map[string]ephem.Body{
	"moon": ephem.Moon, "mercury": ephem.Mercury, "venus": ephem.Venus,
	"mars": ephem.Mars, "jupiter": ephem.Jupiter, "saturn": ephem.Saturn,
}

// arcusVisionis is the altitude gap above the Sun an object needs to be
// seen in twilight, after Schoch's naked-eye values.
var arcusVisionis = map[ephem.Body]float64{
	ephem.Moon:    10.0,
	ephem.Mercury: 13.0,
	ephem.Venus:   5.7,
	ephem.Mars:    13.2,
	ephem.Jupiter: 9.3,
	ephem.Saturn:  9.9,
}

// heliacalStep samples the twilight margin every four minutes.
const heliacalStep = 1.0 / 360

// Heliacal searches from jdUT for the requested visibility transition
// of the named object (a planet or a catalog star) at geo. MaxSteps
// counts days; the default spans about fourteen months, enough for any
// synodic period but Venus's superior conjunction gaps.
func (e *Engine) Heliacal(jdUT float64, geo state.Observer, atm Atmosphere, obs ObserverModel, name string, ev HeliacalEvent, opts Options) (HeliacalResult, error) {
	id, log := e.begin("heliacal", jdUT)
	res := HeliacalResult{Outcome: Outcome{TraceID: id, Status: ephem.StatusOK}}

	obj, err := e.heliacalObject(name, geo)
	if err != nil {
		res.Outcome = errOutcome(res.Outcome, err)
		return res, err
	}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = 430
	}
	morning := ev == MorningFirst || ev == MorningLast

	day := math.Floor(jdUT-0.5) + 0.5
	prev, _, err := e.dayVisibility(day-1, geo, atm, obs, obj, morning)
	if err != nil {
		res.Outcome = errOutcome(res.Outcome, err)
		return res, err
	}
	res.State = Seeking
	var lastVisible HeliacalResult
	for i := 0; i < opts.MaxSteps; i++ {
		res.Steps++
		visible, window, err := e.dayVisibility(day, geo, atm, obs, obj, morning)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		switch ev {
		case MorningFirst, EveningFirst:
			if visible && !prev {
				res.State = Found
				res.Start, res.Optimum, res.End = window[0], window[1], window[2]
				log.Debug("search found", "jd", res.Optimum, "steps", res.Steps)
				return res, nil
			}
		case MorningLast, EveningLast:
			if !visible && prev {
				res.State = Found
				res.Start = lastVisible.Start
				res.Optimum = lastVisible.Optimum
				res.End = lastVisible.End
				log.Debug("search found", "jd", res.Optimum, "steps", res.Steps)
				return res, nil
			}
		}
		if visible {
			lastVisible.Start, lastVisible.Optimum, lastVisible.End = window[0], window[1], window[2]
		}
		prev = visible
		day++
	}
	res.State = Exhausted
	res.Message = fmt.Sprintf("no %s event within %d days", ev, opts.MaxSteps)
	log.Debug("search exhausted", "steps", res.Steps)
	return res, nil
}

// HeliacalPhenoUT evaluates the visibility model at one moment without
// searching.
func (e *Engine) HeliacalPhenoUT(jdUT float64, geo state.Observer, atm Atmosphere, obs ObserverModel, name string) (HeliacalPheno, error) {
	obj, err := e.heliacalObject(name, geo)
	if err != nil {
		return HeliacalPheno{}, err
	}
	return e.phenoAt(jdUT, geo, atm, obs, obj)
}

// heliacalObject is the resolved search target plus its visibility
// limit.
type heliacalObject struct {
	body   ephem.Body
	star   string
	reqArc float64
	mag    float64
}

func (e *Engine) heliacalObject(name string, geo state.Observer) (heliacalObject, error) {
	if geo.LatDeg < -60 || geo.LatDeg > 60 {
		return heliacalObject{}, fmt.Errorf("%w: latitude %v", ErrHeliacalDomain, geo.LatDeg)
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if body, ok := planetByName[key]; ok {
		return heliacalObject{body: body, reqArc: arcusVisionis[body]}, nil
	}
	star, err := ephem.SearchStar(name)
	if err != nil {
		return heliacalObject{}, err
	}
	// Fainter stars need darker skies; one magnitude costs roughly one
	// degree of solar depression.
	req := 9.0 + star.Mag
	if req < 7 {
		req = 7
	}
	return heliacalObject{star: star.CanonicalName(), reqArc: req, mag: star.Mag}, nil
}

// requiredArc adjusts the object's base visibility limit for the
// observer: aging eyes need a darker sky, optical aid relaxes it.
func requiredArc(obj heliacalObject, obs ObserverModel) float64 {
	req := obj.reqArc
	if obs.Age > 36 {
		req += 0.01 * (obs.Age - 36)
	}
	if obs.Magnification > 1 {
		req -= math.Min(2, math.Log10(obs.Magnification)*2)
	}
	return req
}

func (e *Engine) phenoAt(jdUT float64, geo state.Observer, atm Atmosphere, obs ObserverModel, obj heliacalObject) (HeliacalPheno, error) {
	var ph HeliacalPheno
	snap := e.st.Snapshot()

	sun, err := position.CalcUT(e.st, jdUT, ephem.Sun, 0)
	if err != nil {
		return ph, err
	}
	sunHor := frame.AzAlt(jdUT, frame.Ecliptic, geo, atm.Pressure, atm.Temperature, [3]float64{sun.Data[0], sun.Data[1], sun.Data[2]}, snap)

	var objHor frame.Horizontal
	if obj.star != "" {
		r, _, err := position.FixStarUT(e.st, obj.star, jdUT, 0)
		if err != nil {
			return ph, err
		}
		objHor = frame.AzAlt(jdUT, frame.Ecliptic, geo, atm.Pressure, atm.Temperature, [3]float64{r.Data[0], r.Data[1], r.Data[2]}, snap)
		ph.Magnitude = obj.mag
	} else {
		r, err := position.CalcUT(e.st, jdUT, obj.body, 0)
		if err != nil {
			return ph, err
		}
		objHor = frame.AzAlt(jdUT, frame.Ecliptic, geo, atm.Pressure, atm.Temperature, [3]float64{r.Data[0], r.Data[1], r.Data[2]}, snap)
	}

	ph.AltObject = objHor.TrueAltDeg
	ph.AltSun = sunHor.TrueAltDeg
	ph.AzObject = objHor.AzimuthDeg
	ph.AzSun = sunHor.AzimuthDeg
	ph.ArcVis = ph.AltObject - ph.AltSun
	ph.RequiredArc = requiredArc(obj, obs)
	ph.Visible = visMargin(ph) > 0
	return ph, nil
}

// visMargin is positive when the object is high enough, the sky dark
// enough and the altitude gap over the Sun wide enough, all at once.
func visMargin(ph HeliacalPheno) float64 {
	return math.Min(ph.AltObject-2,
		math.Min(-ph.AltSun-6, ph.ArcVis-ph.RequiredArc))
}

// dayVisibility samples the twilight side of one day and reports
// whether the object is visible, with the window [start, optimum, end]
// when it is. Days begin at jd0 (a midnight-anchored Julian Day).
func (e *Engine) dayVisibility(jd0 float64, geo state.Observer, atm Atmosphere, obs ObserverModel, obj heliacalObject, morning bool) (bool, [3]float64, error) {
	var window [3]float64
	bestMargin := math.Inf(-1)
	visible := false

	for t := jd0; t < jd0+1; t += heliacalStep {
		ph, err := e.phenoAt(t, geo, atm, obs, obj)
		if err != nil {
			return false, window, err
		}
		// Keep only the requested side of the night: dawn has the Sun
		// climbing, dusk has it sinking.
		next, err := e.sunAlt(t+heliacalStep/4, geo, atm)
		if err != nil {
			return false, window, err
		}
		rising := next > ph.AltSun
		if rising != morning {
			continue
		}
		m := visMargin(ph)
		if m > 0 {
			if !visible {
				window[0] = t
				visible = true
			}
			window[2] = t
		}
		if m > bestMargin {
			bestMargin = m
			window[1] = t
		}
	}
	return visible, window, nil
}

func (e *Engine) sunAlt(jdUT float64, geo state.Observer, atm Atmosphere) (float64, error) {
	sun, err := position.CalcUT(e.st, jdUT, ephem.Sun, 0)
	if err != nil {
		return 0, err
	}
	hor := frame.AzAlt(jdUT, frame.Ecliptic, geo, atm.Pressure, atm.Temperature, [3]float64{sun.Data[0], sun.Data[1], sun.Data[2]}, e.st.Snapshot())
	return hor.TrueAltDeg, nil
}
