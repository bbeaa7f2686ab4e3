package search

import (
	"errors"
	"fmt"
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/frame"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// Event selects the rise/transit phenomenon to search for.
type Event int

const (
	Rise Event = iota
	Set
	Transit      // upper meridian crossing
	LowerTransit // lower meridian crossing
)

func (ev Event) String() string {
	switch ev {
	case Rise:
		return "rise"
	case Set:
		return "set"
	case Transit:
		return "transit"
	case LowerTransit:
		return "lower transit"
	}
	return fmt.Sprintf("event(%d)", int(ev))
}

// ErrBadGeo reports an observer position outside the valid range.
var ErrBadGeo = errors.New("search: geographic position out of range")

// TimeResult is the outcome of a rise/transit search. JD is the event
// time as Julian Day UT, meaningful only when the state is Found.
type TimeResult struct {
	Outcome
	JD float64
}

// riseStep is the coarse scan increment, ten minutes of time.
const riseStep = 1.0 / 144

// RiseTrans finds the next (or previous, with Backward) rise, set or
// meridian transit of a body after jdUT as seen from geo. Star names a
// fixed star and takes precedence over body when non-empty. Rise and
// set are timed on the upper limb crossing the refracted horizon unless
// the options say otherwise; a body that never crosses the horizon
// within the step bound yields an Exhausted outcome.
func (e *Engine) RiseTrans(jdUT float64, body ephem.Body, star string, geo state.Observer, ev Event, opts Options) (TimeResult, error) {
	id, log := e.begin("risetrans", jdUT)
	res := TimeResult{Outcome: Outcome{TraceID: id, Status: ephem.StatusOK}}

	if opts.MaxSteps == 0 {
		opts.MaxSteps = 2 * 144 // two days of ten-minute steps
	}

	f, err := e.riseFn(body, star, geo, ev, opts)
	if err != nil {
		res.Outcome = errOutcome(res.Outcome, err)
		return res, err
	}

	// A sign change of the altitude function brackets both rises and
	// sets; a sign change of the hour-angle offset also brackets the
	// opposite meridian crossing, where the angle wraps. Accept only
	// the crossing searched for and keep scanning past the rest.
	accept := func(lo, hi float64) (bool, error) {
		switch ev {
		case Rise, Set:
			rising, err := crossingRises(f, lo, hi)
			return rising == (ev == Rise), err
		default:
			v, err := f(lo)
			if err != nil {
				return false, err
			}
			return math.Abs(v) < 90, nil
		}
	}

	start := jdUT
	var lo, hi float64
	for {
		remaining := opts.MaxSteps - res.Steps
		if remaining <= 0 {
			res.State = Exhausted
			break
		}
		lo, hi, err = bracket(f, start, riseStep, remaining, opts.Backward, &res.Outcome)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		if res.State == Exhausted {
			break
		}
		ok, err := accept(lo, hi)
		if err != nil {
			res.Outcome = errOutcome(res.Outcome, err)
			return res, err
		}
		if ok {
			break
		}
		if opts.Backward {
			start = lo
		} else {
			start = hi
		}
	}
	if res.State == Exhausted {
		res.Message = fmt.Sprintf("no %s within %d steps", ev, opts.MaxSteps)
		log.Debug("search exhausted", "steps", res.Steps)
		return res, nil
	}

	res.State = Refining
	jd, err := bisect(f, lo, hi)
	if err != nil {
		res.Outcome = errOutcome(res.Outcome, err)
		return res, err
	}
	res.State = Found
	res.JD = jd
	log.Debug("search found", "jd", jd, "steps", res.Steps)
	return res, nil
}

// riseFn builds the scan function whose sign change marks the event.
func (e *Engine) riseFn(body ephem.Body, star string, geo state.Observer, ev Event, opts Options) (scanFn, error) {
	if geo.LatDeg < -90 || geo.LatDeg > 90 {
		return nil, fmt.Errorf("%w: latitude %v", ErrBadGeo, geo.LatDeg)
	}

	equatorial := func(jdUT float64) (ra, dec, distAU float64, err error) {
		if star != "" {
			r, _, err := position.FixStarUT(e.st, star, jdUT, ephem.FlagEquatorial)
			if err != nil {
				return 0, 0, 0, err
			}
			return r.Data[0], r.Data[1], r.Data[2], nil
		}
		r, err := position.CalcUT(e.st, jdUT, body, ephem.FlagEquatorial)
		if err != nil {
			return 0, 0, 0, err
		}
		return r.Data[0], r.Data[1], r.Data[2], nil
	}

	if ev == Transit || ev == LowerTransit {
		offset := 0.0
		if ev == LowerTransit {
			offset = 180
		}
		return func(jdUT float64) (float64, error) {
			ra, _, _, err := equatorial(jdUT)
			if err != nil {
				return 0, err
			}
			snap := e.st.Snapshot()
			armc := timescale.ARMC(jdUT, geo.LonDeg, snap)
			return angle.Difdeg2n(armc-ra, offset), nil
		}, nil
	}

	return func(jdUT float64) (float64, error) {
		ra, dec, dist, err := equatorial(jdUT)
		if err != nil {
			return 0, err
		}
		snap := e.st.Snapshot()
		hor := frame.AzAlt(jdUT, frame.Equatorial, geo, opts.Pressure, opts.Temperature, [3]float64{ra, dec, dist}, snap)
		return hor.TrueAltDeg - horizonAlt(body, star, dist, geo, opts), nil
	}, nil
}

// horizonAlt is the true altitude of the disc reference point at the
// moment of rising or setting: refraction at the horizon, the body's
// semidiameter for an upper-limb event and the dip of the observer's
// elevated horizon.
func horizonAlt(body ephem.Body, star string, distAU float64, geo state.Observer, opts Options) float64 {
	h := 0.0
	if !opts.NoRefraction {
		h -= 34.0 / 60 // standard horizontal refraction
	}
	if !opts.DiscCenter && star == "" {
		h -= semidiameterDeg(body, distAU)
	}
	if geo.AltM > 0 {
		h += frame.RefracExtended(0, geo.AltM, opts.Pressure, opts.Temperature, 0, frame.TrueToApparent).Dip
	}
	return h
}

// crossingRises reports whether the altitude function is increasing
// across the bracketed sign change.
func crossingRises(f scanFn, lo, hi float64) (bool, error) {
	a, err := f(lo)
	if err != nil {
		return false, err
	}
	b, err := f(hi)
	if err != nil {
		return false, err
	}
	return b > a, nil
}
