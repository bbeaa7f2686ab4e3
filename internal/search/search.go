// Package search scans time for astronomical events: rise and set
// times, eclipses, occultations and heliacal visibility. Every search
// runs the same state machine: coarse stepping until a candidate
// interval brackets the event, then bisection until the event time
// converges, with a bounded step count so a search far from any event
// terminates with an exhausted outcome instead of an error.
package search

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/oklog/ulid/v2"

	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/state"
)

// State names a phase of the search state machine.
type State int

const (
	Seeking State = iota
	Bracketed
	Refining
	Found
	Exhausted
	Failed
)

func (s State) String() string {
	switch s {
	case Seeking:
		return "seeking"
	case Bracketed:
		return "bracketed"
	case Refining:
		return "refining"
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome reports how a search ended. Exhausted is a normal outcome,
// not an error: the horizon ran out before an event was bracketed.
type Outcome struct {
	State   State
	Status  ephem.Status
	Message string
	Steps   int    // coarse steps consumed
	TraceID string // correlates log lines of one search
}

// Options bound and tune a search.
type Options struct {
	// Backward searches into the past from the start moment.
	Backward bool
	// MaxSteps bounds the coarse scan; 0 selects a per-search default.
	// A search that uses up its steps ends Exhausted.
	MaxSteps int
	// Atmospheric pressure (hPa) and temperature (deg C) for refraction.
	// Zero pressure selects the standard atmosphere.
	Pressure    float64
	Temperature float64
	// DiscCenter times rise and set on the disc center instead of the
	// upper limb.
	DiscCenter bool
	// NoRefraction disables the refraction term of the rise and set
	// altitude.
	NoRefraction bool
}

// Engine runs event searches against one configuration context. It is
// safe for concurrent use: searches share nothing but the context
// snapshot.
type Engine struct {
	st  *state.Context
	log *slog.Logger
}

// New returns an engine over the given context. A nil logger discards
// search tracing.
func New(st *state.Context, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{st: st, log: log}
}

func (e *Engine) begin(kind string, jd float64) (string, *slog.Logger) {
	id := ulid.Make().String()
	log := e.log.With("trace_id", id, "search", kind)
	log.Debug("search started", "jd_start", jd)
	return id, log
}

// refineTol is the bisection convergence target in days, well under a
// second of time.
const refineTol = 1e-7

// scanFn evaluates the search quantity at a moment. The scan looks for
// a sign change.
type scanFn func(jd float64) (float64, error)

// bracket coarse-steps from start until f changes sign, filling the
// outcome's state and step count as it goes. The returned interval has
// lo < hi in the direction of time regardless of search direction.
func bracket(f scanFn, start, step float64, maxSteps int, backward bool, out *Outcome) (lo, hi float64, err error) {
	if backward {
		step = -step
	}
	out.State = Seeking
	prev, err := f(start)
	if err != nil {
		return 0, 0, err
	}
	t := start
	for i := 0; i < maxSteps; i++ {
		out.Steps++
		next := t + step
		cur, err := f(next)
		if err != nil {
			return 0, 0, err
		}
		if prev == 0 || (prev < 0) != (cur < 0) {
			out.State = Bracketed
			if next < t {
				t, next = next, t
			}
			return t, next, nil
		}
		t, prev = next, cur
	}
	out.State = Exhausted
	return 0, 0, nil
}

// bisect refines a sign change inside [lo, hi] to within refineTol.
func bisect(f scanFn, lo, hi float64) (float64, error) {
	flo, err := f(lo)
	if err != nil {
		return 0, err
	}
	for i := 0; i < 64 && hi-lo > refineTol; i++ {
		mid := (lo + hi) / 2
		fmid, err := f(mid)
		if err != nil {
			return 0, err
		}
		if fmid == 0 {
			return mid, nil
		}
		if (flo < 0) == (fmid < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// minimize finds the local minimum of f inside [lo, hi] by golden
// section, used to pin eclipse maxima.
func minimize(f scanFn, lo, hi float64) (float64, error) {
	const phi = 0.6180339887498949
	a, b := lo, hi
	c := b - phi*(b-a)
	d := a + phi*(b-a)
	fc, err := f(c)
	if err != nil {
		return 0, err
	}
	fd, err := f(d)
	if err != nil {
		return 0, err
	}
	for i := 0; i < 80 && b-a > refineTol; i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - phi*(b-a)
			if fc, err = f(c); err != nil {
				return 0, err
			}
		} else {
			a, c, fc = c, d, fd
			d = a + phi*(b-a)
			if fd, err = f(d); err != nil {
				return 0, err
			}
		}
	}
	return (a + b) / 2, nil
}

// sepDeg returns the angular separation in degrees between two points
// given as (lon, lat) pairs in degrees on the same sphere.
func sepDeg(lon1, lat1, lon2, lat2 float64) float64 {
	const d2r = math.Pi / 180
	s := math.Sin(lat1*d2r)*math.Sin(lat2*d2r) +
		math.Cos(lat1*d2r)*math.Cos(lat2*d2r)*math.Cos((lon1-lon2)*d2r)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return math.Acos(s) / d2r
}

func errOutcome(out Outcome, err error) Outcome {
	out.State = Failed
	out.Status = ephem.StatusErr
	out.Message = err.Error()
	return out
}
