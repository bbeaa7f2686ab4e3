package ephem

import (
	"fmt"
	"sync"
)

// StateVector is a raw body state: cartesian position in AU and velocity in
// AU/day, in ecliptic J2000 coordinates. Planetary states are heliocentric;
// the Moon's is geocentric (Frame tells them apart).
type StateVector struct {
	Pos   [3]float64
	Vel   [3]float64
	Frame CenterFrame
}

// CenterFrame tags the center a StateVector is referred to.
type CenterFrame int

const (
	Heliocentric CenterFrame = iota
	Geocentric
	Barycentric
)

// FileData describes the data segment that satisfied a lookup, surfaced to
// callers for diagnostics.
type FileData struct {
	Path  string  // file path, or "(builtin)" for the analytic theory
	Start float64 // first valid JD (TT)
	End   float64 // last valid JD (TT)
	Denum int     // model version tag (JPL DE number or 0)
}

// Provider supplies raw body state vectors for a time and body.
//
// State returns ErrOutOfRange for dates outside the provider's validity
// window, ErrDataUnavailable when backing data is missing, and
// ErrUnknownBody for identifiers it cannot serve.
type Provider interface {
	State(jdTT float64, body Body) (StateVector, error)
	// FileData reports the data segment backing the given body, if any.
	FileData(body Body) FileData
	// Close releases any underlying data handles. Safe to call more than
	// once.
	Close() error
}

// registry maps backends to providers. The analytic provider registers
// itself; file-backed providers are registered by the integration that
// knows how to read their formats.
var (
	regMu     sync.RWMutex
	providers = map[Backend]Provider{}
)

// Register installs a provider for a backend, replacing any previous one.
func Register(b Backend, p Provider) {
	regMu.Lock()
	defer regMu.Unlock()
	providers[b] = p
}

// Resolve returns the provider for the requested backend. When the backend
// has no registered provider it falls back to the analytic backend and
// explains the substitution in warn. The returned backend is the one
// actually used.
func Resolve(req Backend) (Provider, Backend, string) {
	regMu.RLock()
	defer regMu.RUnlock()
	if p, ok := providers[req]; ok {
		return p, req, ""
	}
	p := providers[BackendAnalytic]
	var warn string
	if req != BackendAnalytic {
		warn = fmt.Sprintf("ephemeris backend %q not available, using %q", req, BackendAnalytic)
	}
	return p, BackendAnalytic, warn
}

// CloseAll tears down every registered provider and drops all cached data
// segments. Subsequent lookups reload lazily.
func CloseAll() error {
	regMu.RLock()
	defer regMu.RUnlock()
	var first error
	for _, p := range providers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := segments.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
