// Package state holds the long-lived configuration that influences every
// computation: sidereal mode, Delta-T and tidal-acceleration overrides, the
// topocentric observer position, and the ephemeris data search path.
//
// A Context is an explicit handle passed into engine calls. Reads take an
// immutable snapshot, so a computation in flight observes either the old or
// the new configuration but never a torn update. Writes clone-and-swap under
// a mutex; mutation is expected to be rare (startup configuration).
package state

import (
	"strings"
	"sync"
	"sync/atomic"
)

// SidMode selects a sidereal zodiac reference (ayanamsa).
type SidMode int

const (
	SidFaganBradley SidMode = iota
	SidLahiri
	SidDeLuce
	SidRaman
	SidUshashashi
	SidKrishnamurti
	SidDjwhalKhul
	SidYukteshwar
	SidJNBhasin
	SidSassanian
	SidGalCenter0Sag
	SidJ2000
	SidJ1900
	SidB1950
	// SidUser is a user-defined ayanamsa given by a reference epoch and an
	// initial offset at that epoch.
	SidUser
)

// Observer is a geodetic observer position for topocentric computations.
type Observer struct {
	LonDeg float64 // east positive
	LatDeg float64 // north positive
	AltM   float64 // meters above the ellipsoid
}

// Sidereal describes an active sidereal mode.
type Sidereal struct {
	Mode   SidMode
	T0     float64 // reference epoch (JD TT) for SidUser
	AyanT0 float64 // ayanamsa value at T0 in degrees, for SidUser
}

// Snapshot is an immutable view of the configuration at one instant.
type Snapshot struct {
	EphePath []string // ordered ephemeris data search path
	JPLFile  string   // preferred JPL ephemeris file name

	SiderealSet bool
	Sidereal    Sidereal

	DeltaTSet bool
	DeltaTSec float64 // fixed Delta-T in seconds when DeltaTSet

	TidalAccSet bool
	TidalAcc    float64 // lunar tidal acceleration in arcsec/cy^2 when set

	TopoSet  bool
	Observer Observer
}

// Context is a process-lifetime configuration handle. The zero value is not
// usable; construct with New or use Default.
type Context struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[Snapshot]
}

// New returns a Context with all settings at their automatic defaults.
func New() *Context {
	c := &Context{}
	c.snap.Store(&Snapshot{})
	return c
}

// Clone returns an independent Context seeded with the current
// configuration. Mutating the clone never affects the original, so a
// caller can derive a per-call configuration without racing other users
// of the shared context.
func (c *Context) Clone() *Context {
	n := &Context{}
	snap := *c.snap.Load()
	n.snap.Store(&snap)
	return n
}

var defaultCtx = New()

// Default returns the shared process-wide Context.
func Default() *Context { return defaultCtx }

// Snapshot returns the current configuration. The returned value must be
// treated as read-only.
func (c *Context) Snapshot() *Snapshot {
	return c.snap.Load()
}

func (c *Context) update(mut func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := *c.snap.Load()
	// Slices are replaced wholesale by mutators, never appended in place.
	mut(&next)
	c.snap.Store(&next)
}

// SetEphePath configures the ordered list of directories searched for
// ephemeris data files. The path argument uses the platform-independent
// separator ':' or ';'.
func (c *Context) SetEphePath(path string) {
	dirs := strings.FieldsFunc(path, func(r rune) bool { return r == ':' || r == ';' })
	c.update(func(s *Snapshot) { s.EphePath = dirs })
}

// SetJPLFile selects a JPL ephemeris file name to prefer within the search
// path.
func (c *Context) SetJPLFile(name string) {
	c.update(func(s *Snapshot) { s.JPLFile = name })
}

// SetSidMode activates a sidereal zodiac. For SidUser, t0 is the reference
// epoch (JD TT) and ayanT0 the ayanamsa at that epoch in degrees; both are
// ignored for predefined modes.
func (c *Context) SetSidMode(mode SidMode, t0, ayanT0 float64) {
	c.update(func(s *Snapshot) {
		s.SiderealSet = true
		s.Sidereal = Sidereal{Mode: mode, T0: t0, AyanT0: ayanT0}
	})
}

// ClearSidMode returns to the tropical zodiac.
func (c *Context) ClearSidMode() {
	c.update(func(s *Snapshot) {
		s.SiderealSet = false
		s.Sidereal = Sidereal{}
	})
}

// SetDeltaT fixes Delta-T to the given value in seconds, overriding the
// historical model.
func (c *Context) SetDeltaT(sec float64) {
	c.update(func(s *Snapshot) {
		s.DeltaTSet = true
		s.DeltaTSec = sec
	})
}

// ClearDeltaT restores automatic Delta-T from the historical model.
func (c *Context) ClearDeltaT() {
	c.update(func(s *Snapshot) {
		s.DeltaTSet = false
		s.DeltaTSec = 0
	})
}

// SetTidalAcc overrides the lunar tidal acceleration (arcsec/cy^2, a
// negative quantity) used by the Delta-T model for remote epochs.
func (c *Context) SetTidalAcc(v float64) {
	c.update(func(s *Snapshot) {
		s.TidalAccSet = true
		s.TidalAcc = v
	})
}

// ClearTidalAcc restores the backend-dependent default tidal acceleration.
func (c *Context) ClearTidalAcc() {
	c.update(func(s *Snapshot) {
		s.TidalAccSet = false
		s.TidalAcc = 0
	})
}

// SetTopo configures the topocentric observer position (degrees east,
// degrees north, meters).
func (c *Context) SetTopo(lonDeg, latDeg, altM float64) {
	c.update(func(s *Snapshot) {
		s.TopoSet = true
		s.Observer = Observer{LonDeg: lonDeg, LatDeg: latDeg, AltM: altM}
	})
}

// ClearTopo removes the topocentric observer; topocentric flags then fall
// back to geocentric with a warning.
func (c *Context) ClearTopo() {
	c.update(func(s *Snapshot) {
		s.TopoSet = false
		s.Observer = Observer{}
	})
}
