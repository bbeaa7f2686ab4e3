package ephem

import (
	"fmt"
	"strings"
)

// Flags is the caller-facing calculation flag bit-set. The bit values are
// the external wire format; internally the engines normalize a Flags value
// once at the boundary and then work from the decomposed accessors.
type Flags int32

const (
	// Backend selection. Exactly one of these may be set; none selects the
	// builtin analytic backend.
	FlagJPL      Flags = 1 // high-precision JPL integration data
	FlagSwiss    Flags = 2 // compressed reduced-precision data files
	FlagAnalytic Flags = 4 // builtin analytic theory, no data files

	// FlagHelio requests heliocentric positions.
	FlagHelio Flags = 8
	// FlagTruePos suppresses light-time correction (true geometric
	// position rather than astrometric/apparent).
	FlagTruePos Flags = 16
	// FlagJ2000 refers coordinates to the J2000 equinox instead of the
	// equinox of date (no precession).
	FlagJ2000 Flags = 32
	// FlagNoNut suppresses nutation (mean equinox of date).
	FlagNoNut Flags = 64

	// FlagSpeed requests the three daily-speed components.
	FlagSpeed Flags = 256
	// FlagNoGDefl suppresses gravitational light deflection.
	FlagNoGDefl Flags = 512
	// FlagNoAberr suppresses annual aberration.
	FlagNoAberr Flags = 1024
	// FlagAstrometric combines no-deflection and no-aberration with
	// light-time applied: the classic astrometric position.
	FlagAstrometric = FlagNoGDefl | FlagNoAberr

	// FlagEquatorial returns right ascension and declination instead of
	// ecliptic longitude and latitude.
	FlagEquatorial Flags = 2048
	// FlagXYZ returns cartesian coordinates.
	FlagXYZ Flags = 4096
	// FlagRadians returns angles in radians instead of degrees.
	FlagRadians Flags = 8192

	// FlagBary requests barycentric positions.
	FlagBary Flags = 16384
	// FlagTopo requests topocentric positions for the configured observer.
	FlagTopo Flags = 32768
	// FlagSidereal subtracts the configured ayanamsa from longitudes.
	FlagSidereal Flags = 65536

	backendMask = FlagJPL | FlagSwiss | FlagAnalytic
	centerMask  = FlagHelio | FlagBary | FlagTopo
)

// Backend identifies an ephemeris data source class.
type Backend int

const (
	// BackendAnalytic is the builtin analytic theory. Always available.
	BackendAnalytic Backend = iota
	// BackendSwiss reads compressed reduced-precision ephemeris files.
	BackendSwiss
	// BackendJPL reads high-precision JPL integration files.
	BackendJPL
)

func (b Backend) String() string {
	switch b {
	case BackendJPL:
		return "jpl"
	case BackendSwiss:
		return "swiss"
	default:
		return "analytic"
	}
}

// Flag returns the flag bit corresponding to the backend.
func (b Backend) Flag() Flags {
	switch b {
	case BackendJPL:
		return FlagJPL
	case BackendSwiss:
		return FlagSwiss
	default:
		return FlagAnalytic
	}
}

// Normalize validates a flag set for mutual exclusivity and returns the
// corrected set together with a warning describing any correction made.
// An inconsistent combination never fails; it degrades to a usable set.
func (f Flags) Normalize() (Flags, string) {
	var notes []string

	// Exactly one backend bit.
	switch f & backendMask {
	case 0:
		f |= FlagAnalytic
	case FlagJPL, FlagSwiss, FlagAnalytic:
	default:
		// Multiple backend bits: keep the highest-precision one.
		var keep Flags
		switch {
		case f&FlagJPL != 0:
			keep = FlagJPL
		case f&FlagSwiss != 0:
			keep = FlagSwiss
		default:
			keep = FlagAnalytic
		}
		notes = append(notes, fmt.Sprintf("multiple ephemeris backends requested, using %s", flagBackend(keep)))
		f = f&^backendMask | keep
	}

	// At most one center.
	if c := f & centerMask; c != 0 && c&(c-1) != 0 {
		var keep Flags
		switch {
		case f&FlagTopo != 0:
			keep = FlagTopo
		case f&FlagHelio != 0:
			keep = FlagHelio
		default:
			keep = FlagBary
		}
		notes = append(notes, "multiple reference centers requested, keeping one")
		f = f&^centerMask | keep
	}

	// Cartesian output is inherently equatorial-or-ecliptic agnostic about
	// radians; radians only applies to angular output.
	if f&FlagXYZ != 0 && f&FlagRadians != 0 {
		notes = append(notes, "radians flag ignored for cartesian output")
		f &^= FlagRadians
	}

	return f, strings.Join(notes, "; ")
}

// Backend returns the backend selected by the flag set. Call after
// Normalize.
func (f Flags) Backend() Backend {
	switch {
	case f&FlagJPL != 0:
		return BackendJPL
	case f&FlagSwiss != 0:
		return BackendSwiss
	default:
		return BackendAnalytic
	}
}

// WithBackend replaces the backend bits.
func (f Flags) WithBackend(b Backend) Flags {
	return f&^backendMask | b.Flag()
}

func flagBackend(f Flags) string { return f.Backend().String() }
