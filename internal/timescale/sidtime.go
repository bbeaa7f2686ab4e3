package timescale

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/state"
)

// Sidereal time. The mean value follows the IAU-82 expression (Vallado
// Eq 3-47); the apparent value adds the equation of the equinoxes from the
// nutation model.

// MeanSiderealTime returns Greenwich Mean Sidereal Time in hours [0, 24)
// for a Julian Day in UT.
func MeanSiderealTime(jdUT float64) float64 {
	tUT := (jdUT - J2000) / 36525.0

	// GMST in seconds of time. 876600h = 3155760000 s.
	sec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT +
		0.093104*tUT*tUT -
		6.2e-6*tUT*tUT*tUT

	sec = math.Mod(sec, 86400.0)
	if sec < 0 {
		sec += 86400.0
	}
	return sec / 3600.0
}

// SiderealTime0 returns Greenwich Apparent Sidereal Time in hours [0, 24)
// given an explicit true obliquity and nutation-in-longitude, both in
// degrees. Use this form when the caller already has the earth-orientation
// numbers for the moment at hand.
func SiderealTime0(jdUT, epsTrue, nutLon float64) float64 {
	gmst := MeanSiderealTime(jdUT)
	// Equation of the equinoxes, degrees -> hours.
	eqeq := nutLon * angle.Cosd(epsTrue) / 15.0
	h := math.Mod(gmst+eqeq, 24.0)
	if h < 0 {
		h += 24.0
	}
	return h
}

// SiderealTime returns Greenwich Apparent Sidereal Time in hours [0, 24)
// for a Julian Day in UT, evaluating obliquity and nutation internally.
func SiderealTime(jdUT float64, snap *state.Snapshot) float64 {
	jdTT, _ := UTToTT(jdUT, snap)
	dpsi, deps := Nutation(jdTT)
	return SiderealTime0(jdUT, MeanObliquity(jdTT)+deps, dpsi)
}

// ARMC returns the right ascension of the local meridian in degrees for a
// Julian Day in UT and a geographic longitude (east positive).
func ARMC(jdUT, geolonDeg float64, snap *state.Snapshot) float64 {
	return angle.Degnorm(SiderealTime(jdUT, snap)*15.0 + geolonDeg)
}
