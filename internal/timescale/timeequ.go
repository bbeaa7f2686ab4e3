package timescale

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/state"
)

// TimeEquation returns the equation of time (apparent minus mean solar
// time) in days for a Julian Day in UT. Positive means the true Sun
// culminates before mean noon.
func TimeEquation(jdUT float64, snap *state.Snapshot) float64 {
	jdTT, _ := UTToTT(jdUT, snap)
	t := (jdTT - J2000) / 36525.0

	// Mean longitude, mean anomaly and orbital eccentricity of the Sun.
	l0 := angle.Degnorm(280.46646 + 36000.76983*t + 0.0003032*t*t)
	m := angle.Degnorm(357.52911 + 35999.05029*t - 0.0001537*t*t)
	e := 0.016708634 - 0.000042037*t - 0.0000001267*t*t

	eps := TrueObliquity(jdTT)
	y := angle.Tand(eps / 2)
	y *= y

	// Smart 1956 expansion of the equation of time, radians.
	eq := y*angle.Sind(2*l0) -
		2*e*angle.Sind(m) +
		4*e*y*angle.Sind(m)*angle.Cosd(2*l0) -
		y*y/2*angle.Sind(4*l0) -
		1.25*e*e*angle.Sind(2*m)

	// Radians of hour angle -> fraction of a day.
	return eq * angle.RadToDeg / 360.0
}

// LMTToLAT converts local mean time to local apparent (sundial) time,
// both as Julian Day values, for an observer at the given east longitude.
func LMTToLAT(jdLMT, geolonDeg float64, snap *state.Snapshot) float64 {
	jdUT := jdLMT - geolonDeg/360.0
	return jdLMT + TimeEquation(jdUT, snap)
}

// LATToLMT converts local apparent time back to local mean time. The
// equation of time varies slowly, so one corrective iteration reaches
// well below a second.
func LATToLMT(jdLAT, geolonDeg float64, snap *state.Snapshot) float64 {
	jdLMT := jdLAT
	for i := 0; i < 2; i++ {
		jdUT := jdLMT - geolonDeg/360.0
		jdLMT = jdLAT - TimeEquation(jdUT, snap)
	}
	return jdLMT
}

// SolarNoonApprox returns the approximate local mean time Julian Day of
// apparent noon for the given date (jd rounded to the nearest half day) and
// longitude. Used as a seed by rise/transit searches.
func SolarNoonApprox(jd, geolonDeg float64, snap *state.Snapshot) float64 {
	noon := math.Floor(jd-0.5) + 0.5 + 0.5 // local 12h in mean time terms
	return LATToLMT(noon, geolonDeg, snap)
}
