package timescale

import "github.com/astro/skycalc/internal/angle"

// Earth-orientation models: mean obliquity of the ecliptic and nutation.
// Both are functions of TT alone and feed the apparent sidereal time below
// as well as the coordinate pipelines.

// MeanObliquity returns the mean obliquity of the ecliptic in degrees for a
// Julian Day in TT (Laskar 1986 polynomial, valid for roughly +/- 10
// millennia around J2000).
func MeanObliquity(jdTT float64) float64 {
	u := (jdTT - J2000) / 3652500.0 // ten-thousand-year units
	// 23 deg 26' 21.448" plus the series, in arcseconds.
	sec := 84381.448 +
		u*(-4680.93+
			u*(-1.55+
				u*(1999.25+
					u*(-51.38+
						u*(-249.67+
							u*(-39.05+
								u*(7.12+
									u*(27.87+
										u*(5.79+
											u*2.45)))))))))
	return sec / 3600.0
}

// nutation series term: multiples of the five fundamental arguments and
// sine/cosine coefficients in units of 0.0001 arcsec (with T-rates).
type nutTerm struct {
	d, m, mp, f, om int
	s, sT           float64
	c, cT           float64
}

// Principal terms of the IAU 1980 nutation theory. Truncated to the terms
// above ~0.003", which bounds the error well below the engine's stated
// sub-arcsecond tolerances.
var nutTerms = []nutTerm{
	{0, 0, 0, 0, 1, -171996, -174.2, 92025, 8.9},
	{-2, 0, 0, 2, 2, -13187, -1.6, 5736, -3.1},
	{0, 0, 0, 2, 2, -2274, -0.2, 977, -0.5},
	{0, 0, 0, 0, 2, 2062, 0.2, -895, 0.5},
	{0, 1, 0, 0, 0, 1426, -3.4, 54, -0.1},
	{0, 0, 1, 0, 0, 712, 0.1, -7, 0},
	{-2, 1, 0, 2, 2, -517, 1.2, 224, -0.6},
	{0, 0, 0, 2, 1, -386, -0.4, 200, 0},
	{0, 0, 1, 2, 2, -301, 0, 129, -0.1},
	{-2, -1, 0, 2, 2, 217, -0.5, -95, 0.3},
	{-2, 0, 1, 0, 0, -158, 0, 0, 0},
	{-2, 0, 0, 2, 1, 129, 0.1, -70, 0},
	{0, 0, -1, 2, 2, 123, 0, -53, 0},
	{2, 0, 0, 0, 0, 63, 0, 0, 0},
	{0, 0, 1, 0, 1, 63, 0.1, -33, 0},
	{2, 0, -1, 2, 2, -59, 0, 26, 0},
	{0, 0, -1, 0, 1, -58, -0.1, 32, 0},
	{0, 0, 1, 2, 1, -51, 0, 27, 0},
	{-2, 0, 2, 0, 0, 48, 0, 0, 0},
	{0, 0, -2, 2, 1, 46, 0, -24, 0},
	{2, 0, 0, 2, 2, -38, 0, 16, 0},
	{0, 0, 2, 2, 2, -31, 0, 13, 0},
	{0, 0, 2, 0, 0, 29, 0, 0, 0},
	{-2, 0, 1, 2, 2, 29, 0, -12, 0},
	{0, 0, 0, 2, 0, 26, 0, 0, 0},
	{-2, 0, 0, 2, 0, -22, 0, 0, 0},
	{0, 0, -1, 2, 1, 21, 0, -10, 0},
	{0, 2, 0, 0, 0, 17, -0.1, 0, 0},
	{2, 0, -1, 0, 1, 16, 0, -8, 0},
	{-2, 2, 0, 2, 2, -16, 0.1, 7, 0},
	{0, 1, 0, 0, 1, -15, 0, 9, 0},
	{-2, 0, 1, 0, 1, -13, 0, 7, 0},
	{0, -1, 0, 0, 1, -12, 0, 6, 0},
	{0, 0, 2, -2, 0, 11, 0, 0, 0},
	{2, 0, -1, 2, 1, -10, 0, 5, 0},
	{2, 0, 1, 2, 2, -8, 0, 3, 0},
	{0, 1, 0, 2, 2, 7, 0, -3, 0},
	{-2, 1, 1, 0, 0, -7, 0, 0, 0},
	{0, -1, 0, 2, 2, -7, 0, 3, 0},
	{2, 0, 0, 2, 1, -7, 0, 3, 0},
}

// Nutation returns nutation in longitude and obliquity in degrees for a
// Julian Day in TT (IAU 1980, truncated series).
func Nutation(jdTT float64) (dpsi, deps float64) {
	t := (jdTT - J2000) / 36525.0

	// Fundamental arguments, degrees.
	d := 297.85036 + 445267.111480*t - 0.0019142*t*t + t*t*t/189474
	m := 357.52772 + 35999.050340*t - 0.0001603*t*t - t*t*t/300000
	mp := 134.96298 + 477198.867398*t + 0.0086972*t*t + t*t*t/56250
	f := 93.27191 + 483202.017538*t - 0.0036825*t*t + t*t*t/327270
	om := 125.04452 - 1934.136261*t + 0.0020708*t*t + t*t*t/450000

	var sp, se float64 // units of 0.0001 arcsec
	for _, tm := range nutTerms {
		arg := float64(tm.d)*d + float64(tm.m)*m + float64(tm.mp)*mp +
			float64(tm.f)*f + float64(tm.om)*om
		sp += (tm.s + tm.sT*t) * angle.Sind(arg)
		se += (tm.c + tm.cT*t) * angle.Cosd(arg)
	}
	return sp * 1e-4 / 3600.0, se * 1e-4 / 3600.0
}

// TrueObliquity returns the true obliquity (mean plus nutation) in degrees.
func TrueObliquity(jdTT float64) float64 {
	_, deps := Nutation(jdTT)
	return MeanObliquity(jdTT) + deps
}
