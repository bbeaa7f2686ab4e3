package timescale

import (
	"fmt"

	"github.com/astro/skycalc/internal/state"
)

// TidalDefault is the default lunar tidal acceleration in arcsec/cy^2,
// matching the long-term lunar theory the Delta-T polynomials were fitted
// against.
const TidalDefault = -25.8

// DeltaT returns Delta-T (TT - UT) in seconds for a Julian Day in UT.
//
// A fixed override in the configuration snapshot wins. Otherwise a piecewise
// historical model is evaluated, one polynomial per era (Espenak & Meeus
// 2006 fit of the Stephenson & Morrison data), adjusted for a non-default
// tidal acceleration outside the telescopic era. For dates outside the
// well-validated range the extrapolation is still returned, flagged with a
// low-confidence warning string; warn is empty otherwise.
func DeltaT(jdUT float64, snap *state.Snapshot) (sec float64, warn string) {
	if snap != nil && snap.DeltaTSet {
		return snap.DeltaTSec, ""
	}
	tidal := TidalDefault
	if snap != nil && snap.TidalAccSet {
		tidal = snap.TidalAcc
	}

	y := yearFraction(jdUT)
	dt := deltaTPoly(y)

	// Scale for a tidal acceleration other than the fit's own. The
	// correction vanishes near 1955 where Delta-T is anchored by direct
	// observation.
	if tidal != -26.0 {
		dt += -0.000091 * (tidal + 26.0) * (y - 1955) * (y - 1955)
	}

	if y < -500 || y > 2150 {
		warn = fmt.Sprintf("timescale: delta-t for year %.0f extrapolated outside the well-validated range [-500, 2150]", y)
	}
	return dt, warn
}

// yearFraction converts a Julian Day to a decimal Gregorian year.
func yearFraction(jd float64) float64 {
	return 2000.0 + (jd-J2000)/365.25
}

// deltaTPoly evaluates the era-appropriate polynomial, in seconds.
func deltaTPoly(y float64) float64 {
	switch {
	case y < -500:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case y < 500:
		u := y / 100
		return 10583.6 + u*(-1014.41+u*(33.78311+u*(-5.952053+u*(-0.1798452+u*(0.022174192+u*0.0090316521)))))
	case y < 1600:
		u := (y - 1000) / 100
		return 1574.2 + u*(-556.01+u*(71.23472+u*(0.319781+u*(-0.8503463+u*(-0.005050998+u*0.0083572073)))))
	case y < 1700:
		t := y - 1600
		return 120 + t*(-0.9808+t*(-0.01532+t/7129))
	case y < 1800:
		t := y - 1700
		return 8.83 + t*(0.1603+t*(-0.0059285+t*(0.00013336-t/1174000)))
	case y < 1860:
		t := y - 1800
		return 13.72 + t*(-0.332447+t*(0.0068612+t*(0.0041116+t*(-0.00037436+t*(0.0000121272+t*(-0.0000001699+t*0.000000000875))))))
	case y < 1900:
		t := y - 1860
		return 7.62 + t*(0.5737+t*(-0.251754+t*(0.01680668+t*(-0.0004473624+t/233174))))
	case y < 1920:
		t := y - 1900
		return -2.79 + t*(1.494119+t*(-0.0598939+t*(0.0061966-t*0.000197)))
	case y < 1941:
		t := y - 1920
		return 21.20 + t*(0.84493+t*(-0.076100+t*0.0020936))
	case y < 1961:
		t := y - 1950
		return 29.07 + t*(0.407+t*(-1.0/233+t/2547))
	case y < 1986:
		t := y - 1975
		return 45.45 + t*(1.067+t*(-1.0/260-t/718))
	case y < 2005:
		t := y - 2000
		return 63.86 + t*(0.3345+t*(-0.060374+t*(0.0017275+t*(0.000651814+t*0.00002373599))))
	case y < 2050:
		t := y - 2000
		return 62.92 + t*(0.32217+t*0.005589)
	case y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// UTToTT converts a Julian Day from UT to TT.
func UTToTT(jdUT float64, snap *state.Snapshot) (jdTT float64, warn string) {
	dt, warn := DeltaT(jdUT, snap)
	return jdUT + dt/86400.0, warn
}

// TTToUT converts a Julian Day from TT to UT. Delta-T is formally a
// function of UT; a single correction pass is ample at the model's own
// accuracy.
func TTToUT(jdTT float64, snap *state.Snapshot) (jdUT float64, warn string) {
	dt, _ := DeltaT(jdTT, snap)
	jdUT = jdTT - dt/86400.0
	dt, warn = DeltaT(jdUT, snap)
	return jdTT - dt/86400.0, warn
}
