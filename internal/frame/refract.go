package frame

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
)

// RefracDir selects the direction of a refraction conversion.
type RefracDir int

const (
	// TrueToApparent converts a true (airless) altitude to the apparent
	// altitude seen through the atmosphere.
	TrueToApparent RefracDir = iota
	// ApparentToTrue converts an observed apparent altitude back to the
	// true altitude.
	ApparentToTrue
)

// refracFloor is the altitude below which the bending-angle models are
// singular and refraction is treated as a no-op.
const refracFloor = -2.0

// Refrac converts between true and apparent altitude (degrees) for the
// given atmospheric pressure (hPa) and temperature (deg C).
//
// True-to-apparent uses the Saemundsson model, apparent-to-true the Bennett
// model, both scaled for non-standard pressure and temperature. Below the
// validity floor (about -2 deg) the input altitude is returned unchanged;
// callers needing behavior there must supply their own correction.
func Refrac(alt, atPress, atTemp float64, dir RefracDir) float64 {
	if alt < refracFloor || math.IsNaN(alt) {
		return alt
	}
	if atPress == 0 {
		atPress = 1013.25
	}
	scale := atPress / 1010.0 * 283.0 / (273.0 + atTemp)

	if dir == TrueToApparent {
		// Saemundsson: R in arcminutes at 1010 hPa, 10 deg C.
		r := 1.02 / angle.Tand(alt+10.3/(alt+5.11))
		return alt + r*scale/60.0
	}
	// Bennett.
	r := 1.0 / angle.Tand(alt+7.31/(alt+4.4))
	return alt - r*scale/60.0
}

// RefracRet holds both outputs of RefracExtended.
type RefracRet struct {
	TrueAlt     float64
	ApparentAlt float64
	Refraction  float64 // apparent - true, degrees
	Dip         float64 // horizon dip from observer elevation, degrees (<= 0)
}

// RefracExtended converts altitudes like Refrac but also accounts for the
// observer's height above the surrounding terrain, returning the horizon
// dip along with both altitude values. altM is the observer elevation in
// meters; lapseRate (K/m) tunes the dip model, 0 selecting the standard
// atmosphere.
func RefracExtended(alt, altM, atPress, atTemp, lapseRate float64, dir RefracDir) RefracRet {
	var ret RefracRet
	if altM > 0 {
		k := 0.0353 // deg per sqrt(meter), standard atmosphere
		if lapseRate != 0 {
			// Stronger inversions flatten the apparent horizon.
			k *= math.Sqrt(0.0065 / math.Max(lapseRate, 1e-4))
		}
		ret.Dip = -k * math.Sqrt(altM)
	}

	if dir == TrueToApparent {
		ret.TrueAlt = alt
		ret.ApparentAlt = Refrac(alt, atPress, atTemp, TrueToApparent)
	} else {
		ret.ApparentAlt = alt
		ret.TrueAlt = Refrac(alt, atPress, atTemp, ApparentToTrue)
	}
	ret.Refraction = ret.ApparentAlt - ret.TrueAlt
	return ret
}
