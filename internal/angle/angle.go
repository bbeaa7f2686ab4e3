// Package angle provides normalization, difference, and unit-conversion
// utilities for angles expressed in degrees, radians, and centiseconds
// (integer hundredths of an arcsecond).
package angle

import "math"

const (
	// DegToRad converts degrees to radians.
	DegToRad = math.Pi / 180.0
	// RadToDeg converts radians to degrees.
	RadToDeg = 180.0 / math.Pi

	// DegToCS converts degrees to centiseconds of arc.
	DegToCS = 360000.0
	// CSToDeg converts centiseconds of arc to degrees.
	CSToDeg = 1.0 / 360000.0
)

// Degnorm normalizes an angle in degrees to [0, 360).
func Degnorm(x float64) float64 {
	y := math.Mod(x, 360.0)
	if math.Abs(y) < 1e-13 {
		y = 0
	}
	if y < 0 {
		y += 360.0
	}
	return y
}

// Radnorm normalizes an angle in radians to [0, 2*pi).
func Radnorm(x float64) float64 {
	y := math.Mod(x, 2*math.Pi)
	if math.Abs(y) < 1e-13 {
		y = 0
	}
	if y < 0 {
		y += 2 * math.Pi
	}
	return y
}

// Difdegn returns the unsigned forward difference p1 - p2 in [0, 360).
func Difdegn(p1, p2 float64) float64 {
	return Degnorm(p1 - p2)
}

// Difdeg2n returns the signed shortest-path difference p1 - p2 in [-180, 180).
// The sign indicates direction: negative means p1 is behind p2 on the
// short arc.
func Difdeg2n(p1, p2 float64) float64 {
	d := Degnorm(p1 - p2)
	if d >= 180.0 {
		d -= 360.0
	}
	return d
}

// Difradn returns the unsigned forward difference p1 - p2 in [0, 2*pi).
func Difradn(p1, p2 float64) float64 {
	return Radnorm(p1 - p2)
}

// Difrad2n returns the signed shortest-path difference p1 - p2 in [-pi, pi).
func Difrad2n(p1, p2 float64) float64 {
	d := Radnorm(p1 - p2)
	if d >= math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// DegMidp returns the midpoint of the short arc from p2 to p1, in [0, 360).
func DegMidp(p1, p2 float64) float64 {
	return Degnorm(p2 + Difdeg2n(p1, p2)/2)
}

// RadMidp returns the midpoint of the short arc from p2 to p1, in [0, 2*pi).
func RadMidp(p1, p2 float64) float64 {
	return Radnorm(p2 + Difrad2n(p1, p2)/2)
}

// Sind, Cosd, Tand, Asind, Acosd and Atan2d operate in degrees. The numeric
// pipelines below work almost exclusively in degrees, so keeping the unit
// conversion in one place avoids scattered DegToRad factors.

func Sind(x float64) float64 { return math.Sin(x * DegToRad) }

func Cosd(x float64) float64 { return math.Cos(x * DegToRad) }

func Tand(x float64) float64 { return math.Tan(x * DegToRad) }

// Asind returns the arcsine in degrees, clamping the argument to [-1, 1]
// so that values grazing the domain edge from rounding do not yield NaN.
func Asind(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Asin(x) * RadToDeg
}

// Acosd returns the arccosine in degrees with the same clamping as Asind.
func Acosd(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Acos(x) * RadToDeg
}

func Atan2d(y, x float64) float64 { return math.Atan2(y, x) * RadToDeg }

func Atand(x float64) float64 { return math.Atan(x) * RadToDeg }
