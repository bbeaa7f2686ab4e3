package angle

// Centiseconds of arc: integer hundredths of an arcsecond. One full
// circle is 360 * 360000 centiseconds. Used where the caller-facing
// convention requires exact integer angle arithmetic.

const (
	// CSPerDeg is the number of centiseconds in one degree.
	CSPerDeg int32 = 360000
	// CSPerCircle is the number of centiseconds in a full circle.
	CSPerCircle int32 = 360 * 360000
)

// CSNorm normalizes a centisecond angle to [0, 360 degrees).
func CSNorm(p int32) int32 {
	p %= CSPerCircle
	if p < 0 {
		p += CSPerCircle
	}
	return p
}

// Difcsn returns the unsigned forward difference p1 - p2 in [0, 360 degrees).
func Difcsn(p1, p2 int32) int32 {
	return CSNorm(p1 - p2)
}

// Difcs2n returns the signed shortest-path difference p1 - p2 in
// [-180 degrees, 180 degrees).
func Difcs2n(p1, p2 int32) int32 {
	d := CSNorm(p1 - p2)
	if d >= CSPerCircle/2 {
		d -= CSPerCircle
	}
	return d
}

// CSRoundSec rounds a centisecond value to the nearest arcsecond.
// Rounding does not carry past 59'59" within the final arcminute of a
// degree, so a value just under a degree boundary stays inside it.
func CSRoundSec(p int32) int32 {
	r := ((p + 50) / 100) * 100
	// Stay below the degree boundary the input was in.
	if r%CSPerDeg == 0 && p%CSPerDeg != 0 && p%CSPerDeg > CSPerDeg/2 {
		r = p / 100 * 100
	}
	return r
}

// DegToCentisec converts degrees to centiseconds, truncating sub-centisecond
// precision.
func DegToCentisec(d float64) int32 {
	return int32(d * float64(CSPerDeg))
}

// CentisecToDeg converts centiseconds to degrees.
func CentisecToDeg(p int32) float64 {
	return float64(p) / float64(CSPerDeg)
}
