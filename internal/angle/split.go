package angle

import "math"

// SplitFlag selects rounding and presentation behavior for SplitDeg.
type SplitFlag int

const (
	// SplitRoundSec rounds the result to whole arcseconds.
	SplitRoundSec SplitFlag = 1 << iota
	// SplitRoundMin rounds the result to whole arcminutes.
	SplitRoundMin
	// SplitRoundDeg rounds the result to whole degrees.
	SplitRoundDeg
	// SplitZodiacal reports the degree within a 30-degree zodiac sign and
	// the sign number in Sign.
	SplitZodiacal
	// SplitKeepSign prevents rounding from carrying across a sign boundary:
	// 29 deg 59'59.9" rounds down, never into the next sign.
	SplitKeepSign
	// SplitKeepDeg prevents rounding from carrying across a degree boundary.
	SplitKeepDeg
)

// Split holds a degree value decomposed into display components.
type Split struct {
	Deg     int     // degrees, or degree within sign if SplitZodiacal
	Min     int     // arcminutes
	Sec     int     // arcseconds
	SecFrac float64 // fractional arcsecond remainder
	Sign    int     // zodiac sign 0..11 if SplitZodiacal, otherwise -1 or +1 for the value's sign
}

// SplitDeg decomposes a degree value into sign, degree, minute, second and
// fractional-second components under the rounding policy selected by flags.
func SplitDeg(ddeg float64, flags SplitFlag) Split {
	var s Split
	neg := ddeg < 0
	d := math.Abs(ddeg)

	// Apply rounding before decomposition so carries propagate naturally.
	boundary := 360.0
	if flags&SplitZodiacal != 0 {
		d = Degnorm(ddeg)
		neg = false
		boundary = 30.0
	}
	switch {
	case flags&SplitRoundDeg != 0:
		d = math.Floor(d + 0.5)
	case flags&SplitRoundMin != 0:
		d = math.Floor(d*60+0.5) / 60
	case flags&SplitRoundSec != 0:
		d = math.Floor(d*3600+0.5) / 3600
	}

	// Keep-sign / keep-degree policy: a rounded value must not cross the
	// configured boundary.
	if flags&SplitKeepSign != 0 && flags&SplitZodiacal != 0 {
		orig := Degnorm(ddeg)
		if math.Floor(d/boundary) != math.Floor(orig/boundary) {
			d = math.Nextafter(math.Ceil(orig/boundary)*boundary, 0)
		}
	} else if flags&SplitKeepDeg != 0 {
		if math.Floor(d) != math.Floor(math.Abs(ddeg)) && flags&SplitZodiacal == 0 {
			d = math.Floor(math.Abs(ddeg)) + 0.9999999999
		}
	}

	if flags&SplitZodiacal != 0 {
		s.Sign = int(d / 30.0)
		d = math.Mod(d, 30.0)
	} else if neg {
		s.Sign = -1
	} else {
		s.Sign = 1
	}

	s.Deg = int(d)
	frac := (d - float64(s.Deg)) * 60
	s.Min = int(frac)
	frac = (frac - float64(s.Min)) * 60
	s.Sec = int(frac)
	s.SecFrac = frac - float64(s.Sec)
	return s
}
