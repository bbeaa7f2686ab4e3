// Package timescale provides conversions between calendar dates, Julian Day
// numbers in the Universal Time and Terrestrial Time scales, Delta-T, and
// sidereal time.
//
// The Julian Day is the engine's canonical time representation: a continuous
// real day count with day boundaries at 12:00 UT. All conversions between the
// UT and TT scales go through the Delta-T model; they are never assumed equal.
package timescale

import (
	"errors"
	"fmt"
	"math"
)

// Calendar selects the calendar system for date conversions.
type Calendar int

const (
	// Gregorian is the proleptic Gregorian calendar.
	Gregorian Calendar = iota
	// Julian is the Julian calendar, used for dates before 1582-10-15.
	Julian
)

// TimeScale tags a Julian Day value with the scale it is expressed in.
type TimeScale int

const (
	// UT is Universal Time (wall-clock, Earth-rotation based).
	UT TimeScale = iota
	// TT is Terrestrial Time (uniform ephemeris scale), UT + Delta-T.
	TT
)

// J2000 is the Julian Day of the J2000.0 epoch (2000 January 1, 12:00 TT).
const J2000 = 2451545.0

// B1950 is the Julian Day of the B1950.0 epoch.
const B1950 = 2433282.42345905

// GregorianStart is the first Julian Day of the Gregorian calendar reform
// (1582 October 15).
const GregorianStart = 2299160.5

// ErrInvalidDate reports a calendar date that does not exist, such as
// 1990 February 30.
var ErrInvalidDate = errors.New("timescale: invalid calendar date")

// Moment is a time value tagged with its scale and calendar.
type Moment struct {
	JD       float64
	Scale    TimeScale
	Calendar Calendar
}

// JulianDay converts a calendar date and decimal hour to a Julian Day.
// The date is taken at face value; use DateConversion when the input
// needs validation.
//
// Standard astronomical algorithm; valid for the whole proleptic range
// of both calendars, including years BCE (year 0 = 1 BCE).
func JulianDay(year, month, day int, hour float64, cal Calendar) float64 {
	y := float64(year)
	m := float64(month)
	if m <= 2 {
		y -= 1
		m += 12
	}

	var b float64
	if cal == Gregorian {
		a := math.Floor(y / 100)
		b = 2 - a + math.Floor(a/4)
	}

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) +
		float64(day) + b - 1524.5
	return jd + hour/24.0
}

// RevJul converts a Julian Day back to a calendar date and decimal hour.
func RevJul(jd float64, cal Calendar) (year, month, day int, hour float64) {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	a := z
	if cal == Gregorian {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day = int(b - d - math.Floor(30.6001*e))
	if e < 14 {
		month = int(e - 1)
	} else {
		month = int(e - 13)
	}
	if month > 2 {
		year = int(c - 4716)
	} else {
		year = int(c - 4715)
	}
	hour = f * 24.0
	return year, month, day, hour
}

// DateConversion validates a calendar date and converts it to a Julian Day.
// Invalid dates (month out of 1..12, day absent from the month, hour outside
// [0, 24)) fail with ErrInvalidDate rather than being clamped.
func DateConversion(year, month, day int, hour float64, cal Calendar) (float64, error) {
	if month < 1 || month > 12 || day < 1 || hour < 0 || hour >= 24 {
		return 0, fmt.Errorf("%w: %04d-%02d-%02d %.4fh", ErrInvalidDate, year, month, day, hour)
	}
	jd := JulianDay(year, month, day, hour, cal)
	y2, m2, d2, _ := RevJul(jd, cal)
	if y2 != year || m2 != month || d2 != day {
		return 0, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return jd, nil
}

// DayOfWeek returns the weekday of a Julian Day, Monday=0 .. Sunday=6.
func DayOfWeek(jd float64) int {
	return ((int(math.Floor(jd-2433282-1.5)) % 7) + 7) % 7
}

// UTC converts a calendar date given in hours, minutes, seconds to a Julian
// Day, sharing DateConversion's validation.
func UTC(year, month, day, hour, min int, sec float64, cal Calendar) (float64, error) {
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec >= 61 {
		return 0, fmt.Errorf("%w: time %02d:%02d:%06.3f", ErrInvalidDate, hour, min, sec)
	}
	return DateConversion(year, month, day, float64(hour)+float64(min)/60+sec/3600, cal)
}
