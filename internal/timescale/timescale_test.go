package timescale

import (
	"errors"
	"math"
	"testing"

	"github.com/astro/skycalc/internal/state"
)

func TestJulianDayKnownEpochs(t *testing.T) {
	// J2000.0: 2000 January 1, 12:00.
	if jd := JulianDay(2000, 1, 1, 12, Gregorian); jd != 2451545.0 {
		t.Errorf("JD(2000-01-01 12h) = %v, want 2451545", jd)
	}
	// Gregorian reform boundary: 1582 October 15, 0:00.
	if jd := JulianDay(1582, 10, 15, 0, Gregorian); jd != 2299160.5 {
		t.Errorf("JD(1582-10-15) = %v, want 2299160.5", jd)
	}
	// Same instant expressed in the Julian calendar: 1582 October 5.
	if jd := JulianDay(1582, 10, 5, 0, Julian); jd != 2299160.5 {
		t.Errorf("JD julian(1582-10-05) = %v, want 2299160.5", jd)
	}
}

func TestDateConversionScenario(t *testing.T) {
	// 1995 May 15, 13.75h UT.
	jd, err := DateConversion(1995, 5, 15, 13.75, Gregorian)
	if err != nil {
		t.Fatalf("DateConversion: %v", err)
	}
	want := 2449852.5 + 13.75/24.0
	if math.Abs(jd-want) > 1e-9 {
		t.Errorf("jd = %.9f, want %.9f", jd, want)
	}
	// The fractional part must correspond to 13.75h UT. A double at JD
	// magnitude resolves the hour to roughly 1e-8 h, so the tolerance
	// sits above that and far below one second.
	_, _, _, hour := RevJul(jd, Gregorian)
	if math.Abs(hour-13.75) > 1e-7 {
		t.Errorf("hour = %v, want 13.75", hour)
	}
}

func TestDateConversionInvalid(t *testing.T) {
	cases := []struct {
		y, m, d int
		h       float64
	}{
		{1990, 2, 30, 0},
		{2001, 13, 1, 0},
		{2001, 0, 1, 0},
		{2001, 4, 31, 0},
		{2001, 4, 10, 25},
		{2100, 2, 29, 0}, // not a Gregorian leap year
	}
	for _, c := range cases {
		if _, err := DateConversion(c.y, c.m, c.d, c.h, Gregorian); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("DateConversion(%v) = %v, want ErrInvalidDate", c, err)
		}
	}
	// 2000 was a leap year.
	if _, err := DateConversion(2000, 2, 29, 0, Gregorian); err != nil {
		t.Errorf("2000-02-29 should be valid: %v", err)
	}
}

func TestCalendarRoundTrip(t *testing.T) {
	// Calendar -> JD -> calendar recovers dates to sub-second precision
	// across -1000..+3000 in both calendars.
	for _, cal := range []Calendar{Gregorian, Julian} {
		for year := -1000; year <= 3000; year += 37 {
			jd := JulianDay(year, 7, 21, 6.5, cal)
			y, m, d, h := RevJul(jd, cal)
			if y != year || m != 7 || d != 21 {
				t.Fatalf("cal %v year %d: round trip gave %d-%d-%d", cal, year, y, m, d)
			}
			if math.Abs(h-6.5)*3600 > 1.0 {
				t.Fatalf("cal %v year %d: hour %v, want 6.5 within 1s", cal, year, h)
			}
		}
	}
}

func TestDayOfWeek(t *testing.T) {
	// Reference scenario: JD 2459311 is a Tuesday.
	if got := DayOfWeek(2459311); got != 1 {
		t.Errorf("DayOfWeek(2459311) = %d, want 1", got)
	}
	// J2000.0 (2000-01-01) was a Saturday.
	if got := DayOfWeek(2451545.0); got != 5 {
		t.Errorf("DayOfWeek(2451545) = %d, want 5", got)
	}
}

func TestDeltaTOverride(t *testing.T) {
	ctx := state.New()
	ctx.SetDeltaT(123.0)
	dt, warn := DeltaT(2451545.0, ctx.Snapshot())
	if dt != 123.0 || warn != "" {
		t.Errorf("DeltaT with override = %v (%q), want 123", dt, warn)
	}
}

func TestDeltaTModernEra(t *testing.T) {
	// Around 2000 Delta-T was close to 64 seconds.
	dt, warn := DeltaT(2451545.0, nil)
	if math.Abs(dt-64) > 2 {
		t.Errorf("DeltaT(J2000) = %v s, want ~64", dt)
	}
	if warn != "" {
		t.Errorf("unexpected warning for modern date: %q", warn)
	}
}

func TestDeltaTAncientWarning(t *testing.T) {
	jd := JulianDay(-2000, 1, 1, 0, Julian)
	dt, warn := DeltaT(jd, nil)
	if warn == "" {
		t.Error("expected low-confidence warning for year -2000")
	}
	// Long-term parabola: tens of thousands of seconds, positive.
	if dt < 10000 || dt > 200000 {
		t.Errorf("DeltaT(-2000) = %v s, implausible", dt)
	}
}

func TestDeltaTMonotonicJoins(t *testing.T) {
	// Era boundaries must not introduce jumps above a few seconds.
	years := []float64{-500, 500, 1600, 1700, 1800, 1860, 1900, 1920, 1941, 1961, 1986, 2005, 2050}
	for _, y := range years {
		lo := deltaTPoly(y - 0.01)
		hi := deltaTPoly(y + 0.01)
		if math.Abs(hi-lo) > 5.0 {
			t.Errorf("deltaT discontinuity at year %.0f: %v vs %v", y, lo, hi)
		}
	}
}

func TestUTToTTRoundTrip(t *testing.T) {
	jdUT := 2440587.5 // 1970-01-01
	jdTT, _ := UTToTT(jdUT, nil)
	back, _ := TTToUT(jdTT, nil)
	if math.Abs(back-jdUT)*86400 > 0.001 {
		t.Errorf("UT->TT->UT drift = %v s", (back-jdUT)*86400)
	}
}

func TestMeanSiderealTimeJ2000(t *testing.T) {
	// GMST at 2000-01-01 12:00 UT is 18.697374558 h.
	got := MeanSiderealTime(2451545.0)
	if math.Abs(got-18.697374558) > 1e-4 {
		t.Errorf("GMST(J2000) = %v h, want 18.697374558", got)
	}
}

func TestSiderealTimeRange(t *testing.T) {
	for jd := 2449852.5; jd < 2449862.5; jd += 0.73 {
		h := SiderealTime(jd, nil)
		if h < 0 || h >= 24 {
			t.Errorf("SiderealTime(%v) = %v, outside [0,24)", jd, h)
		}
	}
}

func TestSiderealDailyAdvance(t *testing.T) {
	// Sidereal time gains ~3m56.6s per solar day.
	h0 := MeanSiderealTime(2451545.0)
	h1 := MeanSiderealTime(2451546.0)
	gain := math.Mod(h1-h0+24, 24) * 3600
	if math.Abs(gain-236.56) > 0.5 {
		t.Errorf("daily sidereal gain = %v s, want ~236.6", gain)
	}
}

func TestMeanObliquityJ2000(t *testing.T) {
	// 23 deg 26' 21.448" at J2000.
	got := MeanObliquity(2451545.0)
	if math.Abs(got-23.4392911) > 1e-6 {
		t.Errorf("MeanObliquity(J2000) = %v, want 23.4392911", got)
	}
}

func TestNutationMagnitude(t *testing.T) {
	// Nutation in longitude stays within +/-20", in obliquity within +/-10".
	for jd := 2440000.5; jd < 2460000.5; jd += 1234.5 {
		dpsi, deps := Nutation(jd)
		if math.Abs(dpsi)*3600 > 20 || math.Abs(deps)*3600 > 10 {
			t.Errorf("Nutation(%v) = %v\", %v\", implausibly large", jd, dpsi*3600, deps*3600)
		}
	}
}

func TestTimeEquationBounds(t *testing.T) {
	// The equation of time stays within +/-17 minutes over a year.
	for d := 0.0; d < 366; d += 5 {
		e := TimeEquation(2451545.0+d, nil)
		if math.Abs(e)*1440 > 17 {
			t.Errorf("TimeEquation at +%v d = %v min, out of bounds", d, e*1440)
		}
	}
}

func TestLMTLATRoundTrip(t *testing.T) {
	jd := 2451545.25
	lat := LMTToLAT(jd, -74.0, nil)
	back := LATToLMT(lat, -74.0, nil)
	if math.Abs(back-jd)*86400 > 0.01 {
		t.Errorf("LMT->LAT->LMT drift = %v s", (back-jd)*86400)
	}
}
