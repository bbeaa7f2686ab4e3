package angle

import (
	"math"
	"testing"
)

func TestDegnormRange(t *testing.T) {
	inputs := []float64{-720.5, -360, -180, -0.0001, 0, 0.0001, 359.9999, 360, 361, 720, 12345.678}
	for _, x := range inputs {
		got := Degnorm(x)
		if got < 0 || got >= 360 {
			t.Errorf("Degnorm(%v) = %v, outside [0,360)", x, got)
		}
	}
}

func TestDegnormIdempotent(t *testing.T) {
	for _, x := range []float64{0, 1.5, 123.456, 359.999} {
		once := Degnorm(x)
		twice := Degnorm(once)
		if once != twice {
			t.Errorf("Degnorm not idempotent at %v: %v != %v", x, once, twice)
		}
	}
}

func TestRadnormRange(t *testing.T) {
	for _, x := range []float64{-10, -math.Pi, 0, math.Pi, 7, 100} {
		got := Radnorm(x)
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("Radnorm(%v) = %v, outside [0,2pi)", x, got)
		}
	}
}

func TestDifdeg2n(t *testing.T) {
	// Reference scenario: difdeg2n(120, 130) = -10.
	if got := Difdeg2n(120, 130); math.Abs(got-(-10)) > 1e-12 {
		t.Errorf("Difdeg2n(120,130) = %v, want -10", got)
	}
	if got := Difdeg2n(350, 10); math.Abs(got-(-20)) > 1e-12 {
		t.Errorf("Difdeg2n(350,10) = %v, want -20", got)
	}
	if got := Difdeg2n(10, 350); math.Abs(got-20) > 1e-12 {
		t.Errorf("Difdeg2n(10,350) = %v, want 20", got)
	}
}

func TestDifdegn(t *testing.T) {
	// Reference scenario: difdegn(120, 130) = 350.
	if got := Difdegn(120, 130); math.Abs(got-350) > 1e-12 {
		t.Errorf("Difdegn(120,130) = %v, want 350", got)
	}
}

func TestDifferenceRelation(t *testing.T) {
	// unsigned = signed mod 360, for arbitrary angle pairs.
	pairs := [][2]float64{{0, 0}, {120, 130}, {359, 1}, {45.5, 300.25}, {180, 0}}
	for _, p := range pairs {
		signed := Difdeg2n(p[0], p[1])
		unsigned := Difdegn(p[0], p[1])
		if math.Abs(Degnorm(signed)-unsigned) > 1e-12 {
			t.Errorf("relation violated for %v: signed=%v unsigned=%v", p, signed, unsigned)
		}
		if signed < -180 || signed >= 180 {
			t.Errorf("signed difference %v outside [-180,180) for %v", signed, p)
		}
		if unsigned < 0 || unsigned >= 360 {
			t.Errorf("unsigned difference %v outside [0,360) for %v", unsigned, p)
		}
	}
}

func TestDegMidp(t *testing.T) {
	if got := DegMidp(10, 350); math.Abs(got-0) > 1e-12 {
		t.Errorf("DegMidp(10,350) = %v, want 0", got)
	}
	if got := DegMidp(90, 0); math.Abs(got-45) > 1e-12 {
		t.Errorf("DegMidp(90,0) = %v, want 45", got)
	}
}

func TestSplitDegZodiacal(t *testing.T) {
	// 123.5 deg = 3 deg 30' in Leo (sign 4).
	s := SplitDeg(123.5, SplitZodiacal)
	if s.Sign != 4 {
		t.Errorf("sign = %d, want 4 (Leo)", s.Sign)
	}
	if s.Deg != 3 || s.Min != 30 || s.Sec != 0 {
		t.Errorf("split = %d deg %d' %d\", want 3 deg 30' 0\"", s.Deg, s.Min, s.Sec)
	}
}

func TestSplitDegRoundSec(t *testing.T) {
	s := SplitDeg(10.999999, SplitRoundSec)
	// 10.999999 deg = 10 deg 59' 59.9964", rounds to 11 deg.
	if s.Deg != 11 || s.Min != 0 || s.Sec != 0 {
		t.Errorf("split = %d deg %d' %d\", want 11 deg 0' 0\"", s.Deg, s.Min, s.Sec)
	}
}

func TestSplitDegKeepSign(t *testing.T) {
	// 29 deg 59' 59.9" of Aries must not round into Taurus.
	s := SplitDeg(29.0+59.0/60+59.9/3600, SplitZodiacal|SplitRoundSec|SplitKeepSign)
	if s.Sign != 0 {
		t.Errorf("rounded across sign boundary: sign = %d, want 0", s.Sign)
	}
}

func TestSplitDegNegative(t *testing.T) {
	s := SplitDeg(-10.5, 0)
	if s.Sign != -1 {
		t.Errorf("sign = %d, want -1", s.Sign)
	}
	if s.Deg != 10 || s.Min != 30 {
		t.Errorf("split = %d deg %d', want 10 deg 30'", s.Deg, s.Min)
	}
}

func TestCSNorm(t *testing.T) {
	if got := CSNorm(-100); got != CSPerCircle-100 {
		t.Errorf("CSNorm(-100) = %d, want %d", got, CSPerCircle-100)
	}
	if got := CSNorm(CSPerCircle + 5); got != 5 {
		t.Errorf("CSNorm(circle+5) = %d, want 5", got)
	}
}

func TestDifcs2n(t *testing.T) {
	// Same semantics as the degree version, scaled by 360000.
	if got := Difcs2n(120*CSPerDeg, 130*CSPerDeg); got != -10*CSPerDeg {
		t.Errorf("Difcs2n = %d, want %d", got, -10*CSPerDeg)
	}
}

func TestDegreeTrigHelpers(t *testing.T) {
	if math.Abs(Sind(30)-0.5) > 1e-12 {
		t.Errorf("Sind(30) = %v, want 0.5", Sind(30))
	}
	if math.Abs(Cosd(60)-0.5) > 1e-12 {
		t.Errorf("Cosd(60) = %v, want 0.5", Cosd(60))
	}
	// Clamping: an argument epsilon above 1 must not produce NaN.
	if math.IsNaN(Asind(1.0000000001)) {
		t.Error("Asind(1+eps) is NaN, want clamped 90")
	}
}
