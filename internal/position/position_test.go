package position

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/state"
)

const j2000 = 2451545.0

func TestSunAtJ2000(t *testing.T) {
	ctx := state.New()
	res, err := Calc(ctx, j2000, ephem.Sun, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Early January: Sun near 280 degrees, close to perihelion.
	if res.Data[0] < 280.0 || res.Data[0] > 280.8 {
		t.Fatalf("sun lon = %v", res.Data[0])
	}
	if math.Abs(res.Data[1]) > 0.01 {
		t.Fatalf("sun lat = %v", res.Data[1])
	}
	if res.Data[2] < 0.980 || res.Data[2] > 0.987 {
		t.Fatalf("sun dist = %v", res.Data[2])
	}
}

func TestSunSpeedNearPerihelion(t *testing.T) {
	ctx := state.New()
	res, err := Calc(ctx, j2000, ephem.Sun, ephem.FlagSpeed)
	if err != nil {
		t.Fatal(err)
	}
	if res.Data[3] < 0.95 || res.Data[3] > 1.05 {
		t.Fatalf("sun dlon/dt = %v deg/day", res.Data[3])
	}
}

func TestSpeedFlagLeavesPositionUnchanged(t *testing.T) {
	ctx := state.New()
	plain, err := Calc(ctx, j2000, ephem.Mars, 0)
	if err != nil {
		t.Fatal(err)
	}
	withSpeed, err := Calc(ctx, j2000, ephem.Mars, ephem.FlagSpeed)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 3; k++ {
		if plain.Data[k] != withSpeed.Data[k] {
			t.Fatalf("slot %d: %v != %v", k, plain.Data[k], withSpeed.Data[k])
		}
	}
	if plain.Data[3] != 0 {
		t.Fatal("speed slots must be zero without the speed flag")
	}
}

func TestSunEquatorialDeclination(t *testing.T) {
	ctx := state.New()
	res, err := Calc(ctx, j2000, ephem.Sun, ephem.FlagEquatorial)
	if err != nil {
		t.Fatal(err)
	}
	// Ten days after the December solstice.
	if res.Data[1] < -23.5 || res.Data[1] > -22.5 {
		t.Fatalf("sun dec = %v", res.Data[1])
	}
}

// The heliocentric Earth opposes the geocentric Sun apart from the
// aberration applied only to the geocentric view.
func TestHelioEarthOpposesGeoSun(t *testing.T) {
	ctx := state.New()
	sun, err := Calc(ctx, j2000, ephem.Sun, 0)
	if err != nil {
		t.Fatal(err)
	}
	earth, err := Calc(ctx, j2000, ephem.Earth, ephem.FlagHelio)
	if err != nil {
		t.Fatal(err)
	}
	diff := math.Abs(angle.Difdeg2n(sun.Data[0], angle.Degnorm(earth.Data[0]+180)))
	if diff > 0.02 {
		t.Fatalf("sun/earth opposition off by %v deg", diff)
	}
}

// Apparent lunar longitude for 1992 April 12 0h TT, reference value
// 133.167265 (true position 133.162655 plus nutation).
func TestMoonApparentLongitude(t *testing.T) {
	ctx := state.New()
	res, err := Calc(ctx, 2448724.5, ephem.Moon, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(angle.Difdeg2n(res.Data[0], 133.1673)) > 0.02 {
		t.Fatalf("moon lon = %v, want about 133.167", res.Data[0])
	}
	if math.Abs(res.Data[1]-(-3.229)) > 0.02 {
		t.Fatalf("moon lat = %v", res.Data[1])
	}
}

func TestEclNutPseudoBody(t *testing.T) {
	ctx := state.New()
	res, err := Calc(ctx, j2000, ephem.EclNut, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Data[1]-23.4392911) > 1e-4 {
		t.Fatalf("mean obliquity = %v", res.Data[1])
	}
	if math.Abs(res.Data[0]-res.Data[1]-res.Data[3]) > 1e-9 {
		t.Fatal("true obliquity must be mean plus nutation-in-obliquity")
	}
	if math.Abs(res.Data[2]) > 0.006 {
		t.Fatalf("nutation in longitude = %v", res.Data[2])
	}
}

func TestUnknownBody(t *testing.T) {
	ctx := state.New()
	_, err := Calc(ctx, j2000, ephem.Body(999), 0)
	if !errors.Is(err, ephem.ErrUnknownBody) {
		t.Fatalf("err = %v", err)
	}
}

func TestBackendSubstitutionWarns(t *testing.T) {
	ctx := state.New()
	res, err := Calc(ctx, j2000, ephem.Sun, ephem.FlagJPL)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != ephem.StatusWarn {
		t.Fatalf("status = %v, want warn", res.Status)
	}
	if res.Message == "" {
		t.Fatal("substitution must be explained")
	}
	if res.Flags.Backend() != ephem.BackendAnalytic {
		t.Fatalf("result backend = %v", res.Flags.Backend())
	}
}

func TestTopoWithoutObserver(t *testing.T) {
	ctx := state.New()
	_, err := Calc(ctx, j2000, ephem.Moon, ephem.FlagTopo)
	if !errors.Is(err, ephem.ErrDataUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

// Topocentric parallax moves the Moon by up to about a degree, far more
// than any other correction.
func TestTopoShiftsMoon(t *testing.T) {
	ctx := state.New()
	geo, err := Calc(ctx, j2000, ephem.Moon, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetTopo(0, 0, 0)
	topo, err := Calc(ctx, j2000, ephem.Moon, ephem.FlagTopo)
	if err != nil {
		t.Fatal(err)
	}
	diff := math.Abs(angle.Difdeg2n(geo.Data[0], topo.Data[0])) + math.Abs(geo.Data[1]-topo.Data[1])
	if diff < 0.05 || diff > 2.0 {
		t.Fatalf("topocentric displacement = %v deg", diff)
	}
}

func TestAyanamsaValues(t *testing.T) {
	ctx := state.New()
	fb := Ayanamsa(ctx, j2000)
	if fb < 24.70 || fb > 24.78 {
		t.Fatalf("Fagan/Bradley at J2000 = %v", fb)
	}
	ctx.SetSidMode(state.SidLahiri, 0, 0)
	lahiri := Ayanamsa(ctx, j2000)
	if lahiri < 23.80 || lahiri > 23.90 {
		t.Fatalf("Lahiri at J2000 = %v", lahiri)
	}
}

func TestSiderealModeShiftsLongitude(t *testing.T) {
	ctx := state.New()
	trop, err := Calc(ctx, j2000, ephem.Sun, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx.SetSidMode(state.SidLahiri, 0, 0)
	sid, err := Calc(ctx, j2000, ephem.Sun, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := Ayanamsa(ctx, j2000)
	got := angle.Degnorm(trop.Data[0] - sid.Data[0])
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("sidereal shift = %v, ayanamsa = %v", got, want)
	}
}

func TestRadiansFlag(t *testing.T) {
	ctx := state.New()
	deg, err := Calc(ctx, j2000, ephem.Sun, 0)
	if err != nil {
		t.Fatal(err)
	}
	rad, err := Calc(ctx, j2000, ephem.Sun, ephem.FlagRadians)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rad.Data[0]-deg.Data[0]*math.Pi/180) > 1e-12 {
		t.Fatal("radians output mismatch")
	}
	if rad.Data[2] != deg.Data[2] {
		t.Fatal("distance must not be converted")
	}
}

func TestXYZConsistentWithPolar(t *testing.T) {
	ctx := state.New()
	pol, err := Calc(ctx, j2000, ephem.Jupiter, 0)
	if err != nil {
		t.Fatal(err)
	}
	xyz, err := Calc(ctx, j2000, ephem.Jupiter, ephem.FlagXYZ)
	if err != nil {
		t.Fatal(err)
	}
	r := math.Sqrt(xyz.Data[0]*xyz.Data[0] + xyz.Data[1]*xyz.Data[1] + xyz.Data[2]*xyz.Data[2])
	if math.Abs(r-pol.Data[2]) > 1e-9 {
		t.Fatalf("|xyz| = %v, polar dist = %v", r, pol.Data[2])
	}
}

func TestFixStarGeometricMatchesCatalog(t *testing.T) {
	ctx := state.New()
	fl := ephem.FlagJ2000 | ephem.FlagEquatorial | ephem.FlagTruePos
	res, canonical, err := FixStar(ctx, "Sirius", j2000, fl)
	if err != nil {
		t.Fatal(err)
	}
	if canonical != "Sirius,alCMa" {
		t.Fatalf("canonical = %q", canonical)
	}
	if math.Abs(angle.Difdeg2n(res.Data[0], 101.287155)) > 0.01 {
		t.Fatalf("RA = %v", res.Data[0])
	}
	if math.Abs(res.Data[1]-(-16.716116)) > 0.01 {
		t.Fatalf("dec = %v", res.Data[1])
	}
}

// A quarter century of precession moves ecliptic longitudes by about
// 1.4 arcminutes per year.
func TestFixStarPrecessionDrift(t *testing.T) {
	ctx := state.New()
	at2000, _, err := FixStar(ctx, "Regulus", j2000, ephem.FlagTruePos)
	if err != nil {
		t.Fatal(err)
	}
	at2100, _, err := FixStar(ctx, "Regulus", j2000+36525, ephem.FlagTruePos)
	if err != nil {
		t.Fatal(err)
	}
	drift := angle.Difdeg2n(at2100.Data[0], at2000.Data[0])
	if drift < 1.3 || drift > 1.5 {
		t.Fatalf("century precession drift = %v deg", drift)
	}
}

func TestFixStarMag(t *testing.T) {
	mag, err := FixStarMag("Sirius")
	if err != nil {
		t.Fatal(err)
	}
	if mag > -1.0 {
		t.Fatalf("mag = %v", mag)
	}
	if _, err := FixStarMag("Nonexistent"); !errors.Is(err, ephem.ErrStarNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCalcManyOrderAndErrors(t *testing.T) {
	ctx := state.New()
	jobs := []Job{
		{JDTT: j2000, Body: ephem.Sun},
		{JDTT: j2000, Body: ephem.Body(999)},
		{JDTT: j2000, Body: ephem.Moon},
	}
	pool := NewPool(4, nil)
	out := pool.CalcMany(context.Background(), ctx, jobs)
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	if out[0].Status == ephem.StatusErr || out[2].Status == ephem.StatusErr {
		t.Fatal("valid jobs must succeed")
	}
	if out[1].Status != ephem.StatusErr {
		t.Fatal("invalid body job must carry an error status")
	}
	sun, err := Calc(ctx, j2000, ephem.Sun, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Data[0] != sun.Data[0] {
		t.Fatal("batch result order broken")
	}
}

func TestCalcManyCancelled(t *testing.T) {
	ctx := state.New()
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := make([]Job, 64)
	for i := range jobs {
		jobs[i] = Job{JDTT: j2000 + float64(i), Body: ephem.Sun}
	}
	out := NewPool(2, nil).CalcMany(cctx, ctx, jobs)
	var errs int
	for _, r := range out {
		if r.Status == ephem.StatusErr {
			errs++
		}
	}
	if errs == 0 {
		t.Fatal("cancelled batch should mark unprocessed jobs")
	}
}

func TestCalcUTAppliesDeltaT(t *testing.T) {
	ctx := state.New()
	fromUT, err := CalcUT(ctx, j2000, ephem.Moon, 0)
	if err != nil {
		t.Fatal(err)
	}
	fromTT, err := Calc(ctx, j2000, ephem.Moon, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Delta-T is about 64s at J2000; the Moon moves about 0.0095 deg in
	// that time.
	diff := math.Abs(angle.Difdeg2n(fromUT.Data[0], fromTT.Data[0]))
	if diff < 0.005 || diff > 0.02 {
		t.Fatalf("UT/TT lunar offset = %v deg", diff)
	}
}
