package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/state"
)

var (
	london = state.Observer{LonDeg: -0.1278, LatDeg: 51.5074}
	munich = state.Observer{LonDeg: 11.58, LatDeg: 48.14}
	cairo  = state.Observer{LonDeg: 31.25, LatDeg: 30.04}
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(state.New(), nil)
}

func TestSunRiseAndSetLondon(t *testing.T) {
	e := newEngine(t)
	start := 2451544.5 // 2000-01-01 00:00 UT

	rise, err := e.RiseTrans(start, ephem.Sun, "", london, Rise, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, rise.State, rise.Message)
	// Winter sunrise in London is a little after 08:00 UT.
	frac := (rise.JD - start) * 24
	assert.InDelta(t, 8.1, frac, 0.5, "sunrise hour")

	set, err := e.RiseTrans(start, ephem.Sun, "", london, Set, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, set.State)
	frac = (set.JD - start) * 24
	assert.InDelta(t, 16.0, frac, 0.5, "sunset hour")
	assert.Greater(t, set.JD, rise.JD)
}

func TestSunTransitNearLocalNoon(t *testing.T) {
	e := newEngine(t)
	start := 2451544.5

	tr, err := e.RiseTrans(start, ephem.Sun, "", london, Transit, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, tr.State)
	// Early January: the equation of time puts the transit a few
	// minutes after mean noon.
	frac := (tr.JD - start) * 24
	assert.InDelta(t, 12.06, frac, 0.2, "transit hour")

	lower, err := e.RiseTrans(start, ephem.Sun, "", london, LowerTransit, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, lower.State)
	assert.InDelta(t, 12.0, math.Abs(lower.JD-tr.JD)*24, 0.1, "transit spacing")
}

func TestRiseBackwardPrecedesStart(t *testing.T) {
	e := newEngine(t)
	start := 2451545.0 // noon

	rise, err := e.RiseTrans(start, ephem.Sun, "", london, Rise, Options{Backward: true})
	require.NoError(t, err)
	require.Equal(t, Found, rise.State)
	assert.Less(t, rise.JD, start)
	assert.Greater(t, rise.JD, start-1)
}

func TestMidnightSunNeverSets(t *testing.T) {
	e := newEngine(t)
	arctic := state.Observer{LonDeg: 0, LatDeg: 75}
	start := 2451716.5 // late June 2000

	set, err := e.RiseTrans(start, ephem.Sun, "", arctic, Set, Options{})
	require.NoError(t, err)
	assert.Equal(t, Exhausted, set.State)
	assert.NotEmpty(t, set.Message)
	assert.Equal(t, ephem.StatusOK, set.Status, "exhaustion is not an error")
}

func TestRiseTransRejectsBadLatitude(t *testing.T) {
	e := newEngine(t)
	_, err := e.RiseTrans(2451545.0, ephem.Sun, "", state.Observer{LatDeg: 95}, Rise, Options{})
	require.ErrorIs(t, err, ErrBadGeo)
}

func TestStarRise(t *testing.T) {
	e := newEngine(t)
	rise, err := e.RiseTrans(2451544.5, 0, "Sirius", london, Rise, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, rise.State)
	assert.Greater(t, rise.JD, 2451544.5)
	assert.Less(t, rise.JD, 2451545.5)
}

func TestLunarEclipseJanuary2000(t *testing.T) {
	e := newEngine(t)
	// Total lunar eclipse of 2000-01-21, maximum 04:44 UT.
	res, err := e.LunarEclipseWhen(2451544.5, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, res.State, res.Message)
	assert.InDelta(t, 2451564.697, res.Times[0], 0.05, "eclipse maximum")
	assert.NotZero(t, res.Kind&EclTotal, "kind %s", EclipseKindName(res.Kind))
	assert.InDelta(t, 1.33, res.UmbralMag, 0.25)
	assert.Greater(t, res.PenumbralMag, res.UmbralMag)
	// Phase nesting: penumbral contains partial contains total.
	assert.Less(t, res.Times[6], res.Times[2])
	assert.Less(t, res.Times[2], res.Times[4])
	assert.Less(t, res.Times[4], res.Times[0])
	assert.Less(t, res.Times[0], res.Times[5])
	assert.Less(t, res.Times[5], res.Times[3])
	assert.Less(t, res.Times[3], res.Times[7])
}

func TestLunarEclipseShortHorizonExhausts(t *testing.T) {
	e := newEngine(t)
	// 2000-03-01 is months from the nearest lunar eclipse; a single
	// lunation cannot reach it.
	res, err := e.LunarEclipseWhen(2451604.5, Options{MaxSteps: 1})
	require.NoError(t, err)
	assert.Equal(t, Exhausted, res.State)
	assert.Contains(t, res.Message, "no lunar eclipse")
}

func TestLunarEclipseHowAtMaximum(t *testing.T) {
	e := newEngine(t)
	attr, err := e.LunarEclipseHow(2451564.697, london)
	require.NoError(t, err)
	assert.Equal(t, ephem.StatusOK, attr.Status)
	assert.Greater(t, attr.UmbralMag, 1.0)
	assert.Less(t, attr.OppositionDeg, 5.0)

	quiet, err := e.LunarEclipseHow(2451604.5, london)
	require.NoError(t, err)
	assert.Equal(t, ephem.StatusWarn, quiet.Status)
	assert.LessOrEqual(t, quiet.PenumbralMag, 0.0)
}

func TestSolarEclipseAugust1999(t *testing.T) {
	e := newEngine(t)
	// Total solar eclipse of 1999-08-11, maximum 11:03 UT.
	res, err := e.SolarEclipseWhenGlob(2451360.5, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, res.State, res.Message)
	assert.InDelta(t, 2451401.96, res.Times[0], 0.05, "eclipse maximum")
	assert.NotZero(t, res.Kind&EclCentral, "kind %s", EclipseKindName(res.Kind))
	assert.InDelta(t, 0.5, math.Abs(res.Gamma), 0.3)
	// Global partial phase brackets the maximum.
	assert.Less(t, res.Times[2], res.Times[0])
	assert.Less(t, res.Times[0], res.Times[3])
}

// Starts that first meet the eclipse-free July 1999 New Moon must still
// find the August eclipse one lunation later. The July-August lunation
// ran short of the mean synodic month, so a scan stepping a full mean
// month from the July conjunction lands past the August one and would
// report the February 2000 partial instead.
func TestSolarEclipseScanShortLunation(t *testing.T) {
	e := newEngine(t)
	for _, start := range []float64{2451360.5, 2451370.0} {
		res, err := e.SolarEclipseWhenGlob(start, Options{})
		require.NoError(t, err)
		require.Equal(t, Found, res.State, res.Message)
		assert.InDelta(t, 2451401.96, res.Times[0], 0.05, "start %v", start)
		assert.NotZero(t, res.Kind&EclCentral, "kind %s", EclipseKindName(res.Kind))
	}
}

func TestSolarEclipseLocalMunich(t *testing.T) {
	e := newEngine(t)
	res, err := e.SolarEclipseWhenLoc(2451360.5, munich, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, res.State, res.Message)
	assert.InDelta(t, 2451401.93, res.Times[0], 0.05, "local maximum")
	// Munich lay near the path of totality.
	assert.Greater(t, res.Magnitude, 0.5)
	assert.Greater(t, res.Obscuration, 0.4)
	assert.Less(t, res.Times[1], res.Times[0])
	assert.Less(t, res.Times[0], res.Times[4])
}

func TestSolarEclipseHow(t *testing.T) {
	e := newEngine(t)
	attr, err := e.SolarEclipseHow(2451401.93, munich)
	require.NoError(t, err)
	assert.Equal(t, ephem.StatusOK, attr.Status)
	assert.Greater(t, attr.Obscuration, 0.4)
	assert.InDelta(t, 1.0, attr.Ratio, 0.1)
	assert.Greater(t, attr.TrueAlt, 0.0, "the Sun was up at maximum")

	quiet, err := e.SolarEclipseHow(2451360.5, munich)
	require.NoError(t, err)
	assert.Equal(t, ephem.StatusWarn, quiet.Status)
	assert.Zero(t, quiet.Obscuration)
}

func TestOccultationRejectsMoon(t *testing.T) {
	e := newEngine(t)
	_, err := e.OccultWhenLoc(2451545.0, ephem.Moon, "", london, Options{})
	require.Error(t, err)
}

func TestPhenoVenus(t *testing.T) {
	e := newEngine(t)
	ph, err := e.PhenoCalc(2451545.0, ephem.Venus)
	require.NoError(t, err)
	assert.Greater(t, ph.Phase, 0.0)
	assert.Less(t, ph.Phase, 1.0)
	assert.Less(t, ph.Elongation, 48.0, "Venus never strays farther from the Sun")
	assert.Greater(t, ph.Elongation, 0.0)
	assert.InDelta(t, -4.0, ph.Magnitude, 1.0)
	assert.Greater(t, ph.DiameterSec, 9.0)
	assert.Less(t, ph.DiameterSec, 70.0)
}

func TestPhenoSunAndMoon(t *testing.T) {
	e := newEngine(t)
	sun, err := e.PhenoCalc(2451545.0, ephem.Sun)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sun.Phase)
	assert.InDelta(t, -26.74, sun.Magnitude, 0.01)

	// At the January 2000 eclipse the Moon is full.
	moon, err := e.PhenoUT(2451564.697, ephem.Moon)
	require.NoError(t, err)
	assert.Greater(t, moon.Phase, 0.98)
	assert.Less(t, moon.Magnitude, -11.0)
	assert.InDelta(t, 1900, moon.DiameterSec, 200)
}

func TestHeliacalDomainBound(t *testing.T) {
	e := newEngine(t)
	_, err := e.Heliacal(2451545.0, state.Observer{LatDeg: 65}, Atmosphere{}, ObserverModel{}, "Sirius", MorningFirst, Options{})
	require.ErrorIs(t, err, ErrHeliacalDomain)
}

func TestHeliacalRisingSirius(t *testing.T) {
	if testing.Short() {
		t.Skip("day-by-day twilight scan")
	}
	e := newEngine(t)
	// Sirius returns to the dawn sky over Egypt in late summer.
	start := 2451710.5 // 2000-06-15
	res, err := e.Heliacal(start, cairo, Atmosphere{}, ObserverModel{}, "Sirius", MorningFirst, Options{})
	require.NoError(t, err)
	require.Equal(t, Found, res.State, res.Message)
	assert.Greater(t, res.Optimum, start)
	assert.Less(t, res.Optimum, start+120)
	assert.LessOrEqual(t, res.Start, res.Optimum)
	assert.LessOrEqual(t, res.Optimum, res.End)
}

func TestHeliacalPheno(t *testing.T) {
	e := newEngine(t)
	ph, err := e.HeliacalPhenoUT(2451545.0, cairo, Atmosphere{}, ObserverModel{}, "Sirius")
	require.NoError(t, err)
	assert.InDelta(t, 7.54, ph.RequiredArc, 0.2)
	assert.InDelta(t, ph.AltObject-ph.AltSun, ph.ArcVis, 1e-9)

	aided, err := e.HeliacalPhenoUT(2451545.0, cairo, Atmosphere{}, ObserverModel{Magnification: 10}, "Sirius")
	require.NoError(t, err)
	assert.Less(t, aided.RequiredArc, ph.RequiredArc)
}

func TestOutcomeStateStrings(t *testing.T) {
	assert.Equal(t, "seeking", Seeking.String())
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "exhausted", Exhausted.String())
}
