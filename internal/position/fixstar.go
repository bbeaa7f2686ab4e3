package position

import (
	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/frame"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// parsec in astronomical units.
const pcAU = 206264.806

// farStarAU stands in for the distance of a star without a measured
// parallax.
const farStarAU = 1e9

// FixStar computes the position of a catalog star at jdTT. The returned
// string is the canonical "name,nomenclature" of the matched entry. The
// same flag set as Calc applies; backend flags only select the Earth
// ephemeris used for parallax and aberration.
func FixStar(ctx *state.Context, name string, jdTT float64, fl ephem.Flags) (Result, string, error) {
	snap := ctx.Snapshot()
	var warns []string

	f, warn := fl.Normalize()
	if warn != "" {
		warns = append(warns, warn)
	}
	if snap.SiderealSet {
		f |= ephem.FlagSidereal
	}

	star, err := ephem.SearchStar(name)
	if err != nil {
		return errResult(f, err), "", err
	}

	prov, backend, warn := ephem.Resolve(f.Backend())
	if warn != "" {
		warns = append(warns, warn)
		f = f.WithBackend(backend)
	}

	pol, err := starPolar(snap, prov, jdTT, star, f)
	if err != nil {
		return errResult(f, err), "", err
	}

	res := Result{Flags: f}
	res.Data[0], res.Data[1], res.Data[2] = pol[0], pol[1], pol[2]

	if f&ephem.FlagSpeed != 0 {
		p1, err := starPolar(snap, prov, jdTT-speedStep, star, f)
		if err != nil {
			return errResult(f, err), "", err
		}
		p2, err := starPolar(snap, prov, jdTT+speedStep, star, f)
		if err != nil {
			return errResult(f, err), "", err
		}
		res.Data[3], res.Data[4], res.Data[5] = polarRates(p1, p2, f)
	}

	formatAngles(&res.Data, f)
	res.Status, res.Message = joinWarns(warns)
	return res, star.CanonicalName(), nil
}

// FixStarUT is FixStar with a universal-time argument.
func FixStarUT(ctx *state.Context, name string, jdUT float64, fl ephem.Flags) (Result, string, error) {
	snap := ctx.Snapshot()
	jdTT, warn := timescale.UTToTT(jdUT, snap)
	res, canonical, err := FixStar(ctx, name, jdTT, fl)
	if warn != "" && err == nil {
		res.Status, res.Message = appendWarn(res.Status, res.Message, warn)
	}
	return res, canonical, err
}

// FixStarMag returns the catalog visual magnitude of a star.
func FixStarMag(name string) (float64, error) {
	star, err := ephem.SearchStar(name)
	if err != nil {
		return 0, err
	}
	return star.Mag, nil
}

// starPolar reduces one star to output polar coordinates at jdTT.
func starPolar(snap *state.Snapshot, prov ephem.Provider, jdTT float64, star ephem.Star, f ephem.Flags) ([3]float64, error) {
	earth, err := prov.State(jdTT, ephem.Earth)
	if err != nil {
		return [3]float64{}, err
	}

	// Proper motion from J2000 to date.
	yrs := (jdTT - timescale.J2000) / 365.25
	dec := star.DecDeg + yrs*star.PMDec/3.6e6
	cosDec := angle.Cosd(dec)
	ra := star.RADeg
	if cosDec > 1e-9 {
		ra += yrs * star.PMRA / 3.6e6 / cosDec
	}

	dist := farStarAU
	if star.Parallax > 0 {
		dist = 1000.0 / star.Parallax * pcAU
	}

	// Equatorial J2000 -> ecliptic J2000 cartesian, Sun-centered to first
	// order; subtracting the Earth position supplies annual parallax.
	eps0 := timescale.MeanObliquity(timescale.J2000)
	ecl := frame.Cotrans([3]float64{angle.Degnorm(ra), dec, dist}, eps0)
	rel := frame.PolToCart(ecl)
	for k := 0; k < 3; k++ {
		rel[k] -= earth.Pos[k]
	}

	if f&ephem.FlagTopo != 0 {
		obs, err := observerJ2000(snap, jdTT)
		if err != nil {
			return [3]float64{}, err
		}
		for k := 0; k < 3; k++ {
			rel[k] -= obs[k]
		}
	}

	if f&ephem.FlagTruePos == 0 {
		if f&ephem.FlagNoAberr == 0 {
			rel = aberrate(rel, earth.Vel)
		}
		if f&ephem.FlagNoGDefl == 0 {
			rel = deflect(rel, earth.Pos)
		}
	}

	pol := reduceFrame(rel, jdTT, f)
	if f&ephem.FlagSidereal != 0 && f&ephem.FlagEquatorial == 0 {
		pol[0] = angle.Degnorm(pol[0] - ayanamsa(jdTT, snap))
	}
	return pol, nil
}
