package position

import (
	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// Ayanamsa definitions: reference epoch (JD TT) and the ayanamsa value at
// that epoch in degrees. The value at any other time follows the
// accumulated general precession in longitude between the epochs.
var sidDefs = map[state.SidMode]struct{ t0, ayan float64 }{
	state.SidFaganBradley:  {2433282.5, 24.042044444},
	state.SidLahiri:        {2435553.5, 23.250182778},
	state.SidDeLuce:        {2415020.0, 26.516666667},
	state.SidRaman:         {2415020.0, 21.998851},
	state.SidUshashashi:    {2415020.0, 18.664},
	state.SidKrishnamurti:  {2415020.0, 22.363889},
	state.SidDjwhalKhul:    {2415020.0, 27.083333},
	state.SidYukteshwar:    {2415020.0, 22.466667},
	state.SidJNBhasin:      {2415020.0, 22.976667},
	state.SidSassanian:     {2415020.0, 19.955},
	state.SidGalCenter0Sag: {2415020.0, 29.950033},
	state.SidJ2000:         {2451545.0, 0},
	state.SidJ1900:         {2415020.0, 0},
	state.SidB1950:         {2433282.42345905, 0},
}

// precLongitude is the accumulated general precession in longitude since
// J2000, degrees.
func precLongitude(jdTT float64) float64 {
	t := (jdTT - timescale.J2000) / 36525.0
	return (5028.796195*t + 1.1054348*t*t + 0.00007964*t*t*t) / 3600.0
}

// ayanamsa evaluates the configured sidereal offset at jdTT, degrees.
func ayanamsa(jdTT float64, snap *state.Snapshot) float64 {
	def := sidDefs[state.SidFaganBradley]
	if snap.SiderealSet {
		if snap.Sidereal.Mode == state.SidUser {
			def.t0 = snap.Sidereal.T0
			def.ayan = snap.Sidereal.AyanT0
		} else if d, ok := sidDefs[snap.Sidereal.Mode]; ok {
			def = d
		}
	}
	return angle.Degnorm(def.ayan + precLongitude(jdTT) - precLongitude(def.t0))
}

// Ayanamsa returns the sidereal-mode offset at jdTT for the context's
// configured mode (Fagan/Bradley when none is set), in degrees.
func Ayanamsa(ctx *state.Context, jdTT float64) float64 {
	return ayanamsa(jdTT, ctx.Snapshot())
}

// AyanamsaUT is Ayanamsa with a universal-time argument.
func AyanamsaUT(ctx *state.Context, jdUT float64) float64 {
	snap := ctx.Snapshot()
	jdTT, _ := timescale.UTToTT(jdUT, snap)
	return ayanamsa(jdTT, snap)
}
