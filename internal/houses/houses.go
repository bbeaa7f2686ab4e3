// Package houses computes house cusps and the shared auxiliary points
// (ascendant, midheaven, vertex, co-ascendants, polar ascendant) for the
// supported house systems, including the 36-sector Gauquelin mode.
package houses

import (
	"fmt"
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// System identifies a house system by its conventional letter code.
type System byte

const (
	Placidus      System = 'P'
	Koch          System = 'K'
	Porphyry      System = 'O'
	Regiomontanus System = 'R'
	Campanus      System = 'C'
	Equal         System = 'E' // 'A' is accepted as an alias
	Vehlow        System = 'V'
	WholeSign     System = 'W'
	Meridian      System = 'X'
	Horizon       System = 'H'
	PolichPage    System = 'T'
	Alcabitius    System = 'B'
	Morinus       System = 'M'
	Krusinski     System = 'U'
	Gauquelin     System = 'G'
	EqualMC       System = 'D'
	Carter        System = 'F'
	Sunshine      System = 'I'
	SunshineAlt   System = 'i'
	PullenSD      System = 'L'
	PullenSR      System = 'Q'
	Sripati       System = 'S'
	APC           System = 'Y'
)

var systemNames = map[System]string{
	Placidus: "Placidus", Koch: "Koch", Porphyry: "Porphyry",
	Regiomontanus: "Regiomontanus", Campanus: "Campanus", Equal: "equal",
	Vehlow: "Vehlow equal", WholeSign: "whole sign",
	Meridian: "axial rotation system / Meridian", Horizon: "azimuthal / horizontal",
	PolichPage: "Polich/Page (topocentric)", Alcabitius: "Alcabitius",
	Morinus: "Morinus", Krusinski: "Krusinski-Pisa-Goelzer",
	Gauquelin: "Gauquelin sectors", EqualMC: "equal / MC",
	Carter: "Carter poli-equatorial", Sunshine: "Sunshine",
	SunshineAlt: "Sunshine (alternative)", PullenSD: "Pullen SD",
	PullenSR: "Pullen SR", Sripati: "Sripati", APC: "APC houses",
}

// HouseName returns the display name of a house system, or "" for an
// unknown code.
func HouseName(sys System) string {
	if sys == 'A' {
		sys = Equal
	}
	return systemNames[sys]
}

// Result holds house cusps and auxiliary points, all ecliptic longitudes
// in degrees. Cusps is 1-based: index 0 is unused, 1..12 are the cusps
// (1..36 for Gauquelin sectors).
type Result struct {
	Cusps         []float64
	Asc           float64
	MC            float64
	ARMC          float64
	Vertex        float64
	EquatorialAsc float64
	CoAscKoch     float64
	CoAscMunkasey float64
	PolarAsc      float64
	Status        ephem.Status
	Message       string
}

// Speeds carries the momentary daily rates of every Result value, from
// symmetric differencing of the midheaven's motion.
type Speeds struct {
	Cusps         []float64
	Asc           float64
	MC            float64
	ARMC          float64
	Vertex        float64
	EquatorialAsc float64
	CoAscKoch     float64
	CoAscMunkasey float64
	PolarAsc      float64
}

// ErrBadLatitude reports a geographic latitude outside [-90, 90].
var ErrBadLatitude = fmt.Errorf("houses: geographic latitude out of range")

// Houses computes cusps for a UT instant and geographic position. The
// sidereal time, obliquity and (for the Sunshine systems) solar
// declination are derived from the context configuration.
func Houses(ctx *state.Context, jdUT, geolat, geolon float64, sys System) (Result, error) {
	snap := ctx.Snapshot()
	if geolat < -90 || geolat > 90 {
		return Result{Status: ephem.StatusErr, Message: ErrBadLatitude.Error()}, ErrBadLatitude
	}
	armc := timescale.ARMC(jdUT, geolon, snap)
	jdTT, _ := timescale.UTToTT(jdUT, snap)
	eps := timescale.TrueObliquity(jdTT)

	decl := math.NaN()
	if sys == Sunshine || sys == SunshineAlt {
		sun, err := position.Calc(ctx, jdTT, ephem.Sun, ephem.FlagEquatorial)
		if err != nil {
			return Result{Status: ephem.StatusErr, Message: err.Error()}, err
		}
		decl = sun.Data[1]
	}

	res := HousesArmcEx(armc, geolat, eps, sys, decl)
	if snap.SiderealSet {
		shiftSidereal(&res, position.Ayanamsa(ctx, jdTT))
	}
	return res, nil
}

// HousesArmc computes cusps from an explicit right ascension of the
// midheaven, geographic latitude and obliquity, all degrees. The Sunshine
// systems need a solar declination and degrade to Porphyry without one.
func HousesArmc(armc, geolat, eps float64, sys System) Result {
	return HousesArmcEx(armc, geolat, eps, sys, math.NaN())
}

// HousesWithSpeeds is Houses plus the daily rates of every output value,
// obtained by symmetric differencing over the midheaven's motion.
func HousesWithSpeeds(ctx *state.Context, jdUT, geolat, geolon float64, sys System) (Result, Speeds, error) {
	const dt = 1.0 / 1440 // one minute of time
	res, err := Houses(ctx, jdUT, geolat, geolon, sys)
	if err != nil {
		return res, Speeds{}, err
	}
	before, err := Houses(ctx, jdUT-dt, geolat, geolon, sys)
	if err != nil {
		return res, Speeds{}, err
	}
	after, err := Houses(ctx, jdUT+dt, geolat, geolon, sys)
	if err != nil {
		return res, Speeds{}, err
	}

	rate := func(a, b float64) float64 { return angle.Difdeg2n(b, a) / (2 * dt) }
	sp := Speeds{Cusps: make([]float64, len(res.Cusps))}
	for i := 1; i < len(res.Cusps) && i < len(before.Cusps) && i < len(after.Cusps); i++ {
		sp.Cusps[i] = rate(before.Cusps[i], after.Cusps[i])
	}
	sp.Asc = rate(before.Asc, after.Asc)
	sp.MC = rate(before.MC, after.MC)
	sp.ARMC = rate(before.ARMC, after.ARMC)
	sp.Vertex = rate(before.Vertex, after.Vertex)
	sp.EquatorialAsc = rate(before.EquatorialAsc, after.EquatorialAsc)
	sp.CoAscKoch = rate(before.CoAscKoch, after.CoAscKoch)
	sp.CoAscMunkasey = rate(before.CoAscMunkasey, after.CoAscMunkasey)
	sp.PolarAsc = rate(before.PolarAsc, after.PolarAsc)
	return res, sp, nil
}

// shiftSidereal subtracts the ayanamsa from every longitude output.
func shiftSidereal(res *Result, aya float64) {
	for i := 1; i < len(res.Cusps); i++ {
		res.Cusps[i] = angle.Degnorm(res.Cusps[i] - aya)
	}
	res.Asc = angle.Degnorm(res.Asc - aya)
	res.MC = angle.Degnorm(res.MC - aya)
	res.Vertex = angle.Degnorm(res.Vertex - aya)
	res.EquatorialAsc = angle.Degnorm(res.EquatorialAsc - aya)
	res.CoAscKoch = angle.Degnorm(res.CoAscKoch - aya)
	res.CoAscMunkasey = angle.Degnorm(res.CoAscMunkasey - aya)
	res.PolarAsc = angle.Degnorm(res.PolarAsc - aya)
}
