package frame

import (
	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/timescale"
)

// IAU 1976 precession (Lieske et al.). Accumulated angles between J2000
// and the mean equator/equinox of date, in degrees.
func precAngles(jdTT float64) (zeta, z, theta float64) {
	t := (jdTT - timescale.J2000) / 36525.0
	zeta = (2306.2181*t + 0.30188*t*t + 0.017998*t*t*t) / 3600.0
	z = (2306.2181*t + 1.09468*t*t + 0.018203*t*t*t) / 3600.0
	theta = (2004.3109*t - 0.42665*t*t - 0.041833*t*t*t) / 3600.0
	return zeta, z, theta
}

// PrecessDir selects the direction of a precession transform.
type PrecessDir int

const (
	// J2000ToDate precesses from the J2000 frame to the mean frame of date.
	J2000ToDate PrecessDir = iota
	// DateToJ2000 precesses from the mean frame of date back to J2000.
	DateToJ2000
)

// Precess rotates a cartesian equatorial vector between the J2000 mean
// frame and the mean equator and equinox of date.
func Precess(v [3]float64, jdTT float64, dir PrecessDir) [3]float64 {
	zeta, z, theta := precAngles(jdTT)
	if dir == DateToJ2000 {
		return rotZ(rotY(rotZ(v, z), -theta), zeta)
	}
	return rotZ(rotY(rotZ(v, -zeta), theta), -z)
}

// PrecessEcl precesses a polar ecliptic triple (lon, lat, dist in degrees)
// between the ecliptic of J2000 and the ecliptic of date, routing through
// the equatorial frame with the mean obliquity of each epoch.
func PrecessEcl(p [3]float64, jdTT float64, dir PrecessDir) [3]float64 {
	eps0 := timescale.MeanObliquity(timescale.J2000)
	epsD := timescale.MeanObliquity(jdTT)
	if dir == DateToJ2000 {
		eq := PolToCart(Cotrans(p, -epsD))
		eq = Precess(eq, jdTT, DateToJ2000)
		return Cotrans(CartToPol(eq), eps0)
	}
	eq := PolToCart(Cotrans(p, -eps0))
	eq = Precess(eq, jdTT, J2000ToDate)
	return Cotrans(CartToPol(eq), epsD)
}

// rotY rotates a cartesian vector about the Y axis by a degrees.
func rotY(v [3]float64, a float64) [3]float64 {
	s, c := angle.Sind(a), angle.Cosd(a)
	return [3]float64{v[0]*c - v[2]*s, v[1], v[0]*s + v[2]*c}
}

// rotZ rotates a cartesian vector about the Z axis by a degrees.
func rotZ(v [3]float64, a float64) [3]float64 {
	s, c := angle.Sind(a), angle.Cosd(a)
	return [3]float64{v[0]*c + v[1]*s, -v[0]*s + v[1]*c, v[2]}
}
