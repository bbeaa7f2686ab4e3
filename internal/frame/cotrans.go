// Package frame provides conversions between the ecliptic, equatorial,
// horizontal and cartesian coordinate frames, with and without propagation
// of motion speeds, plus the atmospheric-refraction model used by the
// horizontal transforms.
package frame

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
)

// Cotrans rotates a polar coordinate triple (lon, lat, dist in degrees and
// arbitrary distance units) about the X axis by eps degrees.
//
// Sign convention: positive eps transforms equatorial to ecliptic
// coordinates, negative eps the reverse. The distance component passes
// through unchanged.
func Cotrans(xpo [3]float64, eps float64) [3]float64 {
	e := eps * angle.DegToRad
	lon := xpo[0] * angle.DegToRad
	lat := xpo[1] * angle.DegToRad

	sinE, cosE := math.Sincos(e)
	sinLon, cosLon := math.Sincos(lon)
	sinLat, cosLat := math.Sincos(lat)

	x := cosLat * cosLon
	y := cosLat*sinLon*cosE + sinLat*sinE
	z := -cosLat*sinLon*sinE + sinLat*cosE

	var out [3]float64
	out[0] = angle.Degnorm(math.Atan2(y, x) * angle.RadToDeg)
	out[1] = math.Asin(clamp1(z)) * angle.RadToDeg
	out[2] = xpo[2]
	return out
}

// CotransSp rotates a six-component position+speed vector about the X axis
// by eps degrees. Components 0..2 are lon, lat, dist; components 3..5 their
// daily speeds. The rotation is applied to the cartesian position and
// velocity so the angular speeds come out consistently.
func CotransSp(xpo [6]float64, eps float64) [6]float64 {
	pos := [3]float64{xpo[0], xpo[1], xpo[2]}
	vel := [3]float64{xpo[3], xpo[4], xpo[5]}

	pc := PolToCart(pos)
	vc := PolSpToCartSp(pos, vel)

	pc = rotX(pc, eps)
	vc = rotX(vc, eps)

	outPos := CartToPol(pc)
	outVel := cartSpToPolSp(pc, outPos, vc)

	return [6]float64{outPos[0], outPos[1], outPos[2], outVel[0], outVel[1], outVel[2]}
}

// rotX rotates a cartesian vector about the X axis by eps degrees, using
// the same sign convention as Cotrans.
func rotX(v [3]float64, eps float64) [3]float64 {
	sinE, cosE := math.Sincos(eps * angle.DegToRad)
	return [3]float64{
		v[0],
		v[1]*cosE + v[2]*sinE,
		-v[1]*sinE + v[2]*cosE,
	}
}

// PolToCart converts (lon deg, lat deg, r) to cartesian (x, y, z).
func PolToCart(p [3]float64) [3]float64 {
	lon := p[0] * angle.DegToRad
	lat := p[1] * angle.DegToRad
	cosLat := math.Cos(lat)
	return [3]float64{
		p[2] * cosLat * math.Cos(lon),
		p[2] * cosLat * math.Sin(lon),
		p[2] * math.Sin(lat),
	}
}

// CartToPol converts cartesian (x, y, z) to (lon deg in [0,360), lat deg,
// r). A zero vector maps to the origin direction with r = 0.
func CartToPol(v [3]float64) [3]float64 {
	rxy := math.Hypot(v[0], v[1])
	r := math.Sqrt(rxy*rxy + v[2]*v[2])
	if r == 0 {
		return [3]float64{}
	}
	lon := angle.Degnorm(math.Atan2(v[1], v[0]) * angle.RadToDeg)
	lat := math.Atan2(v[2], rxy) * angle.RadToDeg
	return [3]float64{lon, lat, r}
}

// PolSpToCartSp converts polar speeds (deg/day, deg/day, r/day) at polar
// position p to a cartesian velocity vector.
func PolSpToCartSp(p, sp [3]float64) [3]float64 {
	lon := p[0] * angle.DegToRad
	lat := p[1] * angle.DegToRad
	r := p[2]
	dlon := sp[0] * angle.DegToRad
	dlat := sp[1] * angle.DegToRad
	dr := sp[2]

	sinLon, cosLon := math.Sincos(lon)
	sinLat, cosLat := math.Sincos(lat)

	return [3]float64{
		dr*cosLat*cosLon - r*sinLat*cosLon*dlat - r*cosLat*sinLon*dlon,
		dr*cosLat*sinLon - r*sinLat*sinLon*dlat + r*cosLat*cosLon*dlon,
		dr*sinLat + r*cosLat*dlat,
	}
}

// cartSpToPolSp converts a cartesian velocity at cartesian position v
// (with precomputed polar form p) back to polar speeds.
func cartSpToPolSp(v, p [3]float64, vel [3]float64) [3]float64 {
	r := p[2]
	if r == 0 {
		return [3]float64{}
	}
	rxy2 := v[0]*v[0] + v[1]*v[1]
	dr := (v[0]*vel[0] + v[1]*vel[1] + v[2]*vel[2]) / r
	var dlon, dlat float64
	if rxy2 > 0 {
		dlon = (v[0]*vel[1] - v[1]*vel[0]) / rxy2
		rxy := math.Sqrt(rxy2)
		dlat = (vel[2]*rxy2 - v[2]*(v[0]*vel[0]+v[1]*vel[1])) / (r * r * rxy)
	}
	return [3]float64{dlon * angle.RadToDeg, dlat * angle.RadToDeg, dr}
}

func clamp1(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
