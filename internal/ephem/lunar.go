package ephem

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/frame"
)

// moonPosJ2000 returns the geocentric cartesian position of the Moon in
// the ecliptic J2000 frame, in AU.
func moonPosJ2000(jdTT float64) [3]float64 {
	lon, lat, dist := moonEcl(jdTT)
	p := frame.PrecessEcl([3]float64{lon, lat, dist}, jdTT, frame.DateToJ2000)
	return frame.PolToCart(p)
}

func moonState(jdTT float64) StateVector {
	p0 := moonPosJ2000(jdTT)
	p1 := moonPosJ2000(jdTT - velStep)
	p2 := moonPosJ2000(jdTT + velStep)
	var v StateVector
	v.Frame = Geocentric
	v.Pos = p0
	for k := 0; k < 3; k++ {
		v.Vel[k] = (p2[k] - p1[k]) / (2 * velStep)
	}
	return v
}

// meanNodeLon is the mean longitude of the ascending lunar node on the
// ecliptic of date, degrees.
func meanNodeLon(jdTT float64) float64 {
	t := (jdTT - 2451545.0) / 36525.0
	return angle.Degnorm(125.0445479 - 1934.1362891*t + 0.0020754*t*t +
		t*t*t/467441 - t*t*t*t/60616000)
}

// meanApogeeLon is the mean longitude of the lunar apogee (mean perigee
// plus half a revolution) on the ecliptic of date, degrees.
func meanApogeeLon(jdTT float64) float64 {
	t := (jdTT - 2451545.0) / 36525.0
	perigee := 83.3532465 + 4069.0137287*t - 0.0103200*t*t -
		t*t*t/80053 + t*t*t*t/18999000
	return angle.Degnorm(perigee + 180.0)
}

// meanApogeeDist is the conventional distance assigned to the mean
// apogee point, in AU.
const meanApogeeDist = 0.002710

func pointState(jdTT float64, lonOfDate func(float64) float64, dist float64) StateVector {
	at := func(jd float64) [3]float64 {
		p := frame.PrecessEcl([3]float64{lonOfDate(jd), 0, dist}, jd, frame.DateToJ2000)
		return frame.PolToCart(p)
	}
	p0 := at(jdTT)
	p1 := at(jdTT - velStep)
	p2 := at(jdTT + velStep)
	var v StateVector
	v.Frame = Geocentric
	v.Pos = p0
	for k := 0; k < 3; k++ {
		v.Vel[k] = (p2[k] - p1[k]) / (2 * velStep)
	}
	return v
}

func meanNodeState(jdTT float64) StateVector {
	return pointState(jdTT, meanNodeLon, meanApogeeDist)
}

func meanApogeeState(jdTT float64) StateVector {
	return pointState(jdTT, meanApogeeLon, meanApogeeDist)
}

// oscNodeState derives the osculating node or apogee from the Moon's
// instantaneous position and velocity. With apogee set, the apsis of the
// osculating ellipse is returned instead of the node.
func oscNodeState(jdTT float64, apogee bool) StateVector {
	at := func(jd float64) [3]float64 {
		return oscPoint(jd, apogee)
	}
	p0 := at(jdTT)
	p1 := at(jdTT - velStep)
	p2 := at(jdTT + velStep)
	var v StateVector
	v.Frame = Geocentric
	v.Pos = p0
	for k := 0; k < 3; k++ {
		v.Vel[k] = (p2[k] - p1[k]) / (2 * velStep)
	}
	return v
}

// oscPoint computes one osculating node/apsis position in ecliptic J2000
// cartesian coordinates from the lunar state at jd.
func oscPoint(jdTT float64, apogee bool) [3]float64 {
	m := moonState(jdTT)
	r := m.Pos
	vel := m.Vel

	// Orbital angular momentum; its projection fixes the node line.
	h := cross(r, vel)
	nodeDir := [3]float64{-h[1], h[0], 0} // k x h
	nn := norm(nodeDir)

	if !apogee {
		if nn < 1e-12 {
			// Degenerate equatorial orbit; report the x axis.
			return [3]float64{meanApogeeDist, 0, 0}
		}
		for k := 0; k < 3; k++ {
			nodeDir[k] = nodeDir[k] / nn * meanApogeeDist
		}
		return nodeDir
	}

	// Laplace-Runge-Lenz vector points toward perigee.
	rv := r[0]*vel[0] + r[1]*vel[1] + r[2]*vel[2]
	rn := norm(r)
	v2 := vel[0]*vel[0] + vel[1]*vel[1] + vel[2]*vel[2]
	var ev [3]float64
	for k := 0; k < 3; k++ {
		ev[k] = ((v2-gmEarthMoon/rn)*r[k] - rv*vel[k]) / gmEarthMoon
	}
	e := norm(ev)

	// Apogee distance on the osculating ellipse.
	energy := v2/2 - gmEarthMoon/rn
	a := -gmEarthMoon / (2 * energy)
	rApo := a * (1 + e)

	if e < 1e-9 {
		return [3]float64{rApo, 0, 0}
	}
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = -ev[k] / e * rApo
	}
	return out
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
