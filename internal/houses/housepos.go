package houses

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/frame"
)

// HousePos locates an ecliptic point (lon, lat in degrees) within the
// houses of the given system: the result is a fractional house position
// in [1, 13) (or [1, 37) for Gauquelin sectors), where the integer part
// is the house and the fraction the penetration into it. The semi-arc,
// prime-vertical and equatorial systems use the point's true declination;
// the ecliptic-division systems interpolate between cusps. Degenerate
// polar geometry degrades to cusp interpolation with a warning.
func HousePos(armc, geolat, eps float64, sys System, lon, lat float64) (float64, ephem.Status, string) {
	if sys == 'A' {
		sys = Equal
	}
	armc = angle.Degnorm(armc)
	lon = angle.Degnorm(lon)

	eq := frame.Cotrans([3]float64{lon, lat, 1}, -eps)
	ra, dec := eq[0], eq[1]

	switch sys {
	case Placidus, Gauquelin, Sunshine, SunshineAlt:
		pos, ok := semiArcPos(armc, geolat, ra, dec, sys == Gauquelin)
		if ok {
			return pos, ephem.StatusOK, ""
		}
		pos, st, msg := interpPos(armc, geolat, eps, sys, lon)
		if msg == "" {
			st, msg = ephem.StatusWarn, "semi-arc position degenerate for this latitude, cusp interpolation substituted"
		}
		return pos, st, msg
	case Campanus:
		return campanusPos(armc, geolat, ra, dec), ephem.StatusOK, ""
	case Regiomontanus, Horizon:
		return regioPos(armc, geolat, ra, dec, sys == Horizon), ephem.StatusOK, ""
	default:
		return interpPos(armc, geolat, eps, sys, lon)
	}
}

// semiArcPos places a point by the fraction of its own semi-arc covered,
// the Placidus reading. With sectors set the 36 Gauquelin sectors are
// counted clockwise from the rising point.
func semiArcPos(armc, geolat, ra, dec float64, sectors bool) (float64, bool) {
	s := angle.Tand(geolat) * angle.Tand(dec)
	if math.Abs(s) >= 1 {
		return 0, false // circumpolar at this latitude
	}
	ad := angle.Asind(s)
	sad := 90 + ad
	san := 90 - ad
	h := angle.Difdeg2n(armc, ra) // hour angle, westward positive

	if sectors {
		if math.Abs(h) <= sad {
			return wrapPos(1+9*(1+h/sad), 36), true
		}
		hd := angle.Degnorm(h - sad)
		return wrapPos(19+9*hd/san, 36), true
	}

	switch {
	case h <= 0 && -h <= sad: // east of the meridian, above horizon
		return wrapPos(10-3*h/sad, 12), true
	case h > 0 && h <= sad: // west, above horizon
		return wrapPos(10-3*h/sad, 12), true
	case h < 0: // east, below horizon
		g := (h + 180) / san
		return wrapPos(4-3*g, 12), true
	default: // west, below horizon
		g := (180 - h) / san
		return wrapPos(4+3*g, 12), true
	}
}

// campanusPos measures the prime-vertical angle of the point's house
// circle through the north and south horizon points.
func campanusPos(armc, geolat, ra, dec float64) float64 {
	u := unitEq(ra, dec)
	east, _, zen := horizonBasis(armc, geolat)
	eta := angle.Atan2d(dot3(u, zen), dot3(u, east))
	return wrapPos(10+(90-eta)/30, 12)
}

// regioPos finds where the point's house circle crosses the system's
// reference circle: the celestial equator for circles through the north
// and south horizon points, the horizon itself for vertical circles.
func regioPos(armc, geolat, ra, dec float64, azimuthal bool) float64 {
	u := unitEq(ra, dec)
	east, north, _ := horizonBasis(armc, geolat)

	if azimuthal {
		// The vertical circle through the point meets the horizon at
		// azimuth t, counted from the east point toward the upper
		// meridian. The prime vertical carries cusp 1.
		t := angle.Atan2d(-dot3(u, north), dot3(u, east))
		return wrapPos(10+(90-t)/30, 12)
	}

	// Intersect the plane through the horizon axis and the point with
	// the equator, taking the crossing on the point's side of the axis.
	w := cross3(north, u)
	d := [3]float64{w[1], -w[0], 0}
	k := dot3(u, north)
	proj := [3]float64{u[0] - k*north[0], u[1] - k*north[1], u[2] - k*north[2]}
	if dot3(proj, d) < 0 {
		d = [3]float64{-d[0], -d[1], -d[2]}
	}
	off := angle.Difdeg2n(angle.Atan2d(d[1], d[0]), armc)
	return wrapPos(10+off/30, 12)
}

// interpPos interpolates the point's longitude between the system's
// cusps.
func interpPos(armc, geolat, eps float64, sys System, lon float64) (float64, ephem.Status, string) {
	res := HousesArmcEx(armc, geolat, eps, sys, math.NaN())
	n := len(res.Cusps) - 1
	for i := 1; i <= n; i++ {
		next := i%n + 1
		span := angle.Difdegn(res.Cusps[next], res.Cusps[i])
		if span == 0 {
			continue
		}
		off := angle.Difdegn(lon, res.Cusps[i])
		if off < span {
			return float64(i) + off/span, res.Status, res.Message
		}
	}
	return 1, res.Status, res.Message
}

// wrapPos folds a house position into [1, n+1).
func wrapPos(x float64, n float64) float64 {
	x = math.Mod(x-1, n)
	if x < 0 {
		x += n
	}
	return x + 1
}

func unitEq(ra, dec float64) [3]float64 {
	return [3]float64{
		angle.Cosd(dec) * angle.Cosd(ra),
		angle.Cosd(dec) * angle.Sind(ra),
		angle.Sind(dec),
	}
}

// horizonBasis returns the east, north and zenith unit vectors of the
// observer's horizon in the equatorial frame.
func horizonBasis(armc, geolat float64) (east, north, zen [3]float64) {
	sinA, cosA := angle.Sind(armc), angle.Cosd(armc)
	sinF, cosF := angle.Sind(geolat), angle.Cosd(geolat)
	east = [3]float64{-sinA, cosA, 0}
	north = [3]float64{-sinF * cosA, -sinF * sinA, cosF}
	zen = [3]float64{cosF * cosA, cosF * sinA, sinF}
	return east, north, zen
}
