package frame

import (
	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// InputFrame selects the frame of the coordinates handed to AzAlt.
type InputFrame int

const (
	// Ecliptic input: lon, lat in degrees of the ecliptic of date.
	Ecliptic InputFrame = iota
	// Equatorial input: right ascension and declination of date, degrees.
	Equatorial
)

// Horizontal holds the result of a horizontal transform. Azimuth is
// measured from true North through East, matching the look-angle
// convention used elsewhere in this codebase.
type Horizontal struct {
	AzimuthDeg  float64
	TrueAltDeg  float64
	AppAltDeg   float64 // refraction applied
}

// AzAlt converts ecliptic or equatorial coordinates of date to horizontal
// coordinates for an observer at geo (lon east, lat north, meters).
// Pressure in hPa and temperature in deg C feed the refraction model; a
// pressure of 0 selects the standard atmosphere.
func AzAlt(jdUT float64, in InputFrame, geo state.Observer, atPress, atTemp float64, xin [3]float64, snap *state.Snapshot) Horizontal {
	jdTT, _ := timescale.UTToTT(jdUT, snap)
	dpsi, deps := timescale.Nutation(jdTT)
	eps := timescale.MeanObliquity(jdTT) + deps

	eq := xin
	if in == Ecliptic {
		eq = Cotrans(xin, -eps)
	}
	ra, dec := eq[0], eq[1]

	armc := angle.Degnorm(timescale.SiderealTime0(jdUT, eps, dpsi)*15.0 + geo.LonDeg)
	ha := angle.Degnorm(armc - ra) // hour angle, westward positive

	sinLat, cosLat := angle.Sind(geo.LatDeg), angle.Cosd(geo.LatDeg)
	sinDec, cosDec := angle.Sind(dec), angle.Cosd(dec)
	sinHa, cosHa := angle.Sind(ha), angle.Cosd(ha)

	alt := angle.Asind(sinLat*sinDec + cosLat*cosDec*cosHa)
	// Azimuth from South through West, then rebased to North through East.
	azSouth := angle.Atan2d(sinHa, cosHa*sinLat-sinDec/cosDec*cosLat)
	az := angle.Degnorm(azSouth + 180.0)

	return Horizontal{
		AzimuthDeg: az,
		TrueAltDeg: alt,
		AppAltDeg:  Refrac(alt, atPress, atTemp, TrueToApparent),
	}
}

// AzAltRev converts horizontal coordinates (azimuth from North through
// East, true altitude, degrees) back to equatorial or ecliptic coordinates
// of date.
func AzAltRev(jdUT float64, out InputFrame, geo state.Observer, azDeg, trueAltDeg float64, snap *state.Snapshot) [3]float64 {
	jdTT, _ := timescale.UTToTT(jdUT, snap)
	dpsi, deps := timescale.Nutation(jdTT)
	eps := timescale.MeanObliquity(jdTT) + deps

	azSouth := azDeg - 180.0
	sinLat, cosLat := angle.Sind(geo.LatDeg), angle.Cosd(geo.LatDeg)
	sinAlt, cosAlt := angle.Sind(trueAltDeg), angle.Cosd(trueAltDeg)
	sinAz, cosAz := angle.Sind(azSouth), angle.Cosd(azSouth)

	dec := angle.Asind(sinLat*sinAlt - cosLat*cosAlt*cosAz)
	ha := angle.Atan2d(sinAz*cosAlt, cosAz*cosAlt*sinLat+sinAlt*cosLat)

	armc := angle.Degnorm(timescale.SiderealTime0(jdUT, eps, dpsi)*15.0 + geo.LonDeg)
	ra := angle.Degnorm(armc - ha)

	eq := [3]float64{ra, dec, 1.0}
	if out == Ecliptic {
		return Cotrans(eq, eps)
	}
	return eq
}
