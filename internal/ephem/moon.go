package ephem

import (
	"github.com/astro/skycalc/internal/angle"
)

// Truncated lunar theory after Meeus, "Astronomical Elements", ch. 47.
// Only the leading periodic terms are carried; that keeps geocentric
// longitude within roughly 10 arcseconds of the full series, well inside
// the analytic backend's accuracy class.

// moonTerm is one periodic term: multiples of D, M, M', F and the
// coefficient. Longitude/distance terms carry coefL (1e-6 deg) and
// coefR (1e-3 km); latitude terms use coefL only.
type moonTerm struct {
	d, m, mp, f  int
	coefL, coefR float64
}

var moonLonDist = []moonTerm{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
	{0, 1, 2, 0, -2120, 5751},
	{0, 2, 0, 0, -2069, 0},
	{2, -2, -1, 0, 2048, -4950},
	{2, 0, 1, -2, -1773, 4130},
	{2, 0, 0, 2, -1595, 0},
	{4, -1, -1, 0, 1215, -3958},
	{0, 0, 2, 2, -1110, 0},
	{3, 0, -1, 0, -892, 3258},
	{2, 1, 1, 0, -810, 2616},
	{4, -1, -2, 0, 759, -1897},
	{0, 2, -1, 0, -713, -2117},
	{2, 2, -1, 0, -700, 2354},
	{2, 1, -2, 0, 691, 0},
	{2, -1, 0, -2, 596, 0},
	{4, 0, 1, 0, 549, -1423},
	{0, 0, 4, 0, 537, -1117},
	{4, -1, 0, 0, 520, -1571},
	{1, 0, -2, 0, -487, -1739},
}

var moonLat = []moonTerm{
	{0, 0, 0, 1, 5128122, 0},
	{0, 0, 1, 1, 280602, 0},
	{0, 0, 1, -1, 277693, 0},
	{2, 0, 0, -1, 173237, 0},
	{2, 0, -1, 1, 55413, 0},
	{2, 0, -1, -1, 46271, 0},
	{2, 0, 0, 1, 32573, 0},
	{0, 0, 2, 1, 17198, 0},
	{2, 0, 1, -1, 9266, 0},
	{0, 0, 2, -1, 8822, 0},
	{2, -1, 0, -1, 8216, 0},
	{2, 0, -2, -1, 4324, 0},
	{2, 0, 1, 1, 4200, 0},
	{2, 1, 0, -1, -3359, 0},
	{2, -1, -1, 1, 2463, 0},
	{2, -1, 0, 1, 2211, 0},
	{2, -1, -1, -1, 2065, 0},
	{0, 1, -1, -1, -1870, 0},
	{4, 0, -1, -1, 1828, 0},
	{0, 1, 0, 1, -1794, 0},
	{0, 0, 0, 3, -1749, 0},
	{0, 1, -1, 1, -1565, 0},
	{1, 0, 0, 1, -1491, 0},
	{0, 1, 1, 1, -1475, 0},
	{0, 1, 1, -1, -1410, 0},
	{0, 1, 0, -1, -1344, 0},
	{1, 0, 0, -1, -1335, 0},
	{0, 0, 3, 1, 1107, 0},
	{4, 0, 0, -1, 1021, 0},
	{4, 0, -1, 1, 833, 0},
}

// moonArgs are the fundamental lunar arguments at time t (Julian
// centuries TT since J2000), all in degrees.
type moonArgs struct {
	lp float64 // mean longitude
	d  float64 // mean elongation
	m  float64 // solar mean anomaly
	mp float64 // lunar mean anomaly
	f  float64 // argument of latitude
	e  float64 // eccentricity damping factor
}

func lunarArgs(t float64) moonArgs {
	return moonArgs{
		lp: angle.Degnorm(218.3164477 + 481267.88123421*t - 0.0015786*t*t + t*t*t/538841 - t*t*t*t/65194000),
		d:  angle.Degnorm(297.8501921 + 445267.1114034*t - 0.0018819*t*t + t*t*t/545868 - t*t*t*t/113065000),
		m:  angle.Degnorm(357.5291092 + 35999.0502909*t - 0.0001536*t*t + t*t*t/24490000),
		mp: angle.Degnorm(134.9633964 + 477198.8675055*t + 0.0087414*t*t + t*t*t/69699 - t*t*t*t/14712000),
		f:  angle.Degnorm(93.2720950 + 483202.0175233*t - 0.0036539*t*t - t*t*t/3526000 + t*t*t*t/863310000),
		e:  1 - 0.002516*t - 0.0000074*t*t,
	}
}

// moonEcl returns the geocentric ecliptic-of-date longitude and latitude
// (degrees) and distance (AU) of the Moon's center.
func moonEcl(jdTT float64) (lon, lat, distAU float64) {
	t := (jdTT - 2451545.0) / 36525.0
	a := lunarArgs(t)

	a1 := angle.Degnorm(119.75 + 131.849*t)
	a2 := angle.Degnorm(53.09 + 479264.290*t)
	a3 := angle.Degnorm(313.45 + 481266.484*t)

	sumL := 0.0
	sumR := 0.0
	for _, tm := range moonLonDist {
		arg := float64(tm.d)*a.d + float64(tm.m)*a.m + float64(tm.mp)*a.mp + float64(tm.f)*a.f
		ef := 1.0
		switch tm.m {
		case 1, -1:
			ef = a.e
		case 2, -2:
			ef = a.e * a.e
		}
		sumL += tm.coefL * ef * angle.Sind(arg)
		sumR += tm.coefR * ef * angle.Cosd(arg)
	}
	sumL += 3958*angle.Sind(a1) + 1962*angle.Sind(a.lp-a.f) + 318*angle.Sind(a2)

	sumB := 0.0
	for _, tm := range moonLat {
		arg := float64(tm.d)*a.d + float64(tm.m)*a.m + float64(tm.mp)*a.mp + float64(tm.f)*a.f
		ef := 1.0
		switch tm.m {
		case 1, -1:
			ef = a.e
		case 2, -2:
			ef = a.e * a.e
		}
		sumB += tm.coefL * ef * angle.Sind(arg)
	}
	sumB += -2235*angle.Sind(a.lp) + 382*angle.Sind(a3) + 175*angle.Sind(a1-a.f) +
		175*angle.Sind(a1+a.f) + 127*angle.Sind(a.lp-a.mp) - 115*angle.Sind(a.lp+a.mp)

	lon = angle.Degnorm(a.lp + sumL*1e-6)
	lat = sumB * 1e-6
	distKm := 385000.56 + sumR*1e-3
	distAU = distKm / 149597870.7
	return lon, lat, distAU
}
