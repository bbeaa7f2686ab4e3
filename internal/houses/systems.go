package houses

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
)

// asc1 is the horizon-intersection workhorse: the ecliptic longitude
// ascending over the horizon of an observer at latitude f when the
// local sidereal angle is x-90 degrees. The ascendant itself is
// asc1(armc+90, lat, eps); other systems reuse it with shifted angles
// and effective latitudes.
func asc1(x, f, eps float64) float64 {
	return angle.Degnorm(angle.Atan2d(
		angle.Sind(x),
		angle.Cosd(x)*angle.Cosd(eps)-angle.Tand(f)*angle.Sind(eps)))
}

// mcFromArmc projects the meridian onto the ecliptic.
func mcFromArmc(armc, eps float64) float64 {
	return angle.Degnorm(angle.Atan2d(angle.Sind(armc), angle.Cosd(armc)*angle.Cosd(eps)))
}

// raToEcl is the ecliptic longitude of the ecliptic point with the given
// right ascension (projection along meridian circles).
func raToEcl(ra, eps float64) float64 {
	return angle.Degnorm(angle.Atan2d(angle.Sind(ra), angle.Cosd(ra)*angle.Cosd(eps)))
}

// eqToEcl is the ecliptic longitude of the equator point at the given
// right ascension (Morinus projection).
func eqToEcl(ra, eps float64) float64 {
	return angle.Degnorm(angle.Atan2d(angle.Sind(ra)*angle.Cosd(eps), angle.Cosd(ra)))
}

// declOf returns the declination of the ecliptic point at longitude lon.
func declOf(lon, eps float64) float64 {
	return angle.Asind(angle.Sind(lon) * angle.Sind(eps))
}

// raOf returns the right ascension of the ecliptic point at longitude lon.
func raOf(lon, eps float64) float64 {
	return angle.Degnorm(angle.Atan2d(angle.Sind(lon)*angle.Cosd(eps), angle.Cosd(lon)))
}

// quadrantFix keeps an intermediate cusp in the semicircle following the
// midheaven; the atan2 solutions are ambiguous by 180 degrees.
func quadrantFix(cusp, mc float64) float64 {
	if angle.Difdegn(cusp, mc) >= 180 {
		return angle.Degnorm(cusp + 180)
	}
	return cusp
}

// polarDegenerate reports whether quadrant geometry breaks down: at and
// beyond the polar circles the ecliptic no longer intersects the horizon
// transversally for every sidereal angle.
func polarDegenerate(geolat, eps float64) bool {
	return math.Abs(geolat) >= 90-eps
}

// HousesArmcEx is HousesArmc with an explicit declination for the
// Sunshine systems (NaN when unused).
func HousesArmcEx(armc, geolat, eps float64, sys System, sunDecl float64) Result {
	if sys == 'A' {
		sys = Equal
	}
	armc = angle.Degnorm(armc)

	res := Result{}
	res.ARMC = armc
	res.MC = mcFromArmc(armc, eps)
	res.Asc = asc1(armc+90, geolat, eps)

	// Auxiliary points shared by every system. The co-latitude feeds the
	// vertex and the co-ascendants; tan's half-turn period makes the same
	// expression serve both hemispheres.
	colat := 90 - geolat
	res.Vertex = asc1(armc+270, colat, eps)
	res.EquatorialAsc = asc1(armc+90, 0, eps)
	res.CoAscKoch = asc1(armc+90, colat, eps)
	res.CoAscMunkasey = asc1(armc-90, -geolat, eps)
	res.PolarAsc = asc1(armc-90, geolat, eps)

	// Beyond the polar circles the horizon-based ascendant may come out
	// on the setting side; force it east of the meridian so the fallback
	// systems stay ordered.
	if angle.Difdegn(res.Asc, res.MC) >= 180 {
		res.Asc = angle.Degnorm(res.Asc + 180)
	}

	if sys == Gauquelin {
		return gauquelinSectors(res, armc, geolat, eps)
	}

	res.Cusps = make([]float64, 13)
	quadrant := false

	switch sys {
	case Equal:
		equalCusps(res.Cusps, res.Asc)
	case EqualMC:
		equalCusps(res.Cusps, angle.Degnorm(res.MC+270))
	case Vehlow:
		equalCusps(res.Cusps, angle.Degnorm(res.Asc-15))
	case WholeSign:
		equalCusps(res.Cusps, math.Floor(res.Asc/30)*30)
	case Porphyry:
		porphyryCusps(res.Cusps, res.Asc, res.MC)
	case Sripati:
		var p [13]float64
		porphyryCusps(p[:], res.Asc, res.MC)
		for i := 1; i <= 12; i++ {
			prev := p[(i+10)%12+1]
			res.Cusps[i] = angle.DegMidp(prev, p[i])
		}
	case PullenSD:
		pullenSD(res.Cusps, res.Asc, res.MC)
	case PullenSR:
		pullenSR(res.Cusps, res.Asc, res.MC)
	case Carter:
		ra1 := raOf(res.Asc, eps)
		for i := 1; i <= 12; i++ {
			res.Cusps[i] = raToEcl(ra1+30*float64(i-1), eps)
		}
	case Morinus:
		for i := 1; i <= 12; i++ {
			res.Cusps[i] = eqToEcl(armc+60+30*float64(i), eps)
		}
	case Meridian:
		for i := 1; i <= 12; i++ {
			res.Cusps[i] = raToEcl(armc+30*float64(i-10), eps)
		}
	case APC:
		for i := 1; i <= 12; i++ {
			res.Cusps[i] = asc1(armc+90+30*float64(i-1), geolat, eps)
		}
		res.Cusps[1] = res.Asc
	default:
		quadrant = true
	}

	if !quadrant {
		res.Status = ephem.StatusOK
		return res
	}

	if polarDegenerate(geolat, eps) {
		porphyryCusps(res.Cusps, res.Asc, res.MC)
		res.Status = ephem.StatusWarn
		res.Message = "quadrant house system undefined at polar latitude, Porphyry substituted"
		return res
	}

	ok := true
	fullSet := false
	switch sys {
	case Regiomontanus:
		for i, d := range []float64{30, 60, 120, 150} {
			fh := angle.Atand(angle.Tand(geolat) * angle.Sind(d))
			c := asc1(armc+d, fh, eps)
			res.Cusps[cuspIdx(i)] = quadrantFix(c, res.MC)
		}
	case Campanus:
		for i, d := range []float64{60, 30, -30, -60} {
			c := campanusCusp(armc, geolat, eps, d)
			res.Cusps[cuspIdx(i)] = quadrantFix(c, res.MC)
		}
	case PolichPage:
		for i, d := range []float64{30, 60, 120, 150} {
			frac := 1.0
			if d == 30 || d == 150 {
				frac = 1.0 / 3
			} else {
				frac = 2.0 / 3
			}
			fh := angle.Atand(angle.Tand(geolat) * frac)
			c := asc1(armc+d, fh, eps)
			res.Cusps[cuspIdx(i)] = quadrantFix(c, res.MC)
		}
	case Horizon:
		// Vertical circles every 30 degrees of azimuth; the prime
		// vertical itself carries cusp 1, so the first house begins at
		// the antivertex rather than the ascendant.
		for i, az := range []float64{60, 30, -30, -60} {
			c := horizonCusp(armc, geolat, eps, az)
			res.Cusps[cuspIdx(i)] = quadrantFix(c, res.MC)
		}
		res.Cusps[1] = angle.Degnorm(res.Vertex + 180)
		res.Cusps[10] = res.MC
		res.Cusps[4] = angle.Degnorm(res.MC + 180)
		res.Cusps[7] = res.Vertex
		oppositeCusps(res.Cusps)
		res.Status = ephem.StatusOK
		return res
	case Koch:
		ok = kochCusps(res.Cusps, armc, geolat, eps, declOf(res.MC, eps))
	case Sunshine, SunshineAlt:
		if math.IsNaN(sunDecl) {
			ok = false
		} else {
			ok = kochCusps(res.Cusps, armc, geolat, eps, sunDecl)
		}
	case Alcabitius:
		ok = alcabitiusCusps(res.Cusps, armc, geolat, eps, res.Asc)
	case Placidus:
		ok = placidusCusps(res.Cusps, armc, geolat, eps)
	case Krusinski:
		krusinskiCusps(res.Cusps, armc, geolat, eps, res.Asc)
		fullSet = true
	default:
		// Unknown code: equal houses from the ascendant.
		equalCusps(res.Cusps, res.Asc)
		res.Status = ephem.StatusWarn
		res.Message = "unknown house system, equal houses substituted"
		return res
	}

	if !ok {
		porphyryCusps(res.Cusps, res.Asc, res.MC)
		res.Status = ephem.StatusWarn
		res.Message = "house system degenerate for this latitude, Porphyry substituted"
		return res
	}

	if !fullSet {
		res.Cusps[1] = res.Asc
		res.Cusps[10] = res.MC
		res.Cusps[4] = angle.Degnorm(res.MC + 180)
		res.Cusps[7] = angle.Degnorm(res.Asc + 180)
		oppositeCusps(res.Cusps)
	}
	return res
}

// cuspIdx maps the quadrant loop order (11, 12, 2, 3) to cusp indices.
func cuspIdx(i int) int { return []int{11, 12, 2, 3}[i] }

// oppositeCusps fills 5, 6, 8, 9 from their opposites.
func oppositeCusps(c []float64) {
	c[5] = angle.Degnorm(c[11] + 180)
	c[6] = angle.Degnorm(c[12] + 180)
	c[8] = angle.Degnorm(c[2] + 180)
	c[9] = angle.Degnorm(c[3] + 180)
}

func equalCusps(c []float64, first float64) {
	for i := 1; i <= 12; i++ {
		c[i] = angle.Degnorm(first + 30*float64(i-1))
	}
}

func porphyryCusps(c []float64, asc, mc float64) {
	q := angle.Difdegn(asc, mc) // MC-to-Asc quadrant size
	c[1] = asc
	c[10] = mc
	c[11] = angle.Degnorm(mc + q/3)
	c[12] = angle.Degnorm(mc + 2*q/3)
	p := 180 - q
	c[2] = angle.Degnorm(asc + p/3)
	c[3] = angle.Degnorm(asc + 2*p/3)
	c[4] = angle.Degnorm(mc + 180)
	c[7] = angle.Degnorm(asc + 180)
	oppositeCusps(c)
}

// pullenSD splits each Porphyry quadrant so the middle house takes half
// of the deviation from 90 degrees and the outer houses a quarter each.
func pullenSD(c []float64, asc, mc float64) {
	q := angle.Difdegn(asc, mc)
	w := (q - 90) / 4
	c[10] = mc
	c[11] = angle.Degnorm(mc + 30 + w)
	c[12] = angle.Degnorm(c[11] + 30 + 2*w)
	c[1] = asc
	p := 180 - q
	w = (p - 90) / 4
	c[2] = angle.Degnorm(asc + 30 + w)
	c[3] = angle.Degnorm(c[2] + 30 + 2*w)
	c[4] = angle.Degnorm(mc + 180)
	c[7] = angle.Degnorm(asc + 180)
	oppositeCusps(c)
}

// pullenSR splits each quadrant in the ratio q : (180 - q), keeping the
// outer houses equal.
func pullenSR(c []float64, asc, mc float64) {
	q := angle.Difdegn(asc, mc)
	p := 180 - q
	fill := func(start, span, other float64, i1, i2 int) {
		r := span / other
		s1 := span / (2 + r)
		s2 := r * s1
		c[i1] = angle.Degnorm(start + s1)
		c[i2] = angle.Degnorm(start + s1 + s2)
	}
	c[10] = mc
	c[1] = asc
	fill(mc, q, p, 11, 12)
	fill(asc, p, q, 2, 3)
	c[4] = angle.Degnorm(mc + 180)
	c[7] = angle.Degnorm(asc + 180)
	oppositeCusps(c)
}

// campanusCusp solves the ecliptic intersection of the house circle
// through the north and south horizon points and the prime-vertical
// altitude eta.
func campanusCusp(armc, geolat, eps, eta float64) float64 {
	sinE, cosE := angle.Sind(eta), angle.Cosd(eta)
	sinA, cosA := angle.Sind(armc), angle.Cosd(armc)
	sinF, cosF := angle.Sind(geolat), angle.Cosd(geolat)

	// House-circle plane normal in the equatorial frame.
	w := [3]float64{
		sinE*sinA + cosE*cosF*cosA,
		-sinE*cosA + cosE*cosF*sinA,
		cosE * sinF,
	}
	return eclFromNormal(w, eps)
}

// horizonCusp intersects the ecliptic with the vertical circle at
// azimuth az degrees from the east point (house circles of the azimuthal
// system pass through zenith and nadir).
func horizonCusp(armc, geolat, eps, az float64) float64 {
	sinZ, cosZ := angle.Sind(az), angle.Cosd(az)
	sinA, cosA := angle.Sind(armc), angle.Cosd(armc)
	sinF, cosF := angle.Sind(geolat), angle.Cosd(geolat)

	// Direction of the horizon point at angle az east of the east point,
	// in the equatorial frame; the house circle joins it to the zenith.
	east := [3]float64{-sinA, cosA, 0}
	north := [3]float64{-sinF * cosA, -sinF * sinA, cosF}
	var h [3]float64
	for k := 0; k < 3; k++ {
		h[k] = cosZ*east[k] + sinZ*north[k]
	}
	zen := [3]float64{cosF * cosA, cosF * sinA, sinF}

	// Normal of the plane through the zenith and the horizon point.
	w := [3]float64{
		h[1]*zen[2] - h[2]*zen[1],
		h[2]*zen[0] - h[0]*zen[2],
		h[0]*zen[1] - h[1]*zen[0],
	}
	return eclFromNormal(w, eps)
}

// eclFromNormal returns one ecliptic intersection of the great circle
// with the given plane normal (equatorial frame); callers fix the
// quadrant.
func eclFromNormal(w [3]float64, eps float64) float64 {
	return angle.Degnorm(angle.Atan2d(-w[0], w[1]*angle.Cosd(eps)+w[2]*angle.Sind(eps)))
}

// kochCusps fills the intermediate cusps by trisecting the diurnal arc
// of the point with declination decl (the midheaven degree for Koch
// proper, the Sun for the Sunshine systems). Reports false when the
// declination never rises or never sets at this latitude.
func kochCusps(c []float64, armc, geolat, eps, decl float64) bool {
	s := angle.Tand(geolat) * angle.Tand(decl)
	if math.Abs(s) >= 1 {
		return false
	}
	ad3 := angle.Asind(s) / 3
	c[11] = asc1(armc+30-2*ad3, geolat, eps)
	c[12] = asc1(armc+60-ad3, geolat, eps)
	c[2] = asc1(armc+120+ad3, geolat, eps)
	c[3] = asc1(armc+150+2*ad3, geolat, eps)
	return true
}

// alcabitiusCusps trisects the diurnal and nocturnal semi-arcs of the
// ascendant degree in right ascension.
func alcabitiusCusps(c []float64, armc, geolat, eps, asc float64) bool {
	decl := declOf(asc, eps)
	s := angle.Tand(geolat) * angle.Tand(decl)
	if math.Abs(s) >= 1 {
		return false
	}
	sda := 90 + angle.Asind(s) // semi-diurnal arc of the ascendant degree
	sna := 180 - sda
	c[11] = raToEcl(armc+sda/3, eps)
	c[12] = raToEcl(armc+2*sda/3, eps)
	c[2] = raToEcl(armc+sda+sna/3, eps)
	c[3] = raToEcl(armc+sda+2*sna/3, eps)
	return true
}

// placidusCusps solves the standard Placidus fixed-point problem: each
// intermediate cusp sits at a fixed fraction of its own semi-arc from the
// meridian.
func placidusCusps(c []float64, armc, geolat, eps float64) bool {
	tanF := angle.Tand(geolat)
	solve := func(start, frac float64, nocturnal bool) (float64, bool) {
		ra := angle.Degnorm(armc + start)
		var lon float64
		for i := 0; i < 40; i++ {
			lon = raToEcl(ra, eps)
			s := tanF * angle.Tand(declOf(lon, eps))
			if math.Abs(s) >= 1 {
				return 0, false
			}
			ad := angle.Asind(s)
			var h float64
			if nocturnal {
				h = 180 - frac*(90-ad)
			} else {
				h = frac * (90 + ad)
			}
			ra = angle.Degnorm(armc + h)
		}
		return raToEcl(ra, eps), true
	}

	var ok bool
	if c[11], ok = solve(30, 1.0/3, false); !ok {
		return false
	}
	if c[12], ok = solve(60, 2.0/3, false); !ok {
		return false
	}
	if c[2], ok = solve(120, 2.0/3, true); !ok {
		return false
	}
	if c[3], ok = solve(150, 1.0/3, true); !ok {
		return false
	}
	return true
}

// krusinskiCusps divides the great circle through the zenith and the
// ascendant into twelve and projects the division points onto the
// ecliptic through the circle's own poles. All twelve cusps come from
// the division; opposite pairs fall out of the symmetry.
func krusinskiCusps(c []float64, armc, geolat, eps, asc float64) {
	sinA, cosA := angle.Sind(armc), angle.Cosd(armc)
	sinF, cosF := angle.Sind(geolat), angle.Cosd(geolat)
	zen := [3]float64{cosF * cosA, cosF * sinA, sinF}

	// Ascendant direction in the equatorial frame.
	ad := declOf(asc, eps)
	ar := raOf(asc, eps)
	ascV := [3]float64{
		angle.Cosd(ad) * angle.Cosd(ar),
		angle.Cosd(ad) * angle.Sind(ar),
		angle.Sind(ad),
	}

	// Orthonormal basis of the zenith-ascendant circle.
	dp := dot3(zen, ascV)
	var up [3]float64
	n := 0.0
	for k := 0; k < 3; k++ {
		up[k] = zen[k] - dp*ascV[k]
		n += up[k] * up[k]
	}
	n = math.Sqrt(n)
	for k := 0; k < 3; k++ {
		up[k] /= n
	}
	axis := cross3(ascV, up) // pole of the circle

	prev := asc
	c[1] = asc
	for i := 2; i <= 12; i++ {
		t := 30 * float64(i-1)
		var p [3]float64
		for k := 0; k < 3; k++ {
			p[k] = angle.Cosd(t)*ascV[k] + angle.Sind(t)*up[k]
		}
		w := cross3(axis, p)
		lon := eclFromNormal(w, eps)
		// Keep the cusps in increasing zodiacal order; the intersection
		// formula is ambiguous by a half turn.
		if d := angle.Difdegn(lon, prev); d >= 90 && d < 270 {
			lon = angle.Degnorm(lon + 180)
		}
		c[i] = lon
		prev = lon
	}
}

// gauquelinSectors fills 36 sector cusps, numbered clockwise from the
// ascendant in the direction of diurnal motion, by the semi-arc method.
// Sector geometry degenerates at polar latitudes like the quadrant
// systems; equal sectors substitute with a warning.
func gauquelinSectors(res Result, armc, geolat, eps float64) Result {
	res.Cusps = make([]float64, 37)

	if polarDegenerate(geolat, eps) {
		for k := 1; k <= 36; k++ {
			res.Cusps[k] = angle.Degnorm(res.Asc - 10*float64(k-1))
		}
		res.Status = ephem.StatusWarn
		res.Message = "Gauquelin sectors undefined at polar latitude, equal sectors substituted"
		return res
	}

	tanF := angle.Tand(geolat)
	// solve finds the ecliptic degree whose hour angle is the given
	// fraction of its own semi-arc. A body east of the meridian (not yet
	// culminated) has right ascension greater than the ARMC.
	solve := func(frac float64, nocturnal bool) (float64, bool) {
		base := armc
		if nocturnal {
			base = armc + 180
		}
		ra := angle.Degnorm(base - frac*90)
		var lon float64
		for i := 0; i < 40; i++ {
			lon = raToEcl(ra, eps)
			s := tanF * angle.Tand(declOf(lon, eps))
			if math.Abs(s) >= 1 {
				return 0, false
			}
			ad := angle.Asind(s)
			var sa float64
			if nocturnal {
				sa = 90 - ad
			} else {
				sa = 90 + ad
			}
			ra = angle.Degnorm(base - frac*sa)
		}
		return raToEcl(ra, eps), true
	}

	// Sector boundary k sits at hour angle (k-10)/9 semi-arcs on the
	// diurnal side (k = 1 rising, k = 10 culminating, k = 19 setting) and
	// (k-28)/9 nocturnal semi-arcs past the setting point.
	ok := true
	for k := 1; k <= 36 && ok; k++ {
		var lon float64
		if k <= 18 {
			lon, ok = solve(float64(k-10)/9, false)
		} else {
			lon, ok = solve(float64(k-28)/9, true)
		}
		res.Cusps[k] = lon
	}
	if !ok {
		for k := 1; k <= 36; k++ {
			res.Cusps[k] = angle.Degnorm(res.Asc - 10*float64(k-1))
		}
		res.Status = ephem.StatusWarn
		res.Message = "Gauquelin sector geometry degenerate, equal sectors substituted"
		return res
	}
	res.Cusps[1] = res.Asc
	res.Cusps[10] = res.MC
	res.Cusps[19] = angle.Degnorm(res.Asc + 180)
	res.Cusps[28] = angle.Degnorm(res.MC + 180)
	return res
}

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
