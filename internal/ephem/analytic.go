package ephem

import (
	"fmt"
	"math"

	"github.com/astro/skycalc/internal/angle"
)

// Builtin analytic provider. Planets use the Keplerian mean elements and
// centennial rates of Standish's approximate theory; the Moon uses a
// truncated ELP-style trigonometric series. Accuracy is in the arcminute
// class, which is the documented contract of the analytic fallback backend.

// analyticStart/End bound the validity of the mean-element fits.
const (
	analyticStart = 990557.5  // -3000-01-01
	analyticEnd   = 3912514.5 // +5000-01-01
)

// earthMoonMassRatio is the mass ratio Earth/Moon used to reduce the
// Earth-Moon barycenter to the Earth's center.
const earthMoonMassRatio = 81.30056

// gmEarthMoon is GM of the Earth-Moon system in AU^3/day^2, used for
// osculating lunar elements.
const gmEarthMoon = 8.997011e-10

// kepElements holds mean orbital elements at J2000 and their centennial
// rates: semi-major axis (AU), eccentricity, inclination, mean longitude,
// longitude of perihelion, longitude of ascending node (degrees).
type kepElements struct {
	a, e, i, l, w, o     float64
	da, de, di, dl, dw, dom float64
}

var planetElements = map[Body]kepElements{
	Mercury: {0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081},
	Venus: {0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418},
	Earth: {1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0.0},
	Mars: {1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343},
	Jupiter: {5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106},
	Saturn: {9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66424448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794},
	Uranus: {19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589},
	Neptune: {30.06992276, 0.00859048, 1.77004347, -55.12002969, 44.96476227, 131.78422574,
		0.00026291, 0.00005105, 0.00035372, 218.45945325, -0.32241464, -0.00508664},
	Pluto: {39.48211675, 0.24882730, 17.14001206, 238.92903833, 224.06891629, 110.30393684,
		-0.00031596, 0.00005170, 0.00004818, 145.20780515, -0.04062942, -0.01183482},
}

// Mean elements for the catalogued minor planets served by the analytic
// backend. Coarser than the planetary fits but adequate for the fallback
// contract.
var asteroidElements = map[Body]kepElements{
	Ceres:  {2.76751, 0.07582, 10.5935, 153.9, 73.1, 80.33, 0, 0, 0, 28211.45, 0, 0},
	Pallas: {2.77306, 0.23061, 34.8366, 229.8, 310.2, 173.09, 0, 0, 0, 28126.62, 0, 0},
	Juno:   {2.66815, 0.25685, 12.9891, 33.1, 248.1, 169.85, 0, 0, 0, 29802.12, 0, 0},
	Vesta:  {2.36179, 0.08874, 7.1404, 204.3, 151.2, 103.81, 0, 0, 0, 35794.98, 0, 0},
	Chiron: {13.6981, 0.38315, 6.9352, 207.3, 339.4, 209.38, 0, 0, 0, 710.42, 0, 0},
	Pholus: {20.3181, 0.57303, 24.6606, 126.9, 354.9, 119.42, 0, 0, 0, 393.10, 0, 0},
}

// Analytic is the builtin provider.
type Analytic struct{}

func init() {
	Register(BackendAnalytic, Analytic{})
}

// State implements Provider.
func (Analytic) State(jdTT float64, body Body) (StateVector, error) {
	if jdTT < analyticStart || jdTT > analyticEnd {
		return StateVector{}, fmt.Errorf("%w: jd %.1f outside [%.1f, %.1f] (analytic)",
			ErrOutOfRange, jdTT, analyticStart, analyticEnd)
	}
	switch {
	case body == Sun:
		return StateVector{Frame: Heliocentric}, nil
	case body == Moon:
		return moonState(jdTT), nil
	case body == Earth:
		return earthState(jdTT), nil
	case body == MeanNode:
		return meanNodeState(jdTT), nil
	case body == TrueNode:
		return oscNodeState(jdTT, false), nil
	case body == MeanApogee:
		return meanApogeeState(jdTT), nil
	case body == OscuApogee:
		return oscNodeState(jdTT, true), nil
	case body >= Mercury && body <= Pluto:
		el := planetElements[body]
		return keplerState(jdTT, el), nil
	case body >= Chiron && body <= Vesta:
		return keplerState(jdTT, asteroidElements[body]), nil
	case body >= AstOffset:
		return StateVector{}, fmt.Errorf("%w: asteroid %d not in analytic catalog",
			ErrDataUnavailable, int(body-AstOffset))
	default:
		return StateVector{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}
}

// FileData implements Provider.
func (Analytic) FileData(Body) FileData {
	return FileData{Path: "(builtin)", Start: analyticStart, End: analyticEnd, Denum: 0}
}

// Close implements Provider. The analytic theory holds no resources.
func (Analytic) Close() error { return nil }

// velStep is the differencing interval (days) for analytic velocities.
const velStep = 0.05

// keplerState evaluates Keplerian elements to a heliocentric ecliptic
// J2000 state, with velocity from symmetric differencing.
func keplerState(jdTT float64, el kepElements) StateVector {
	p0 := keplerPos(jdTT, el)
	p1 := keplerPos(jdTT-velStep, el)
	p2 := keplerPos(jdTT+velStep, el)
	var v StateVector
	v.Frame = Heliocentric
	v.Pos = p0
	for k := 0; k < 3; k++ {
		v.Vel[k] = (p2[k] - p1[k]) / (2 * velStep)
	}
	return v
}

func keplerPos(jdTT float64, el kepElements) [3]float64 {
	t := (jdTT - 2451545.0) / 36525.0

	a := el.a + el.da*t
	e := el.e + el.de*t
	inc := el.i + el.di*t
	l := el.l + el.dl*t
	w := el.w + el.dw*t
	om := el.o + el.dom*t

	m := angle.Degnorm(l - w)       // mean anomaly
	argPeri := w - om               // argument of perihelion
	ea := solveKepler(m, e)         // eccentric anomaly, degrees

	// Position in the orbital plane.
	xp := a * (angle.Cosd(ea) - e)
	yp := a * math.Sqrt(1-e*e) * angle.Sind(ea)

	// Rotate by argument of perihelion, inclination, node.
	cosW, sinW := angle.Cosd(argPeri), angle.Sind(argPeri)
	cosO, sinO := angle.Cosd(om), angle.Sind(om)
	cosI, sinI := angle.Cosd(inc), angle.Sind(inc)

	x := (cosW*cosO-sinW*sinO*cosI)*xp + (-sinW*cosO-cosW*sinO*cosI)*yp
	y := (cosW*sinO+sinW*cosO*cosI)*xp + (-sinW*sinO+cosW*cosO*cosI)*yp
	z := sinW*sinI*xp + cosW*sinI*yp

	return [3]float64{x, y, z}
}

// solveKepler solves Kepler's equation M = E - e sin E by Newton
// iteration. Arguments and result in degrees.
func solveKepler(mDeg, e float64) float64 {
	m := angle.Degnorm(mDeg) * angle.DegToRad
	ea := m
	if e > 0.8 {
		ea = math.Pi
	}
	for i := 0; i < 30; i++ {
		d := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= d
		if math.Abs(d) < 1e-13 {
			break
		}
	}
	return ea * angle.RadToDeg
}

// earthState reduces the Earth-Moon barycenter to the Earth's center using
// the geocentric lunar position.
func earthState(jdTT float64) StateVector {
	emb := keplerState(jdTT, planetElements[Earth])
	moon := moonState(jdTT)
	f := 1.0 / (1.0 + earthMoonMassRatio)
	for k := 0; k < 3; k++ {
		emb.Pos[k] -= moon.Pos[k] * f
		emb.Vel[k] -= moon.Vel[k] * f
	}
	return emb
}
