package search

import (
	"math"

	"github.com/astro/skycalc/internal/angle"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/timescale"
)

// Pheno holds the observable phenomena of a body at one moment.
type Pheno struct {
	PhaseAngle  float64 // sun-body-earth angle, degrees
	Phase       float64 // illuminated fraction of the disc, 0..1
	Elongation  float64 // angular distance from the Sun, degrees
	DiameterSec float64 // apparent diameter, arcseconds
	Magnitude   float64 // apparent visual magnitude
	Status      ephem.Status
	Message     string
}

// bodyDiameterKm lists equatorial diameters used for apparent sizes.
var bodyDiameterKm = map[ephem.Body]float64{
	ephem.Sun:     1392000,
	ephem.Moon:    3474.8,
	ephem.Mercury: 4879.4,
	ephem.Venus:   12103.6,
	ephem.Mars:    6792.4,
	ephem.Jupiter: 142984,
	ephem.Saturn:  120536,
	ephem.Uranus:  51118,
	ephem.Neptune: 49528,
	ephem.Pluto:   2376.6,
}

const auKm = 149597870.7

// semidiameterDeg is the apparent semidiameter of a body at the given
// geocentric distance; zero for bodies without a tabulated disc.
func semidiameterDeg(body ephem.Body, distAU float64) float64 {
	d, ok := bodyDiameterKm[body]
	if !ok || distAU <= 0 {
		return 0
	}
	return angle.Asind(d / 2 / (distAU * auKm))
}

// PhenoCalc computes phase, elongation, apparent diameter and magnitude
// for a body at jdTT.
func (e *Engine) PhenoCalc(jdTT float64, body ephem.Body) (Pheno, error) {
	var ph Pheno

	geo, err := position.Calc(e.st, jdTT, body, 0)
	if err != nil {
		return ph, err
	}
	sun, err := position.Calc(e.st, jdTT, ephem.Sun, 0)
	if err != nil {
		return ph, err
	}
	ph.Status = geo.Status
	ph.Message = geo.Message

	d := geo.Data[2]  // body-earth AU
	rE := sun.Data[2] // sun-earth AU
	ph.DiameterSec = semidiameterDeg(body, d) * 2 * 3600
	ph.Elongation = sepDeg(geo.Data[0], geo.Data[1], sun.Data[0], sun.Data[1])

	switch body {
	case ephem.Sun:
		ph.PhaseAngle = 0
		ph.Phase = 1
		ph.Elongation = 0
		ph.Magnitude = -26.74
		return ph, nil
	case ephem.Moon:
		// The phase angle of the Moon is the supplement of its solar
		// elongation, to first order.
		ph.PhaseAngle = 180 - ph.Elongation
		ph.Phase = (1 + angle.Cosd(ph.PhaseAngle)) / 2
		ph.Magnitude = moonMagnitude(ph.PhaseAngle, d)
		return ph, nil
	}

	// Heliocentric distance closes the sun-body-earth triangle.
	hel, err := position.Calc(e.st, jdTT, body, ephem.FlagHelio)
	if err != nil {
		return ph, err
	}
	r := hel.Data[2]
	cosI := (r*r + d*d - rE*rE) / (2 * r * d)
	ph.PhaseAngle = angle.Acosd(cosI)
	ph.Phase = (1 + cosI) / 2
	ph.Magnitude = planetMagnitude(body, r, d, ph.PhaseAngle)
	return ph, nil
}

// PhenoUT is PhenoCalc for a Universal Time argument.
func (e *Engine) PhenoUT(jdUT float64, body ephem.Body) (Pheno, error) {
	jdTT, warn := timescale.UTToTT(jdUT, e.st.Snapshot())
	ph, err := e.PhenoCalc(jdTT, body)
	if err == nil && warn != "" && ph.Status == ephem.StatusOK {
		ph.Status = ephem.StatusWarn
		ph.Message = warn
	}
	return ph, err
}

// planetMagnitude evaluates the standard phase-dependent magnitude
// polynomials; r and d in AU, i in degrees.
func planetMagnitude(body ephem.Body, r, d, i float64) float64 {
	dist := 5 * math.Log10(r*d)
	switch body {
	case ephem.Mercury:
		return -0.42 + dist + 0.0380*i - 0.000273*i*i + 2.0e-6*i*i*i
	case ephem.Venus:
		return -4.40 + dist + 0.0009*i + 0.000239*i*i - 6.5e-7*i*i*i
	case ephem.Mars:
		return -1.52 + dist + 0.016*i
	case ephem.Jupiter:
		return -9.40 + dist + 0.005*i
	case ephem.Saturn:
		// Ring contribution omitted; disc only.
		return -8.88 + dist + 0.044*i
	case ephem.Uranus:
		return -7.19 + dist
	case ephem.Neptune:
		return -6.87 + dist
	case ephem.Pluto:
		return -1.01 + dist
	}
	// Dark or uncatalogued bodies: distance modulus alone.
	return dist
}

// moonMagnitude follows Allen's fit, with the distance term relative to
// the mean lunar distance.
func moonMagnitude(i, distAU float64) float64 {
	const meanDistAU = 384399.0 / auKm
	m := -12.73 + 0.026*math.Abs(i) + 4.0e-9*i*i*i*i
	return m + 5*math.Log10(distAU/meanDistAU)
}
