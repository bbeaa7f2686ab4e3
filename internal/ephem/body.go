// Package ephem defines the body and flag model shared by every
// computation, the ephemeris-provider boundary, and the built-in analytic
// provider used when no high-precision data source is configured.
package ephem

import (
	"errors"
	"fmt"
)

// Body identifies a celestial body. The numbering is the caller-facing wire
// format and must stay stable.
type Body int

const (
	Sun     Body = 0
	Moon    Body = 1
	Mercury Body = 2
	Venus   Body = 3
	Mars    Body = 4
	Jupiter Body = 5
	Saturn  Body = 6
	Uranus  Body = 7
	Neptune Body = 8
	Pluto   Body = 9
	// MeanNode and TrueNode are the lunar nodes; the apogees are the mean
	// and osculating lunar apogee (the latter computed from the momentary
	// orbit).
	MeanNode   Body = 10
	TrueNode   Body = 11
	MeanApogee Body = 12
	OscuApogee Body = 13
	Earth      Body = 14
	Chiron     Body = 15
	Pholus     Body = 16
	Ceres      Body = 17
	Pallas     Body = 18
	Juno       Body = 19
	Vesta      Body = 20

	// EclNut is the "ecliptic and nutation" pseudo-body: a position query
	// for it returns (true obliquity, mean obliquity, nutation in
	// longitude, nutation in obliquity) in the first four result slots.
	EclNut Body = -1

	// AstOffset is added to a minor-planet catalog number to form its Body
	// value: AstOffset + 433 is (433) Eros.
	AstOffset Body = 10000
)

var bodyNames = map[Body]string{
	Sun: "Sun", Moon: "Moon", Mercury: "Mercury", Venus: "Venus",
	Mars: "Mars", Jupiter: "Jupiter", Saturn: "Saturn", Uranus: "Uranus",
	Neptune: "Neptune", Pluto: "Pluto", MeanNode: "mean Node",
	TrueNode: "true Node", MeanApogee: "mean Apogee", OscuApogee: "osc. Apogee",
	Earth: "Earth", Chiron: "Chiron", Pholus: "Pholus", Ceres: "Ceres",
	Pallas: "Pallas", Juno: "Juno", Vesta: "Vesta", EclNut: "Ecliptic/Nutation",
}

// Name returns the display name of a body.
func (b Body) Name() string {
	if n, ok := bodyNames[b]; ok {
		return n
	}
	if b.IsAsteroid() {
		return fmt.Sprintf("asteroid %d", int(b-AstOffset))
	}
	return fmt.Sprintf("body %d", int(b))
}

// IsPlanet reports whether b is one of the major planets, Sun, Moon,
// or Pluto.
func (b Body) IsPlanet() bool { return b >= Sun && b <= Pluto }

// IsNodeOrApogee reports whether b is a lunar node or apogee point.
func (b Body) IsNodeOrApogee() bool { return b >= MeanNode && b <= OscuApogee }

// IsAsteroid reports whether b addresses a minor planet by catalog offset.
func (b Body) IsAsteroid() bool { return b >= AstOffset || (b >= Chiron && b <= Vesta) }

// Valid reports whether b is a computable body identifier.
func (b Body) Valid() bool {
	return b == EclNut || (b >= Sun && b <= Vesta) || b >= AstOffset
}

// Errors shared across providers and engines. Each failure class is
// distinct so callers can tell bad input from missing data from an
// out-of-range date.
var (
	// ErrUnknownBody reports a body identifier outside the enumeration.
	ErrUnknownBody = errors.New("ephem: unknown body")
	// ErrDataUnavailable reports that the backing data for a lookup is not
	// present (missing file, unregistered backend, uncatalogued asteroid).
	ErrDataUnavailable = errors.New("ephem: ephemeris data unavailable")
	// ErrOutOfRange reports a date outside a backend's validity window.
	ErrOutOfRange = errors.New("ephem: date outside ephemeris range")
	// ErrStarNotFound reports a fixed-star name with no catalog match.
	ErrStarNotFound = errors.New("ephem: fixed star not found")
)
