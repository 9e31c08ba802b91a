package ephemeris

import (
	"errors"
	"fmt"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Errors returned by the engine.
var (
	ErrOutOfRange  = errors.New("ephemeris: julian day outside supported range")
	ErrUnknownBody = errors.New("ephemeris: unknown body")
	ErrPolarDay    = errors.New("ephemeris: sun does not rise or set at this latitude")
)

// Supported JD range for the built-in kernel (years ~600..2400). The
// truncated series degrade outside it.
const (
	minJD = 1940000.5
	maxJD = 2597640.5
)

// NodeMode selects how the lunar node is computed.
type NodeMode string

const (
	MeanNode NodeMode = "mean"
	TrueNode NodeMode = "true"
)

// Config fixes the process-wide ephemeris settings. It is read once when the
// engine is built; there are no mutable knobs afterwards.
type Config struct {
	Ayanamsa string   // "lahiri" (default), "krishnamurti", "raman"
	Node     NodeMode // MeanNode (default) or TrueNode
}

// Engine is the single seam between astrology and astronomy. Implementations
// must be safe for concurrent use.
type Engine interface {
	// Position returns the sidereal position of a body at a JD in UT.
	Position(body models.Body, jd float64) (models.Position, error)

	// Ayanamsa returns the tropical-sidereal offset in degrees at jd.
	Ayanamsa(jd float64) float64

	// SunRiseSet returns rise and set JDs for the civil day starting at
	// local midnight jd0 at the given geographic position.
	SunRiseSet(jd0, lat, lon float64) (rise, set float64, err error)
}

// ayanamsa epoch values at J2000 by mode; all modes share the precession
// rate of 50.2888 arcsec per Julian year.
var ayanamsaJ2000 = map[string]float64{
	"lahiri":       23.85675,
	"krishnamurti": 23.75292,
	"raman":        22.46472,
}

const ayanamsaRate = 50.2888 / 3600 // deg per Julian year

// NewEngine builds the analytic kernel for the given configuration.
func NewEngine(cfg Config) (Engine, error) {
	mode := cfg.Ayanamsa
	if mode == "" {
		mode = "lahiri"
	}
	base, ok := ayanamsaJ2000[mode]
	if !ok {
		return nil, fmt.Errorf("ephemeris: unknown ayanamsa mode %q", cfg.Ayanamsa)
	}
	node := cfg.Node
	if node == "" {
		node = MeanNode
	}
	if node != MeanNode && node != TrueNode {
		return nil, fmt.Errorf("ephemeris: unknown node mode %q", cfg.Node)
	}
	return &kernel{ayanamsaBase: base, node: node}, nil
}

func checkRange(jd float64) error {
	if jd < minJD || jd > maxJD {
		return fmt.Errorf("%w: jd=%.2f", ErrOutOfRange, jd)
	}
	return nil
}
