package genome

import (
	"errors"
	"math/rand"
)

// ErrOutOfBounds is returned by Valid when an attribute escapes its range.
var ErrOutOfBounds = errors.New("genome: attribute out of bounds")

// Default attribute ranges. Each range is [Min, Min+Range].
const (
	DefaultAxisMin      = 0.1
	DefaultAxisRange    = 1.1
	DefaultDensityMin   = 40.0
	DefaultDensityRange = 60.0
	DefaultRadiusMin    = 0.2
	DefaultRadiusRange  = 0.3
)

// Bounds holds the tunable attribute ranges used by every random draw.
type Bounds struct {
	AxisMin      float64 `yaml:"axis_min"`
	AxisRange    float64 `yaml:"axis_range"`
	DensityMin   float64 `yaml:"density_min"`
	DensityRange float64 `yaml:"density_range"`
	RadiusMin    float64 `yaml:"radius_min"`
	RadiusRange  float64 `yaml:"radius_range"`
}

// DefaultBounds returns the standard ranges.
func DefaultBounds() Bounds {
	return Bounds{
		AxisMin:      DefaultAxisMin,
		AxisRange:    DefaultAxisRange,
		DensityMin:   DefaultDensityMin,
		DensityRange: DefaultDensityRange,
		RadiusMin:    DefaultRadiusMin,
		RadiusRange:  DefaultRadiusRange,
	}
}

// Validate rejects degenerate ranges.
func (b Bounds) Validate() error {
	switch {
	case b.AxisMin <= 0 || b.AxisRange <= 0:
		return errors.New("genome: chassis axis bounds must be positive")
	case b.DensityMin <= 0 || b.DensityRange <= 0:
		return errors.New("genome: wheel density bounds must be positive")
	case b.RadiusMin <= 0 || b.RadiusRange <= 0:
		return errors.New("genome: wheel radius bounds must be positive")
	}
	return nil
}

func (b Bounds) axis(rng *rand.Rand) float64 {
	return rng.Float64()*b.AxisRange + b.AxisMin
}

func (b Bounds) density(rng *rand.Rand) float64 {
	return rng.Float64()*b.DensityRange + b.DensityMin
}

func (b Bounds) radius(rng *rand.Rand) float64 {
	return rng.Float64()*b.RadiusRange + b.RadiusMin
}
