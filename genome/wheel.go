package genome

import (
	"fmt"
	"math/rand"
)

// Wheel describes one wheel and where it mounts on the chassis.
type Wheel struct {
	Density     float64 `json:"density"`
	Radius      float64 `json:"radius"`
	MountVertex int     `json:"mount_vertex"`
}

// RandomWheel draws a wheel with every field uniform in its bounds.
func RandomWheel(rng *rand.Rand, b Bounds) Wheel {
	return Wheel{
		Density:     b.density(rng),
		Radius:      b.radius(rng),
		MountVertex: randomVertex(rng),
	}
}

// Mutate resamples each field independently with probability rate.
// A resampled field is drawn from the construction distribution, so it is
// independent of its previous value.
func (w Wheel) Mutate(rng *rand.Rand, b Bounds, rate float64) Wheel {
	if rng.Float64() < rate {
		w.Density = b.density(rng)
	}
	if rng.Float64() < rate {
		w.Radius = b.radius(rng)
	}
	if rng.Float64() < rate {
		w.MountVertex = randomVertex(rng)
	}
	return w
}

// Valid reports a field outside its bounds, or nil.
func (w Wheel) Valid(b Bounds) error {
	if w.Density < b.DensityMin || w.Density > b.DensityMin+b.DensityRange {
		return fmt.Errorf("%w: density %v", ErrOutOfBounds, w.Density)
	}
	if w.Radius < b.RadiusMin || w.Radius > b.RadiusMin+b.RadiusRange {
		return fmt.Errorf("%w: radius %v", ErrOutOfBounds, w.Radius)
	}
	if w.MountVertex < 0 || w.MountVertex >= BodySegmentCount {
		return fmt.Errorf("%w: mount vertex %d", ErrOutOfBounds, w.MountVertex)
	}
	return nil
}

func randomVertex(rng *rand.Rand) int {
	return int(rng.Float64()*BodySegmentCount) % BodySegmentCount
}
