package evolution

import (
	"math/rand"

	"github.com/pthm-cable/genecars/genome"
)

// Breeder produces offspring genomes by single-point crossover followed by
// per-attribute resampling mutation.
type Breeder struct {
	rng    *rand.Rand
	bounds genome.Bounds
	rate   float64
}

// NewBreeder creates a breeder mutating at the given rate.
func NewBreeder(rng *rand.Rand, bounds genome.Bounds, rate float64) *Breeder {
	return &Breeder{rng: rng, bounds: bounds, rate: rate}
}

// Rate returns the mutation rate used by BreedChild.
func (b *Breeder) Rate() float64 {
	return b.rate
}

// SplitPoint draws a crossover point uniformly from [0, AttributeCount).
// The draw is scaled before truncation so it never collapses to 0.
func (b *Breeder) SplitPoint() int {
	s := int(b.rng.Float64() * genome.AttributeCount)
	if s >= genome.AttributeCount {
		s = genome.AttributeCount - 1
	}
	return s
}

// Crossover combines two parents at a random split point.
func (b *Breeder) Crossover(p1, p2 genome.Genome) genome.Genome {
	return CrossoverAt(p1, p2, b.SplitPoint())
}

// CrossoverAt takes slots before split from p1 and the rest from p2.
// Every slot is resolved from exactly one parent for any split.
func CrossoverAt(p1, p2 genome.Genome, split int) genome.Genome {
	child := p2
	for _, s := range genome.Slots() {
		if int(s) < split {
			s.Copy(&child, p1)
		}
	}
	return child
}

// Mutate returns a copy of g where each body segment is resampled with
// probability rate and each wheel is mutated field by field.
func (b *Breeder) Mutate(g genome.Genome, rate float64) genome.Genome {
	for _, s := range genome.Slots() {
		if !s.IsSegment() {
			continue
		}
		if b.rng.Float64() < rate {
			s.Resample(&g, b.rng, b.bounds)
		}
	}
	for i := range g.Wheels {
		g.Wheels[i] = g.Wheels[i].Mutate(b.rng, b.bounds, rate)
	}
	return g
}

// BreedChild is Mutate(Crossover(p1, p2), rate).
func (b *Breeder) BreedChild(p1, p2 genome.Genome) genome.Genome {
	return b.Mutate(b.Crossover(p1, p2), b.rate)
}
