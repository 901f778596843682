// Package evolution implements the generational genetic algorithm: fitness
// bookkeeping, parent selection, crossover and mutation, and the generation
// state machine that drives them.
package evolution

import (
	"time"

	"github.com/pthm-cable/genecars/genome"
)

// Individual is a genome plus its runtime fitness state for one generation.
// Individuals are owned by the Controller; hosts only read them.
type Individual struct {
	ID     int
	Genome genome.Genome

	// BestDistance is the furthest forward distance seen. Never decreases.
	BestDistance float64
	// LastProgress is the host timestamp of the last BestDistance increase.
	LastProgress time.Duration

	Elite bool
	Alive bool
}

func newIndividual(id int, g genome.Genome, now time.Duration, elite bool) *Individual {
	return &Individual{
		ID:           id,
		Genome:       g,
		LastProgress: now,
		Elite:        elite,
		Alive:        true,
	}
}

// Observe records a distance reading taken at now. Progress must exceed the
// current best by more than epsilon. With no progress the individual dies
// once now-LastProgress exceeds timeout (strictly). Returns true if this
// call killed it. Dead individuals ignore further readings.
func (ind *Individual) Observe(distance float64, now, timeout time.Duration, epsilon float64) bool {
	if !ind.Alive {
		return false
	}
	if distance > ind.BestDistance+epsilon {
		ind.BestDistance = distance
		ind.LastProgress = now
		return false
	}
	if now-ind.LastProgress > timeout {
		ind.Alive = false
		return true
	}
	return false
}

// IdleFor returns how long the individual has gone without progress.
func (ind *Individual) IdleFor(now time.Duration) time.Duration {
	return now - ind.LastProgress
}
