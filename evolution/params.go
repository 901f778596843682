package evolution

import (
	"errors"
	"fmt"
	"time"

	"github.com/pthm-cable/genecars/genome"
)

// Default tunables.
const (
	GenerationSize = 10
	MutationRate   = 0.05
	IdleTimeout    = 5000 * time.Millisecond
)

// Precondition violations. These indicate a caller bug and should be
// treated as fatal.
var (
	ErrGenerationRunning = errors.New("evolution: generation still has living individuals")
	ErrEmptyArchive      = errors.New("evolution: archive is empty")
	ErrArchiveTooSmall   = errors.New("evolution: need at least 2 individuals to select distinct parents")
	ErrNotSpawned        = errors.New("evolution: initial generation not spawned")
	ErrAlreadySpawned    = errors.New("evolution: initial generation already spawned")
	ErrInvalidSize       = errors.New("evolution: generation size must be at least 1")
)

// Params configures a Controller.
type Params struct {
	Bounds       genome.Bounds
	MutationRate float64
	IdleTimeout  time.Duration
	// ProgressEpsilon is the minimum distance gain that counts as progress.
	ProgressEpsilon float64
}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		Bounds:       genome.DefaultBounds(),
		MutationRate: MutationRate,
		IdleTimeout:  IdleTimeout,
	}
}

// Validate rejects unusable parameters.
func (p Params) Validate() error {
	if err := p.Bounds.Validate(); err != nil {
		return err
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("evolution: mutation rate %v not in [0, 1]", p.MutationRate)
	}
	if p.IdleTimeout <= 0 {
		return fmt.Errorf("evolution: idle timeout must be positive, got %v", p.IdleTimeout)
	}
	if p.ProgressEpsilon < 0 {
		return fmt.Errorf("evolution: progress epsilon must be non-negative, got %v", p.ProgressEpsilon)
	}
	return nil
}
