package evolution

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/pthm-cable/genecars/genome"
)

// State is the generation lifecycle phase.
type State uint8

const (
	StateSpawning State = iota // nothing spawned yet
	StateRunning               // individuals are being evaluated
	StateBreeding              // all dead, waiting for AdvanceGeneration
)

func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateBreeding:
		return "breeding"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// GenerationSummary describes a generation that just finished breeding.
type GenerationSummary struct {
	Generation     int           // number of the finished generation
	Ranking        Ranking       // finished generation, fittest first
	Elite          genome.Genome // genome cloned into the next generation
	BestDistance   float64       // all-time best distance
	BestGeneration int           // generation the all-time best was set in
}

// Controller owns the population and runs the
// spawn -> evaluate -> cull -> breed -> advance cycle.
// It is not safe for concurrent use; hosts call it from one tick loop.
type Controller struct {
	params   Params
	rng      *rand.Rand
	breeder  *Breeder
	selector *Selector

	state      State
	generation int
	nextID     int
	now        time.Duration

	active  []*Individual
	archive []*Individual

	bestDistance   float64
	bestGeneration int

	onGeneration func(GenerationSummary)
}

// NewController creates a controller. All randomness comes from rng, so a
// seeded rng and identical tick inputs reproduce every generation.
func NewController(params Params, rng *rand.Rand) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		params:   params,
		rng:      rng,
		breeder:  NewBreeder(rng, params.Bounds, params.MutationRate),
		selector: NewSelector(rng),
	}, nil
}

// OnGeneration registers a hook called at the end of every AdvanceGeneration.
func (c *Controller) OnGeneration(fn func(GenerationSummary)) {
	c.onGeneration = fn
}

// SpawnInitialGeneration creates size random individuals and starts running.
// It may be called once, before any other lifecycle operation.
func (c *Controller) SpawnInitialGeneration(size int) ([]*Individual, error) {
	if c.state != StateSpawning {
		return nil, fmt.Errorf("spawn initial generation: %w (state %v)", ErrAlreadySpawned, c.state)
	}
	if size < 1 {
		return nil, fmt.Errorf("spawn initial generation: %w (got %d)", ErrInvalidSize, size)
	}
	c.active = c.active[:0]
	c.archive = c.archive[:0]
	for i := 0; i < size; i++ {
		c.active = append(c.active, c.spawn(genome.RandomGenome(c.rng, c.params.Bounds), false))
	}
	c.state = StateRunning

	slog.Debug("generation_spawned", "generation", c.generation, "size", size)
	return c.Active(), nil
}

func (c *Controller) spawn(g genome.Genome, elite bool) *Individual {
	ind := newIndividual(c.nextID, g, c.now, elite)
	c.nextID++
	return ind
}

// OnTick feeds one step of host readings. positions maps Individual.ID to
// the current forward distance; a missing entry counts as no progress.
// Individuals idle past the timeout move from the active set to the archive.
func (c *Controller) OnTick(positions map[int]float64, now time.Duration) {
	c.now = now
	if c.state != StateRunning {
		return
	}

	alive := c.active[:0]
	for _, ind := range c.active {
		dist, ok := positions[ind.ID]
		if !ok {
			dist = ind.BestDistance
		}
		if ind.Observe(dist, now, c.params.IdleTimeout, c.params.ProgressEpsilon) {
			c.archive = append(c.archive, ind)
			slog.Debug("individual_died",
				"generation", c.generation,
				"id", ind.ID,
				"best_distance", ind.BestDistance,
				"elite", ind.Elite,
			)
			continue
		}
		alive = append(alive, ind)
	}
	for i := len(alive); i < len(c.active); i++ {
		c.active[i] = nil
	}
	c.active = alive

	if len(c.active) == 0 {
		c.state = StateBreeding
	}
}

// AllDead reports whether the active set is empty.
func (c *Controller) AllDead() bool {
	return len(c.active) == 0
}

// AdvanceGeneration breeds the next generation from the archive: one
// unmutated elite clone of the fittest, then size-1 children of distinct
// fitness-weighted parents. Calling it while individuals are alive, with
// size < 1, with an empty archive, or with an archive too small to pick two
// distinct parents for size > 1 is a caller error.
func (c *Controller) AdvanceGeneration(size int) ([]*Individual, error) {
	if c.state == StateSpawning {
		return nil, ErrNotSpawned
	}
	if size < 1 {
		return nil, fmt.Errorf("advance generation %d: %w (got %d)", c.generation, ErrInvalidSize, size)
	}
	if !c.AllDead() {
		return nil, fmt.Errorf("advance generation %d: %w (%d alive)", c.generation, ErrGenerationRunning, len(c.active))
	}
	if len(c.archive) == 0 {
		return nil, fmt.Errorf("advance generation %d: %w", c.generation, ErrEmptyArchive)
	}
	if size > 1 && len(c.archive) < 2 {
		return nil, fmt.Errorf("advance generation %d: %w", c.generation, ErrArchiveTooSmall)
	}

	// Spawn order gives a deterministic tie-break for the stable ranking.
	sort.Slice(c.archive, func(i, j int) bool { return c.archive[i].ID < c.archive[j].ID })
	ranking := Rank(c.archive)
	top := ranking.At(0)

	if top.BestDistance > c.bestDistance {
		c.bestDistance = top.BestDistance
		c.bestGeneration = c.generation
	}

	next := make([]*Individual, 0, size)
	next = append(next, c.spawn(top.Genome, true))
	for len(next) < size {
		p1, p2, err := c.selector.PickDistinctParents(ranking)
		if err != nil {
			return nil, fmt.Errorf("advance generation %d: %w", c.generation, err)
		}
		next = append(next, c.spawn(c.breeder.BreedChild(p1.Genome, p2.Genome), false))
	}

	summary := GenerationSummary{
		Generation:     c.generation,
		Ranking:        ranking,
		Elite:          top.Genome,
		BestDistance:   c.bestDistance,
		BestGeneration: c.bestGeneration,
	}

	c.archive = c.archive[:0]
	c.active = next
	c.generation++
	c.state = StateRunning

	slog.Debug("generation_advanced",
		"generation", c.generation,
		"size", size,
		"elite_distance", top.BestDistance,
		"best_distance", c.bestDistance,
	)

	if c.onGeneration != nil {
		c.onGeneration(summary)
	}
	return c.Active(), nil
}

// Active returns a copy of the living individuals in spawn order.
func (c *Controller) Active() []*Individual {
	out := make([]*Individual, len(c.active))
	copy(out, c.active)
	return out
}

// Archive returns a copy of the individuals that died this generation.
func (c *Controller) Archive() []*Individual {
	out := make([]*Individual, len(c.archive))
	copy(out, c.archive)
	return out
}

// Leader returns the living individual with the greatest best distance,
// or nil if none are alive.
func (c *Controller) Leader() *Individual {
	var lead *Individual
	for _, ind := range c.active {
		if lead == nil || ind.BestDistance > lead.BestDistance {
			lead = ind
		}
	}
	return lead
}

// Generation returns the current generation number (starting at 0).
func (c *Controller) Generation() int {
	return c.generation
}

// State returns the lifecycle phase.
func (c *Controller) State() State {
	return c.state
}

// Best returns the all-time best distance and the generation it was set in.
// It is observational only and plays no part in selection.
func (c *Controller) Best() (distance float64, generation int) {
	return c.bestDistance, c.bestGeneration
}

// Params returns the controller's tunables.
func (c *Controller) Params() Params {
	return c.params
}
