package evolution

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/genecars/genome"
)

const tick = 100 * time.Millisecond

func newTestController(t *testing.T, seed int64) *Controller {
	t.Helper()
	c, err := NewController(DefaultParams(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func mustSpawn(t *testing.T, c *Controller, size int) []*Individual {
	t.Helper()
	pop, err := c.SpawnInitialGeneration(size)
	if err != nil {
		t.Fatalf("SpawnInitialGeneration(%d): %v", size, err)
	}
	return pop
}

// runUntilDead ticks until every individual is dead, feeding distance(ind, step).
func runUntilDead(t *testing.T, c *Controller, start time.Duration, distance func(ind *Individual, step int) float64) time.Duration {
	t.Helper()
	now := start
	for step := 1; !c.AllDead(); step++ {
		if step > 10000 {
			t.Fatal("generation never finished")
		}
		now += tick
		positions := make(map[int]float64)
		for _, ind := range c.Active() {
			positions[ind.ID] = distance(ind, step)
		}
		c.OnTick(positions, now)
	}
	return now
}

func TestSpawnInitialGeneration(t *testing.T) {
	c := newTestController(t, 1)
	if c.State() != StateSpawning {
		t.Fatalf("initial state = %v, want spawning", c.State())
	}

	pop := mustSpawn(t, c, GenerationSize)
	if len(pop) != GenerationSize {
		t.Fatalf("spawned %d, want %d", len(pop), GenerationSize)
	}
	if c.State() != StateRunning {
		t.Errorf("state = %v, want running", c.State())
	}

	ids := make(map[int]bool)
	for _, ind := range pop {
		if !ind.Alive || ind.Elite || ind.BestDistance != 0 {
			t.Errorf("individual %d has non-initial state: %+v", ind.ID, ind)
		}
		if err := ind.Genome.Valid(genome.DefaultBounds()); err != nil {
			t.Errorf("individual %d: %v", ind.ID, err)
		}
		ids[ind.ID] = true
	}
	if len(ids) != GenerationSize {
		t.Error("individual IDs are not unique")
	}
}

func TestOnTickMovesDeadToArchive(t *testing.T) {
	c := newTestController(t, 2)
	pop := mustSpawn(t, c, 3)
	mover := pop[1]

	var now time.Duration
	for step := 1; step <= 51; step++ {
		now = time.Duration(step) * tick
		c.OnTick(map[int]float64{mover.ID: float64(step)}, now)
	}

	// The two idle individuals crossed 5000ms at 5100ms.
	if got := len(c.Active()); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}
	if c.Active()[0] != mover {
		t.Error("wrong survivor")
	}
	if got := len(c.Archive()); got != 2 {
		t.Fatalf("archive = %d, want 2", got)
	}
	if c.AllDead() {
		t.Error("AllDead with a living individual")
	}
	if c.Leader() != mover {
		t.Error("Leader should be the moving individual")
	}
}

func TestAdvanceGenerationPreconditions(t *testing.T) {
	c := newTestController(t, 3)

	if _, err := c.AdvanceGeneration(GenerationSize); !errors.Is(err, ErrNotSpawned) {
		t.Errorf("before spawn: err = %v, want ErrNotSpawned", err)
	}

	mustSpawn(t, c, GenerationSize)
	if _, err := c.AdvanceGeneration(GenerationSize); !errors.Is(err, ErrGenerationRunning) {
		t.Errorf("while running: err = %v, want ErrGenerationRunning", err)
	}
	if c.Generation() != 0 {
		t.Error("failed advance must not change the generation")
	}
}

func TestAdvanceGenerationArchiveTooSmall(t *testing.T) {
	c := newTestController(t, 4)
	mustSpawn(t, c, 1)
	runUntilDead(t, c, 0, func(*Individual, int) float64 { return 0 })

	if _, err := c.AdvanceGeneration(3); !errors.Is(err, ErrArchiveTooSmall) {
		t.Errorf("err = %v, want ErrArchiveTooSmall", err)
	}

	// A single-member generation can still carry its elite forward.
	next, err := c.AdvanceGeneration(1)
	if err != nil {
		t.Fatalf("AdvanceGeneration(1): %v", err)
	}
	if len(next) != 1 || !next[0].Elite {
		t.Errorf("expected a single elite, got %+v", next)
	}
}

// One individual out-drives the rest; the elite of the next generation must
// be an exact copy of its genome.
func TestEliteIsCloneOfFittest(t *testing.T) {
	c := newTestController(t, 42)
	pop := mustSpawn(t, c, GenerationSize)
	star := pop[3]
	starGenome := star.Genome

	// Others never move; star gains 1.0 per tick until step 100, then stalls.
	now := runUntilDead(t, c, 0, func(ind *Individual, step int) float64 {
		if ind != star {
			return 0
		}
		if step > 100 {
			return 100
		}
		return float64(step)
	})

	if star.BestDistance != 100 {
		t.Fatalf("star best = %v, want 100", star.BestDistance)
	}
	if c.State() != StateBreeding {
		t.Errorf("state = %v, want breeding", c.State())
	}

	var summary GenerationSummary
	c.OnGeneration(func(s GenerationSummary) { summary = s })

	next, err := c.AdvanceGeneration(GenerationSize)
	if err != nil {
		t.Fatalf("AdvanceGeneration: %v", err)
	}
	if len(next) != GenerationSize {
		t.Fatalf("next generation size %d, want %d", len(next), GenerationSize)
	}

	elite := next[0]
	if !elite.Elite {
		t.Error("first individual should be flagged elite")
	}
	if elite.Genome != starGenome {
		t.Error("elite genome is not an exact copy of the fittest")
	}
	if elite == star {
		t.Error("elite must be a new individual, not the archived one")
	}
	for _, ind := range next[1:] {
		if ind.Elite {
			t.Errorf("child %d flagged elite", ind.ID)
		}
		if err := ind.Genome.Valid(genome.DefaultBounds()); err != nil {
			t.Errorf("child %d: %v", ind.ID, err)
		}
		if ind.LastProgress != now {
			t.Errorf("child %d last progress = %v, want %v", ind.ID, ind.LastProgress, now)
		}
	}

	if c.Generation() != 1 {
		t.Errorf("generation = %d, want 1", c.Generation())
	}
	if len(c.Archive()) != 0 {
		t.Error("archive should be cleared after breeding")
	}
	if c.State() != StateRunning {
		t.Errorf("state = %v, want running", c.State())
	}

	best, gen := c.Best()
	if best != 100 || gen != 0 {
		t.Errorf("Best() = (%v, %d), want (100, 0)", best, gen)
	}
	if summary.Ranking.At(0) != star || summary.Generation != 0 {
		t.Errorf("summary did not report the finished generation: %+v", summary)
	}
}

func TestGlobalBestOnlyImproves(t *testing.T) {
	c := newTestController(t, 5)
	mustSpawn(t, c, 4)

	reach := []float64{10, 3, 25, 7}
	now := time.Duration(0)
	for gen, limit := range reach {
		now = runUntilDead(t, c, now, func(_ *Individual, step int) float64 {
			if float64(step) > limit {
				return limit
			}
			return float64(step)
		})
		if _, err := c.AdvanceGeneration(4); err != nil {
			t.Fatalf("generation %d: %v", gen, err)
		}
	}

	best, gen := c.Best()
	if best != 25 || gen != 2 {
		t.Errorf("Best() = (%v, %d), want (25, 2)", best, gen)
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	run := func() []genome.Genome {
		c := newTestController(t, 99)
		mustSpawn(t, c, GenerationSize)
		var out []genome.Genome
		now := time.Duration(0)
		for gen := 0; gen < 5; gen++ {
			now = runUntilDead(t, c, now, func(ind *Individual, step int) float64 {
				// Reach depends on the genome so ranking is non-trivial.
				limit := ind.Genome.Wheels[0].Radius * 100
				if float64(step) > limit {
					return limit
				}
				return float64(step)
			})
			next, err := c.AdvanceGeneration(GenerationSize)
			if err != nil {
				t.Fatal(err)
			}
			for _, ind := range next {
				out = append(out, ind.Genome)
			}
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("genome %d differs between identical seeded runs", i)
		}
	}
}

func TestMissingPositionCountsAsIdle(t *testing.T) {
	c := newTestController(t, 6)
	mustSpawn(t, c, 2)

	for now := tick; now <= 5100*time.Millisecond; now += tick {
		c.OnTick(nil, now)
	}
	if !c.AllDead() {
		t.Error("individuals with no readings should time out")
	}
}

func TestNewControllerRejectsBadParams(t *testing.T) {
	p := DefaultParams()
	p.MutationRate = 1.5
	if _, err := NewController(p, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for mutation rate > 1")
	}

	p = DefaultParams()
	p.IdleTimeout = 0
	if _, err := NewController(p, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for zero idle timeout")
	}
}

func TestSpawnInitialGenerationOnce(t *testing.T) {
	c := newTestController(t, 7)
	if _, err := c.SpawnInitialGeneration(0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("size 0: err = %v, want ErrInvalidSize", err)
	}

	pop := mustSpawn(t, c, 3)
	if _, err := c.SpawnInitialGeneration(3); !errors.Is(err, ErrAlreadySpawned) {
		t.Errorf("second spawn: err = %v, want ErrAlreadySpawned", err)
	}
	active := c.Active()
	if len(active) != len(pop) || active[0] != pop[0] {
		t.Error("a rejected spawn must not replace the running population")
	}
}

func TestAdvanceGenerationRejectsBadSize(t *testing.T) {
	c := newTestController(t, 8)
	mustSpawn(t, c, 3)
	runUntilDead(t, c, 0, func(*Individual, int) float64 { return 0 })

	for _, size := range []int{0, -1} {
		if _, err := c.AdvanceGeneration(size); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("size %d: err = %v, want ErrInvalidSize", size, err)
		}
	}
	if c.Generation() != 0 || len(c.Archive()) != 3 {
		t.Fatal("a rejected advance must leave the archive intact")
	}

	next, err := c.AdvanceGeneration(3)
	if err != nil {
		t.Fatalf("AdvanceGeneration(3) after rejected sizes: %v", err)
	}
	if len(next) != 3 {
		t.Errorf("next generation size %d, want 3", len(next))
	}
}
