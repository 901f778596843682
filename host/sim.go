package host

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/evolution"
	"github.com/pthm-cable/genecars/telemetry"
	"github.com/pthm-cable/genecars/terrain"
)

// Options configures a headless run.
type Options struct {
	Seed           int64  // overrides evolution.seed when non-zero
	OutputDir      string // empty disables file output
	MaxGenerations int    // overrides host.max_generations when non-zero
}

// Sim runs the evolution loop: step physics, report positions to the
// controller, and rebuild the world whenever a generation finishes.
type Sim struct {
	cfg     *config.Config
	seed    int64
	ctrl    *evolution.Controller
	world   *World
	terrain *terrain.Terrain

	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	hof       *telemetry.HallOfFame
	bookmarks *telemetry.BookmarkDetector

	clock          time.Duration // host clock since run start
	genStart       time.Duration
	genTicks       int
	maxGenerations int

	lastStats telemetry.GenerationStats
	hooks     []func(telemetry.GenerationStats)
	err       error // first telemetry failure, surfaced by Update
}

// NewSim builds the terrain, spawns the first generation and opens output.
func NewSim(cfg *config.Config, opts Options) (*Sim, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Evolution.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctrl, err := evolution.NewController(cfg.EvolutionParams(), rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("creating controller: %w", err)
	}

	tr := terrain.Generate(cfg.Terrain, seed)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	// Record the seed actually used so the run can be reproduced.
	runCfg := *cfg
	runCfg.Evolution.Seed = seed
	if err := output.WriteConfig(&runCfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	maxGen := cfg.Host.MaxGenerations
	if opts.MaxGenerations > 0 {
		maxGen = opts.MaxGenerations
	}

	s := &Sim{
		cfg:            cfg,
		seed:           seed,
		ctrl:           ctrl,
		world:          NewWorld(cfg.Host, tr),
		terrain:        tr,
		perf:           telemetry.NewPerfCollector(),
		output:         output,
		hof:            telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
		bookmarks:      telemetry.NewBookmarkDetector(10),
		maxGenerations: maxGen,
	}
	ctrl.OnGeneration(s.onGeneration)

	first, err := ctrl.SpawnInitialGeneration(cfg.Evolution.GenerationSize)
	if err != nil {
		output.Close()
		return nil, err
	}
	s.world.Instantiate(first)

	slog.Info("run_started",
		"seed", seed,
		"generation_size", cfg.Evolution.GenerationSize,
		"mutation_rate", cfg.Evolution.MutationRate,
		"idle_timeout", cfg.Derived.IdleTimeout,
		"track_end", tr.End(),
		"output_dir", output.Dir(),
	)

	return s, nil
}

// OnGeneration registers a callback run after each generation's stats are
// computed.
func (s *Sim) OnGeneration(fn func(telemetry.GenerationStats)) {
	s.hooks = append(s.hooks, fn)
}

// Update advances the simulation by one tick. It reports whether a
// generation finished during the tick.
func (s *Sim) Update() (bool, error) {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhasePhysics)
	s.clock += s.cfg.Derived.StepDur
	s.genTicks++
	if limit := s.cfg.Host.MaxTicks; limit > 0 && s.genTicks == limit {
		slog.Warn("generation_tick_cap", "generation", s.ctrl.Generation(), "ticks", s.genTicks)
		s.world.Freeze()
	}
	positions := s.world.Step()

	s.perf.StartPhase(telemetry.PhaseEvaluate)
	s.ctrl.OnTick(positions, s.clock)
	s.removeDead()

	advanced := false
	if s.ctrl.AllDead() {
		s.perf.StartPhase(telemetry.PhaseBreed)
		next, err := s.ctrl.AdvanceGeneration(s.cfg.Evolution.GenerationSize)
		if err != nil {
			s.perf.EndTick()
			return false, fmt.Errorf("advancing generation: %w", err)
		}
		s.world.Instantiate(next)
		s.genStart = s.clock
		s.genTicks = 0
		advanced = true
	}

	s.perf.EndTick()

	if s.err != nil {
		err := s.err
		s.err = nil
		return advanced, err
	}
	return advanced, nil
}

// removeDead deletes the bodies of individuals the controller retired.
func (s *Sim) removeDead() {
	alive := make(map[int]bool, s.world.Len())
	for _, ind := range s.ctrl.Active() {
		alive[ind.ID] = true
	}
	for _, id := range s.world.IDs() {
		if !alive[id] {
			s.world.Remove(id)
		}
	}
}

// onGeneration records telemetry for a finished generation.
func (s *Sim) onGeneration(sum evolution.GenerationSummary) {
	s.perf.StartPhase(telemetry.PhaseTelemetry)

	stats := telemetry.ComputeGenerationStats(sum, s.clock-s.genStart, s.genTicks)
	s.lastStats = stats
	if s.cfg.Telemetry.LogGenerations {
		stats.LogStats()
	}

	perf := s.perf.Stats(sum.Generation)
	s.perf.Reset()
	slog.Debug("generation_perf", "perf", perf)

	s.hof.Consider(sum)
	marks := s.bookmarks.Check(stats)
	for _, b := range marks {
		b.LogBookmark()
	}

	s.keepErr(s.output.Record(telemetry.GenerationRecord{
		Summary:   sum,
		Stats:     stats,
		Perf:      perf,
		Bookmarks: marks,
	}))

	for _, fn := range s.hooks {
		fn(stats)
	}
}

func (s *Sim) keepErr(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

// RunGeneration ticks until the current generation finishes.
func (s *Sim) RunGeneration(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		advanced, err := s.Update()
		if err != nil {
			return err
		}
		if advanced {
			return nil
		}
	}
}

// Run evolves until the generation limit is reached or ctx is cancelled.
// A limit of zero runs until cancellation.
func (s *Sim) Run(ctx context.Context) error {
	for s.maxGenerations == 0 || s.ctrl.Generation() < s.maxGenerations {
		if err := s.RunGeneration(ctx); err != nil {
			return err
		}
	}

	best, gen := s.ctrl.Best()
	slog.Info("run_finished",
		"generations", s.ctrl.Generation(),
		"best_distance", best,
		"best_generation", gen,
		"sim_time", s.clock,
	)
	return nil
}

// Close writes the hall of fame and closes output files.
func (s *Sim) Close() error {
	if err := s.output.WriteHallOfFame(s.hof); err != nil {
		s.output.Close()
		return err
	}
	return s.output.Close()
}

// Seed returns the seed the run uses.
func (s *Sim) Seed() int64 { return s.seed }

// Controller returns the evolution controller.
func (s *Sim) Controller() *evolution.Controller { return s.ctrl }

// HallOfFame returns the run's hall of fame.
func (s *Sim) HallOfFame() *telemetry.HallOfFame { return s.hof }

// Clock returns the host clock since the run started.
func (s *Sim) Clock() time.Duration { return s.clock }

// LastStats returns the stats of the most recently finished generation.
func (s *Sim) LastStats() telemetry.GenerationStats { return s.lastStats }

// Leader returns the running car with the best distance this generation.
// ok is false when no car is running.
func (s *Sim) Leader() (id int, distance float64, ok bool) {
	ind := s.ctrl.Leader()
	if ind == nil {
		return 0, 0, false
	}
	return ind.ID, ind.BestDistance, true
}
