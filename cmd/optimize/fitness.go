package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/host"
	"github.com/pthm-cable/genecars/telemetry"
)

// qualityWeight scales how much the final generation's mean distance adds
// to the record distance in the fitness.
const qualityWeight = 0.5

// SeedResult is the outcome of one headless run.
type SeedResult struct {
	Seed             int64
	Record           float64 // all-time best distance
	RecordGeneration int
	FinalMean        float64 // mean distance of the last finished generation
	Stagnation       int     // generations finished since the record was set
	HallOfFame       *telemetry.HallOfFame
	Err              error
}

// Evaluation is one parameter vector scored over every seed.
type Evaluation struct {
	Params     []float64 // clamped raw values the runs used
	Fitness    float64   // lower is better
	Record     float64   // mean over seeds
	FinalMean  float64   // mean over seeds
	Stagnation float64   // mean over seeds
	Seeds      []SeedResult
}

// BestSeed returns the seed run with the longest record.
func (e Evaluation) BestSeed() SeedResult {
	var best SeedResult
	for i, r := range e.Seeds {
		if i == 0 || r.Record > best.Record {
			best = r
		}
	}
	return best
}

// Evaluator scores parameter vectors by running the evolution headlessly.
type Evaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	base        *config.Config
}

// NewEvaluator creates an evaluator that runs each seed for the given
// number of generations on a copy of base.
func NewEvaluator(params *ParamVector, generations int, seeds []int64, base *config.Config) *Evaluator {
	return &Evaluator{params: params, generations: generations, seeds: seeds, base: base}
}

// Evaluate runs every seed in parallel with raw parameter values applied.
func (ev *Evaluator) Evaluate(ctx context.Context, raw []float64) Evaluation {
	cfg := *ev.base
	cfg.Telemetry.LogGenerations = false
	ev.params.ApplyToConfig(&cfg, raw)

	results := make([]SeedResult, len(ev.seeds))
	var wg sync.WaitGroup
	for i, seed := range ev.seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runSeed(ctx, &cfg, seed, ev.generations)
		}()
	}
	wg.Wait()

	return summarize(ev.params.Clamp(raw), results)
}

// summarize averages seed results. Failed runs count as zero distance.
func summarize(params []float64, results []SeedResult) Evaluation {
	e := Evaluation{Params: params, Seeds: results}
	if len(results) == 0 {
		return e
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		e.Record += r.Record
		e.FinalMean += r.FinalMean
		e.Stagnation += float64(r.Stagnation)
	}
	n := float64(len(results))
	e.Record /= n
	e.FinalMean /= n
	e.Stagnation /= n
	e.Fitness = computeFitness(e.Record, e.FinalMean)
	return e
}

func runSeed(ctx context.Context, cfg *config.Config, seed int64, generations int) SeedResult {
	res := SeedResult{Seed: seed}

	sim, err := host.NewSim(cfg, host.Options{Seed: seed, MaxGenerations: generations})
	if err != nil {
		res.Err = err
		slog.Error("eval_setup_failed", "seed", seed, "error", err)
		return res
	}
	defer sim.Close()

	if err := sim.Run(ctx); err != nil {
		res.Err = err
		slog.Error("eval_run_failed", "seed", seed, "error", err)
		return res
	}

	res.Record, res.RecordGeneration = sim.Controller().Best()
	res.FinalMean = sim.LastStats().MeanDistance
	res.Stagnation = sim.LastStats().Generation - res.RecordGeneration
	res.HallOfFame = sim.HallOfFame()
	return res
}

// computeFitness combines record and final mean distance (lower = better).
func computeFitness(record, finalMean float64) float64 {
	return -(record + qualityWeight*finalMean)
}
