// Package main tunes the genetic algorithm with CMA-ES: each candidate set
// of evolution parameters is scored by headless car runs over several seeds.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/telemetry"
)

type options struct {
	configPath  string
	generations int
	seeds       int
	maxEvals    int
	population  int
	outputDir   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.generations, "generations", 30, "Generations per run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 60, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = 4+3ln(dim))")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results (required)")
	flag.Parse()

	// Per-generation logs from concurrent runs are noise here.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "optimize:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.outputDir == "" {
		return errors.New("--output is required")
	}
	if opts.seeds < 1 || opts.generations < 1 {
		return fmt.Errorf("need at least one seed and one generation, got %d and %d", opts.seeds, opts.generations)
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	base, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}

	params := NewParamVector()
	evaluator := NewEvaluator(params, opts.generations, seeds, base)

	trials, err := createTrialLog(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return err
	}
	defer trials.Close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3*math.Log(float64(params.Dim())))
	}

	fmt.Printf("CMA-ES over %d parameters, population %d, %d evals; %d seeds x %d generations each\n",
		params.Dim(), popSize, opts.maxEvals, opts.seeds, opts.generations)

	var (
		best  *Evaluation
		evals int
		start = time.Now()
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			e := evaluator.Evaluate(ctx, params.Denormalize(x))
			evals++
			if best == nil || e.Fitness < best.Fitness {
				best = &e
			}
			if err := trials.Append(NewTrialRow(evals, e)); err != nil {
				slog.Warn("trial_log_failed", "error", err)
			}
			printProgress(evals, opts.maxEvals, e, *best, time.Since(start))
			return e.Fitness
		},
	}

	_, err = optimize.Minimize(problem, params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		// Hitting the evaluation budget ends the search the same way.
		slog.Warn("optimization_ended", "error", err)
	}
	if best == nil {
		return errors.New("no evaluations completed")
	}

	fmt.Printf("\n%d evaluations in %s\n", evals, time.Since(start).Round(time.Second))
	fmt.Printf("Best: record %.1f, final mean %.1f, stagnation %.1f generations\n",
		best.Record, best.FinalMean, best.Stagnation)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, best.Params[i])
	}

	return writeBest(opts, params, *best)
}

func printProgress(n, total int, e, best Evaluation, elapsed time.Duration) {
	eta := time.Duration(total-n) * (elapsed / time.Duration(n))
	seed := e.BestSeed()
	fmt.Printf("eval %d/%d: record %.1f (seed %d reached %.1f in gen %d), final mean %.1f, stagnation %.1f | best record %.1f | %s elapsed, ETA %s\n",
		n, total, e.Record, seed.Seed, seed.Record, seed.RecordGeneration, e.FinalMean, e.Stagnation,
		best.Record, elapsed.Round(time.Second), eta.Round(time.Second))
}

// writeBest saves the winning config and the hall of fame of its best seed.
func writeBest(opts options, params *ParamVector, best Evaluation) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(cfg, best.Params)
	cfgPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(cfgPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to %s\n", cfgPath)

	hof := best.BestSeed().HallOfFame
	if hof == nil {
		return nil
	}
	data, err := json.MarshalIndent(hof, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	hofPath := filepath.Join(opts.outputDir, telemetry.HallOfFameFile)
	if err := os.WriteFile(hofPath, data, 0644); err != nil {
		return fmt.Errorf("writing hall of fame: %w", err)
	}
	fmt.Printf("Hall of fame of seed %d saved to %s\n", best.BestSeed().Seed, hofPath)
	return nil
}
