package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/history"
	"github.com/pthm-cable/genecars/host"
	"github.com/pthm-cable/genecars/telemetry"
)

var (
	flagConfig      string
	flagSeed        int64
	flagGenerations int
	flagOutputDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evolve cars headlessly",
	Long: `Run the genetic algorithm with the headless driving host.

Writes generations.csv, individuals.csv, perf.csv, bookmarks.csv, config.yaml and
hall_of_fame.json to --output-dir when set, and records the run in the
history database when --db is given. Ctrl-C stops after writing outputs.

Examples:
  genecars run --generations 100
  genecars run --config my.yaml --seed 7 --output-dir out/seed7`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config.yaml (empty = use defaults)")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = config seed, then time-based)")
	runCmd.Flags().IntVar(&flagGenerations, "generations", 0, "Stop after N generations (0 = config host.max_generations)")
	runCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Output directory for CSV logs, config snapshot and hall of fame")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := config.Init(flagConfig); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	sim, err := host.NewSim(cfg, host.Options{
		Seed:           flagSeed,
		OutputDir:      flagOutputDir,
		MaxGenerations: flagGenerations,
	})
	if err != nil {
		return err
	}

	var store *history.Store
	var run history.Run
	if cmd.Flags().Changed("db") {
		store, err = history.Open(flagDBPath)
		if err != nil {
			sim.Close()
			return err
		}
		defer store.Close()

		run, err = store.StartRun(sim.Seed(), cfg.Evolution.GenerationSize, cfg.Evolution.MutationRate, time.Now())
		if err != nil {
			sim.Close()
			return err
		}
		slog.Info("recording run", "run_id", run.ID, "db", flagDBPath)

		sim.OnGeneration(func(stats telemetry.GenerationStats) {
			if err := store.RecordGeneration(run.ID, stats); err != nil {
				slog.Warn("history write failed", "error", err)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sim.Run(ctx)
	interrupted := errors.Is(runErr, context.Canceled)
	if interrupted {
		slog.Info("interrupted", "generation", sim.Controller().Generation())
		runErr = nil
	}

	if err := sim.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("writing outputs: %w", err)
	}

	if store != nil && runErr == nil && !interrupted {
		if err := store.FinishRun(run.ID, time.Now()); err != nil {
			return err
		}
	}

	return runErr
}
