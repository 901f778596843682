package main

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/genecars/config"
)

func TestSummarizeAveragesSeeds(t *testing.T) {
	results := []SeedResult{
		{Seed: 1, Record: 30, RecordGeneration: 4, FinalMean: 10, Stagnation: 2},
		{Seed: 2, Record: 50, RecordGeneration: 1, FinalMean: 20, Stagnation: 6},
		{Seed: 3, Err: errors.New("boom")},
	}

	e := summarize([]float64{0.1, 2000, 0}, results)

	if e.Record != 80.0/3 || e.FinalMean != 10 || e.Stagnation != 8.0/3 {
		t.Errorf("averages = %v/%v/%v, failed seed should count as zero", e.Record, e.FinalMean, e.Stagnation)
	}
	if e.Fitness != computeFitness(e.Record, e.FinalMean) {
		t.Errorf("fitness %v does not match its components", e.Fitness)
	}
	if best := e.BestSeed(); best.Seed != 2 {
		t.Errorf("best seed = %d, want 2", best.Seed)
	}

	row := NewTrialRow(7, e)
	if row.Eval != 7 || row.Failed != 1 || row.BestSeedGen != 1 || row.IdleTimeoutMS != 2000 {
		t.Errorf("unexpected trial row %+v", row)
	}
}

func TestTrialLogWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimize_log.csv")
	log, err := createTrialLog(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := log.Append(TrialRow{Eval: i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][0] != "eval" || rows[3][0] != "3" {
		t.Errorf("got rows %v", rows)
	}
}

func TestEvaluatorRunsEverySeed(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Evolution.GenerationSize = 4
	cfg.Terrain.Pieces = 40
	cfg.Host.MaxTicks = 3000

	params := NewParamVector()
	ev := NewEvaluator(params, 2, []int64{42, 1042}, cfg)
	e := ev.Evaluate(context.Background(), []float64{0.1, 1000, 0})

	if len(e.Seeds) != 2 {
		t.Fatalf("got %d seed results, want 2", len(e.Seeds))
	}
	for _, s := range e.Seeds {
		if s.Err != nil {
			t.Errorf("seed %d: %v", s.Seed, s.Err)
		}
		if s.HallOfFame == nil || s.HallOfFame.Size() == 0 {
			t.Errorf("seed %d has no hall of fame", s.Seed)
		}
		if s.Stagnation < 0 || s.Stagnation > 1 {
			t.Errorf("seed %d stagnation %d outside the 2 finished generations", s.Seed, s.Stagnation)
		}
	}
	if cfg.Evolution.MutationRate != 0.05 {
		t.Error("evaluation must not modify the base config")
	}
}
