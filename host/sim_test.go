package host

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Evolution.GenerationSize = 4
	cfg.Evolution.IdleTimeoutMS = 500
	cfg.Terrain.Pieces = 40
	cfg.Host.MaxTicks = 3000
	cfg.Telemetry.LogGenerations = false
	return cfg
}

func TestSimRunsGenerations(t *testing.T) {
	s, err := NewSim(testConfig(t), Options{Seed: 7, MaxGenerations: 3})
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	defer s.Close()

	var seen []int
	s.OnGeneration(func(stats telemetry.GenerationStats) {
		seen = append(seen, stats.Generation)
		if stats.Population != 4 {
			t.Errorf("generation %d population = %d, want 4", stats.Generation, stats.Population)
		}
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := s.Controller().Generation(); got != 3 {
		t.Errorf("generation = %d, want 3", got)
	}
	if len(seen) != 3 || seen[0] != 0 || seen[2] != 2 {
		t.Errorf("hooks saw generations %v, want [0 1 2]", seen)
	}
	if n := s.HallOfFame().Size(); n < 1 || n > 3 {
		t.Errorf("hall of fame size = %d, want 1..3", n)
	}
	if _, _, ok := s.Leader(); !ok {
		t.Error("a fresh generation should have a leader")
	}
	best, _ := s.Controller().Best()
	if best != s.HallOfFame().TopDistance() {
		t.Errorf("record %v differs from hall of fame top %v", best, s.HallOfFame().TopDistance())
	}
}

func TestSimDeterministic(t *testing.T) {
	run := func() (telemetry.GenerationStats, int64) {
		s, err := NewSim(testConfig(t), Options{Seed: 42})
		if err != nil {
			t.Fatalf("NewSim: %v", err)
		}
		defer s.Close()
		for i := 0; i < 2; i++ {
			if err := s.RunGeneration(context.Background()); err != nil {
				t.Fatalf("RunGeneration: %v", err)
			}
		}
		return s.LastStats(), int64(s.Clock())
	}

	a, clockA := run()
	b, clockB := run()
	if a != b {
		t.Errorf("same seed produced different stats:\n%+v\n%+v", a, b)
	}
	if clockA != clockB {
		t.Errorf("same seed produced different clocks: %d vs %d", clockA, clockB)
	}
}

func TestSimTickCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Host.MaxTicks = 10
	cfg.Evolution.IdleTimeoutMS = 100

	s, err := NewSim(cfg, Options{Seed: 3})
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	defer s.Close()

	if err := s.RunGeneration(context.Background()); err != nil {
		t.Fatalf("RunGeneration: %v", err)
	}
	if ticks := s.LastStats().Ticks; ticks > 20 {
		t.Errorf("generation ran %d ticks despite the cap", ticks)
	}
}

func TestSimWritesOutput(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSim(testConfig(t), Options{Seed: 5, OutputDir: dir, MaxGenerations: 2})
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("generations.csv has %d rows, want header + 2", len(rows))
	}

	written, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if written.Evolution.Seed != 5 {
		t.Errorf("written seed = %d, want 5", written.Evolution.Seed)
	}
	if _, err := os.Stat(filepath.Join(dir, "hall_of_fame.json")); err != nil {
		t.Errorf("hall of fame not written: %v", err)
	}
}

func TestSimCancelled(t *testing.T) {
	s, err := NewSim(testConfig(t), Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run on cancelled context = %v, want context.Canceled", err)
	}
}

func TestSimDefaultConfigMakesProgress(t *testing.T) {
	for _, seed := range []int64{1, 2, 1234} {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatal(err)
		}
		cfg.Telemetry.LogGenerations = false

		s, err := NewSim(cfg, Options{Seed: seed, MaxGenerations: 2})
		if err != nil {
			t.Fatalf("NewSim: %v", err)
		}
		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		s.Close()

		if best, _ := s.Controller().Best(); best <= 0 {
			t.Errorf("seed %d: no car moved forward in two generations", seed)
		}
	}
}
