package telemetry

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector() (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollector()
	pc.now = func() time.Time { return clock.t }
	return pc, clock
}

func TestPerfCollector_PhaseShares(t *testing.T) {
	pc, clock := newTestCollector()

	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePhysics)
		clock.advance(300 * time.Microsecond)
		pc.StartPhase(PhaseEvaluate)
		clock.advance(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats(2)
	if stats.Generation != 2 || stats.Ticks != 4 {
		t.Fatalf("generation/ticks = %d/%d, want 2/4", stats.Generation, stats.Ticks)
	}
	if stats.AvgTick != 400*time.Microsecond {
		t.Errorf("avg tick = %v, want 400us", stats.AvgTick)
	}
	if stats.PhasePct[PhasePhysics] != 75 || stats.PhasePct[PhaseEvaluate] != 25 {
		t.Errorf("phase shares = %v, want physics 75 evaluate 25", stats.PhasePct)
	}
	if stats.PhasePct[PhaseBreed] != 0 {
		t.Errorf("untimed phase has share %v", stats.PhasePct[PhaseBreed])
	}
	if math.Abs(stats.TicksPerSecond-2500) > 1e-6 {
		t.Errorf("ticks/s = %v, want 2500", stats.TicksPerSecond)
	}
}

func TestPerfCollector_MinMax(t *testing.T) {
	pc, clock := newTestCollector()

	for _, d := range []time.Duration{200, 100, 300} {
		pc.StartTick()
		pc.StartPhase(PhasePhysics)
		clock.advance(d * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats(0)
	if stats.MinTick != 100*time.Microsecond || stats.MaxTick != 300*time.Microsecond {
		t.Errorf("min/max = %v/%v, want 100us/300us", stats.MinTick, stats.MaxTick)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc, _ := newTestCollector()

	stats := pc.Stats(5)
	if stats.Ticks != 0 || stats.AvgTick != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestPerfCollector_ResetMidTick(t *testing.T) {
	pc, clock := newTestCollector()

	pc.StartTick()
	pc.StartPhase(PhasePhysics)
	clock.advance(time.Millisecond)
	pc.EndTick()

	// The breeding tick straddles the generation boundary.
	pc.StartTick()
	pc.StartPhase(PhaseBreed)
	clock.advance(50 * time.Microsecond)
	pc.Reset()
	pc.StartPhase(PhaseTelemetry)
	clock.advance(50 * time.Microsecond)
	pc.EndTick()

	stats := pc.Stats(1)
	if stats.Ticks != 1 {
		t.Fatalf("ticks = %d, want 1 after reset", stats.Ticks)
	}
	if stats.PhasePct[PhasePhysics] != 0 {
		t.Error("reset should drop earlier physics time")
	}
	if stats.PhasePct[PhaseBreed] != 50 || stats.PhasePct[PhaseTelemetry] != 50 {
		t.Errorf("phase shares = %v, want breed 50 telemetry 50", stats.PhasePct)
	}
}

func TestPerfStats_Row(t *testing.T) {
	stats := PerfStats{
		Generation: 7,
		Ticks:      90,
		AvgTick:    1500 * time.Microsecond,
		MaxTick:    3 * time.Millisecond,
	}
	stats.PhasePct[PhasePhysics] = 80
	stats.PhasePct[PhaseBreed] = 5

	row := stats.Row()

	if row.Generation != 7 || row.Ticks != 90 || row.AvgTickUS != 1500 || row.MaxTickUS != 3000 {
		t.Errorf("unexpected timing columns: %+v", row)
	}
	if row.PhysicsPct != 80 || row.BreedPct != 5 || row.EvaluatePct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTelemetry.String() != "telemetry" || Phase(9).String() != "Phase(9)" {
		t.Errorf("got %q and %q", PhaseTelemetry, Phase(9))
	}
}
