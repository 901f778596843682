package telemetry

import (
	"fmt"
	"log/slog"
	"time"
)

// Phase is one timed section of a host tick.
type Phase int

const (
	PhasePhysics Phase = iota
	PhaseEvaluate
	PhaseBreed
	PhaseTelemetry
	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhasePhysics:
		return "physics"
	case PhaseEvaluate:
		return "evaluate"
	case PhaseBreed:
		return "breed"
	case PhaseTelemetry:
		return "telemetry"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// PerfCollector accumulates tick timings for the running generation.
// Phases run back to back: starting one ends the previous.
type PerfCollector struct {
	now func() time.Time

	ticks    int
	total    time.Duration
	min, max time.Duration
	phases   [phaseCount]time.Duration

	tickStart  time.Time
	phaseStart time.Time
	current    Phase
	inPhase    bool
}

// NewPerfCollector creates an empty collector timed by the wall clock.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{now: time.Now}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := p.now()
	p.endPhase(now)
	p.current = ph
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) endPhase(now time.Time) {
	if p.inPhase {
		p.phases[p.current] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick closes the running phase and counts the tick.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.endPhase(now)

	d := now.Sub(p.tickStart)
	if p.ticks == 0 || d < p.min {
		p.min = d
	}
	if d > p.max {
		p.max = d
	}
	p.total += d
	p.ticks++
}

// Reset starts a new generation. A tick in progress keeps running and is
// counted in the new generation.
func (p *PerfCollector) Reset() {
	p.ticks = 0
	p.total, p.min, p.max = 0, 0, 0
	p.phases = [phaseCount]time.Duration{}
}

// PerfStats summarizes the tick timings of one generation.
type PerfStats struct {
	Generation     int
	Ticks          int
	AvgTick        time.Duration
	MinTick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64
	PhasePct       [phaseCount]float64 // share of total tick time, 0-100
}

// Stats summarizes the ticks since the last Reset.
func (p *PerfCollector) Stats(generation int) PerfStats {
	s := PerfStats{Generation: generation, Ticks: p.ticks}
	if p.ticks == 0 {
		return s
	}
	s.AvgTick = p.total / time.Duration(p.ticks)
	s.MinTick, s.MaxTick = p.min, p.max
	if p.total > 0 {
		s.TicksPerSecond = float64(p.ticks) / p.total.Seconds()
		for ph, d := range p.phases {
			s.PhasePct[ph] = float64(d) / float64(p.total) * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := Phase(0); ph < phaseCount; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfRow is the perf.csv layout.
type PerfRow struct {
	Generation   int     `csv:"generation"`
	Ticks        int     `csv:"ticks"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	PhysicsPct   float64 `csv:"physics_pct"`
	EvaluatePct  float64 `csv:"evaluate_pct"`
	BreedPct     float64 `csv:"breed_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// Row flattens s for perf.csv.
func (s PerfStats) Row() PerfRow {
	return PerfRow{
		Generation:   s.Generation,
		Ticks:        s.Ticks,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		PhysicsPct:   s.PhasePct[PhasePhysics],
		EvaluatePct:  s.PhasePct[PhaseEvaluate],
		BreedPct:     s.PhasePct[PhaseBreed],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
