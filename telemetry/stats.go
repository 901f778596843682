package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/genecars/evolution"
)

// GenerationStats holds aggregated statistics for one finished generation.
type GenerationStats struct {
	Generation int     `csv:"generation"`
	SimTimeSec float64 `csv:"sim_time"`
	Ticks      int     `csv:"ticks"`
	Population int     `csv:"population"`

	// Distance distribution of the finished generation
	BestDistance float64 `csv:"best_distance"`
	MeanDistance float64 `csv:"mean_distance"`
	StdDistance  float64 `csv:"std_distance"`
	P10Distance  float64 `csv:"p10_distance"`
	P50Distance  float64 `csv:"p50_distance"`
	P90Distance  float64 `csv:"p90_distance"`

	// Elite carried into the next generation
	EliteID       int  `csv:"elite_id"`
	EliteWasElite bool `csv:"elite_repeat"` // elite was itself an elite clone

	// All-time record
	RecordDistance   float64 `csv:"record_distance"`
	RecordGeneration int     `csv:"record_generation"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistanceStats calculates mean, sample standard deviation and
// percentiles of the given distances.
func ComputeDistanceStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.StdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// ComputeGenerationStats summarizes a finished generation.
func ComputeGenerationStats(sum evolution.GenerationSummary, simTime time.Duration, ticks int) GenerationStats {
	distances := sum.Ranking.Distances()
	mean, std, p10, p50, p90 := ComputeDistanceStats(distances)

	s := GenerationStats{
		Generation:       sum.Generation,
		SimTimeSec:       simTime.Seconds(),
		Ticks:            ticks,
		Population:       sum.Ranking.Len(),
		MeanDistance:     mean,
		StdDistance:      std,
		P10Distance:      p10,
		P50Distance:      p50,
		P90Distance:      p90,
		RecordDistance:   sum.BestDistance,
		RecordGeneration: sum.BestGeneration,
	}
	if sum.Ranking.Len() > 0 {
		best := sum.Ranking.At(0)
		s.BestDistance = best.BestDistance
		s.EliteID = best.ID
		s.EliteWasElite = best.Elite
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ticks", s.Ticks),
		slog.Int("population", s.Population),
		slog.Float64("best_distance", s.BestDistance),
		slog.Float64("mean_distance", s.MeanDistance),
		slog.Float64("std_distance", s.StdDistance),
		slog.Float64("p10_distance", s.P10Distance),
		slog.Float64("p50_distance", s.P50Distance),
		slog.Float64("p90_distance", s.P90Distance),
		slog.Int("elite_id", s.EliteID),
		slog.Bool("elite_repeat", s.EliteWasElite),
		slog.Float64("record_distance", s.RecordDistance),
		slog.Int("record_generation", s.RecordGeneration),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"sim_time", s.SimTimeSec,
		"ticks", s.Ticks,
		"best_distance", s.BestDistance,
		"mean_distance", s.MeanDistance,
		"std_distance", s.StdDistance,
		"p50_distance", s.P50Distance,
		"elite_id", s.EliteID,
		"record_distance", s.RecordDistance,
		"record_generation", s.RecordGeneration,
	)
}
