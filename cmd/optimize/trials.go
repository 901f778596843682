package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// TrialRow is one line of optimize_log.csv.
type TrialRow struct {
	Eval            int     `csv:"eval"`
	Fitness         float64 `csv:"fitness"`
	Record          float64 `csv:"record"`
	FinalMean       float64 `csv:"final_mean"`
	Stagnation      float64 `csv:"stagnation"`
	BestSeed        int64   `csv:"best_seed"`
	BestSeedRecord  float64 `csv:"best_seed_record"`
	BestSeedGen     int     `csv:"best_seed_record_generation"`
	MutationRate    float64 `csv:"mutation_rate"`
	IdleTimeoutMS   float64 `csv:"idle_timeout_ms"`
	ProgressEpsilon float64 `csv:"progress_epsilon"`
	Failed          int     `csv:"failed_seeds"`
}

// NewTrialRow flattens an evaluation. Params must follow NewParamVector's
// order.
func NewTrialRow(eval int, e Evaluation) TrialRow {
	best := e.BestSeed()
	row := TrialRow{
		Eval:           eval,
		Fitness:        e.Fitness,
		Record:         e.Record,
		FinalMean:      e.FinalMean,
		Stagnation:     e.Stagnation,
		BestSeed:       best.Seed,
		BestSeedRecord: best.Record,
		BestSeedGen:    best.RecordGeneration,
	}
	if len(e.Params) == 3 {
		row.MutationRate = e.Params[0]
		row.IdleTimeoutMS = e.Params[1]
		row.ProgressEpsilon = e.Params[2]
	}
	for _, s := range e.Seeds {
		if s.Err != nil {
			row.Failed++
		}
	}
	return row
}

// trialLog appends evaluations to a CSV file as they finish, so a long
// search can be inspected while it runs.
type trialLog struct {
	f      *os.File
	header bool
}

func createTrialLog(path string) (*trialLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trial log: %w", err)
	}
	return &trialLog{f: f}, nil
}

func (l *trialLog) Append(row TrialRow) error {
	rows := []TrialRow{row}
	marshal := gocsv.MarshalWithoutHeaders
	if !l.header {
		marshal = gocsv.Marshal
	}
	if err := marshal(rows, l.f); err != nil {
		return fmt.Errorf("writing trial log: %w", err)
	}
	l.header = true
	return nil
}

func (l *trialLog) Close() error {
	return l.f.Close()
}
