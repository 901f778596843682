// Package history records runs and their per-generation summaries in a
// SQLite database so results can be compared across restarts.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/pthm-cable/genecars/telemetry"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// Run is one recorded evolution run.
type Run struct {
	ID             string
	Seed           int64
	GenerationSize int
	MutationRate   float64
	StartedAt      time.Time
	FinishedAt     time.Time // zero while running or if interrupted
	Generations    int
	BestDistance   float64
	BestGeneration int
}

// Finished reports whether the run was closed normally.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// GenerationRecord is the stored summary of one generation.
type GenerationRecord struct {
	RunID          string
	Generation     int
	BestDistance   float64
	MeanDistance   float64
	StdDistance    float64
	RecordDistance float64
	EliteID        int
	SimTimeSec     float64
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("history: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			generation_size INTEGER NOT NULL,
			mutation_rate REAL NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			generations INTEGER NOT NULL DEFAULT 0,
			best_distance REAL NOT NULL DEFAULT 0,
			best_generation INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			best_distance REAL NOT NULL,
			mean_distance REAL NOT NULL,
			std_distance REAL NOT NULL,
			record_distance REAL NOT NULL,
			elite_id INTEGER NOT NULL,
			sim_time REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun records a new run and returns it with a fresh ID.
func (s *Store) StartRun(seed int64, generationSize int, mutationRate float64, startedAt time.Time) (Run, error) {
	run := Run{
		ID:             uuid.NewString(),
		Seed:           seed,
		GenerationSize: generationSize,
		MutationRate:   mutationRate,
		StartedAt:      startedAt.UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, seed, generation_size, mutation_rate, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Seed, run.GenerationSize, run.MutationRate, formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("history: cannot start run: %w", err)
	}
	return run, nil
}

// RecordGeneration stores a generation summary and updates the run totals.
func (s *Store) RecordGeneration(runID string, stats telemetry.GenerationStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO generations
		 (run_id, generation, best_distance, mean_distance, std_distance, record_distance, elite_id, sim_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		stats.Generation,
		stats.BestDistance,
		stats.MeanDistance,
		stats.StdDistance,
		stats.RecordDistance,
		stats.EliteID,
		stats.SimTimeSec,
	)
	if err != nil {
		return fmt.Errorf("history: cannot record generation: %w", err)
	}

	res, err := tx.Exec(
		`UPDATE runs SET generations = ?, best_distance = ?, best_generation = ? WHERE id = ?`,
		stats.Generation+1, stats.RecordDistance, stats.RecordGeneration, runID,
	)
	if err != nil {
		return fmt.Errorf("history: cannot update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("history: unknown run %s", runID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: cannot commit generation: %w", err)
	}
	return nil
}

// FinishRun marks a run as completed.
func (s *Store) FinishRun(runID string, finishedAt time.Time) error {
	_, err := s.db.Exec(
		"UPDATE runs SET finished_at = ? WHERE id = ?",
		formatTime(finishedAt.UTC()), runID,
	)
	if err != nil {
		return fmt.Errorf("history: cannot finish run: %w", err)
	}
	return nil
}

// Runs retrieves the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, seed, generation_size, mutation_rate, started_at, finished_at,
		        generations, best_distance, best_generation
		 FROM runs
		 ORDER BY rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a run. Returns nil if it does not exist.
func (s *Store) RunByID(runID string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, seed, generation_size, mutation_rate, started_at, finished_at,
		        generations, best_distance, best_generation
		 FROM runs
		 WHERE id = ?`,
		runID,
	)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Generations retrieves every recorded generation of a run in order.
func (s *Store) Generations(runID string) ([]GenerationRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, generation, best_distance, mean_distance, std_distance,
		        record_distance, elite_id, sim_time
		 FROM generations
		 WHERE run_id = ?
		 ORDER BY generation`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("history: cannot query generations: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		if err := rows.Scan(
			&r.RunID,
			&r.Generation,
			&r.BestDistance,
			&r.MeanDistance,
			&r.StdDistance,
			&r.RecordDistance,
			&r.EliteID,
			&r.SimTimeSec,
		); err != nil {
			return nil, fmt.Errorf("history: cannot scan row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Seed,
		&run.GenerationSize,
		&run.MutationRate,
		&startedAt,
		&finishedAt,
		&run.Generations,
		&run.BestDistance,
		&run.BestGeneration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: cannot scan run: %w", err)
	}

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = parseTime(finishedAt.String); err != nil {
			return Run{}, err
		}
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("history: bad timestamp %q: %w", v, err)
	}
	return t, nil
}
