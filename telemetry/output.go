package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/evolution"
)

// Output file names inside the run directory.
const (
	GenerationsFile = "generations.csv"
	IndividualsFile = "individuals.csv"
	PerfFile        = "perf.csv"
	BookmarksFile   = "bookmarks.csv"
	ConfigFile      = "config.yaml"
	HallOfFameFile  = "hall_of_fame.json"
)

// csvLog is an append-only CSV file. The header is written with the first
// batch of rows.
type csvLog struct {
	name   string
	f      *os.File
	header bool
}

func openCSVLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, f: f}, nil
}

// append writes rows, which must be a non-empty slice of csv-tagged structs.
func (l *csvLog) append(rows any) error {
	marshal := gocsv.MarshalWithoutHeaders
	if !l.header {
		marshal = gocsv.Marshal
	}
	if err := marshal(rows, l.f); err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	l.header = true
	return nil
}

// IndividualRow is one ranked individual of a finished generation.
type IndividualRow struct {
	Generation   int     `csv:"generation"`
	Rank         int     `csv:"rank"`
	IndividualID int     `csv:"individual_id"`
	Distance     float64 `csv:"distance"`
	Elite        bool    `csv:"elite"`
	ChassisArea  float64 `csv:"chassis_area"`
	Wheel0Radius float64 `csv:"wheel0_radius"`
	Wheel0Vertex int     `csv:"wheel0_vertex"`
	Wheel1Radius float64 `csv:"wheel1_radius"`
	Wheel1Vertex int     `csv:"wheel1_vertex"`
}

// IndividualRows flattens a generation's ranking, best first.
func IndividualRows(sum evolution.GenerationSummary) []IndividualRow {
	rows := make([]IndividualRow, 0, sum.Ranking.Len())
	for i := 0; i < sum.Ranking.Len(); i++ {
		ind := sum.Ranking.At(i)
		g := ind.Genome
		rows = append(rows, IndividualRow{
			Generation:   sum.Generation,
			Rank:         i,
			IndividualID: ind.ID,
			Distance:     ind.BestDistance,
			Elite:        ind.Elite,
			ChassisArea:  g.Area(),
			Wheel0Radius: g.Wheels[0].Radius,
			Wheel0Vertex: g.Wheels[0].MountVertex,
			Wheel1Radius: g.Wheels[1].Radius,
			Wheel1Vertex: g.Wheels[1].MountVertex,
		})
	}
	return rows
}

// GenerationRecord is everything logged when a generation finishes.
type GenerationRecord struct {
	Summary   evolution.GenerationSummary
	Stats     GenerationStats
	Perf      PerfStats
	Bookmarks []Bookmark
}

// OutputManager writes a run's CSV logs, config snapshot and hall of fame
// into one directory. A nil manager discards everything.
type OutputManager struct {
	dir         string
	generations *csvLog
	individuals *csvLog
	perf        *csvLog
	bookmarks   *csvLog
}

// NewOutputManager creates dir and opens the CSV logs in it.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, l := range []struct {
		dst  **csvLog
		name string
	}{
		{&om.generations, GenerationsFile},
		{&om.individuals, IndividualsFile},
		{&om.perf, PerfFile},
		{&om.bookmarks, BookmarksFile},
	} {
		log, err := openCSVLog(dir, l.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*l.dst = log
	}
	return om, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// Record appends a finished generation to every CSV log.
func (om *OutputManager) Record(rec GenerationRecord) error {
	if om == nil {
		return nil
	}
	if err := om.generations.append([]GenerationStats{rec.Stats}); err != nil {
		return err
	}
	if rows := IndividualRows(rec.Summary); len(rows) > 0 {
		if err := om.individuals.append(rows); err != nil {
			return err
		}
	}
	if err := om.perf.append([]PerfRow{rec.Perf.Row()}); err != nil {
		return err
	}
	if len(rec.Bookmarks) > 0 {
		if err := om.bookmarks.append(rec.Bookmarks); err != nil {
			return err
		}
	}
	return nil
}

// WriteHallOfFame saves the hall of fame as indented JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}
	data, err := json.MarshalIndent(hof, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, HallOfFameFile), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", HallOfFameFile, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes the CSV logs and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, l := range []*csvLog{om.generations, om.individuals, om.perf, om.bookmarks} {
		if l == nil {
			continue
		}
		if err := l.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
