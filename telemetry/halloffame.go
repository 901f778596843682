package telemetry

import (
	"encoding/json"
	"sort"

	"github.com/pthm-cable/genecars/evolution"
	"github.com/pthm-cable/genecars/genome"
)

// HallEntry is a generation champion and the genome that earned it.
type HallEntry struct {
	Generation   int           `json:"generation"`
	IndividualID int           `json:"individual_id"`
	Distance     float64       `json:"distance"`
	Elite        bool          `json:"elite"`
	Genome       genome.Genome `json:"genome"`
}

// HallOfFame keeps the best generation champions of a run, best first.
// It is export only; entries are never loaded back.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall of fame holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers the champion of a finished generation.
// Returns true if it was added to the hall.
func (hof *HallOfFame) Consider(sum evolution.GenerationSummary) bool {
	if hof == nil || sum.Ranking.Len() == 0 {
		return false
	}

	best := sum.Ranking.At(0)
	entry := HallEntry{
		Generation:   sum.Generation,
		IndividualID: best.ID,
		Distance:     best.BestDistance,
		Elite:        best.Elite,
		Genome:       best.Genome,
	}

	var added bool
	hof.entries, added = hof.insertEntry(hof.entries, entry)
	return added
}

// insertEntry adds an entry to the hall, maintaining sorted order by distance.
// Ties keep the earlier generation first. If the hall is full, the shortest
// entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Find insertion point (sorted descending by distance)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Distance < entry.Distance
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	// Insert at position
	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	// Trim if over capacity
	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}

	return hall, true
}

// Entries returns a copy of the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	if hof == nil {
		return nil
	}
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	if hof == nil {
		return 0
	}
	return len(hof.entries)
}

// TopDistance returns the best distance in the hall, or 0 if empty.
func (hof *HallOfFame) TopDistance() float64 {
	if hof == nil || len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Distance
}

// hallOfFameJSON is the exported document layout.
type hallOfFameJSON struct {
	MaxSize int         `json:"max_size"`
	Entries []HallEntry `json:"entries"`
}

// MarshalJSON serializes the hall of fame to JSON. A nil hall encodes as null.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	if hof == nil {
		return []byte("null"), nil
	}
	return json.Marshal(hallOfFameJSON{
		MaxSize: hof.maxSize,
		Entries: hof.Entries(),
	})
}
