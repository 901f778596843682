package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord    BookmarkType = "new_record"
	BookmarkBreakthrough BookmarkType = "breakthrough"
	BookmarkCollapse     BookmarkType = "collapse"
	BookmarkStagnation   BookmarkType = "stagnation"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable generations in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	record         float64 // best distance seen so far
	sinceRecord    int     // generations since the record last moved
	recentMeanPeak float64 // peak mean distance since the last collapse
}

// NewBookmarkDetector creates a detector with the given history size. A run
// that goes historySize generations without a new record is flagged as
// stagnating.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkNewRecord(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Breakthrough: generation best > 2x rolling average
		if b := bd.checkBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Collapse: mean distance halved from recent peak
		if b := bd.checkCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.MeanDistance > bd.recentMeanPeak {
		bd.recentMeanPeak = stats.MeanDistance
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNewRecord(stats GenerationStats) *Bookmark {
	if stats.RecordDistance <= bd.record {
		bd.sinceRecord++
		return nil
	}

	old := bd.record
	bd.record = stats.RecordDistance
	bd.sinceRecord = 0

	return &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Record distance %.2f (was %.2f)", stats.RecordDistance, old),
	}
}

func (bd *BookmarkDetector) checkBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.BestDistance
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.BestDistance > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Best distance %.2f is %.1fx average (%.2f)", stats.BestDistance, stats.BestDistance/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCollapse(stats GenerationStats) *Bookmark {
	if bd.recentMeanPeak <= 0 {
		return nil
	}

	drop := 1.0 - stats.MeanDistance/bd.recentMeanPeak
	if drop > 0.5 {
		// Reset peak after collapse
		oldPeak := bd.recentMeanPeak
		bd.recentMeanPeak = stats.MeanDistance

		return &Bookmark{
			Type:        BookmarkCollapse,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Mean distance fell %.0f%% from peak %.2f to %.2f", drop*100, oldPeak, stats.MeanDistance),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if bd.sinceRecord != bd.historySize { // trigger exactly once per stall
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("No new record for %d generations (record %.2f)", bd.historySize, bd.record),
	}
}
