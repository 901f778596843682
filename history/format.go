package history

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatRun renders a one-line run summary relative to now.
func FormatRun(r Run, now time.Time) string {
	status := "finished"
	if !r.Finished() {
		status = "incomplete"
	}
	return fmt.Sprintf("%s  started %s  seed %d  %s generations  best %s (gen %d)  %s",
		r.ID,
		humanize.RelTime(r.StartedAt, now, "ago", "from now"),
		r.Seed,
		humanize.Comma(int64(r.Generations)),
		humanize.FormatFloat("#,###.##", r.BestDistance),
		r.BestGeneration,
		status,
	)
}

// FormatGeneration renders one generation row.
func FormatGeneration(g GenerationRecord) string {
	return fmt.Sprintf("%6d  best %8s  mean %8s  std %7s  record %8s  elite #%d  %s",
		g.Generation,
		humanize.FormatFloat("#,###.##", g.BestDistance),
		humanize.FormatFloat("#,###.##", g.MeanDistance),
		humanize.FormatFloat("#,###.##", g.StdDistance),
		humanize.FormatFloat("#,###.##", g.RecordDistance),
		g.EliteID,
		(time.Duration(g.SimTimeSec * float64(time.Second))).Round(time.Millisecond),
	)
}
