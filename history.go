package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/genecars/history"
)

var (
	flagRunID string
	flagLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `List runs recorded with 'genecars run --db', newest first, or show the
generations of one run.

Examples:
  genecars history
  genecars history --limit 5
  genecars history --run 3f1c0d2e-...`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagRunID, "run", "", "Show generations of this run ID")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if flagRunID != "" {
		run, err := store.RunByID(flagRunID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %q not found", flagRunID)
		}
		gens, err := store.Generations(run.ID)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, history.FormatRun(*run, time.Now()))
		fmt.Fprintln(out)
		if len(gens) == 0 {
			fmt.Fprintln(out, "No generations recorded.")
			return nil
		}
		for _, g := range gens {
			fmt.Fprintln(out, history.FormatGeneration(g))
		}
		return nil
	}

	runs, err := store.Runs(flagLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Record one with 'genecars run --db <path>'.")
		return nil
	}

	now := time.Now()
	for _, r := range runs {
		fmt.Fprintln(out, history.FormatRun(r, now))
	}
	return nil
}
