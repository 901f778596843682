// genecars evolves two-wheeled cars with a genetic algorithm and a headless
// driving host.
//
// Usage:
//
//	genecars run                 - Evolve cars headlessly
//	genecars history             - List recorded runs
//	genecars history --run <id>  - Show a run's generations
//
// Global flags:
//
//	--db <path>          - History database (default: ~/.genecars/history.db)
//	--log-format <fmt>   - json or text
//	--verbose            - Log individual deaths and generation details
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagDBPath    string
	flagLogFormat string
	flagVerbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "genecars",
	Short: "Evolve cars with a genetic algorithm",
	Long: `genecars breeds generations of two-wheeled cars. Each car is a genome of
eight chassis vertices and two wheels; cars drive until they stop making
progress, and the furthest travellers parent the next generation.

Examples:
  genecars run --generations 50 --output-dir out/run1
  genecars run --seed 42 --db ~/.genecars/history.db
  genecars history
  genecars history --run 3f1c...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(flagLogFormat, flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.genecars/history.db", "Path to run history database")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

// setupLogger installs the default slog logger. JSON goes to stdout for
// machine consumption; text is rendered by charmbracelet/log on stderr.
func setupLogger(format string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "text":
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "genecars",
		})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
		handler = logger
	default:
		return fmt.Errorf("unknown log format %q (want json or text)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
