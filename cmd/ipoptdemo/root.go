// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ipoptdemo runs a handful of built-in interior-point
// optimization scenarios, grounded on
// _examples/CWBudde-MayFlyCircleFit/cmd's cobra root/PersistentPreRun
// pattern (set up an slog.Logger in PersistentPreRun, run a
// subcommand). The logger writes through the journal, so --verbosity
// gates its output; --log-level is only recorded in the run-start line.
package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/curioloop/barrier/journal"
)

var (
	logLevel string
	verbose  string
	runID    uuid.UUID

	appJournal *journal.Journal
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ipoptdemo",
	Short: "Run interior-point optimization demo scenarios",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		runID = uuid.New()

		level := parseJournalLevel(verbose)
		appJournal = &journal.Journal{
			Level:      level,
			Categories: journal.CatAll,
			Msg:        os.Stdout,
			Out:        os.Stdout,
		}

		logger = slog.New(journal.NewSlogHandler(appJournal))
		slog.SetDefault(logger)
		logger.Info("run starting", "run_id", runID.String(), "log_level", logLevel)
	},
}

func parseJournalLevel(s string) journal.Level {
	switch s {
	case "detailed":
		return journal.LevelDetailed
	case "vector":
		return journal.LevelVector
	case "matrix":
		return journal.LevelMatrix
	case "none":
		return journal.LevelNone
	default:
		return journal.LevelSummary
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "label recorded in the run-start log line (output is gated by --verbosity)")
	rootCmd.PersistentFlags().StringVar(&verbose, "verbosity", "summary", "journal verbosity: none, summary, detailed, vector, matrix")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
