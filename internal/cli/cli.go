package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meleemajors/meleemajors/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagDataDir   string
	flagLogFormat string
	flagVerbose   bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meleemajors",
		Short: "Build the upcoming Melee majors site",
		Long: `A static-site generator for upcoming Super Smash Bros. Melee majors.
Scrapes tournament data from start.gg, renders the site and its calendar feed,
and schedules reminder emails.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogger,
	}

	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "data", "Directory with tournaments.json, topPlayers.json and templates")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newBuildCmd(), newRankingsCmd(), newQueryCmd())
	return cmd
}

// setupLogger installs the default logger from the global flags.
func setupLogger(cmd *cobra.Command, args []string) error {
	format, err := logger.ParseFormat(flagLogFormat)
	if err != nil {
		return err
	}
	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.NewWithFormat(level, format, cmd.ErrOrStderr()))
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", strings.TrimSpace(err.Error()))
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
