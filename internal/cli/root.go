// Package cli defines the scenectl command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opencommotion/scenekit/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DataDir  string
	Format   string // "json" | "text"
	LogLevel string
	Verbose  bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scenectl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scenectl",
		Short: "scenectl manages versioned scene state",
		Long: `scenectl applies typed mutation batches against durable scene state,
translates legacy patches, and manages snapshots of the resulting scenes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			// Optional .env for OPENCOMMOTION_V2_* policy overrides.
			_ = godotenv.Load()
			slog.SetDefault(logging.NewLogger(os.Stderr, logging.ParseLevel(opts.LogLevel)))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "scene-data", "scene store root directory")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))
	cmd.AddCommand(NewScenesCommand(opts))
	cmd.AddCommand(NewRecipesCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
