// Package cli implements the lexigo command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// version information
var version = "dev"

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the lexigo command tree
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "lexigo",
		Short: "Vocabulary trainer with spaced repetition",
		Long: `lexigo teaches English vocabulary in daily lessons that blend new words
with words due for review, and schedules every word on a fixed interval ladder.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default lexigo.yaml)")

	// open loads the app for a command; callers close it
	open := func() (*app, error) {
		return newApp(configPath)
	}

	root.AddCommand(
		newServeCmd(open),
		newStudyCmd(open),
		newDueCmd(open),
		newNotebookCmd(open),
		newStatsCmd(open),
		newLoginCmd(open),
		newArenaCmd(open),
		newImportCmd(open),
		newExportCmd(open),
		newRemindCmd(open),
	)
	return root
}

type opener func() (*app, error)
