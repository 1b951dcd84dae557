// Package cli implements the vigil CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

// configPath is the --config flag shared by every command.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Monitor a visual inspection backend from the terminal",
	Long: `Vigil is an operator client for a camera-based defect detection backend.
It shows the live stream state, gauges and pushed alerts, submits images for
inference and edits the detector settings.

Run without a subcommand to open the interactive dashboard.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.vigil/config.yaml)")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
}
