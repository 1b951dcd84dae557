package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexus-vision/vigil/internal/models"
)

var logsLines int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print recent backend history",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 0, "number of lines to request (default history_lines)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logsLines > 0 {
		cfg.HistoryLines = logsLines
	}

	out := cmd.OutOrStdout()
	gw := newGateway(cfg, func(e models.LogEntry) {
		fmt.Fprintln(cmd.ErrOrStderr(), formatEntry(e))
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	entries, err := gw.FetchLogs(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, render(styleHint, "No history."))
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(out, formatEntry(e))
	}
	return nil
}
