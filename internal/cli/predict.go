package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nexus-vision/vigil/internal/dropwatch"
	"github.com/nexus-vision/vigil/internal/models"
)

var predictCmd = &cobra.Command{
	Use:   "predict <image>",
	Short: "Submit an image for detection",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

func runPredict(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !dropwatch.IsImage(path) {
		return fmt.Errorf("not a supported image: %s", path)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	gw := newGateway(cfg, func(e models.LogEntry) {
		fmt.Fprintln(out, formatEntry(e))
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	att, err := gw.SubmitImage(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	if ref, ok := att.URL(); ok {
		fmt.Fprintln(out, render(styleLabel, "Result: ")+resolveRef(cfg.BackendURL, ref))
	}
	return nil
}
