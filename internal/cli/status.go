package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexus-vision/vigil/internal/backend"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw status report")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := backend.NewClient(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	report, err := client.Status(ctx)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), render(styleError, "Backend unreachable: ")+client.BaseURL())
		return fmt.Errorf("failed to get status: %w", err)
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	yesNo := func(ok bool) string {
		if ok {
			return render(styleSuccess, "yes")
		}
		return render(styleError, "no")
	}

	fmt.Fprintf(out, "%s %s\n", render(styleBrand, "Backend"), render(styleValue, client.BaseURL()))
	fmt.Fprintf(out, "  %s %s\n", render(styleLabel, "Camera:    "), yesNo(report.CameraConnected))
	fmt.Fprintf(out, "  %s %s\n", render(styleLabel, "Model:     "), yesNo(report.ModelLoaded))
	if report.Device != "" {
		fmt.Fprintf(out, "  %s %s\n", render(styleLabel, "Device:    "), report.Device)
	}
	if report.FPS != nil {
		fmt.Fprintf(out, "  %s %.1f\n", render(styleLabel, "FPS:       "), *report.FPS)
	}
	if report.CPU != nil {
		fmt.Fprintf(out, "  %s %.1f%%\n", render(styleLabel, "CPU:       "), *report.CPU)
	}
	return nil
}
