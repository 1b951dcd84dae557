package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexus-vision/vigil/internal/models"
)

var (
	settingsConf  float64
	settingsImgsz int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the detector settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the backend's inference settings",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the backend's inference settings",
	Long: `Change the backend's inference settings.

Flags that are not given keep the backend's current value.`,
	RunE: runSettingsSet,
}

func init() {
	settingsSetCmd.Flags().Float64Var(&settingsConf, "conf", 0, "confidence threshold (0.05-0.95)")
	settingsSetCmd.Flags().IntVar(&settingsImgsz, "imgsz", 0, "inference resolution (320, 640 or 1280)")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw := newGateway(cfg, func(e models.LogEntry) {
		fmt.Fprintln(cmd.ErrOrStderr(), formatEntry(e))
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	s, err := gw.LoadSettings(ctx)
	if err != nil {
		return err
	}
	printSettings(cmd, s)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	confSet := cmd.Flags().Changed("conf")
	imgszSet := cmd.Flags().Changed("imgsz")
	if !confSet && !imgszSet {
		return fmt.Errorf("nothing to change: pass --conf and/or --imgsz")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	gw := newGateway(cfg, func(e models.LogEntry) {
		fmt.Fprintln(out, formatEntry(e))
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	s := models.DefaultInferenceSettings()
	if !confSet || !imgszSet {
		current, err := gw.LoadSettings(ctx)
		if err != nil {
			return err
		}
		if current.ConfidenceThreshold > 0 {
			s.ConfidenceThreshold = current.ConfidenceThreshold
		}
		if current.InferenceResolution > 0 {
			s.InferenceResolution = current.InferenceResolution
		}
	}
	if confSet {
		s.ConfidenceThreshold = settingsConf
	}
	if imgszSet {
		s.InferenceResolution = settingsImgsz
	}
	if err := s.Validate(); err != nil {
		return err
	}

	ack, err := gw.SaveSettings(ctx, s)
	if err != nil {
		return err
	}
	printSettings(cmd, ack)
	return nil
}

func printSettings(cmd *cobra.Command, s models.InferenceSettings) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %.2f\n", render(styleLabel, "conf: "), s.ConfidenceThreshold)
	fmt.Fprintf(out, "%s %d\n", render(styleLabel, "imgsz:"), s.InferenceResolution)
}
