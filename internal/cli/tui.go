package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexus-vision/vigil/internal/config"
	"github.com/nexus-vision/vigil/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile := cfg.LogFile
	if logFile == "" {
		if err := config.EnsureGlobalDir(); err != nil {
			return err
		}
		if logFile, err = config.DefaultLogFile(); err != nil {
			return err
		}
	}

	app, client, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return err
	}
	if err := startExtras(ctx, cfg, app); err != nil {
		return err
	}

	return tui.Run(ctx, app, tui.Options{
		BaseURL:       client.BaseURL(),
		ActionTimeout: cfg.RequestTimeout,
		LogFile:       logFile,
	})
}
