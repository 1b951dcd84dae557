package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nexus-vision/vigil/internal/backend"
	"github.com/nexus-vision/vigil/internal/config"
	"github.com/nexus-vision/vigil/internal/dropwatch"
	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/monitor"
	"github.com/nexus-vision/vigil/internal/observability"
)

// loadConfig reads the config selected by --config.
func loadConfig() (*models.ClientConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newApp wires the backend client, push channel and coordinator.
func newApp(cfg *models.ClientConfig) (*monitor.App, *backend.Client, error) {
	client := backend.NewClient(cfg)
	ch, err := backend.NewChannel(cfg.BackendURL, cfg.Channel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up push channel: %w", err)
	}
	app, err := monitor.New(monitor.Options{
		Config:  cfg,
		Backend: client,
		Channel: ch,
	})
	if err != nil {
		return nil, nil, err
	}
	return app, client, nil
}

// newGateway builds a standalone gateway for one-shot commands. Outcome
// entries go to report.
func newGateway(cfg *models.ClientConfig, report func(models.LogEntry)) *monitor.Gateway {
	return monitor.NewGateway(backend.NewClient(cfg), cfg.HistoryLines, report, time.Now)
}

// startExtras runs the optional debug endpoint and drop-folder watcher
// until ctx ends.
func startExtras(ctx context.Context, cfg *models.ClientConfig, app *monitor.App) error {
	if cfg.MetricsAddr != "" {
		router := observability.NewRouter(func() any { return app.Snapshot() })
		go func() {
			if err := observability.Serve(ctx, cfg.MetricsAddr, router); err != nil {
				log.Printf("[debug-http] %v", err)
			}
		}()
		log.Printf("[debug-http] listening on %s", cfg.MetricsAddr)
	}

	if cfg.DropDir != "" {
		w, err := dropwatch.New(cfg.DropDir)
		if err != nil {
			return fmt.Errorf("failed to watch drop folder: %w", err)
		}
		go func() {
			if err := w.Run(ctx, app.SubmitFile); err != nil {
				log.Printf("[dropwatch] %v", err)
			}
		}()
		log.Printf("[dropwatch] watching %s", cfg.DropDir)
	}
	return nil
}
