package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nexus-vision/vigil/internal/models"
)

// Load reads the client config from path (or the default location when
// path is empty), applies VIGIL_* environment overrides and validates it.
func Load(path string) (*models.ClientConfig, error) {
	if path == "" {
		p, err := GlobalConfigFile()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadYAMLOrDefault(path, models.NewClientConfig)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path (or the default location when path is empty).
func Save(path string, cfg *models.ClientConfig) error {
	if path == "" {
		p, err := GlobalConfigFile()
		if err != nil {
			return err
		}
		path = p
	}
	return WriteYAML(path, cfg)
}

// Validate rejects configs that would leave a component unusable.
func Validate(cfg *models.ClientConfig) error {
	u, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("backend_url: missing host")
	}
	if cfg.BufferCapacity < 1 || cfg.BufferCapacity > models.MaxBufferCapacity {
		return fmt.Errorf("buffer_capacity must be between 1 and %d, got %d",
			models.MaxBufferCapacity, cfg.BufferCapacity)
	}
	if cfg.HistoryLines < 1 {
		return fmt.Errorf("history_lines must be positive, got %d", cfg.HistoryLines)
	}
	if cfg.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll_interval too short: %s", cfg.PollInterval)
	}
	switch cfg.Channel.Dialect {
	case "engineio", "json":
	default:
		return fmt.Errorf("channel.dialect must be engineio or json, got %q", cfg.Channel.Dialect)
	}
	return nil
}

func setDefaults(cfg *models.ClientConfig) {
	def := models.NewClientConfig()
	if cfg.BackendURL == "" {
		cfg.BackendURL = def.BackendURL
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.StreamPath == "" {
		cfg.StreamPath = def.StreamPath
	}
	if cfg.Channel.Path == "" {
		cfg.Channel.Path = def.Channel.Path
	}
	if cfg.Channel.Dialect == "" {
		cfg.Channel.Dialect = def.Channel.Dialect
	}
	if cfg.Channel.Event == "" {
		cfg.Channel.Event = def.Channel.Event
	}
	if cfg.Channel.IdleTimeout == 0 {
		cfg.Channel.IdleTimeout = def.Channel.IdleTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.BufferCapacity == 0 {
		cfg.BufferCapacity = def.BufferCapacity
	}
	if cfg.HistoryLines == 0 {
		cfg.HistoryLines = def.HistoryLines
	}
}

func applyEnvOverrides(cfg *models.ClientConfig) {
	if v := os.Getenv("VIGIL_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("VIGIL_CHANNEL_DIALECT"); v != "" {
		cfg.Channel.Dialect = v
	}
	if v := os.Getenv("VIGIL_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("VIGIL_BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BufferCapacity = n
		}
	}
	if v := os.Getenv("VIGIL_DROP_DIR"); v != "" {
		cfg.DropDir = v
	}
	if v := os.Getenv("VIGIL_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}
