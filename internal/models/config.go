package models

import "time"

// ChannelConfig describes the push event channel.
type ChannelConfig struct {
	Path    string `yaml:"path"`
	Dialect string `yaml:"dialect"` // "engineio" | "json"
	Event   string `yaml:"event"`
	// IdleTimeout bounds how long the channel may stay silent before it is
	// treated as dead. Engine.IO servers override it with the ping window
	// they advertise on open.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// ClientConfig holds everything vigil needs to reach the backend.
// This corresponds to ~/.vigil/config.yaml.
type ClientConfig struct {
	Version        int           `yaml:"version"`
	BackendURL     string        `yaml:"backend_url"`
	StreamPath     string        `yaml:"stream_path"`
	Channel        ChannelConfig `yaml:"channel"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	BufferCapacity int           `yaml:"buffer_capacity"`
	HistoryLines   int           `yaml:"history_lines"`
	DefectTitles   []string      `yaml:"defect_titles"`
	DropDir        string        `yaml:"drop_dir,omitempty"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty"`
	LogFile        string        `yaml:"log_file,omitempty"`
}

// MaxBufferCapacity bounds how many entries the event buffer may retain.
const MaxBufferCapacity = 50

// NewClientConfig creates a config with default values.
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		Version:    1,
		BackendURL: "http://localhost:8000",
		StreamPath: "/video_feed",
		Channel: ChannelConfig{
			Path:        "/socket.io/",
			Dialect:     "engineio",
			Event:       "log_message",
			IdleTimeout: 60 * time.Second,
		},
		PollInterval:   2 * time.Second,
		RequestTimeout: 10 * time.Second,
		BufferCapacity: MaxBufferCapacity,
		HistoryLines:   MaxBufferCapacity,
		DefectTitles:   []string{"检测到缺陷"},
	}
}
