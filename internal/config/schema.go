package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds reader configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LogLevel   string           `mapstructure:"log_level" yaml:"log_level"`
	Defra      DefraConfig      `mapstructure:"defra" yaml:"defra"`
	Pagination PaginationConfig `mapstructure:"pagination" yaml:"pagination"`
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default: reader-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// PaginationConfig controls how archives are split into pages.
type PaginationConfig struct {
	// BlocksPerPage is the number of narrative blocks per text page.
	// It is stored with every cached page; changing it invalidates caches.
	BlocksPerPage int `mapstructure:"blocks_per_page" yaml:"blocks_per_page"`
	// AssetBaseURL prefixes rewritten image URLs: <base>/<book-id>/assets/<file>.
	AssetBaseURL string `mapstructure:"asset_base_url" yaml:"asset_base_url"`
	// Workers is the number of concurrent extractions.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// QueueSize bounds extractions waiting for a worker.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
	// MaxEntryBytes caps the decompressed size of one archive entry.
	MaxEntryBytes int64 `mapstructure:"max_entry_bytes" yaml:"max_entry_bytes"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Defra: DefraConfig{
			ContainerName: "reader-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
		Pagination: PaginationConfig{
			BlocksPerPage: 25,
			AssetBaseURL:  "/api/book-reader",
			Workers:       4,
			QueueSize:     64,
			MaxEntryBytes: 256 << 20,
		},
	}
}

// Validate checks values that would otherwise fail deep inside the server.
func (c *Config) Validate() error {
	if c.Pagination.BlocksPerPage <= 0 {
		return fmt.Errorf("pagination.blocks_per_page must be positive, got %d", c.Pagination.BlocksPerPage)
	}
	if c.Pagination.MaxEntryBytes <= 0 {
		return fmt.Errorf("pagination.max_entry_bytes must be positive, got %d", c.Pagination.MaxEntryBytes)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
