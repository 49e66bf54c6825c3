// Package config loads host configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full configuration of a gavel node. Domain durations are in
// logical milliseconds.
type Config struct {
	// ListenAddr is the websocket session gateway bind address.
	ListenAddr string `env:"GAVEL_LISTEN_ADDR" envDefault:":9370"`
	// MetricsAddr is the Prometheus scrape endpoint bind address.
	MetricsAddr string `env:"GAVEL_METRICS_ADDR" envDefault:":9371"`
	// DataDir holds the snapshot and timer database.
	DataDir string `env:"GAVEL_DATA_DIR" envDefault:"data"`
	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string `env:"GAVEL_LOG_LEVEL" envDefault:"info"`

	// MinimumAuctionDuration is the smallest allowed auction length.
	MinimumAuctionDuration int64 `env:"GAVEL_MIN_AUCTION_DURATION_MS" envDefault:"20000"`
	// RemovalDelay is how long a closed auction lingers before eviction.
	RemovalDelay int64 `env:"GAVEL_REMOVAL_DELAY_MS" envDefault:"25000"`

	// SnapshotInterval is how often the host snapshots domain state, in
	// wall milliseconds. Zero disables periodic snapshots.
	SnapshotInterval int64 `env:"GAVEL_SNAPSHOT_INTERVAL_MS" envDefault:"60000"`

	// SeedDemoParticipants installs the demo participants on a fresh boot.
	SeedDemoParticipants bool `env:"GAVEL_SEED_DEMO_PARTICIPANTS" envDefault:"false"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
