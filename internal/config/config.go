// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and ATHLETIX_ env vars.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"runtime"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: json or text.
	LogFormat string `koanf:"log_format" validate:"oneof=json text"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`

	// DedupeSize bounds the idempotency-key cache.
	DedupeSize int `koanf:"dedupe_size" validate:"gt=0"`

	// StoreDriver selects the document store.
	StoreDriver string `koanf:"store_driver" validate:"oneof=memory sqlite"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path" validate:"required_if=StoreDriver sqlite"`

	// ReferencePath optionally replaces the embedded reference table.
	ReferencePath string `koanf:"reference_path"`

	// ReadinessWeights overrides per-field readiness weights. From the
	// environment it is written as "hrv_night=0.4,resting_hr=0.3".
	ReadinessWeights map[string]float64 `koanf:"readiness_weights"`

	// MaxQueryResults caps the markers returned by one query.
	MaxQueryResults int `koanf:"max_query_results" validate:"gt=0"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "json",
		Addr:            ":9080",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      50_000,
		StoreDriver:     StoreMemory,
		SQLitePath:      "athletix.db",
		MaxQueryResults: 500,
		ReadinessWeights: map[string]float64{
			"hrv_night":        0.35,
			"resting_hr":       0.25,
			"sleep_duration_h": 0.25,
			"spo2_night":       0.15,
		},
	}
}
