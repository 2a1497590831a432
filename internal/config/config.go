// Package config defines service configuration structures and loading hooks.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds one snapshot file per period (2025-05.yaml, 2024.json, ...).
	DataDir string `koanf:"data_dir"`

	// CurrentPeriod is the period rendered when a request names none.
	// Empty means the latest loaded period.
	CurrentPeriod string `koanf:"current_period"`

	// MaxItems bounds how many rows per category get a delta.
	MaxItems int `koanf:"max_items"`

	// RowOverflowRatio caps how far a tie may stretch a rows limit.
	RowOverflowRatio float64 `koanf:"row_overflow_ratio"`

	// LowerIsBetter lists column-name keywords whose thresholds keep
	// values at or below the limit.
	LowerIsBetter []string `koanf:"lower_is_better"`

	// Acronyms are extra words kept verbatim in table headers.
	Acronyms []string `koanf:"acronyms"`

	// LinksFile maps table keys to URLs for wsdb:true. Empty disables links.
	LinksFile string `koanf:"links_file"`

	// RenderTimeoutMS bounds a single render request.
	RenderTimeoutMS int `koanf:"render_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		DataDir:          "data",
		MaxItems:         20,
		RowOverflowRatio: 1.5,
		LowerIsBetter:    []string{"missed", "days", "errors", "failures", "cost", "time"},
		Acronyms:         []string{},
		RenderTimeoutMS:  5000,
	}
}

// RenderTimeout returns RenderTimeoutMS as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutMS) * time.Millisecond
}
