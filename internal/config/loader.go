package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "RANKDELTA_"
	envConfig  = envPrefix + "CONFIG"
	listSuffix = ","
)

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{
	"lower_is_better": true,
	"acronyms":        true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RANKDELTA_CONFIG is set
//  3. env (prefix RANKDELTA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RANKDELTA_MAX_ITEMS -> max_items. Underscores are kept to match the
	// flat koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Lists are decoded fresh so a shorter override never keeps default
	// elements.
	cfg := *base
	cfg.LowerIsBetter, cfg.Acronyms = nil, nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if !k.Exists("lower_is_better") {
		cfg.LowerIsBetter = base.LowerIsBetter
	}
	if !k.Exists("acronyms") {
		cfg.Acronyms = base.Acronyms
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxItems <= 0:
		return fmt.Errorf("%w: max_items must be positive, got %d", ErrInvalidConfig, c.MaxItems)
	case c.RowOverflowRatio < 1:
		return fmt.Errorf("%w: row_overflow_ratio must be >= 1, got %g", ErrInvalidConfig, c.RowOverflowRatio)
	case c.RenderTimeoutMS < 0:
		return fmt.Errorf("%w: render_timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, listSuffix) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
