package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names and prefixes.
const (
	EnvPrefix     = "MEDTRACKER_"
	EnvConfigPath = "MEDTRACKER_CONFIG"
	dotEnvFile    = ".env"
)

// listKeys are split on commas when provided through the environment.
var listKeys = map[string]bool{
	"overpass_amenities":   true,
	"cors_allowed_origins": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MEDTRACKER_CONFIG is set
//  3. env (prefix MEDTRACKER_)
//
// A .env file in the working directory is read first; variables already set
// in the process environment win over it.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, dotEnvFile, err)
	}
	return LoadFrom(ctx, os.Getenv(EnvConfigPath))
}

// LoadFrom is Load with an explicit config file path ("" for none).
func LoadFrom(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: MEDTRACKER_ADDR, MEDTRACKER_TOP_N, ...
	// Keys are flat, so underscores are preserved to match koanf tags.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
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

	cfg := New()
	// Provided lists replace the defaults instead of merging index by index.
	for key := range listKeys {
		if k.Exists(key) {
			switch key {
			case "overpass_amenities":
				cfg.OverpassAmenities = nil
			case "cors_allowed_origins":
				cfg.CORSAllowedOrigins = nil
			}
		}
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
