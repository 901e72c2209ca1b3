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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GRIDSIGHT_CONFIG is set
//  3. env (prefix GRIDSIGHT_)
//
// The Firebase credential fields additionally fall back to the legacy
// FIREBASE_* environment variables the upstream deployment already sets.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GRIDSIGHT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// GRIDSIGHT_MODEL_ROOT -> model_root, flat keys, underscores preserved
	// to match the koanf tags on the struct.
	envProvider := env.Provider("GRIDSIGHT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "gridsight_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.FirebaseDatabaseURL == "" {
		cfg.FirebaseDatabaseURL = os.Getenv("FIREBASE_DATABASE_URL")
	}
	if cfg.FirebaseCredentialsPath == "" {
		cfg.FirebaseCredentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	}
	if cfg.FirebaseCredentialsJSON == "" {
		cfg.FirebaseCredentialsJSON = os.Getenv("FIREBASE_SERVICE_ACCOUNT")
	}

	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.ReferenceYear <= 0:
		return nil, fmt.Errorf("%w: reference_year must be positive", ErrInvalidConfig)
	case cfg.TimelineHours <= 0:
		return nil, fmt.Errorf("%w: timeline_hours must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
