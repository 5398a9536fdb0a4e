// Package config provides layered configuration loading and validation for
// the agent and registry deployables.
//
// Layers, lowest to highest precedence:
//
//  1. struct `env-default` tags (compiled-in defaults)
//  2. ./config/<app>.yaml
//  3. ./config/local_<app>.yaml (gitignored machine overrides)
//  4. environment variables, prefixed "<APP_NAME>_" with "__" as the
//     nested-field separator (e.g. SWARMER_BROKER__POOL_SIZE)
//  5. an explicit file passed via --config, if the caller's CLI surface
//     accepts one
//
// Usage:
//
//	type AppConfig struct {
//		Port int `env:"PORT" env-default:"8080"`
//	}
//
//	var cfg AppConfig
//	if err := config.Load(&cfg, config.Options{AppName: "swarmer"}); err != nil {
//		log.Fatal(err)
//	}
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/nyxwave/fleetmesh/pkg/errors"
)

// Options controls which layers Load applies.
type Options struct {
	// AppName is both the base filename under ./config (<AppName>.yaml)
	// and the environment variable prefix (<APP_NAME>_).
	AppName string

	// ConfigDir overrides the default "./config" lookup directory.
	ConfigDir string

	// ExplicitPath, if set, is read last and wins over every other layer
	// (the CLI --config flag).
	ExplicitPath string
}

// Load reads configuration from the layered sources described in the
// package doc and validates the result with struct `validate` tags.
func Load[T any](cfg *T, opts Options) error {
	dir := opts.ConfigDir
	if dir == "" {
		dir = "config"
	}

	layers := []string{
		fmt.Sprintf("%s/%s.yaml", dir, opts.AppName),
		fmt.Sprintf("%s/local_%s.yaml", dir, opts.AppName),
	}

	for _, path := range layers {
		if _, err := os.Stat(path); err != nil {
			continue // layer absent: defaults/earlier layers stand.
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to read config layer %s", path))
		}
	}

	if err := applyEnv(cfg, opts.AppName); err != nil {
		return errors.Wrap(err, "failed to read environment configuration")
	}

	if opts.ExplicitPath != "" {
		if err := cleanenv.ReadConfig(opts.ExplicitPath, cfg); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to read explicit config %s", opts.ExplicitPath))
		}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "config validation failed")
	}

	return nil
}

// applyEnv folds "<APP_NAME>_FOO__BAR"-shaped environment variables into
// the plain "FOO__BAR"-tagged variables cleanenv.ReadEnv expects, then
// delegates to it. The AppName prefix lets multiple binaries share a
// process environment without colliding on a bare variable name.
func applyEnv[T any](cfg *T, appName string) error {
	if appName == "" {
		return cleanenv.ReadEnv(cfg)
	}

	prefix := strings.ToUpper(strings.ReplaceAll(appName, "-", "_")) + "_"
	restore := map[string]struct{}{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		unprefixed := strings.TrimPrefix(k, prefix)
		if _, exists := os.LookupEnv(unprefixed); !exists {
			restore[unprefixed] = struct{}{}
			_ = os.Setenv(unprefixed, v)
		}
	}
	defer func() {
		for k := range restore {
			_ = os.Unsetenv(k)
		}
	}()

	return cleanenv.ReadEnv(cfg)
}
