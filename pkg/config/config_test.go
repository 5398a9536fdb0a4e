package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/config"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int    `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"INFO" validate:"required"`
}

func TestLoadAppliesDefaultsWhenNoLayersExist(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg, config.Options{AppName: "swarmer", ConfigDir: t.TempDir()}))
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadYAMLLayerOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swarmer.yaml"), []byte("port: 9000\nlog_level: DEBUG\n"), 0o600))

	var cfg testConfig
	require.NoError(t, config.Load(&cfg, config.Options{AppName: "swarmer", ConfigDir: dir}))
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadEnvOverridesYAMLLayer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swarmer.yaml"), []byte("port: 9000\nlog_level: DEBUG\n"), 0o600))

	t.Setenv("SWARMER_PORT", "9100")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg, config.Options{AppName: "swarmer", ConfigDir: dir}))
	require.Equal(t, 9100, cfg.Port)
}

func TestLoadExplicitPathWinsOverEverything(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swarmer.yaml"), []byte("port: 9000\nlog_level: DEBUG\n"), 0o600))
	explicit := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("port: 9999\nlog_level: WARN\n"), 0o600))

	var cfg testConfig
	require.NoError(t, config.Load(&cfg, config.Options{AppName: "swarmer", ConfigDir: dir, ExplicitPath: explicit}))
	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, "WARN", cfg.LogLevel)
}
