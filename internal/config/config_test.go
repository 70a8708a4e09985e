package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthon-sd/ab-test-toolkit/internal/config"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, stats.DefaultMultipliers(), cfg.Multipliers())
	assert.Equal(t, stats.AnalyzeOptions{Model: stats.ModelSample, WindowSize: 4, Alpha: 0.3}, cfg.AnalyzeOptions())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_PartialFile(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
volatility:
  model: moving
  multipliers:
    aggressive: 2
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "moving", cfg.Volatility.Model)
	assert.Equal(t, 4, cfg.Volatility.WindowSize, "unset keys keep defaults")
	assert.Equal(t, 2.0, cfg.Volatility.Multipliers.Aggressive)
	assert.Equal(t, 1.0, cfg.Volatility.Multipliers.Moderate)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "server: [",
		"bad model":  "volatility:\n  model: garch\n",
		"bad alpha":  "volatility:\n  alpha: 1.5\n",
		"bad power":  "sample_size:\n  power: 0\n",
		"bad level":  "logging:\n  level: loud\n",
		"bad port":   "server:\n  port: 70000\n",
		"bad window": "volatility:\n  window_size: 1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{config.EnvPort: "9999", config.EnvLogLevel: "DEBUG"}
	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)

	cfg = config.Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == config.EnvPort {
			return "http"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "abkit.yaml")
	want := config.Default()
	want.Volatility.Model = "exponential"
	want.SampleSize.FixedZ = true
	require.NoError(t, config.Write(path, want))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, cfg)

	assert.Error(t, config.Write(path, config.Default()), "existing file must not be overwritten")
}

func TestWrite_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0
	assert.Error(t, config.Write(filepath.Join(t.TempDir(), "abkit.yaml"), cfg))
}
