// Package config loads abkit settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig   = "ABKIT_CONFIG"
	EnvPort     = "ABKIT_PORT"
	EnvLogLevel = "ABKIT_LOG_LEVEL"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	SampleSize SampleSizeConfig `yaml:"sample_size"`
	Volatility VolatilityConfig `yaml:"volatility"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// SampleSizeConfig holds the defaults used when a request leaves confidence
// or power blank. FixedZ selects the legacy 1.96/0.84 formula.
type SampleSizeConfig struct {
	ConfidenceLevel float64 `yaml:"confidence_level" validate:"gt=0,lt=1"`
	Power           float64 `yaml:"power" validate:"gt=0,lt=1"`
	FixedZ          bool    `yaml:"fixed_z"`
}

type VolatilityConfig struct {
	Model       string            `yaml:"model" validate:"oneof=sample population moving exponential"`
	WindowSize  int               `yaml:"window_size" validate:"gte=2"`
	Alpha       float64           `yaml:"alpha" validate:"gt=0,lt=1"`
	Multipliers MultipliersConfig `yaml:"multipliers"`
}

type MultipliersConfig struct {
	Conservative float64 `yaml:"conservative" validate:"gte=0"`
	Moderate     float64 `yaml:"moderate" validate:"gte=0"`
	Aggressive   float64 `yaml:"aggressive" validate:"gte=0"`
}

func Default() Config {
	m := stats.DefaultMultipliers()
	return Config{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		SampleSize: SampleSizeConfig{
			ConfidenceLevel: 0.95,
			Power:           0.80,
		},
		Volatility: VolatilityConfig{
			Model:      string(stats.ModelSample),
			WindowSize: stats.DefaultWindowSize,
			Alpha:      stats.DefaultAlpha,
			Multipliers: MultipliersConfig{
				Conservative: m.Conservative,
				Moderate:     m.Moderate,
				Aggressive:   m.Aggressive,
			},
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the port and log level from the environment. getenv
// is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if p := getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("%s: %q is not a port number", EnvPort, p)
		}
		c.Server.Port = port
	}
	if l := getenv(EnvLogLevel); l != "" {
		c.Logging.Level = strings.ToLower(l)
	}
	return c.Validate()
}

var validate = validator.New()

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Multipliers returns the configured multipliers in engine form.
func (c Config) Multipliers() stats.Multipliers {
	m := c.Volatility.Multipliers
	return stats.Multipliers{Conservative: m.Conservative, Moderate: m.Moderate, Aggressive: m.Aggressive}
}

// AnalyzeOptions returns the configured volatility settings in engine form.
func (c Config) AnalyzeOptions() stats.AnalyzeOptions {
	return stats.AnalyzeOptions{
		Model:      stats.StdDevModel(c.Volatility.Model),
		WindowSize: c.Volatility.WindowSize,
		Alpha:      c.Volatility.Alpha,
	}
}

// Write saves cfg to path as YAML, creating parent directories. An
// existing file is left alone and reported as an error.
func Write(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
