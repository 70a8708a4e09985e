package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/config"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfgPath     string
	logLevel    string
	interactive bool

	cfg      config.Config
	log      *zap.Logger
	observer analytics.Observer
	prompt   prompter
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{prompt: promptUI{}})
}

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "abkit",
		Short: "A/B test statistics for game KPIs",
		Long: `abkit sizes, times and evaluates A/B tests on game KPIs
(retention, LTV, conversion, ATV) and suggests uplift targets from KPI history.

Calculators run locally; 'abkit serve' exposes the same calculators as a JSON API.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", getEnvOrDefault(config.EnvConfig, ""), "config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&a.interactive, "interactive", "i", false, "prompt for missing values")

	root.AddCommand(
		newSampleSizeCmd(a),
		newRuntimeCmd(a),
		newSignificanceCmd(a),
		newVolatilityCmd(a),
		newServeCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(a.logLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.log, err = newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	a.observer = analytics.NewLogger(a.log)
	return nil
}

func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewDevelopmentConfig()
	if lc.JSON {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
