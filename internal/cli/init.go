package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anthon-sd/ab-test-toolkit/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Long: `Write a YAML config file with the default settings.

With --interactive, asks for the default dispersion model and sample size
formula first. An existing file is never overwritten.

Example:
  abkit init
  abkit init ~/.config/abkit.yaml --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "abkit.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			cfg := config.Default()
			if a.interactive {
				if err := a.promptConfig(&cfg); err != nil {
					return err
				}
			}

			if err := config.Write(path, cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", path)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Use it with:")
			fmt.Fprintf(out, "  abkit --config %s <command>\n", path)
			fmt.Fprintf(out, "  export %s=%s\n", config.EnvConfig, path)
			return nil
		},
	}
	return cmd
}

func (a *app) promptConfig(cfg *config.Config) error {
	model, err := a.prompt.Select("Default dispersion model", []string{"sample", "population", "moving", "exponential"})
	if err != nil {
		return err
	}
	cfg.Volatility.Model = model

	switch model {
	case "moving":
		v, err := a.prompt.Text("Moving window size", strconv.Itoa(cfg.Volatility.WindowSize), validInt)
		if err != nil {
			return err
		}
		if cfg.Volatility.WindowSize, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid window size: %w", err)
		}
	case "exponential":
		v, err := a.prompt.Text("Smoothing factor alpha", formatFloat(cfg.Volatility.Alpha), validDecimal)
		if err != nil {
			return err
		}
		if cfg.Volatility.Alpha, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("invalid alpha: %w", err)
		}
	}

	formula, err := a.prompt.Select("Sample size z-scores", []string{
		"derived from confidence and power",
		"fixed 1.96 / 0.84",
	})
	if err != nil {
		return err
	}
	cfg.SampleSize.FixedZ = formula == "fixed 1.96 / 0.84"
	return nil
}
