package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trackauction/config"
	"github.com/kilianp07/trackauction/infra/logger"
)

var (
	cfgPath     string
	strategy    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:           "trackauction",
	Short:         "Track slot auction",
	Long:          "Resolve bids for exclusive use of track sections over time.",
	RunE:          runDemo,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "solver strategy: exact, deadline:<duration> or steps:<n>")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strategy != "" {
		cfg.Solver.Strategy = strategy
	}
	if metricsAddr != "" {
		cfg.Metrics.PrometheusAddr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.Log.Options()); err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}
	return cfg, nil
}
