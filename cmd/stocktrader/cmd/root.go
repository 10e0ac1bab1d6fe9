package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "stocktrader",
	Short: "A risk-managed stock trading engine for backtests and simulated live trading",
	Long: `Stocktrader runs signal-driven equity strategies through a full order
lifecycle: risk admission, simulated execution, position monitoring and
performance reporting.

It provides tools for:
  - Backtesting classifier signals against feature CSVs
  - Simulated live trading on a schedule with session calendars
  - Risk limits: position caps, cash reserve, daily loss circuit breaker
  - Stop-loss and take-profit monitoring
  - Trade journaling to CSV or SQLite`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger. Debug level when -v is set.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
