package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocktrader/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for the trading engines.

Subcommands:
  init     - Generate a configuration file from a profile
  validate - Validate an existing configuration file

Examples:
  stocktrader config init --output my-config.yaml --profile conservative
  stocktrader config validate --file my-config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a configuration file",
	Long: `Create a new configuration file. Profiles: default, conservative,
aggressive.

Example:
  stocktrader config init --output trading.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file is valid and can be loaded.

Example:
  stocktrader config validate --file trading.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configInitProfile  string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "trading.yaml", "output config file path")
	configInitCmd.Flags().StringVarP(&configInitProfile, "profile", "p", "default", "risk profile (default, conservative, aggressive)")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	switch configInitProfile {
	case "default":
		cfg = config.Default()
	case "conservative":
		cfg = config.Conservative()
	case "aggressive":
		cfg = config.Aggressive()
	default:
		return fmt.Errorf("unknown profile: %s", configInitProfile)
	}
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Created %s configuration: %s\n", configInitProfile, configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  stocktrader live --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Account: %s (%.2f)\n", cfg.Account.ID, cfg.Account.InitialCash)
	fmt.Printf("  Watchlist: %v\n", cfg.Trading.Watchlist)
	fmt.Printf("  Max position: %.0f%%, daily loss limit: %.0f%%\n",
		cfg.Risk.MaxPositionSize*100, cfg.Risk.MaxDailyLoss*100)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	return nil
}
