package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stocktrader CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stocktrader version %s\n", version)
		fmt.Println("A risk-managed stock trading engine for backtests and simulated live trading")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
