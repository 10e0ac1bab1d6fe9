package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocktrader/account"
	"github.com/rustyeddy/stocktrader/config"
	"github.com/rustyeddy/stocktrader/executor"
	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/live"
	"github.com/rustyeddy/stocktrader/market"
	"github.com/rustyeddy/stocktrader/risk"
	"github.com/rustyeddy/stocktrader/sim"
	sig "github.com/rustyeddy/stocktrader/signal"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run the scheduled trading loop against the simulated broker",
	Long: `Live runs the full trading stack on a schedule: watchlist scans during
session hours, daily risk reset at the open, and a close report at the
end of the day. Execution goes through risk admission and the
simulated broker; prices come from per-symbol CSV files in the data
directory.

Example:
  stocktrader live --config trading.yaml --data ./data`,
	RunE: runLive,
}

var (
	liveConfigPath string
	liveDataDir    string
)

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().StringVarP(&liveConfigPath, "config", "c", "", "path to config file (required)")
	liveCmd.Flags().StringVarP(&liveDataDir, "data", "d", "./data", "directory of per-symbol bar CSVs")

	liveCmd.MarkFlagRequired("config")
}

func runLive(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.LoadFromFile(liveConfigPath)
	if err != nil {
		return err
	}

	jrn, err := liveJournal(cfg)
	if err != nil {
		return err
	}
	defer jrn.Close()

	acct := account.New(cfg.Account.ID, cfg.Account.InitialCash)
	source := &market.CSVSource{Dir: liveDataDir}
	brk := sim.New(acct, source, jrn, sim.Config{
		Commission:    cfg.Broker.Commission,
		MinCommission: cfg.Broker.MinCommission,
		Slippage:      cfg.Broker.Slippage,
		LotSize:       cfg.Trading.LotSize,
	}, log)

	rm := risk.NewManager(cfg.Limits(), cfg.Account.InitialCash)
	exec := executor.New(brk, rm, executor.Config{LotSize: cfg.Trading.LotSize}, log)
	engine := live.NewEngine(brk, sig.Baseline{}, source, rm, exec, cfg.Trading, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	fmt.Println("Trading engine running. Ctrl-C to stop.")
	<-ctx.Done()
	engine.Stop()
	return nil
}

func liveJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.StepsFile, cfg.Journal.TradesFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Nop{}, nil
	}
}
