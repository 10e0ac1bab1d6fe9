package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocktrader/backtest"
	"github.com/rustyeddy/stocktrader/config"
	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/signal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay classifier signals over a feature CSV",
	Long: `Backtest runs the all-in strategy over a feature file: one row per
trading day with the close price and the model feature columns.

Without a trained model the built-in momentum baseline is used.

Example:
  stocktrader backtest --feed data/600519.csv --capital 100000`,
	RunE: runBacktest,
}

var (
	btFeedPath   string
	btSymbol     string
	btConfigPath string
	btCapital    float64
	btStepsPath  string
	btTradesPath string
	btDBPath     string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btFeedPath, "feed", "f", "", "path to feature CSV (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "BACKTEST", "symbol recorded in the trade journal")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to config file (optional)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 100_000, "initial capital")
	backtestCmd.Flags().StringVar(&btStepsPath, "steps", "", "write per-day steps to this CSV")
	backtestCmd.Flags().StringVar(&btTradesPath, "trades", "", "write trades to this CSV")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "write steps and trades to this SQLite DB")

	backtestCmd.MarkFlagRequired("feed")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	btCfg := backtest.DefaultConfig()
	btCfg.Symbol = btSymbol
	btCfg.InitialCapital = btCapital
	if btConfigPath != "" {
		fileCfg, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return err
		}
		btCfg.Commission = fileCfg.Backtest.Commission
		btCfg.Slippage = fileCfg.Backtest.Slippage
		btCfg.StopLoss = fileCfg.Backtest.StopLoss
		btCfg.TakeProfit = fileCfg.Backtest.TakeProfit
		btCfg.BuyThreshold = fileCfg.Trading.BuyThreshold
		btCfg.SellThreshold = fileCfg.Trading.SellThreshold
		btCfg.LotSize = fileCfg.Trading.LotSize
	}

	jrn, err := openJournal()
	if err != nil {
		return err
	}
	defer jrn.Close()

	points, err := backtest.LoadCSV(btFeedPath)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(btCfg, signal.Baseline{}, jrn, log)
	res, err := engine.Run(points)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	m := res.Metrics
	fmt.Printf("Bars:              %d\n", len(res.Steps))
	fmt.Printf("Trades:            %d\n", m.TradeCount)
	fmt.Printf("Total return:      %.2f%%\n", m.TotalReturn*100)
	fmt.Printf("Annualized return: %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("Max drawdown:      %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("Volatility:        %.2f%%\n", m.Volatility*100)
	fmt.Printf("Sharpe ratio:      %.2f\n", m.SharpeRatio)
	fmt.Printf("Profit/loss ratio: %.2f\n", m.ProfitLossRatio)
	fmt.Printf("Win rate:          %.2f%% (%d wins, %d losses)\n",
		m.WinRate*100, m.WinningTrades, m.LosingTrades)
	return nil
}

func openJournal() (journal.Journal, error) {
	switch {
	case btDBPath != "":
		return journal.NewSQLite(btDBPath)
	case btStepsPath != "" && btTradesPath != "":
		return journal.NewCSV(btStepsPath, btTradesPath)
	case btStepsPath != "" || btTradesPath != "":
		return nil, fmt.Errorf("--steps and --trades must be used together")
	default:
		return journal.Nop{}, nil
	}
}
