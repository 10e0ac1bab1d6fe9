// Package config loads and validates engine configuration from YAML or
// JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stocktrader/market"
	"github.com/rustyeddy/stocktrader/risk"
)

// Config is the complete engine configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Trading  TradingConfig  `json:"trading" yaml:"trading"`
	Broker   BrokerConfig   `json:"broker" yaml:"broker"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	ID          string  `json:"id" yaml:"id"`
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// RiskConfig mirrors risk.Limits with file-friendly tags.
type RiskConfig struct {
	MaxPositionSize     float64 `json:"max_position_size" yaml:"max_position_size"`
	MaxTotalPosition    float64 `json:"max_total_position" yaml:"max_total_position"`
	MinCashReserve      float64 `json:"min_cash_reserve" yaml:"min_cash_reserve"`
	MaxSingleOrderValue float64 `json:"max_single_order_value" yaml:"max_single_order_value"`
	MaxDailyLoss        float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	StopLossPercent     float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent   float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
}

// TradingConfig contains live decision parameters.
type TradingConfig struct {
	MinConfidence   float64  `json:"min_confidence" yaml:"min_confidence"`
	MaxHoldings     int      `json:"max_holdings" yaml:"max_holdings"`
	ScanIntervalSec int      `json:"scan_interval_sec" yaml:"scan_interval_sec"`
	BuyThreshold    float64  `json:"buy_threshold" yaml:"buy_threshold"`
	SellThreshold   float64  `json:"sell_threshold" yaml:"sell_threshold"`
	LotSize         int64    `json:"lot_size" yaml:"lot_size"`
	Watchlist       []string `json:"watchlist" yaml:"watchlist"`
}

// BrokerConfig contains the simulated fill model.
type BrokerConfig struct {
	Slippage      float64 `json:"slippage" yaml:"slippage"`
	Commission    float64 `json:"commission" yaml:"commission"`
	MinCommission float64 `json:"min_commission" yaml:"min_commission"`
}

// BacktestConfig contains backtest-only exit rules.
type BacktestConfig struct {
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64 `json:"take_profit" yaml:"take_profit"`
	Commission float64 `json:"commission" yaml:"commission"`
	Slippage   float64 `json:"slippage" yaml:"slippage"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	StepsFile  string `json:"steps_file,omitempty" yaml:"steps_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file, trying
// YAML first.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, choosing the format by
// extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.InitialCash <= 0 {
		return fmt.Errorf("account.initial_cash must be positive")
	}
	if c.Risk.MaxPositionSize <= 0 || c.Risk.MaxPositionSize > 1 {
		return fmt.Errorf("risk.max_position_size must be between 0 and 1")
	}
	if c.Risk.MaxTotalPosition <= 0 || c.Risk.MaxTotalPosition > 1 {
		return fmt.Errorf("risk.max_total_position must be between 0 and 1")
	}
	if c.Risk.MinCashReserve < 0 || c.Risk.MinCashReserve >= 1 {
		return fmt.Errorf("risk.min_cash_reserve must be in [0, 1)")
	}
	if c.Risk.MaxSingleOrderValue <= 0 || c.Risk.MaxSingleOrderValue > 1 {
		return fmt.Errorf("risk.max_single_order_value must be between 0 and 1")
	}
	if c.Risk.MaxDailyLoss <= 0 || c.Risk.MaxDailyLoss > 1 {
		return fmt.Errorf("risk.max_daily_loss must be between 0 and 1")
	}
	if c.Trading.BuyThreshold <= 0 || c.Trading.BuyThreshold >= 1 {
		return fmt.Errorf("trading.buy_threshold must be in (0, 1)")
	}
	if c.Trading.SellThreshold <= 0 || c.Trading.SellThreshold >= 1 {
		return fmt.Errorf("trading.sell_threshold must be in (0, 1)")
	}
	if c.Trading.LotSize <= 0 {
		return fmt.Errorf("trading.lot_size must be positive")
	}
	if c.Broker.Commission < 0 || c.Broker.Slippage < 0 {
		return fmt.Errorf("broker commission and slippage must not be negative")
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.StepsFile == "" || c.Journal.TradesFile == "" {
			return fmt.Errorf("journal steps_file and trades_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Limits converts the risk section to the manager's limit set.
func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		MaxPositionSize:     c.Risk.MaxPositionSize,
		MaxTotalPosition:    c.Risk.MaxTotalPosition,
		MinCashReserve:      c.Risk.MinCashReserve,
		MaxSingleOrderValue: c.Risk.MaxSingleOrderValue,
		MaxDailyLoss:        c.Risk.MaxDailyLoss,
		StopLossPercent:     c.Risk.StopLossPercent,
		TakeProfitPercent:   c.Risk.TakeProfitPercent,
	}
}

// Default returns a balanced configuration.
func Default() *Config {
	limits := risk.DefaultLimits()
	return &Config{
		Account: AccountConfig{
			ID:          "SIM-001",
			InitialCash: 1000000,
		},
		Risk: RiskConfig{
			MaxPositionSize:     limits.MaxPositionSize,
			MaxTotalPosition:    limits.MaxTotalPosition,
			MinCashReserve:      limits.MinCashReserve,
			MaxSingleOrderValue: limits.MaxSingleOrderValue,
			MaxDailyLoss:        limits.MaxDailyLoss,
			StopLossPercent:     limits.StopLossPercent,
			TakeProfitPercent:   limits.TakeProfitPercent,
		},
		Trading: TradingConfig{
			MinConfidence:   0.6,
			MaxHoldings:     5,
			ScanIntervalSec: 60,
			BuyThreshold:    0.6,
			SellThreshold:   0.6,
			LotSize:         market.DefaultLotSize,
		},
		Broker: BrokerConfig{
			Slippage:      0.0001,
			Commission:    0.0003,
			MinCommission: 5.0,
		},
		Backtest: BacktestConfig{
			StopLoss:   0.05,
			TakeProfit: 0.15,
			Commission: 0.001,
			Slippage:   0.0005,
		},
		Journal: JournalConfig{
			Type:       "csv",
			StepsFile:  "./steps.csv",
			TradesFile: "./trades.csv",
		},
	}
}

// Conservative tightens the limits for capital preservation.
func Conservative() *Config {
	cfg := Default()
	cfg.Risk.MaxPositionSize = 0.20
	cfg.Risk.MaxTotalPosition = 0.60
	cfg.Risk.MinCashReserve = 0.20
	cfg.Risk.MaxSingleOrderValue = 0.10
	cfg.Risk.MaxDailyLoss = 0.03
	cfg.Risk.StopLossPercent = 0.05
	cfg.Risk.TakeProfitPercent = 0.10
	cfg.Trading.MinConfidence = 0.7
	cfg.Trading.MaxHoldings = 3
	return cfg
}

// Aggressive loosens the limits for higher exposure.
func Aggressive() *Config {
	cfg := Default()
	cfg.Risk.MaxPositionSize = 0.50
	cfg.Risk.MaxTotalPosition = 1.0
	cfg.Risk.MinCashReserve = 0.0
	cfg.Risk.MaxSingleOrderValue = 0.30
	cfg.Risk.MaxDailyLoss = 0.10
	cfg.Risk.StopLossPercent = 0.12
	cfg.Risk.TakeProfitPercent = 0.25
	cfg.Trading.MinConfidence = 0.55
	cfg.Trading.MaxHoldings = 8
	return cfg
}
