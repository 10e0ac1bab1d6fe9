// Package journal persists executed fills and backtest step records.
package journal

import "time"

// TradeRecord is an immutable record of an executed fill. Trades are
// append-only and are the source of truth for realized P&L reconstruction.
type TradeRecord struct {
	OrderID  string
	Symbol   string
	Side     string
	Quantity int64
	Price    float64
	Amount   float64 // proceeds (SELL) or cost (BUY), net of commission
	Time     time.Time
}

// StepRecord is one row of backtest output. Field order is fixed for
// downstream tooling; see CSV.RecordStep.
type StepRecord struct {
	Date       string
	Price      float64
	Predicted  string // recommended action: BUY, SELL or HOLD
	Action     string
	Confidence float64
	Shares     int64
	Cash       float64
	TotalValue float64
	ReturnPct  float64 // cumulative return as a fraction
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordStep(StepRecord) error
	Close() error
}

// Nop discards all records. Useful when persistence is not configured.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) RecordStep(StepRecord) error   { return nil }
func (Nop) Close() error                  { return nil }
