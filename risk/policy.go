package risk

// Limits holds the admission-control thresholds, all expressed as fractions
// of total assets except the stop-loss/take-profit percentages, which apply
// to a single position's unrealized return.
type Limits struct {
	MaxPositionSize     float64 // single-instrument position cap
	MaxTotalPosition    float64 // aggregate position cap
	MinCashReserve      float64 // free cash floor after a BUY
	MaxSingleOrderValue float64 // per-order notional cap
	MaxDailyLoss        float64 // circuit-breaker drawdown threshold
	StopLossPercent     float64
	TakeProfitPercent   float64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:     0.30,
		MaxTotalPosition:    0.95,
		MinCashReserve:      0.05,
		MaxSingleOrderValue: 0.20,
		MaxDailyLoss:        0.05,
		StopLossPercent:     0.08,
		TakeProfitPercent:   0.15,
	}
}
