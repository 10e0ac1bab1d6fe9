package backtest

import (
	"math"

	"github.com/rustyeddy/stocktrader/broker"
)

const tradingDaysPerYear = 252

// Metrics summarizes a run. Ratios are fractions, not percentages.
// Volatility and Sharpe are annualized by sqrt(252); the risk-free
// rate is assumed zero.
type Metrics struct {
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64
	MaxDrawdown      float64
	SharpeRatio      float64
	WinRate          float64
	ProfitLossRatio  float64
	TradeCount       int
	WinningTrades    int
	LosingTrades     int
}

// ComputeMetrics derives the summary from per-bar returns and the
// trade log. dailyReturns must have one entry per bar.
func ComputeMetrics(dailyReturns []float64, trades []Trade, totalReturn float64) Metrics {
	m := Metrics{
		TotalReturn: totalReturn,
		TradeCount:  len(trades),
	}

	days := len(dailyReturns)
	if days > 0 {
		m.AnnualizedReturn = math.Pow(1+totalReturn, tradingDaysPerYear/float64(days)) - 1
	}

	m.MaxDrawdown = maxDrawdown(dailyReturns)
	m.Volatility, m.SharpeRatio = volatilityAndSharpe(dailyReturns)
	m.WinRate, m.ProfitLossRatio, m.WinningTrades, m.LosingTrades = pairTrades(trades)
	return m
}

// maxDrawdown tracks the running peak of the cumulative return series
// and measures the largest relative drop from it.
func maxDrawdown(dailyReturns []float64) float64 {
	var cum, peak, worst float64
	for _, r := range dailyReturns {
		cum += r
		if cum > peak {
			peak = cum
		}
		if dd := (peak - cum) / (1 + peak); dd > worst {
			worst = dd
		}
	}
	return worst
}

// volatilityAndSharpe uses the population standard deviation of daily
// returns, both scaled by sqrt(252). Zero deviation reports a zero
// ratio, not infinity.
func volatilityAndSharpe(dailyReturns []float64) (vol, sharpe float64) {
	if len(dailyReturns) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range dailyReturns {
		sum += r
	}
	mean := sum / float64(len(dailyReturns))

	var variance float64
	for _, r := range dailyReturns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(dailyReturns)))

	vol = std * math.Sqrt(tradingDaysPerYear)
	if std == 0 {
		return vol, 0
	}
	return vol, mean / std * math.Sqrt(tradingDaysPerYear)
}

// pairTrades matches each sell with the most recent preceding buy and
// compares fill prices. The pairing assumes strict buy/sell
// alternation; partial pairs at the tail are ignored. The profit/loss
// ratio is total profit over total loss, zero when there are no losses.
func pairTrades(trades []Trade) (rate, plRatio float64, wins, losses int) {
	var winSum, lossSum float64
	lastBuy := -1.0
	for _, t := range trades {
		switch t.Side {
		case broker.Buy:
			lastBuy = t.Price
		case broker.Sell:
			if lastBuy < 0 {
				continue
			}
			pnl := (t.Price - lastBuy) * float64(t.Shares)
			if pnl > 0 {
				wins++
				winSum += pnl
			} else {
				losses++
				lossSum -= pnl
			}
			lastBuy = -1
		}
	}
	if wins+losses == 0 {
		return 0, 0, 0, 0
	}
	rate = float64(wins) / float64(wins+losses)
	if lossSum > 0 {
		plRatio = winSum / lossSum
	}
	return rate, plRatio, wins, losses
}
