// Package backtest replays a classifier over historical bars with a
// single-instrument, all-in portfolio and reports performance.
package backtest

import (
	"time"

	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/market"
)

// Trade is one completed portfolio action.
type Trade struct {
	Date   time.Time
	Side   broker.Side
	Shares int64
	Price  float64
	Amount float64
}

// Portfolio models the all-in strategy: a buy commits all available
// cash at the slipped price, a sell exits the full position.
type Portfolio struct {
	cash        float64
	initialCash float64
	shares      int64
	avgBuyPrice float64
	commission  float64
	slippage    float64
	lotSize     int64
	trades      []Trade
}

func NewPortfolio(initialCash, commission, slippage float64, lotSize int64) *Portfolio {
	if lotSize <= 0 {
		lotSize = market.DefaultLotSize
	}
	return &Portfolio{
		cash:        initialCash,
		initialCash: initialCash,
		commission:  commission,
		slippage:    slippage,
		lotSize:     lotSize,
	}
}

// Buy commits all cash at price plus slippage, rounded down to a whole
// lot. Returns false when the cash buys less than one lot.
func (p *Portfolio) Buy(date time.Time, price float64) bool {
	if p.shares > 0 {
		return false
	}
	actual := price * (1 + p.slippage)
	affordable := int64(p.cash / (actual * (1 + p.commission)))
	shares := market.RoundToLot(affordable, p.lotSize)
	if shares <= 0 {
		return false
	}
	cost := float64(shares) * actual * (1 + p.commission)
	p.cash -= cost
	p.shares = shares
	p.avgBuyPrice = actual
	p.trades = append(p.trades, Trade{
		Date:   date,
		Side:   broker.Buy,
		Shares: shares,
		Price:  actual,
		Amount: cost,
	})
	return true
}

// Sell exits the full position at price minus slippage, net of
// commission. Returns false when flat.
func (p *Portfolio) Sell(date time.Time, price float64) bool {
	if p.shares <= 0 {
		return false
	}
	actual := price * (1 - p.slippage)
	proceeds := float64(p.shares) * actual * (1 - p.commission)
	p.cash += proceeds
	p.trades = append(p.trades, Trade{
		Date:   date,
		Side:   broker.Sell,
		Shares: p.shares,
		Price:  actual,
		Amount: proceeds,
	})
	p.shares = 0
	p.avgBuyPrice = 0
	return true
}

func (p *Portfolio) HasPosition() bool { return p.shares > 0 }

func (p *Portfolio) Shares() int64 { return p.shares }

func (p *Portfolio) Cash() float64 { return p.cash }

func (p *Portfolio) AvgBuyPrice() float64 { return p.avgBuyPrice }

// TotalValue marks the position at price.
func (p *Portfolio) TotalValue(price float64) float64 {
	return p.cash + float64(p.shares)*price
}

// Return is the cumulative return against initial cash at price.
func (p *Portfolio) Return(price float64) float64 {
	if p.initialCash == 0 {
		return 0
	}
	return (p.TotalValue(price) - p.initialCash) / p.initialCash
}

func (p *Portfolio) Trades() []Trade { return p.trades }
