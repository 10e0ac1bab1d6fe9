package account

import "time"

// Position is an owned quantity of a single instrument. Quantity is never
// negative; a position that reaches zero is removed from its account.
type Position struct {
	Symbol           string
	Quantity         int64
	AvgCost          float64
	CurrentPrice     float64
	MarketValue      float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
	UpdatedAt        time.Time
}

// updatePrice refreshes valuation fields from a new mark price.
func (p *Position) updatePrice(price float64) {
	p.CurrentPrice = price
	p.MarketValue = float64(p.Quantity) * price
	p.UnrealizedPnL = (price - p.AvgCost) * float64(p.Quantity)
	if p.AvgCost != 0 {
		p.UnrealizedPnLPct = (price - p.AvgCost) / p.AvgCost * 100
	} else {
		p.UnrealizedPnLPct = 0
	}
	p.UpdatedAt = time.Now()
}

// add increases the position, recomputing AvgCost as the weighted average of
// the prior cost basis and the new fill.
func (p *Position) add(qty int64, price float64) {
	total := float64(p.Quantity)*p.AvgCost + float64(qty)*price
	p.Quantity += qty
	p.AvgCost = total / float64(p.Quantity)
	p.updatePrice(price)
}

// reduce decreases the position. AvgCost is left unchanged until the
// position empties, at which point all cost fields reset to zero.
func (p *Position) reduce(qty int64, price float64) {
	if qty > p.Quantity {
		qty = p.Quantity
	}
	p.Quantity -= qty
	if p.Quantity > 0 {
		p.updatePrice(price)
		return
	}
	p.AvgCost = 0
	p.CurrentPrice = 0
	p.MarketValue = 0
	p.UnrealizedPnL = 0
	p.UnrealizedPnLPct = 0
	p.UpdatedAt = time.Now()
}
