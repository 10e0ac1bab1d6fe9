package account

import (
	"sync"
	"time"
)

// Account owns cash, frozen cash and positions for one trading session.
// All mutation goes through a single mutex: freeze/fill/unfreeze sequences
// must be atomic relative to concurrent reads of total assets.
//
// Invariant: Cash() + FrozenCash() + MarketValue() == TotalAssets(), with
// Cash and FrozenCash never negative.
type Account struct {
	mu        sync.RWMutex
	id        string
	cash      float64
	frozen    float64
	positions map[string]*Position
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of the account used for risk checks and
// reporting. It is not a lock over the account: state may move between the
// snapshot and any later mutation.
type Snapshot struct {
	Cash        float64
	FrozenCash  float64
	MarketValue float64
	TotalAssets float64
	Positions   map[string]Position
}

func New(id string, initialCash float64) *Account {
	return &Account{
		id:        id,
		cash:      initialCash,
		positions: make(map[string]*Position),
		updatedAt: time.Now(),
	}
}

func (a *Account) ID() string { return a.id }

func (a *Account) Cash() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash
}

func (a *Account) FrozenCash() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frozen
}

// MarketValue is the summed mark value of all positions.
func (a *Account) MarketValue() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.marketValueLocked()
}

// TotalAssets is cash + frozen cash + market value, recomputed on read.
func (a *Account) TotalAssets() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash + a.frozen + a.marketValueLocked()
}

func (a *Account) UpdatedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updatedAt
}

func (a *Account) marketValueLocked() float64 {
	var mv float64
	for _, p := range a.positions {
		mv += p.MarketValue
	}
	return mv
}

// FreezeCash earmarks cash for a pending BUY. Returns false when available
// cash is insufficient; the account is left untouched in that case.
func (a *Account) FreezeCash(amount float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cash < amount {
		return false
	}
	a.cash -= amount
	a.frozen += amount
	a.updatedAt = time.Now()
	return true
}

// UnfreezeCash releases earmarked cash back to the available balance
// (order cancelled or rejected after freeze).
func (a *Account) UnfreezeCash(amount float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount > a.frozen {
		amount = a.frozen
	}
	a.frozen -= amount
	a.cash += amount
	a.updatedAt = time.Now()
}

// SettleBuy consumes the cash frozen for a BUY order and books the fill.
// cost is the total paid (shares plus commission); any difference between
// the frozen amount and the cost is returned to available cash.
func (a *Account) SettleBuy(symbol string, qty int64, fillPrice, frozenAmount, cost float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if frozenAmount > a.frozen {
		frozenAmount = a.frozen
	}
	a.frozen -= frozenAmount
	a.cash += frozenAmount - cost

	p, ok := a.positions[symbol]
	if !ok {
		p = &Position{Symbol: symbol}
		a.positions[symbol] = p
	}
	p.add(qty, fillPrice)
	a.updatedAt = time.Now()
}

// SettleSell credits the net proceeds of a SELL fill and reduces the
// position, removing it when it empties.
func (a *Account) SettleSell(symbol string, qty int64, fillPrice, proceeds float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cash += proceeds

	if p, ok := a.positions[symbol]; ok {
		p.reduce(qty, fillPrice)
		if p.Quantity == 0 {
			delete(a.positions, symbol)
		}
	}
	a.updatedAt = time.Now()
}

// UpdatePrices refreshes position valuations from the given mark prices.
func (a *Account) UpdatePrices(prices map[string]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for symbol, price := range prices {
		if p, ok := a.positions[symbol]; ok {
			p.updatePrice(price)
		}
	}
	a.updatedAt = time.Now()
}

// Quantity returns the held quantity for symbol, zero when flat.
func (a *Account) Quantity(symbol string) int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if p, ok := a.positions[symbol]; ok {
		return p.Quantity
	}
	return 0
}

// HasEnough reports whether at least qty of symbol is held.
func (a *Account) HasEnough(symbol string, qty int64) bool {
	return a.Quantity(symbol) >= qty
}

// Position returns a copy of the position for symbol.
func (a *Account) Position(symbol string) (Position, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if p, ok := a.positions[symbol]; ok {
		return *p, true
	}
	return Position{}, false
}

// Positions returns copies of all open positions keyed by symbol.
func (a *Account) Positions() map[string]Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]Position, len(a.positions))
	for symbol, p := range a.positions {
		out[symbol] = *p
	}
	return out
}

// Snapshot captures the account state in a single lock acquisition.
func (a *Account) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	mv := a.marketValueLocked()
	snap := Snapshot{
		Cash:        a.cash,
		FrozenCash:  a.frozen,
		MarketValue: mv,
		TotalAssets: a.cash + a.frozen + mv,
		Positions:   make(map[string]Position, len(a.positions)),
	}
	for symbol, p := range a.positions {
		snap.Positions[symbol] = *p
	}
	return snap
}
