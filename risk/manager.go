package risk

import (
	"fmt"
	"sync"

	"github.com/rustyeddy/stocktrader/account"
	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/market"
)

// Violation codes returned by CheckOrder.
const (
	CodeTradingDisabled      = "TRADING_DISABLED"
	CodeOrderValueLimit      = "ORDER_VALUE_LIMIT"
	CodeInsufficientCash     = "INSUFFICIENT_CASH"
	CodePositionLimit        = "POSITION_LIMIT"
	CodeTotalPositionLimit   = "TOTAL_POSITION_LIMIT"
	CodeCashReserve          = "CASH_RESERVE"
	CodeInsufficientHoldings = "INSUFFICIENT_HOLDINGS"
)

// Result is the outcome of an admission check.
type Result struct {
	OK     bool
	Code   string
	Reason string
}

func pass() Result { return Result{OK: true} }

func fail(code, format string, args ...any) Result {
	return Result{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Manager is the admission controller for orders plus the continuous
// stop-loss/take-profit and daily-loss monitors. The circuit-breaker latch
// and daily baseline live here, passed by reference to every call site.
type Manager struct {
	mu         sync.Mutex
	limits     Limits
	dailyStart float64
	tradingOn  bool
}

func NewManager(limits Limits, initialAssets float64) *Manager {
	return &Manager{
		limits:     limits,
		dailyStart: initialAssets,
		tradingOn:  true,
	}
}

func (m *Manager) Limits() Limits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limits
}

func (m *Manager) TradingEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tradingOn
}

// CheckOrder runs admission control against a snapshot of the account.
// The snapshot and the broker-side cash freeze are not one atomic step:
// two concurrent BUYs can both pass against stale totals and jointly
// overspend. That window is part of the contract; callers must not assume
// a passed check reserves anything.
func (m *Manager) CheckOrder(o *broker.Order, acct *account.Account) Result {
	m.mu.Lock()
	limits := m.limits
	enabled := m.tradingOn
	m.mu.Unlock()

	if !enabled {
		return fail(CodeTradingDisabled, "trading disabled by circuit breaker")
	}

	snap := acct.Snapshot()
	if o.Side == broker.Sell {
		return checkSell(o, snap)
	}
	return checkBuy(o, snap, limits)
}

// checkBuy applies the BUY rules in order, rejecting on the first violation.
func checkBuy(o *broker.Order, snap account.Snapshot, limits Limits) Result {
	orderValue := o.Notional()
	total := snap.TotalAssets

	if maxOrder := total * limits.MaxSingleOrderValue; orderValue > maxOrder {
		return fail(CodeOrderValueLimit, "order value %.2f exceeds %.2f (%.1f%% of assets)",
			orderValue, maxOrder, limits.MaxSingleOrderValue*100)
	}

	if snap.Cash < orderValue {
		return fail(CodeInsufficientCash, "available cash %.2f below order value %.2f",
			snap.Cash, orderValue)
	}

	var held float64
	if p, ok := snap.Positions[o.Symbol]; ok {
		held = p.MarketValue
	}
	if maxPos := total * limits.MaxPositionSize; held+orderValue > maxPos {
		return fail(CodePositionLimit, "position value %.2f exceeds %.2f (%.1f%% of assets)",
			held+orderValue, maxPos, limits.MaxPositionSize*100)
	}

	if maxTotal := total * limits.MaxTotalPosition; snap.MarketValue+orderValue > maxTotal {
		return fail(CodeTotalPositionLimit, "total position value %.2f exceeds %.2f (%.1f%% of assets)",
			snap.MarketValue+orderValue, maxTotal, limits.MaxTotalPosition*100)
	}

	if reserve := total * limits.MinCashReserve; snap.Cash-orderValue < reserve {
		return fail(CodeCashReserve, "remaining cash %.2f below reserve %.2f (%.1f%% of assets)",
			snap.Cash-orderValue, reserve, limits.MinCashReserve*100)
	}

	return pass()
}

func checkSell(o *broker.Order, snap account.Snapshot) Result {
	var held int64
	if p, ok := snap.Positions[o.Symbol]; ok {
		held = p.Quantity
	}
	if o.Quantity > held {
		return fail(CodeInsufficientHoldings, "sell %d exceeds held %d for %s",
			o.Quantity, held, o.Symbol)
	}
	return pass()
}

// ShouldStopLoss reports whether the position's unrealized return has
// breached the stop-loss threshold.
func (m *Manager) ShouldStopLoss(p account.Position) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return p.UnrealizedPnLPct <= -m.limits.StopLossPercent*100
}

// ShouldTakeProfit reports whether the position's unrealized return has
// reached the take-profit threshold.
func (m *Manager) ShouldTakeProfit(p account.Position) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return p.UnrealizedPnLPct >= m.limits.TakeProfitPercent*100
}

// CheckDailyLoss compares current total assets against the day's starting
// value and trips the circuit breaker once drawdown reaches MaxDailyLoss.
// Returns true when trading is (now) disabled.
func (m *Manager) CheckDailyLoss(totalAssets float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dailyStart <= 0 {
		return !m.tradingOn
	}
	drawdown := (m.dailyStart - totalAssets) / m.dailyStart
	if drawdown >= m.limits.MaxDailyLoss {
		m.tradingOn = false
	}
	return !m.tradingOn
}

// ResetDailyStats rebases the daily drawdown baseline and re-enables
// trading. Called at the session open.
func (m *Manager) ResetDailyStats(totalAssets float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyStart = totalAssets
	m.tradingOn = true
}

// SuggestedQuantity sizes a candidate BUY as the smallest of the remaining
// room under MaxPositionSize, available cash and the single-order budget,
// divided by price and floored to the lot size. Returns 0 when the budget
// is non-positive.
func (m *Manager) SuggestedQuantity(symbol string, price float64, acct *account.Account, lot int64) int64 {
	if price <= 0 {
		return 0
	}

	m.mu.Lock()
	limits := m.limits
	m.mu.Unlock()

	snap := acct.Snapshot()
	var held float64
	if p, ok := snap.Positions[symbol]; ok {
		held = p.MarketValue
	}

	room := snap.TotalAssets*limits.MaxPositionSize - held
	budget := min3(room, snap.Cash, snap.TotalAssets*limits.MaxSingleOrderValue)
	if budget <= 0 {
		return 0
	}
	return market.RoundToLot(int64(budget/price), lot)
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
