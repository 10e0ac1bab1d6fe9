package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stocktrader/account"
	"github.com/rustyeddy/stocktrader/broker"
)

func newAccount(t *testing.T, cash float64) *account.Account {
	t.Helper()
	return account.New("test", cash)
}

// buyInto books a settled position so admission checks see held value.
func buyInto(t *testing.T, a *account.Account, symbol string, qty int64, price float64) {
	t.Helper()
	cost := float64(qty) * price
	assert.True(t, a.FreezeCash(cost))
	a.SettleBuy(symbol, qty, price, cost, cost)
}

func TestCheckBuyPasses(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)

	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 1000)
	res := m.CheckOrder(o, a)
	assert.True(t, res.OK)
	assert.Empty(t, res.Code)
}

func TestCheckBuyOrderValueLimit(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)

	// 25% of assets against a 20% single-order cap.
	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 25, 1000)
	res := m.CheckOrder(o, a)
	assert.False(t, res.OK)
	assert.Equal(t, CodeOrderValueLimit, res.Code)
}

func TestCheckBuyInsufficientCash(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxSingleOrderValue = 1.0
	limits.MaxPositionSize = 1.0
	m := NewManager(limits, 10000)
	a := newAccount(t, 10000)
	assert.True(t, a.FreezeCash(9000))

	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 500)
	res := m.CheckOrder(o, a)
	assert.False(t, res.OK)
	assert.Equal(t, CodeInsufficientCash, res.Code)
}

func TestCheckBuyPositionLimit(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)
	buyInto(t, a, "600519", 2000, 10) // 20% of assets held

	// Another 15% in the same symbol breaches the 30% per-symbol cap.
	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 15, 1000)
	res := m.CheckOrder(o, a)
	assert.False(t, res.OK)
	assert.Equal(t, CodePositionLimit, res.Code)
}

func TestCheckBuyCashReserve(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxSingleOrderValue = 1.0
	limits.MaxPositionSize = 1.0
	limits.MaxTotalPosition = 1.0
	m := NewManager(limits, 100000)
	a := newAccount(t, 100000)

	// Spends down to 4% cash against a 5% reserve.
	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 96, 1000)
	res := m.CheckOrder(o, a)
	assert.False(t, res.OK)
	assert.Equal(t, CodeCashReserve, res.Code)
}

func TestCheckSell(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)
	buyInto(t, a, "600519", 1000, 10)

	ok := m.CheckOrder(broker.NewOrder("600519", broker.Sell, broker.Limit, 10, 1000), a)
	assert.True(t, ok.OK)

	over := m.CheckOrder(broker.NewOrder("600519", broker.Sell, broker.Limit, 10, 1100), a)
	assert.False(t, over.OK)
	assert.Equal(t, CodeInsufficientHoldings, over.Code)
}

func TestCircuitBreakerLatch(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)

	assert.False(t, m.CheckDailyLoss(96000), "4% drawdown stays under the 5% limit")
	assert.True(t, m.TradingEnabled())

	assert.True(t, m.CheckDailyLoss(94000), "6% drawdown trips the breaker")
	assert.False(t, m.TradingEnabled())

	// Latched: recovery does not re-enable within the day.
	assert.True(t, m.CheckDailyLoss(99000))

	res := m.CheckOrder(broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 100), a)
	assert.False(t, res.OK)
	assert.Equal(t, CodeTradingDisabled, res.Code)

	m.ResetDailyStats(99000)
	assert.True(t, m.TradingEnabled())
	assert.False(t, m.CheckDailyLoss(99000))
}

func TestStopLossAndTakeProfit(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)

	// Bought at 10.00, now 9.19: -8.1% breaches the 8% stop.
	p := account.Position{Symbol: "600519", Quantity: 1000, AvgCost: 10.00, UnrealizedPnLPct: -8.1}
	assert.True(t, m.ShouldStopLoss(p))

	p.UnrealizedPnLPct = -7.9
	assert.False(t, m.ShouldStopLoss(p))

	p.UnrealizedPnLPct = 15.0
	assert.True(t, m.ShouldTakeProfit(p))
	p.UnrealizedPnLPct = 14.9
	assert.False(t, m.ShouldTakeProfit(p))
}

func TestSuggestedQuantity(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)

	// Budget is the 20% single-order cap: 20000 / 10 = 2000 shares.
	qty := m.SuggestedQuantity("600519", 10, a, 100)
	assert.Equal(t, int64(2000), qty)
	assert.Zero(t, qty%100)
}

func TestSuggestedQuantityNoRoom(t *testing.T) {
	t.Parallel()
	m := NewManager(DefaultLimits(), 100000)
	a := newAccount(t, 100000)
	buyInto(t, a, "600519", 3000, 10) // at the 30% per-symbol cap

	assert.Equal(t, int64(0), m.SuggestedQuantity("600519", 10, a, 100))
	assert.Equal(t, int64(0), m.SuggestedQuantity("600519", 0, a, 100), "non-positive price")
}
