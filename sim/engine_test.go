package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stocktrader/account"
	"github.com/rustyeddy/stocktrader/broker"
)

func newBroker(t *testing.T, cash float64, cfg Config) *Broker {
	t.Helper()
	acct := account.New("test", cash)
	b := New(acct, nil, nil, cfg, nil)
	assert.NoError(t, b.Connect(context.Background()))
	return b
}

// frictionless keeps the cash math exact in tests.
func frictionless() Config {
	return Config{Commission: 0, MinCommission: 0, Slippage: 0, LotSize: 100}
}

type recorder struct {
	mu     sync.Mutex
	orders []broker.Order
}

func (r *recorder) OnOrderUpdate(o broker.Order) {
	r.mu.Lock()
	r.orders = append(r.orders, o)
	r.mu.Unlock()
}

func (r *recorder) statuses() []broker.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]broker.Status, len(r.orders))
	for i, o := range r.orders {
		out[i] = o.Status
	}
	return out
}

func TestSubmitNotConnected(t *testing.T) {
	t.Parallel()
	b := New(account.New("test", 100000), nil, nil, frictionless(), nil)

	_, err := b.SubmitOrder(context.Background(), broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 100))
	assert.ErrorIs(t, err, broker.ErrNotConnected)
}

func TestSubmitStructuralRejects(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	ctx := context.Background()

	cases := []*broker.Order{
		broker.NewOrder("", broker.Buy, broker.Limit, 10, 100),
		broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 0),
		broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 150),
		broker.NewOrder("600519", broker.Buy, broker.Limit, 0, 100),
		broker.NewOrder("600519", "SHORT", broker.Limit, 10, 100),
	}
	for _, o := range cases {
		_, err := b.SubmitOrder(ctx, o)
		assert.ErrorIs(t, err, broker.ErrInvalidOrder)
		assert.Equal(t, broker.StatusRejected, o.Status)
		assert.NotEmpty(t, o.Reason)
	}
	assert.Equal(t, 100000.0, b.AvailableCash(), "rejects never touch cash")
}

func TestBuyInsufficientCash(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 1000, frictionless())
	b.SetPrice("600519", 10, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 200)
	_, err := b.SubmitOrder(context.Background(), o)
	assert.ErrorIs(t, err, broker.ErrInsufficientCash)
	assert.Equal(t, broker.StatusRejected, o.Status)
	assert.Equal(t, 1000.0, b.AvailableCash(), "a failed freeze leaves cash untouched")
}

func TestMarketBuyFreezeCoversSlippage(t *testing.T) {
	t.Parallel()
	cfg := Config{Commission: 0, MinCommission: 0, Slippage: 0.01, LotSize: 100}

	// Cash covers the quote notional but not the slipped fill. The
	// freeze must account for slippage, so the order is rejected up
	// front instead of settling cash below zero.
	b := newBroker(t, 1001, cfg)
	b.SetPrice("600519", 10.00, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Market, 0, 100)
	_, err := b.SubmitOrder(context.Background(), o)
	assert.ErrorIs(t, err, broker.ErrInsufficientCash)
	assert.Equal(t, 1001.0, b.AvailableCash())

	// With enough cash for the slipped notional the fill goes through
	// and pays exactly the slipped price, never more than the freeze.
	b = newBroker(t, 2000, cfg)
	b.SetPrice("600519", 10.00, time.Now())

	o = broker.NewOrder("600519", broker.Buy, broker.Market, 0, 100)
	orderID, err := b.SubmitOrder(context.Background(), o)
	assert.NoError(t, err)

	got, _ := b.GetOrder(orderID)
	assert.Equal(t, broker.StatusFilled, got.Status)
	assert.InDelta(t, 10.10, got.AvgFillPrice, 1e-9)
	assert.InDelta(t, 990.0, b.AvailableCash(), 1e-9)
	assert.GreaterOrEqual(t, b.AvailableCash(), 0.0)
	assert.Equal(t, 0.0, b.Account().FrozenCash())
}

func TestSellInsufficientHoldings(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	b.SetPrice("600519", 10, time.Now())

	o := broker.NewOrder("600519", broker.Sell, broker.Limit, 10, 100)
	_, err := b.SubmitOrder(context.Background(), o)
	assert.ErrorIs(t, err, broker.ErrInsufficientHoldings)
	assert.Equal(t, broker.StatusRejected, o.Status)
}

func TestMarketBuyFillsWithSlippageAndCommission(t *testing.T) {
	t.Parallel()
	cfg := Config{Commission: 0.0003, MinCommission: 5, Slippage: 0.0001, LotSize: 100}
	b := newBroker(t, 200000, cfg)
	b.SetPrice("600519", 10.00, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Market, 0, 1000)
	orderID, err := b.SubmitOrder(context.Background(), o)
	assert.NoError(t, err)

	got, ok := b.GetOrder(orderID)
	assert.True(t, ok)
	assert.Equal(t, broker.StatusFilled, got.Status)
	assert.InDelta(t, 10.001, got.AvgFillPrice, 1e-9, "buy slips up")
	assert.Equal(t, int64(1000), got.FilledQuantity)

	// notional 10001, commission floored at 5 -> max(3.0003, 5) = 5.
	wantCash := 200000.0 - 10001.0 - 5.0
	assert.InDelta(t, wantCash, b.AvailableCash(), 1e-6)
	assert.Equal(t, 0.0, b.Account().FrozenCash(), "nothing stays frozen after the fill")

	pos, held := b.Position("600519")
	assert.True(t, held)
	assert.Equal(t, int64(1000), pos.Quantity)
}

func TestLimitMarketableFillsAtLimit(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 200000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 10.05, 1000)
	orderID, err := b.SubmitOrder(context.Background(), o)
	assert.NoError(t, err)

	got, _ := b.GetOrder(orderID)
	assert.Equal(t, broker.StatusFilled, got.Status)
	assert.Equal(t, 10.05, got.AvgFillPrice, "limit orders fill at the limit, not the quote")
}

func TestLimitNonMarketableRests(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 200000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 9.50, 1000)
	orderID, err := b.SubmitOrder(context.Background(), o)
	assert.NoError(t, err)

	got, _ := b.GetOrder(orderID)
	assert.Equal(t, broker.StatusSubmitted, got.Status)
	assert.Equal(t, 9500.0, b.Account().FrozenCash(), "resting buy keeps its freeze")
	assert.Len(t, b.ActiveOrders(), 1)

	// Marketability is decided at submission only: a later quote through
	// the limit does not fill the resting order.
	b.SetPrice("600519", 9.40, time.Now())
	got, _ = b.GetOrder(orderID)
	assert.Equal(t, broker.StatusSubmitted, got.Status)

	assert.True(t, b.CancelOrder(orderID), "cancel is the only exit for a resting order")
	assert.Equal(t, 200000.0, b.AvailableCash())
}

func TestCancelRestingBuyRestoresCashOnce(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Limit, 9.00, 1000)
	orderID, err := b.SubmitOrder(context.Background(), o)
	assert.NoError(t, err)
	assert.Equal(t, 91000.0, b.AvailableCash())

	assert.True(t, b.CancelOrder(orderID))
	assert.Equal(t, 100000.0, b.AvailableCash())
	assert.Equal(t, 0.0, b.Account().FrozenCash())

	assert.False(t, b.CancelOrder(orderID), "second cancel is a no-op")
	assert.Equal(t, 100000.0, b.AvailableCash(), "cash is released exactly once")

	got, _ := b.GetOrder(orderID)
	assert.Equal(t, broker.StatusCancelled, got.Status)
}

func TestCancelFilledOrderFails(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())

	o := broker.NewOrder("600519", broker.Buy, broker.Market, 0, 100)
	orderID, err := b.SubmitOrder(context.Background(), o)
	assert.NoError(t, err)

	assert.False(t, b.CancelOrder(orderID))
	assert.False(t, b.CancelOrder("no-such-order"))
}

func TestRoundTripRestoresCashExactly(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())
	ctx := context.Background()

	_, err := b.SubmitOrder(ctx, broker.NewOrder("600519", broker.Buy, broker.Limit, 10, 1000))
	assert.NoError(t, err)
	_, err = b.SubmitOrder(ctx, broker.NewOrder("600519", broker.Sell, broker.Limit, 10, 1000))
	assert.NoError(t, err)

	assert.Equal(t, 100000.0, b.AvailableCash())
	assert.Equal(t, 0.0, b.Account().FrozenCash())
	_, held := b.Position("600519")
	assert.False(t, held)
}

func TestOrderListenerSeesLifecycle(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())

	rec := &recorder{}
	b.SubscribeOrderUpdates(rec)

	_, err := b.SubmitOrder(context.Background(), broker.NewOrder("600519", broker.Buy, broker.Market, 0, 100))
	assert.NoError(t, err)
	assert.Equal(t, []broker.Status{broker.StatusSubmitted, broker.StatusFilled}, rec.statuses())
}

func TestHistoricalOrders(t *testing.T) {
	t.Parallel()
	b := newBroker(t, 100000, frictionless())
	b.SetPrice("600519", 10.00, time.Now())

	before := time.Now().Add(-time.Minute)
	_, err := b.SubmitOrder(context.Background(), broker.NewOrder("600519", broker.Buy, broker.Market, 0, 100))
	assert.NoError(t, err)

	assert.Len(t, b.HistoricalOrders(before, time.Now().Add(time.Minute)), 1)
	assert.Empty(t, b.HistoricalOrders(before.Add(-time.Hour), before))
}
