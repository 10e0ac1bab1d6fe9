// Package sim provides a simulated broker with immediate fills against
// the latest known price. It applies slippage to market orders and a
// per-fill commission, and it settles cash and positions through the
// shared account so the books always balance.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocktrader/account"
	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/market"
	"github.com/rustyeddy/stocktrader/pkg/id"
)

// Config holds the fill model parameters.
type Config struct {
	Commission    float64 // per-fill rate on notional
	MinCommission float64 // floor per fill
	Slippage      float64 // applied to market orders, adverse direction
	LotSize       int64
}

// DefaultConfig mirrors a typical A-share retail fee schedule.
func DefaultConfig() Config {
	return Config{
		Commission:    0.0003,
		MinCommission: 5.0,
		Slippage:      0.0001,
		LotSize:       market.DefaultLotSize,
	}
}

// Broker is a simulated implementation of broker.Broker. Orders fill
// immediately when marketable; a non-marketable limit order stays
// SUBMITTED until cancelled, it is never matched against later quotes.
type Broker struct {
	mu        sync.Mutex
	cfg       Config
	acct      *account.Account
	source    market.DataSource
	quotes    *market.QuoteStore
	orders    map[string]*broker.Order
	frozen    map[string]float64 // orderID -> cash frozen at submit
	connected bool

	subMu     sync.Mutex
	orderSubs []broker.OrderUpdateListener
	posSubs   []broker.PositionUpdateListener

	jrn journal.Journal
	log *zap.Logger
}

// New returns a simulated broker backed by acct. source may be nil when
// prices are injected with SetPrice, jrn may be nil to disable trade
// journaling.
func New(acct *account.Account, source market.DataSource, jrn journal.Journal, cfg Config, log *zap.Logger) *Broker {
	if log == nil {
		log = zap.NewNop()
	}
	if jrn == nil {
		jrn = journal.Nop{}
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = market.DefaultLotSize
	}
	return &Broker{
		cfg:    cfg,
		acct:   acct,
		source: source,
		quotes: market.NewQuoteStore(),
		orders: make(map[string]*broker.Order),
		frozen: make(map[string]float64),
		jrn:    jrn,
		log:    log,
	}
}

func (b *Broker) Connect(ctx context.Context) error {
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()
	b.log.Info("sim broker connected", zap.String("account", b.acct.ID()))
	return nil
}

func (b *Broker) Disconnect() {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	b.log.Info("sim broker disconnected")
}

func (b *Broker) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// SubmitOrder validates the order, freezes funds or checks holdings,
// then attempts an immediate fill. The returned ID identifies the
// order even when it is left resting.
func (b *Broker) SubmitOrder(ctx context.Context, o *broker.Order) (string, error) {
	if !b.Connected() {
		return "", broker.ErrNotConnected
	}
	o.ID = id.New()

	if reason := b.validate(o); reason != "" {
		b.reject(o, reason)
		return "", fmt.Errorf("%w: %s", broker.ErrInvalidOrder, reason)
	}

	// Market orders price off the latest quote. The fetch may hit the
	// data source, so it happens before any lock is taken.
	ref := o.Price
	if o.PriceType == broker.Market {
		cur, err := b.CurrentPrice(ctx, o.Symbol)
		if err != nil {
			b.reject(o, "no market data: "+err.Error())
			return "", fmt.Errorf("price %s: %w", o.Symbol, err)
		}
		ref = cur
		o.Price = cur
	}

	var frozenAmt float64
	switch o.Side {
	case broker.Buy:
		// Market buys fill at the slipped price, so the freeze must
		// cover it too or the settle would overdraw available cash.
		freezePrice := ref
		if o.PriceType == broker.Market {
			freezePrice = ref * (1 + b.cfg.Slippage)
		}
		notional := float64(o.Quantity) * freezePrice
		frozenAmt = notional + b.fee(notional)
		if !b.acct.FreezeCash(frozenAmt) {
			b.reject(o, "insufficient cash")
			return "", broker.ErrInsufficientCash
		}
	case broker.Sell:
		if !b.acct.HasEnough(o.Symbol, o.Quantity) {
			b.reject(o, "insufficient holdings")
			return "", broker.ErrInsufficientHoldings
		}
	}

	o.SetStatus(broker.StatusSubmitted)
	b.mu.Lock()
	b.orders[o.ID] = o
	if frozenAmt > 0 {
		b.frozen[o.ID] = frozenAmt
	}
	b.mu.Unlock()

	b.log.Info("order submitted",
		zap.String("order_id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("side", string(o.Side)),
		zap.Int64("quantity", o.Quantity))
	b.notifyOrder(*o)

	b.tryFill(ctx, o.ID)
	return o.ID, nil
}

func (b *Broker) validate(o *broker.Order) string {
	switch {
	case o.Symbol == "":
		return "empty symbol"
	case o.Quantity <= 0:
		return "quantity must be positive"
	case o.Quantity%b.cfg.LotSize != 0:
		return fmt.Sprintf("quantity must be a multiple of %d", b.cfg.LotSize)
	case o.Side != broker.Buy && o.Side != broker.Sell:
		return "unknown side"
	case o.PriceType == broker.Limit && o.Price <= 0:
		return "limit order requires a positive price"
	case o.PriceType != broker.Limit && o.PriceType != broker.Market:
		return "unknown price type"
	}
	return ""
}

func (b *Broker) reject(o *broker.Order, reason string) {
	o.Reason = reason
	o.SetStatus(broker.StatusRejected)
	b.log.Warn("order rejected",
		zap.String("order_id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("reason", reason))
	b.notifyOrder(*o)
}

// tryFill fills the order if it is marketable at the latest quote.
// Non-marketable limit orders are left in SUBMITTED state.
func (b *Broker) tryFill(ctx context.Context, orderID string) {
	b.mu.Lock()
	o, ok := b.orders[orderID]
	if !ok || o.Status != broker.StatusSubmitted {
		b.mu.Unlock()
		return
	}
	symbol := o.Symbol
	b.mu.Unlock()

	cur, err := b.CurrentPrice(ctx, symbol)
	if err != nil {
		b.log.Warn("fill skipped, no quote", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	b.mu.Lock()
	// Re-check under the lock: a concurrent cancel may have landed
	// while the quote was being fetched.
	if o.Status != broker.StatusSubmitted {
		b.mu.Unlock()
		return
	}

	var fillPrice float64
	switch o.PriceType {
	case broker.Market:
		if o.Side == broker.Buy {
			fillPrice = cur * (1 + b.cfg.Slippage)
		} else {
			fillPrice = cur * (1 - b.cfg.Slippage)
		}
	case broker.Limit:
		marketable := (o.Side == broker.Buy && o.Price >= cur) ||
			(o.Side == broker.Sell && o.Price <= cur)
		if !marketable {
			b.mu.Unlock()
			return
		}
		fillPrice = o.Price
	}

	notional := float64(o.Quantity) * fillPrice
	fee := b.fee(notional)
	switch o.Side {
	case broker.Buy:
		frozenAmt := b.frozen[o.ID]
		// The quote can move up between submit and fill. A cost above
		// the freeze would draw cash negative, so reject instead.
		if notional+fee > frozenAmt {
			delete(b.frozen, o.ID)
			b.acct.UnfreezeCash(frozenAmt)
			o.Reason = "fill price exceeds frozen funds"
			o.SetStatus(broker.StatusRejected)
			rejected := *o
			b.mu.Unlock()
			b.log.Warn("order rejected at fill",
				zap.String("order_id", rejected.ID),
				zap.String("symbol", rejected.Symbol),
				zap.String("reason", rejected.Reason))
			b.notifyOrder(rejected)
			return
		}
		delete(b.frozen, o.ID)
		b.acct.SettleBuy(o.Symbol, o.Quantity, fillPrice, frozenAmt, notional+fee)
	case broker.Sell:
		b.acct.SettleSell(o.Symbol, o.Quantity, fillPrice, notional-fee)
	}

	o.FilledQuantity = o.Quantity
	o.AvgFillPrice = fillPrice
	o.SetStatus(broker.StatusFilled)
	filled := *o
	b.mu.Unlock()

	if err := b.jrn.RecordTrade(journal.TradeRecord{
		OrderID:  filled.ID,
		Symbol:   filled.Symbol,
		Side:     string(filled.Side),
		Quantity: filled.FilledQuantity,
		Price:    filled.AvgFillPrice,
		Amount:   notional,
		Time:     filled.UpdatedAt,
	}); err != nil {
		b.log.Warn("journal trade failed", zap.Error(err))
	}
	b.log.Info("order filled",
		zap.String("order_id", filled.ID),
		zap.String("symbol", filled.Symbol),
		zap.String("side", string(filled.Side)),
		zap.Int64("quantity", filled.FilledQuantity),
		zap.Float64("price", filled.AvgFillPrice),
		zap.Float64("fee", fee))

	b.notifyOrder(filled)
	if pos, ok := b.acct.Position(filled.Symbol); ok {
		b.notifyPosition(pos)
	}
}

func (b *Broker) fee(notional float64) float64 {
	return math.Max(notional*b.cfg.Commission, b.cfg.MinCommission)
}

// CancelOrder cancels a resting order. It returns false when the order
// is unknown or already finished, including an order that filled while
// the cancel was in flight.
func (b *Broker) CancelOrder(orderID string) bool {
	b.mu.Lock()
	o, ok := b.orders[orderID]
	if !ok || !o.Cancellable() {
		b.mu.Unlock()
		return false
	}
	if amt, held := b.frozen[orderID]; held {
		delete(b.frozen, orderID)
		b.acct.UnfreezeCash(amt)
	}
	o.SetStatus(broker.StatusCancelled)
	cancelled := *o
	b.mu.Unlock()

	b.log.Info("order cancelled", zap.String("order_id", orderID))
	b.notifyOrder(cancelled)
	return true
}

func (b *Broker) GetOrder(orderID string) (broker.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return broker.Order{}, false
	}
	return *o, true
}

func (b *Broker) ActiveOrders() []broker.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broker.Order
	for _, o := range b.orders {
		if !o.Finished() {
			out = append(out, *o)
		}
	}
	return out
}

func (b *Broker) HistoricalOrders(start, end time.Time) []broker.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broker.Order
	for _, o := range b.orders {
		if !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, *o)
		}
	}
	return out
}

func (b *Broker) Account() *account.Account { return b.acct }

func (b *Broker) Positions() map[string]account.Position { return b.acct.Positions() }

func (b *Broker) Position(symbol string) (account.Position, bool) {
	return b.acct.Position(symbol)
}

func (b *Broker) AvailableCash() float64 { return b.acct.Cash() }

func (b *Broker) TotalAssets() float64 { return b.acct.TotalAssets() }

// CurrentPrice returns the cached quote for symbol, falling back to
// the data source's most recent close.
func (b *Broker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if q, err := b.quotes.Get(symbol); err == nil {
		return q.Price, nil
	}
	return b.RefreshPrice(ctx, symbol)
}

func (b *Broker) CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		p, err := b.CurrentPrice(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", s, err)
		}
		out[s] = p
	}
	return out, nil
}

// RefreshPrice fetches the latest close for symbol from the data
// source, updates the quote cache and marks held positions.
func (b *Broker) RefreshPrice(ctx context.Context, symbol string) (float64, error) {
	if b.source == nil {
		return 0, market.ErrNoQuote
	}
	end := time.Now()
	bars, err := b.source.Fetch(ctx, symbol, end.AddDate(-1, 0, 0), end)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, market.ErrNoData
	}
	last := bars[len(bars)-1]
	b.SetPrice(symbol, last.Close, last.Date)
	return last.Close, nil
}

// SetPrice injects a quote and marks held positions to it. Resting
// limit orders are not re-matched against later quotes; marketability
// is decided once at submission.
func (b *Broker) SetPrice(symbol string, price float64, at time.Time) {
	b.quotes.Set(market.Quote{Symbol: symbol, Price: price, Time: at})
	b.acct.UpdatePrices(map[string]float64{symbol: price})
}

func (b *Broker) SubscribeOrderUpdates(l broker.OrderUpdateListener) {
	b.subMu.Lock()
	b.orderSubs = append(b.orderSubs, l)
	b.subMu.Unlock()
}

func (b *Broker) SubscribePositionUpdates(l broker.PositionUpdateListener) {
	b.subMu.Lock()
	b.posSubs = append(b.posSubs, l)
	b.subMu.Unlock()
}

func (b *Broker) notifyOrder(o broker.Order) {
	b.subMu.Lock()
	subs := make([]broker.OrderUpdateListener, len(b.orderSubs))
	copy(subs, b.orderSubs)
	b.subMu.Unlock()
	for _, l := range subs {
		l.OnOrderUpdate(o)
	}
}

func (b *Broker) notifyPosition(p account.Position) {
	b.subMu.Lock()
	subs := make([]broker.PositionUpdateListener, len(b.posSubs))
	copy(subs, b.posSubs)
	b.subMu.Unlock()
	for _, l := range subs {
		l.OnPositionUpdate(p)
	}
}
