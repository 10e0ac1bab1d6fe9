// Package executor layers asynchronous execution and position
// monitoring on top of a broker. Orders pass risk admission, run on a
// small worker pool, and report through a result channel. Background
// monitors sweep finished orders and issue protective sells.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/market"
	"github.com/rustyeddy/stocktrader/risk"
)

// Config tunes the worker pool and the monitor cadence.
type Config struct {
	Workers           int
	OrderPollInterval time.Duration
	RiskPollInterval  time.Duration
	LotSize           int64
}

func DefaultConfig() Config {
	return Config{
		Workers:           5,
		OrderPollInterval: 5 * time.Second,
		RiskPollInterval:  10 * time.Second,
		LotSize:           market.DefaultLotSize,
	}
}

// Result reports the outcome of an asynchronous submission.
type Result struct {
	OK      bool
	OrderID string
	Message string
}

// Executor owns the submission pipeline. Create one with New, call
// Start before submitting, and Stop to drain the pool.
type Executor struct {
	brk broker.Broker
	rm  *risk.Manager
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}

	tasks chan func()
	wg    sync.WaitGroup
	stop  context.CancelFunc
}

func New(brk broker.Broker, rm *risk.Manager, cfg Config, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.OrderPollInterval <= 0 {
		cfg.OrderPollInterval = DefaultConfig().OrderPollInterval
	}
	if cfg.RiskPollInterval <= 0 {
		cfg.RiskPollInterval = DefaultConfig().RiskPollInterval
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = market.DefaultLotSize
	}
	return &Executor{
		brk:     brk,
		rm:      rm,
		cfg:     cfg,
		log:     log,
		pending: make(map[string]struct{}),
		tasks:   make(chan func(), 64),
	}
}

// Start launches the worker pool and both monitors. It returns
// immediately; goroutines run until Stop or ctx cancellation.
func (e *Executor) Start(ctx context.Context) {
	ctx, e.stop = context.WithCancel(ctx)

	for i := 0; i < e.cfg.Workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-e.tasks:
					task()
				}
			}
		}()
	}

	e.wg.Add(2)
	go e.monitorOrders(ctx)
	go e.monitorRisk(ctx)
	e.log.Info("executor started", zap.Int("workers", e.cfg.Workers))
}

// Stop cancels the monitors and waits for in-flight tasks.
func (e *Executor) Stop() {
	if e.stop != nil {
		e.stop()
	}
	e.wg.Wait()
	e.log.Info("executor stopped")
}

// ExecuteBuy submits a limit buy asynchronously. The returned channel
// is buffered and receives exactly one Result.
func (e *Executor) ExecuteBuy(ctx context.Context, symbol string, qty int64, price float64) <-chan Result {
	return e.submit(ctx, broker.NewOrder(symbol, broker.Buy, broker.Limit, price, qty))
}

// ExecuteSell submits a limit sell asynchronously.
func (e *Executor) ExecuteSell(ctx context.Context, symbol string, qty int64, price float64) <-chan Result {
	return e.submit(ctx, broker.NewOrder(symbol, broker.Sell, broker.Limit, price, qty))
}

// ExecuteMarketBuy prices the order off the current quote so that risk
// admission has a notional to check.
func (e *Executor) ExecuteMarketBuy(ctx context.Context, symbol string, qty int64) <-chan Result {
	out := make(chan Result, 1)
	e.enqueue(out, func() {
		price, err := e.brk.CurrentPrice(ctx, symbol)
		if err != nil {
			out <- Result{Message: fmt.Sprintf("price %s: %v", symbol, err)}
			return
		}
		o := broker.NewOrder(symbol, broker.Buy, broker.Market, price, qty)
		out <- e.run(ctx, o)
	})
	return out
}

// ExecuteMarketSell sells at market, priced off the current quote.
func (e *Executor) ExecuteMarketSell(ctx context.Context, symbol string, qty int64) <-chan Result {
	out := make(chan Result, 1)
	e.enqueue(out, func() {
		price, err := e.brk.CurrentPrice(ctx, symbol)
		if err != nil {
			out <- Result{Message: fmt.Sprintf("price %s: %v", symbol, err)}
			return
		}
		o := broker.NewOrder(symbol, broker.Sell, broker.Market, price, qty)
		out <- e.run(ctx, o)
	})
	return out
}

func (e *Executor) submit(ctx context.Context, o *broker.Order) <-chan Result {
	out := make(chan Result, 1)
	e.enqueue(out, func() {
		out <- e.run(ctx, o)
	})
	return out
}

func (e *Executor) enqueue(out chan Result, task func()) {
	select {
	case e.tasks <- task:
	default:
		out <- Result{Message: "executor queue full"}
	}
}

// run validates the quantity, performs risk admission, then hands the
// order to the broker.
func (e *Executor) run(ctx context.Context, o *broker.Order) Result {
	if o.Quantity <= 0 || o.Quantity%e.cfg.LotSize != 0 {
		return Result{Message: fmt.Sprintf("quantity %d is not a multiple of lot size %d", o.Quantity, e.cfg.LotSize)}
	}
	if res := e.rm.CheckOrder(o, e.brk.Account()); !res.OK {
		ordersRejected.WithLabelValues(res.Code).Inc()
		e.log.Warn("order rejected by risk",
			zap.String("symbol", o.Symbol),
			zap.String("side", string(o.Side)),
			zap.String("code", res.Code),
			zap.String("reason", res.Reason))
		return Result{Message: res.Reason}
	}

	orderID, err := e.brk.SubmitOrder(ctx, o)
	if err != nil {
		return Result{Message: err.Error()}
	}

	e.mu.Lock()
	e.pending[orderID] = struct{}{}
	e.mu.Unlock()
	ordersSubmitted.WithLabelValues(string(o.Side)).Inc()
	return Result{OK: true, OrderID: orderID, Message: "submitted"}
}

// CancelOrder cancels an order this executor submitted. It is
// synchronous and returns false when the order is unknown or already
// terminal.
func (e *Executor) CancelOrder(orderID string) bool {
	e.mu.Lock()
	_, tracked := e.pending[orderID]
	e.mu.Unlock()
	if !tracked {
		return false
	}
	o, ok := e.brk.GetOrder(orderID)
	if !ok || !o.Cancellable() {
		return false
	}
	if !e.brk.CancelOrder(orderID) {
		return false
	}
	e.mu.Lock()
	delete(e.pending, orderID)
	e.mu.Unlock()
	return true
}

// PendingCount reports orders submitted here that have not yet been
// swept by the order monitor.
func (e *Executor) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Executor) monitorOrders(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.OrderPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepOrders()
		}
	}
}

func (e *Executor) sweepOrders() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.pending))
	for orderID := range e.pending {
		ids = append(ids, orderID)
	}
	e.mu.Unlock()

	for _, orderID := range ids {
		o, ok := e.brk.GetOrder(orderID)
		if !ok || o.Finished() {
			e.mu.Lock()
			delete(e.pending, orderID)
			e.mu.Unlock()
			if ok {
				e.log.Info("order finished",
					zap.String("order_id", orderID),
					zap.String("status", string(o.Status)))
			}
		}
	}
}

func (e *Executor) monitorRisk(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.RiskPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepPositions(ctx)
		}
	}
}

// sweepPositions issues protective market sells and checks the daily
// loss circuit breaker. One bad symbol never blocks the rest.
func (e *Executor) sweepPositions(ctx context.Context) {
	for symbol, pos := range e.brk.Positions() {
		if pos.Quantity <= 0 {
			continue
		}
		switch {
		case e.rm.ShouldStopLoss(pos):
			stopLossTriggered.WithLabelValues(symbol).Inc()
			e.log.Warn("stop loss triggered",
				zap.String("symbol", symbol),
				zap.Float64("pnl_pct", pos.UnrealizedPnLPct))
			e.drain(e.ExecuteMarketSell(ctx, symbol, pos.Quantity), symbol)
		case e.rm.ShouldTakeProfit(pos):
			takeProfitTriggered.WithLabelValues(symbol).Inc()
			e.log.Info("take profit triggered",
				zap.String("symbol", symbol),
				zap.Float64("pnl_pct", pos.UnrealizedPnLPct))
			e.drain(e.ExecuteMarketSell(ctx, symbol, pos.Quantity), symbol)
		}
	}

	// CheckDailyLoss keeps reporting true while the breaker is latched;
	// count and log only the trip itself.
	wasEnabled := e.rm.TradingEnabled()
	if e.rm.CheckDailyLoss(e.brk.TotalAssets()) && wasEnabled {
		circuitBreakerTrips.Inc()
		e.log.Error("daily loss limit hit, trading disabled",
			zap.Float64("total_assets", e.brk.TotalAssets()))
	}
}

// drain logs the protective sell outcome without blocking the sweep.
// Deliberately not wg-tracked: if Stop lands while the sell is still
// queued, the result never arrives and Stop must not wait on it.
func (e *Executor) drain(ch <-chan Result, symbol string) {
	go func() {
		res := <-ch
		if !res.OK {
			e.log.Warn("protective sell failed",
				zap.String("symbol", symbol),
				zap.String("message", res.Message))
		}
	}()
}
