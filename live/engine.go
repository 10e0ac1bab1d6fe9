package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/config"
	"github.com/rustyeddy/stocktrader/executor"
	"github.com/rustyeddy/stocktrader/market"
	"github.com/rustyeddy/stocktrader/risk"
	"github.com/rustyeddy/stocktrader/signal"
)

// Daily schedule, hour and minute.
const (
	resetHour    = 9
	resetMinute  = 0
	reportHour   = 15
	reportMinute = 30
)

// priceRefresher is implemented by brokers that can force a quote
// refresh from their data source.
type priceRefresher interface {
	RefreshPrice(ctx context.Context, symbol string) (float64, error)
}

// Engine drives the scheduled trading loop: it scans the watchlist
// during sessions, resets daily risk state at the open, and reports at
// the close.
type Engine struct {
	brk    broker.Broker
	gen    *signal.Generator
	source market.DataSource
	rm     *risk.Manager
	exec   *executor.Executor
	cfg    config.TradingConfig
	cal    Calendar
	log    *zap.Logger

	// now is replaceable in tests.
	now func() time.Time

	mu    sync.Mutex
	watch map[string]struct{}

	lastReset  time.Time
	lastReport time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewEngine(brk broker.Broker, clf signal.Classifier, source market.DataSource,
	rm *risk.Manager, exec *executor.Executor, cfg config.TradingConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = market.DefaultLotSize
	}
	e := &Engine{
		brk:    brk,
		gen:    signal.NewGenerator(clf, cfg.BuyThreshold, cfg.SellThreshold),
		source: source,
		rm:     rm,
		exec:   exec,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		watch:  make(map[string]struct{}),
	}
	for _, s := range cfg.Watchlist {
		e.watch[s] = struct{}{}
	}
	return e
}

// Watch adds a symbol to the scan list.
func (e *Engine) Watch(symbol string) {
	e.mu.Lock()
	e.watch[symbol] = struct{}{}
	e.mu.Unlock()
}

// Unwatch removes a symbol from the scan list. Held positions are
// still monitored by the executor.
func (e *Engine) Unwatch(symbol string) {
	e.mu.Lock()
	delete(e.watch, symbol)
	e.mu.Unlock()
}

func (e *Engine) Watchlist() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.watch))
	for s := range e.watch {
		out = append(out, s)
	}
	return out
}

// Start connects the broker and launches the scan and schedule loops.
// A connect failure aborts startup.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.brk.Connect(ctx); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.exec.Start(ctx)

	interval := time.Duration(e.cfg.ScanIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	e.wg.Add(2)
	go e.scanLoop(ctx, interval)
	go e.scheduleLoop(ctx)

	e.log.Info("live engine started",
		zap.Strings("watchlist", e.Watchlist()),
		zap.Duration("scan_interval", interval))
	return nil
}

// Stop halts the loops, drains the executor and disconnects.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.exec.Stop()
	e.brk.Disconnect()
	e.log.Info("live engine stopped")
}

func (e *Engine) scanLoop(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.ScanOnce(ctx)
		}
	}
}

func (e *Engine) scheduleLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunSchedule(ctx)
		}
	}
}

// RunSchedule fires the daily open reset and close report when their
// times have passed and they have not yet run today.
func (e *Engine) RunSchedule(ctx context.Context) {
	now := e.now()
	if pastDaily(now, resetHour, resetMinute) && !sameDay(e.lastReset, now) {
		e.lastReset = now
		e.openReset(ctx)
	}
	if pastDaily(now, reportHour, reportMinute) && !sameDay(e.lastReport, now) {
		e.lastReport = now
		e.closeReport(now)
	}
}

func pastDaily(t time.Time, hour, min int) bool {
	return t.Hour()*100+t.Minute() >= hour*100+min
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// openReset re-baselines daily risk state and refreshes quotes for
// held positions before the session starts.
func (e *Engine) openReset(ctx context.Context) {
	e.syncPrices(ctx)
	total := e.brk.TotalAssets()
	e.rm.ResetDailyStats(total)
	e.log.Info("daily risk state reset", zap.Float64("total_assets", total))
}

func (e *Engine) syncPrices(ctx context.Context) {
	r, ok := e.brk.(priceRefresher)
	if !ok {
		return
	}
	for symbol := range e.brk.Positions() {
		if _, err := r.RefreshPrice(ctx, symbol); err != nil {
			e.log.Warn("price refresh failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

// closeReport logs the end-of-day account state and the day's orders.
func (e *Engine) closeReport(now time.Time) {
	snap := e.brk.Account().Snapshot()
	e.log.Info("close report",
		zap.Float64("cash", snap.Cash),
		zap.Float64("frozen_cash", snap.FrozenCash),
		zap.Float64("market_value", snap.MarketValue),
		zap.Float64("total_assets", snap.TotalAssets),
		zap.Int("positions", len(snap.Positions)))
	for symbol, pos := range snap.Positions {
		e.log.Info("position",
			zap.String("symbol", symbol),
			zap.Int64("quantity", pos.Quantity),
			zap.Float64("avg_cost", pos.AvgCost),
			zap.Float64("pnl", pos.UnrealizedPnL),
			zap.Float64("pnl_pct", pos.UnrealizedPnLPct))
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, o := range e.brk.HistoricalOrders(dayStart, now) {
		e.log.Info("order",
			zap.String("order_id", o.ID),
			zap.String("symbol", o.Symbol),
			zap.String("side", string(o.Side)),
			zap.String("status", string(o.Status)),
			zap.Int64("quantity", o.Quantity),
			zap.Int64("filled", o.FilledQuantity))
	}
}

// ScanOnce evaluates every watched symbol. Outside session hours it is
// a no-op.
func (e *Engine) ScanOnce(ctx context.Context) {
	if !e.cal.Open(e.now()) {
		return
	}
	if !e.rm.TradingEnabled() {
		e.log.Warn("trading disabled, scan skipped")
		return
	}
	for _, symbol := range e.Watchlist() {
		if err := e.processSymbol(ctx, symbol); err != nil {
			e.log.Warn("scan failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func (e *Engine) processSymbol(ctx context.Context, symbol string) error {
	end := e.now()
	bars, err := e.source.Fetch(ctx, symbol, end.AddDate(-1, 0, 0), end)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		e.log.Debug("no history", zap.String("symbol", symbol))
		return nil
	}

	sig := e.gen.Generate(Features(bars))
	price, err := e.brk.CurrentPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("price %s: %w", symbol, err)
	}

	e.log.Debug("signal",
		zap.String("symbol", symbol),
		zap.String("action", string(sig.Action)),
		zap.Float64("confidence", sig.Confidence),
		zap.Float64("price", price))

	switch sig.Action {
	case signal.ActionBuy:
		e.tryBuy(ctx, symbol, price, sig)
	case signal.ActionSell:
		e.trySell(ctx, symbol, price)
	}
	return nil
}

func (e *Engine) tryBuy(ctx context.Context, symbol string, price float64, sig signal.Signal) {
	if sig.Confidence < e.cfg.MinConfidence {
		return
	}
	if pos, ok := e.brk.Position(symbol); ok && pos.Quantity > 0 {
		return
	}
	if e.cfg.MaxHoldings > 0 && len(e.brk.Positions()) >= e.cfg.MaxHoldings {
		e.log.Info("max holdings reached, buy skipped", zap.String("symbol", symbol))
		return
	}
	qty := e.rm.SuggestedQuantity(symbol, price, e.brk.Account(), e.cfg.LotSize)
	if qty < e.cfg.LotSize {
		e.log.Info("sizing below one lot, buy skipped", zap.String("symbol", symbol))
		return
	}
	e.logResult(symbol, "buy", e.exec.ExecuteBuy(ctx, symbol, qty, price))
}

func (e *Engine) trySell(ctx context.Context, symbol string, price float64) {
	pos, ok := e.brk.Position(symbol)
	if !ok || pos.Quantity <= 0 {
		return
	}
	e.logResult(symbol, "sell", e.exec.ExecuteSell(ctx, symbol, pos.Quantity, price))
}

// logResult reports the outcome when it arrives. Not wg-tracked: a
// shutdown can cancel the queued task before its result is sent, and
// Stop must not wait on it.
func (e *Engine) logResult(symbol, what string, ch <-chan executor.Result) {
	go func() {
		res := <-ch
		if res.OK {
			e.log.Info(what+" submitted",
				zap.String("symbol", symbol),
				zap.String("order_id", res.OrderID))
		} else {
			e.log.Warn(what+" failed",
				zap.String("symbol", symbol),
				zap.String("message", res.Message))
		}
	}()
}

// ManualBuy submits an operator-initiated limit buy through the same
// risk pipeline as automatic orders.
func (e *Engine) ManualBuy(ctx context.Context, symbol string, qty int64, price float64) executor.Result {
	return <-e.exec.ExecuteBuy(ctx, symbol, qty, price)
}

// ManualSell submits an operator-initiated limit sell.
func (e *Engine) ManualSell(ctx context.Context, symbol string, qty int64, price float64) executor.Result {
	return <-e.exec.ExecuteSell(ctx, symbol, qty, price)
}

// CancelOrder cancels an order previously submitted by this engine.
func (e *Engine) CancelOrder(orderID string) bool {
	return e.exec.CancelOrder(orderID)
}
