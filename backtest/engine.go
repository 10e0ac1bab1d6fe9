package backtest

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/market"
	"github.com/rustyeddy/stocktrader/pkg/id"
	"github.com/rustyeddy/stocktrader/signal"
)

var ErrNoData = errors.New("backtest: no data points")

// Config sets the portfolio and decision parameters for one run.
type Config struct {
	Symbol         string
	InitialCapital float64
	Commission     float64
	Slippage       float64
	StopLoss       float64 // loss fraction that forces an exit
	TakeProfit     float64 // gain fraction that forces an exit
	BuyThreshold   float64
	SellThreshold  float64
	LotSize        int64
}

func DefaultConfig() Config {
	return Config{
		Symbol:         "BACKTEST",
		InitialCapital: 100000,
		Commission:     0.001,
		Slippage:       0.0005,
		StopLoss:       0.05,
		TakeProfit:     0.15,
		BuyThreshold:   0.6,
		SellThreshold:  0.6,
		LotSize:        market.DefaultLotSize,
	}
}

// Point is one bar of input: the close plus the feature vector handed
// to the classifier for that date.
type Point struct {
	Date     time.Time
	Close    float64
	Features []float64
}

// Step records what the engine saw and did on one bar. Predicted is
// the recommended action (BUY/SELL/HOLD), Action what actually
// happened after forced exits and position checks.
type Step struct {
	Date       time.Time
	Price      float64
	Predicted  string
	Action     string
	Confidence float64
	Shares     int64
	Cash       float64
	TotalValue float64
	Return     float64
}

// Result is the full output of a run.
type Result struct {
	Steps   []Step
	Trades  []Trade
	Metrics Metrics
}

// Engine replays points in order, asking the classifier for a signal
// on each bar and applying forced exits before voluntary actions.
type Engine struct {
	cfg Config
	clf signal.Classifier
	jrn journal.Journal
	log *zap.Logger
}

func NewEngine(cfg Config, clf signal.Classifier, jrn journal.Journal, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if jrn == nil {
		jrn = journal.Nop{}
	}
	return &Engine{cfg: cfg, clf: clf, jrn: jrn, log: log}
}

// Run executes the backtest over points, which must be in ascending
// date order.
func (e *Engine) Run(points []Point) (*Result, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	gen := signal.NewGenerator(e.clf, e.cfg.BuyThreshold, e.cfg.SellThreshold)
	pf := NewPortfolio(e.cfg.InitialCapital, e.cfg.Commission, e.cfg.Slippage, e.cfg.LotSize)

	steps := make([]Step, 0, len(points))
	dailyReturns := make([]float64, 0, len(points))
	prevValue := e.cfg.InitialCapital

	for _, pt := range points {
		sig := gen.Generate(pt.Features)
		action := e.decide(pf, pt, sig)

		value := pf.TotalValue(pt.Close)
		step := Step{
			Date:       pt.Date,
			Price:      pt.Close,
			Predicted:  string(sig.Action),
			Action:     action,
			Confidence: sig.Confidence,
			Shares:     pf.Shares(),
			Cash:       pf.Cash(),
			TotalValue: value,
			Return:     pf.Return(pt.Close),
		}
		steps = append(steps, step)
		if err := e.jrn.RecordStep(journal.StepRecord{
			Date:       pt.Date.Format("2006-01-02"),
			Price:      step.Price,
			Predicted:  step.Predicted,
			Action:     step.Action,
			Confidence: step.Confidence,
			Shares:     step.Shares,
			Cash:       step.Cash,
			TotalValue: step.TotalValue,
			ReturnPct:  step.Return,
		}); err != nil {
			e.log.Warn("journal step failed", zap.Error(err))
		}

		if prevValue != 0 {
			dailyReturns = append(dailyReturns, (value-prevValue)/prevValue)
		} else {
			dailyReturns = append(dailyReturns, 0)
		}
		prevValue = value
	}

	for _, t := range pf.Trades() {
		if err := e.jrn.RecordTrade(journal.TradeRecord{
			OrderID:  id.New(),
			Symbol:   e.cfg.Symbol,
			Side:     string(t.Side),
			Quantity: t.Shares,
			Price:    t.Price,
			Amount:   t.Amount,
			Time:     t.Date,
		}); err != nil {
			e.log.Warn("journal trade failed", zap.Error(err))
		}
	}

	res := &Result{
		Steps:   steps,
		Trades:  pf.Trades(),
		Metrics: ComputeMetrics(dailyReturns, pf.Trades(), pf.Return(points[len(points)-1].Close)),
	}
	e.log.Info("backtest complete",
		zap.Int("steps", len(steps)),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("total_return", res.Metrics.TotalReturn))
	return res, nil
}

// decide applies forced exits first, then the voluntary action. The
// returned label names what actually happened on the bar.
func (e *Engine) decide(pf *Portfolio, pt Point, sig signal.Signal) string {
	if pf.HasPosition() {
		switch {
		case pt.Close <= pf.AvgBuyPrice()*(1-e.cfg.StopLoss):
			if pf.Sell(pt.Date, pt.Close) {
				return "SELL (Stop Loss)"
			}
		case pt.Close >= pf.AvgBuyPrice()*(1+e.cfg.TakeProfit):
			if pf.Sell(pt.Date, pt.Close) {
				return "SELL (Take Profit)"
			}
		}
	}

	switch sig.Action {
	case signal.ActionBuy:
		if !pf.HasPosition() && pf.Buy(pt.Date, pt.Close) {
			return string(signal.ActionBuy)
		}
	case signal.ActionSell:
		if pf.HasPosition() && pf.Sell(pt.Date, pt.Close) {
			return string(signal.ActionSell)
		}
	}
	return string(signal.ActionHold)
}

// String renders a short human-readable report.
func (r *Result) String() string {
	m := r.Metrics
	return fmt.Sprintf(
		"steps=%d trades=%d return=%.2f%% annualized=%.2f%% drawdown=%.2f%% sharpe=%.2f win_rate=%.2f%%",
		len(r.Steps), len(r.Trades),
		m.TotalReturn*100, m.AnnualizedReturn*100,
		m.MaxDrawdown*100, m.SharpeRatio, m.WinRate*100)
}
