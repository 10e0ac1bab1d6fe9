package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocktrader",
		Name:      "orders_submitted_total",
		Help:      "Orders that passed risk checks and were handed to the broker.",
	}, []string{"side"})

	ordersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocktrader",
		Name:      "orders_rejected_total",
		Help:      "Orders rejected by risk admission, by rejection code.",
	}, []string{"code"})

	stopLossTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocktrader",
		Name:      "stop_loss_triggered_total",
		Help:      "Protective sells issued by the stop-loss monitor.",
	}, []string{"symbol"})

	takeProfitTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocktrader",
		Name:      "take_profit_triggered_total",
		Help:      "Profit-taking sells issued by the position monitor.",
	}, []string{"symbol"})

	circuitBreakerTrips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stocktrader",
		Name:      "circuit_breaker_trips_total",
		Help:      "Times the daily loss limit disabled trading.",
	})
)
