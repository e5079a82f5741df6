// Package observability exposes Prometheus metrics for the exchange.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts committed trades by side.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glue_trades_total",
		Help: "Committed trades by side",
	}, []string{"side"})

	// TradeErrorsTotal counts rejected trades by reason.
	TradeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glue_trade_errors_total",
		Help: "Rejected trades by reason",
	}, []string{"reason"})

	// TradeDuration observes end-to-end trade execution latency.
	TradeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "glue_trade_duration_seconds",
		Help:    "Trade execution latency",
		Buckets: prometheus.DefBuckets,
	})

	// QuotesTotal counts served quotes by side.
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glue_quotes_total",
		Help: "Served quotes by side",
	}, []string{"side"})

	// Supply tracks the circulating GLUE supply.
	Supply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glue_supply",
		Help: "Circulating GLUE supply",
	})

	// SpotPrice tracks the current unit price in coins.
	SpotPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glue_spot_price_coins",
		Help: "Current unit price in coins",
	})

	// WSClients tracks connected market-feed WebSocket clients.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glue_ws_clients",
		Help: "Connected market feed WebSocket clients",
	})

	// SimulationRunsTotal counts completed simulator batches by mode.
	SimulationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glue_simulation_runs_total",
		Help: "Completed simulator batches by mode",
	}, []string{"mode"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
