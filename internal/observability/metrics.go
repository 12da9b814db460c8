// Package observability provides Prometheus metrics for the orchestrator.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ScansTotal      *prometheus.CounterVec
	ScanErrorsTotal *prometheus.CounterVec
	TokensScored    prometheus.Counter
	TradesTotal     *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	PortfolioHeat   prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swarm"
	}
	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_scans_total",
			Help:      "Completed scan ticks per agent.",
		}, []string{"agent"}),
		ScanErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_scan_errors_total",
			Help:      "Failed scan ticks per agent.",
		}, []string{"agent"}),
		TokensScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_scored_total",
			Help:      "Tokens sent to the reasoning gateway for scoring.",
		}),
		TradesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Attempted trades by side and outcome.",
		}, []string{"side", "outcome"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Currently open positions.",
		}),
		PortfolioHeat: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_heat",
			Help:      "Fraction of (balance + exposure) committed to open positions.",
		}),
	}
}
