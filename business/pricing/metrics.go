package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SuggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_suggestions_total",
			Help: "Pricing suggestions served, by source (oracle or fallback).",
		},
		[]string{"source"},
	)

	OracleFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_oracle_failures_total",
			Help: "Failed oracle attempts by reason.",
		},
		[]string{"reason"},
	)

	PriceChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_changes_total",
			Help: "Committed pricing mutations by kind.",
		},
		[]string{"kind"},
	)

	OracleLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_oracle_latency_seconds",
		Help:    "Latency of a single oracle attempt.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		SuggestionsTotal,
		OracleFailuresTotal,
		PriceChangesTotal,
		OracleLatency,
	)
}
