package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker collectors live on the default registry served at /metrics.
var (
	// BreakerState holds the State of each upstream's breaker as a number.
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "upstream_breaker_state",
		Help: "Breaker state per upstream (0 closed, 1 open, 2 half-open).",
	}, []string{"upstream"})
	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_transitions_total",
		Help: "Breaker state changes per upstream.",
	}, []string{"upstream", "from", "to"})
	BreakerOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_opened_total",
		Help: "Times each upstream's breaker opened.",
	}, []string{"upstream"})
)
