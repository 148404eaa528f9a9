package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// EmailDispatchTotal counts dispatch outcomes by template and result.
	EmailDispatchTotal *prometheus.CounterVec
	// EmailDispatchLatency records SMTP send latency in milliseconds.
	EmailDispatchLatency *prometheus.HistogramVec
	// AccountProviderTotal counts provisioning provider calls by operation and outcome.
	AccountProviderTotal *prometheus.CounterVec
	// RateLimitRejectedTotal counts requests rejected by the per-IP limiter.
	RateLimitRejectedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		EmailDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_dispatch_total",
			Help:      "Count of email dispatch outcomes.",
		}, []string{"template", "result"})
		EmailDispatchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_dispatch_duration_ms",
			Help:      "Latency for SMTP dispatch attempts in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
		}, []string{"result"})
		AccountProviderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_provider_total",
			Help:      "Count of account provisioning provider calls by outcome.",
		}, []string{"operation", "result"})
		RateLimitRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejected_total",
			Help:      "Number of requests rejected by the rate limiter.",
		})

		EmailDispatchTotal = register(reg, EmailDispatchTotal)
		EmailDispatchLatency = register(reg, EmailDispatchLatency)
		AccountProviderTotal = register(reg, AccountProviderTotal)
		RateLimitRejectedTotal = register(reg, RateLimitRejectedTotal)
	})
}

// ObserveEmailDispatch records a dispatch outcome. It is a no-op until metrics are registered.
func ObserveEmailDispatch(template, result string, took time.Duration) {
	if EmailDispatchTotal != nil {
		EmailDispatchTotal.WithLabelValues(template, result).Inc()
	}
	if EmailDispatchLatency != nil {
		EmailDispatchLatency.WithLabelValues(result).Observe(millis(took))
	}
}

// ObserveAccountProvider records a provider call outcome.
func ObserveAccountProvider(operation, result string) {
	if AccountProviderTotal != nil {
		AccountProviderTotal.WithLabelValues(operation, result).Inc()
	}
}
