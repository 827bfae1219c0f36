package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RecomputeTotal counts ticket recompute passes.
	RecomputeTotal prometheus.Counter
	// RecomputeDuration records recompute latency in milliseconds.
	RecomputeDuration prometheus.Histogram
	// PartListDetectedTotal counts applied bundle substitutions.
	PartListDetectedTotal prometheus.Counter
	// GatewayRequestTotal counts outbound gateway requests by operation and outcome.
	GatewayRequestTotal *prometheus.CounterVec
	// OrdersCreatedTotal counts order documents accepted by the gateway.
	OrdersCreatedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RecomputeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_recompute_total",
			Help:      "Number of ticket recompute passes.",
		})
		RecomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ticket_recompute_duration_ms",
			Help:      "Latency of ticket recompute passes in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		})
		PartListDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partlist_detected_total",
			Help:      "Number of bundle substitutions applied to tickets.",
		})
		GatewayRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_request_total",
			Help:      "Count of outbound gateway requests by operation and outcome.",
		}, []string{"operation", "result"})
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Number of order documents accepted by the gateway.",
		})

		mustRegisterCollector(reg, RecomputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RecomputeTotal = v
			}
		})
		mustRegisterCollector(reg, RecomputeDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				RecomputeDuration = v
			}
		})
		mustRegisterCollector(reg, PartListDetectedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PartListDetectedTotal = v
			}
		})
		mustRegisterCollector(reg, GatewayRequestTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GatewayRequestTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCreatedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
