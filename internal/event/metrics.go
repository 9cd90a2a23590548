package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codenexus/storefront/internal/domain"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_total",
			Help: "Total number of storefront state changes by event type",
		},
		[]string{"type"},
	)

	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_events_dropped_total",
			Help: "Total number of storefront events dropped because the publish queue was full",
		},
	)

	checkoutsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_checkout_sessions_active",
			Help: "Number of checkout sessions currently counting down",
		},
	)

	checkoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_sessions_finished_total",
			Help: "Total number of checkout sessions that left the active state, by outcome",
		},
		[]string{"outcome", "target"},
	)

	checkoutAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_confirmed_amount_total",
			Help: "Sum of confirmed checkout amounts in display currency units",
		},
		[]string{"currency"},
	)
)

// RecordMetrics is a storefront.Listener that keeps the storefront_*
// Prometheus series current.
func RecordMetrics(ev domain.Event) {
	if ev.Type == domain.EventCheckoutTicked {
		return
	}
	eventsTotal.WithLabelValues(string(ev.Type)).Inc()

	if ev.Session == nil {
		return
	}
	target := string(ev.Session.Target.Kind)

	switch ev.Type {
	case domain.EventCheckoutStarted:
		checkoutsActive.Inc()
	case domain.EventCheckoutConfirmed:
		checkoutsActive.Dec()
		checkoutOutcomes.WithLabelValues("confirmed", target).Inc()
		checkoutAmount.WithLabelValues(ev.Session.Language.CurrencyCode()).Add(float64(ev.Session.Amount))
	case domain.EventCheckoutExpired:
		checkoutsActive.Dec()
		checkoutOutcomes.WithLabelValues("expired", target).Inc()
	case domain.EventCheckoutCancelled:
		checkoutsActive.Dec()
		checkoutOutcomes.WithLabelValues("cancelled", target).Inc()
	}
}
