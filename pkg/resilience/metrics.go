package resilience

import (
	"github.com/sony/gobreaker"

	"github.com/wms-platform/carrier-selection/pkg/metrics"
)

// RecordStateChanges returns an OnStateChange hook that mirrors breaker state into Prometheus
func RecordStateChanges(m *metrics.Metrics) func(name string, from, to gobreaker.State) {
	return func(name string, _, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}
}
