package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the carrier-selection service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database metrics
	DBQueries       *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Kafka / outbox metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec
	OutboxPending        prometheus.Gauge

	// Selection metrics
	CarriersSelected   *prometheus.CounterVec
	WaybillsEvaluated  *prometheus.CounterVec
	CarrierEstimates   *prometheus.CounterVec
	SelectedFee        *prometheus.HistogramVec
	PickingDuration    *prometheus.HistogramVec
	ReferenceCacheHits *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance backed by its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "db_queries_total", Help: "Total number of SQL statements executed"},
		[]string{"service", "table", "operation", "status"},
	)
	m.DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "db_query_duration_seconds",
			Help:      "SQL statement duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "table", "operation"},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)
	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Outbox events fetched but not yet published in the last poll",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.CarriersSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "carriers_selected_total", Help: "Carrier decisions by carrier and winning rule"},
		[]string{"service", "carrier", "rule"},
	)
	m.WaybillsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "waybills_evaluated_total", Help: "Waybills evaluated by outcome"},
		[]string{"service", "outcome"},
	)
	m.CarrierEstimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "carrier_estimates_total", Help: "Per-carrier estimates by eligibility"},
		[]string{"service", "carrier", "eligible"},
	)
	m.SelectedFee = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "selected_fee_yen",
			Help:      "Fee of the chosen carrier per waybill",
			Buckets:   []float64{300, 500, 800, 1200, 2000, 3500, 6000, 10000, 20000},
		},
		[]string{"service", "carrier"},
	)
	m.PickingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "picking_selection_duration_seconds",
			Help:      "Time spent selecting carriers for one picking",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "success"},
	)
	m.ReferenceCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "reference_cache_lookups_total", Help: "Reference cache lookups by table and result"},
		[]string{"service", "table", "result"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.DBQueries, m.DBQueryDuration,
		m.KafkaEventsPublished, m.KafkaPublishDuration, m.OutboxPending,
		m.CarriersSelected, m.WaybillsEvaluated, m.CarrierEstimates, m.SelectedFee,
		m.PickingDuration, m.ReferenceCacheHits,
		m.CircuitBreakerState, m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordDBQuery records one SQL statement
func (m *Metrics) RecordDBQuery(table, operation string, success bool, duration time.Duration) {
	m.DBQueries.WithLabelValues(m.serviceName, table, operation, statusLabel(success)).Inc()
	m.DBQueryDuration.WithLabelValues(m.serviceName, table, operation).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// SetOutboxPending records the size of the last outbox batch
func (m *Metrics) SetOutboxPending(n int) {
	m.OutboxPending.Set(float64(n))
}

// RecordCarrierSelected records a persisted carrier decision
func (m *Metrics) RecordCarrierSelected(carrier, rule string, fee float64) {
	m.CarriersSelected.WithLabelValues(m.serviceName, carrier, rule).Inc()
	m.SelectedFee.WithLabelValues(m.serviceName, carrier).Observe(fee)
}

// RecordWaybillOutcome records how a waybill evaluation ended
func (m *Metrics) RecordWaybillOutcome(outcome string) {
	m.WaybillsEvaluated.WithLabelValues(m.serviceName, outcome).Inc()
}

// RecordCarrierEstimate records one per-carrier estimate
func (m *Metrics) RecordCarrierEstimate(carrier string, eligible bool) {
	m.CarrierEstimates.WithLabelValues(m.serviceName, carrier, strconv.FormatBool(eligible)).Inc()
}

// RecordPickingDuration records the time spent on one picking
func (m *Metrics) RecordPickingDuration(success bool, duration time.Duration) {
	m.PickingDuration.WithLabelValues(m.serviceName, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// RecordReferenceCacheLookup records a reference cache hit or miss
func (m *Metrics) RecordReferenceCacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ReferenceCacheHits.WithLabelValues(m.serviceName, table, result).Inc()
}

// SetCircuitBreakerState sets circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
