package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Checkout metrics
	CheckoutsTotal   *prometheus.CounterVec
	CheckoutDuration *prometheus.HistogramVec
	CheckoutErrors   *prometheus.CounterVec

	// Gateway metrics
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Reconciliation metrics
	WebhookEventsTotal   *prometheus.CounterVec
	ReconciliationsTotal *prometheus.CounterVec
	SweepExpiredTotal    prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Worker metrics
	WorkerMessagesProcessed  *prometheus.CounterVec
	WorkerProcessingDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Total number of checkout attempts by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		CheckoutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "checkout_duration_seconds",
				Help:      "Checkout orchestration duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"flow"},
		),
		CheckoutErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_errors_total",
				Help:      "Total number of checkout errors by flow and category",
			},
			[]string{"flow", "category"},
		),
		GatewayCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Total number of payment gateway calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		GatewayCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Payment gateway call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total number of gateway webhook events received by type and disposition",
			},
			[]string{"type", "disposition"},
		),
		ReconciliationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliations_total",
				Help:      "Total number of transaction reconciliations by terminal status",
			},
			[]string{"status"},
		),
		SweepExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_expired_total",
				Help:      "Total number of pending transactions expired by the sweep",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		WorkerMessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_messages_processed_total",
				Help:      "Total number of worker messages processed",
			},
			[]string{"stream", "status"},
		),
		WorkerProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_processing_duration_seconds",
				Help:      "Worker message processing duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stream"},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.CheckoutsTotal,
		m.CheckoutDuration,
		m.CheckoutErrors,
		m.GatewayCallsTotal,
		m.GatewayCallDuration,
		m.WebhookEventsTotal,
		m.ReconciliationsTotal,
		m.SweepExpiredTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.WorkerMessagesProcessed,
		m.WorkerProcessingDuration,
	)

	return m
}
