package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Payment processing metrics
	paymentsSubmittedTotal *prometheus.CounterVec
	paymentAmount          *prometheus.HistogramVec
	validationFailures     *prometheus.CounterVec

	// Gateway metrics
	gatewayRequestsTotal   *prometheus.CounterVec
	gatewayRequestDuration *prometheus.HistogramVec

	// Receipt metrics
	receiptsSentTotal *prometheus.CounterVec

	// Event publishing metrics
	paymentEventsPublished *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Payment processing metrics
		paymentsSubmittedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_submitted_total",
				Help: "Total number of payment submissions by outcome status",
			},
			[]string{"status"},
		),
		paymentAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_amount",
				Help:    "Distribution of submitted payment amounts",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 100000, 1000000},
			},
			[]string{"status"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_validation_failures_total",
				Help: "Total number of payment submissions rejected by input validation",
			},
			[]string{"rule"},
		),

		// Gateway metrics
		gatewayRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Total number of payment gateway requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		gatewayRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Duration of payment gateway requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"operation"},
		),

		// Receipt metrics
		receiptsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipts_sent_total",
				Help: "Total number of receipt send attempts by status",
			},
			[]string{"status"},
		),

		// Event publishing metrics
		paymentEventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_events_published_total",
				Help: "Total number of payment events published to NATS",
			},
			[]string{"status"},
		),

		// HTTP metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Payment processing metric helpers

// RecordPaymentSubmitted records a completed payment submission.
func (m *Metrics) RecordPaymentSubmitted(status string, amount float64) {
	m.paymentsSubmittedTotal.WithLabelValues(status).Inc()
	m.paymentAmount.WithLabelValues(status).Observe(amount)
}

// RecordValidationFailure records a submission rejected by input validation.
func (m *Metrics) RecordValidationFailure(rule string) {
	m.validationFailures.WithLabelValues(rule).Inc()
}

// Gateway metric helpers

// RecordGatewayRequest records a gateway round-trip with duration.
func (m *Metrics) RecordGatewayRequest(operation, outcome string, duration float64) {
	m.gatewayRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.gatewayRequestDuration.WithLabelValues(operation).Observe(duration)
}

// Receipt metric helpers

// RecordReceiptSent records a receipt send attempt.
func (m *Metrics) RecordReceiptSent(status string) {
	m.receiptsSentTotal.WithLabelValues(status).Inc()
}

// Event publishing metric helpers

// RecordPaymentEventPublished records a payment event publish attempt.
func (m *Metrics) RecordPaymentEventPublished(status string) {
	m.paymentEventsPublished.WithLabelValues(status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
