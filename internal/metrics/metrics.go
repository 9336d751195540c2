// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the workflow counters. A nil *Metrics is valid and records
// nothing, which keeps services usable in tests without a registry.
type Metrics struct {
	Transitions          *prometheus.CounterVec
	TransitionRejections *prometheus.CounterVec
	RuleFailures         *prometheus.CounterVec
	Payments             *prometheus.CounterVec
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. Passing nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evisa_transitions_total",
			Help: "Committed application status transitions",
		}, []string{"from", "to"}),
		TransitionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evisa_transition_rejections_total",
			Help: "Transition attempts refused by the transition table",
		}, []string{"from", "to"}),
		RuleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evisa_rule_failures_total",
			Help: "Rule engine failures recorded during pre-screening, by failure code",
		}, []string{"code"}),
		Payments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evisa_payments_total",
			Help: "Payment gate operations by outcome",
		}, []string{"outcome"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evisa_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evisa_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: gatherer,
	}
}

func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordTransitionRejected(from, to string) {
	if m == nil {
		return
	}
	m.TransitionRejections.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordRuleFailures(codes []string) {
	if m == nil {
		return
	}
	for _, code := range codes {
		m.RuleFailures.WithLabelValues(code).Inc()
	}
}

// Payment outcomes.
const (
	PaymentCreated   = "created"
	PaymentConfirmed = "confirmed"
	PaymentRejected  = "rejected"
	PaymentIssued    = "issued"
)

func (m *Metrics) RecordPayment(outcome string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// Handler serves the registry the metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
