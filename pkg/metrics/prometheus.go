package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the Prometheus collectors for provider calls
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec

	TokensInputTotal  *prometheus.CounterVec
	TokensOutputTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memllm_requests_total",
				Help: "Total number of provider requests",
			},
			[]string{"provider", "model", "operation", "status"},
		),

		LatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "memllm_latency_seconds",
				Help:    "Provider request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "operation"},
		),

		TokensInputTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memllm_tokens_input_total",
				Help: "Total number of input tokens sent to providers",
			},
			[]string{"provider", "model"},
		),

		TokensOutputTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memllm_tokens_output_total",
				Help: "Total number of output tokens generated by providers",
			},
			[]string{"provider", "model"},
		),
	}
}

// RecordRequest records the outcome and latency of one provider call.
// Safe to call on a nil receiver.
func (m *Metrics) RecordRequest(provider, model, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.RequestsTotal.WithLabelValues(provider, model, operation, status).Inc()
	m.LatencyHistogram.WithLabelValues(provider, model, operation).Observe(duration.Seconds())
}

// RecordTokens records token metrics. Safe to call on a nil receiver.
func (m *Metrics) RecordTokens(provider, model string, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	if inputTokens > 0 {
		m.TokensInputTotal.WithLabelValues(provider, model).Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.TokensOutputTotal.WithLabelValues(provider, model).Add(float64(outputTokens))
	}
}
