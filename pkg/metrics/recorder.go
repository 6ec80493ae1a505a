package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Pricing metrics
	pricingCounter *prometheus.CounterVec
	pricingLatency *prometheus.HistogramVec

	// Scenario metrics
	scenarioCounter *prometheus.CounterVec
	scenarioLatency *prometheus.HistogramVec

	// Volatility metrics
	forwardVolIssues *prometheus.CounterVec

	// Worker metrics
	workerMessages *prometheus.CounterVec

	// System metrics
	memoryUsageGauge    prometheus.Gauge
	goroutineCountGauge prometheus.Gauge
}

// NewRecorder creates a recorder whose metrics are registered with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		// API metrics
		apiRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optlab_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optlab_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		// Pricing metrics
		pricingCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optlab_pricing_evaluations_total",
				Help: "The total number of option pricing evaluations",
			},
			[]string{"model", "type"},
		),
		pricingLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optlab_pricing_latency_seconds",
				Help:    "Option pricing latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // From 10us to ~2.6s
			},
			[]string{"model"},
		),

		// Scenario metrics
		scenarioCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optlab_scenario_grids_total",
				Help: "The total number of scenario grids built",
			},
			[]string{"strategy", "status"},
		),
		scenarioLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optlab_scenario_latency_seconds",
				Help:    "Scenario grid build latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // From 10ms to ~40s
			},
			[]string{"strategy"},
		),

		// Volatility metrics
		forwardVolIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optlab_forward_vol_data_quality_total",
				Help: "Forward volatilities that came out as NaN",
			},
			[]string{"side"},
		),

		// Worker metrics
		workerMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optlab_worker_messages_total",
				Help: "Scenario requests consumed by the worker",
			},
			[]string{"topic", "outcome"},
		),

		// System metrics
		memoryUsageGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "optlab_memory_usage_bytes",
				Help: "Memory usage of the application in bytes",
			},
		),
		goroutineCountGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "optlab_goroutine_count",
				Help: "Number of goroutines",
			},
		),
	}
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	if r == nil {
		return
	}
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordPricing records one model evaluation
func (r *Recorder) RecordPricing(model, optionType string, latency time.Duration) {
	if r == nil {
		return
	}
	r.pricingCounter.WithLabelValues(model, optionType).Inc()
	r.pricingLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordScenarioGrid records a finished grid build
func (r *Recorder) RecordScenarioGrid(strategy string, latency time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.scenarioCounter.WithLabelValues(strategy, status).Inc()
	r.scenarioLatency.WithLabelValues(strategy).Observe(latency.Seconds())
}

// RecordForwardVolIssues adds NaN forward vols for one side of the chain
func (r *Recorder) RecordForwardVolIssues(side string, count int) {
	if r == nil || count <= 0 {
		return
	}
	r.forwardVolIssues.WithLabelValues(side).Add(float64(count))
}

// RecordWorkerMessage records one consumed message and how it was handled
func (r *Recorder) RecordWorkerMessage(topic, outcome string) {
	if r == nil {
		return
	}
	r.workerMessages.WithLabelValues(topic, outcome).Inc()
}

// RecordMemoryUsage records the current memory usage
func (r *Recorder) RecordMemoryUsage(bytesUsed uint64) {
	if r == nil {
		return
	}
	r.memoryUsageGauge.Set(float64(bytesUsed))
}

// RecordGoroutineCount records the current number of goroutines
func (r *Recorder) RecordGoroutineCount(count int) {
	if r == nil {
		return
	}
	r.goroutineCountGauge.Set(float64(count))
}
