package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordAPIRequest("POST", "/api/v1/price", 200, 3*time.Millisecond)
	r.RecordAPIRequest("POST", "/api/v1/price", 200, 5*time.Millisecond)
	r.RecordPricing("binomial", "Put", time.Millisecond)
	r.RecordScenarioGrid("Long Straddle", 20*time.Millisecond, nil)
	r.RecordScenarioGrid("Long Straddle", 20*time.Millisecond, errors.New("leg failed"))
	r.RecordForwardVolIssues("Call", 2)
	r.RecordForwardVolIssues("Call", 0)
	r.RecordWorkerMessage("scenario.requests", "ok")
	r.RecordGoroutineCount(12)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.apiRequestCounter.WithLabelValues("POST", "/api/v1/price", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pricingCounter.WithLabelValues("binomial", "Put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scenarioCounter.WithLabelValues("Long Straddle", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scenarioCounter.WithLabelValues("Long Straddle", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.forwardVolIssues.WithLabelValues("Call")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.workerMessages.WithLabelValues("scenario.requests", "ok")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.goroutineCountGauge))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordAPIRequest("GET", "/health", 200, time.Millisecond)
		r.RecordPricing("black_scholes", "Call", time.Millisecond)
		r.RecordScenarioGrid("x", time.Millisecond, nil)
		r.RecordForwardVolIssues("Put", 1)
		r.RecordWorkerMessage("t", "failed")
		r.RecordMemoryUsage(1)
		r.RecordGoroutineCount(1)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.RecordWorkerMessage("scenario.requests", "invalid")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `optlab_worker_messages_total{outcome="invalid",topic="scenario.requests"} 1`)
}
