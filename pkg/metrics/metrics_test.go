package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver(t *testing.T) {
	r := New()

	r.StageCompleted("plan", false)
	r.StageCompleted("plan", true)
	r.StageCompleted("plan", true)
	r.ProviderCalled("search", "search", errors.New("boom"))
	r.ProviderCalled("model", "plan", nil)
	r.PipelineCompleted(1500 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.StageCount.WithLabelValues("plan", OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.StageCount.WithLabelValues("plan", OutcomeDegraded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ProviderCalls.WithLabelValues("search", "search", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ProviderCalls.WithLabelValues("model", "plan", OutcomeOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.PipelineDuration))
}

func TestObserveRequest(t *testing.T) {
	r := New()
	r.ObserveRequest(http.MethodPost, "/api/chat", http.StatusOK, 20*time.Millisecond)
	r.ObserveRequest(http.MethodPost, "/api/chat", http.StatusOK, 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RequestCount.WithLabelValues(http.MethodPost, "/api/chat", "200")))
}

func TestHandler(t *testing.T) {
	r := New()
	r.StageCompleted("evaluate", false)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `greenie_stage_total{outcome="ok",stage="evaluate"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
