package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter reads one counter sample from the registry.
func counter(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCounters(t *testing.T) {
	m := New()

	m.UseCase("SearchTagsByName", "ok", 10*time.Millisecond)
	m.UseCase("SearchTagsByName", "validationFailed", time.Millisecond)
	m.UseCase("SearchTagsByName", "ok", time.Millisecond)
	m.RepositoryError("networkError")
	m.CacheLookup("tags", true)
	m.CacheLookup("tags", false)
	m.Job("refresh-popular", time.Second, errors.New("x"))

	assert.Equal(t, 2.0, counter(t, m, "nimli_usecase_requests_total", map[string]string{"usecase": "SearchTagsByName", "outcome": "ok"}))
	assert.Equal(t, 1.0, counter(t, m, "nimli_repository_errors_total", map[string]string{"kind": "networkError"}))
	assert.Equal(t, 1.0, counter(t, m, "nimli_popular_cache_lookups_total", map[string]string{"list": "tags", "result": "hit"}))
	assert.Equal(t, 1.0, counter(t, m, "nimli_job_runs_total", map[string]string{"job": "refresh-popular", "outcome": "error"}))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RepositoryError("notFound")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `nimli_repository_errors_total{kind="notFound"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UseCase("x", "ok", 0)
		m.RepositoryError("x")
		m.CacheLookup("x", true)
		m.Job("x", 0, nil)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
