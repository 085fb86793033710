package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	require.NotNil(t, m.Registry())

	m.SetBuildInfo("v1", "abc", "now")
	m.SetCatalogSize("MYSTERY", 3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.buildInfo.WithLabelValues("v1", "abc", "now")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.catalog.WithLabelValues("MYSTERY")))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("svc")
	m.SetCatalogSize("SELF_HELP", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `svc_catalog_items{category="SELF_HELP"} 2`)
	assert.Contains(t, rec.Body.String(), "svc_start_time_seconds")
}
