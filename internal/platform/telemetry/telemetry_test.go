package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/db"
)

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/api/v1/patients/:id", func(c echo.Context) error {
		if c.Param("id") == "denied" {
			return apierror.NoAccessTo("patient")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "denied"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(p.requests.WithLabelValues("GET", "/api/v1/patients/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("GET", "/api/v1/patients/:id", "403")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.inFlight))
}

func TestObserveDecision(t *testing.T) {
	p := NewProvider()
	p.ObserveDecision("member", true)
	p.ObserveDecision("no_membership", false)
	p.ObserveDecision("no_membership", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("member", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.decisions.WithLabelValues("no_membership", "false")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	p := NewProvider()
	p.ObservePool(func() db.PoolStats { return db.PoolStats{TotalConns: 4, IdleConns: 3, AcquiredConns: 1, MaxConns: 10} })
	p.ObserveDecision("bypass", true)

	e := echo.New()
	e.GET("/metrics", p.Handler())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `emr_access_decisions_total{allowed="true",reason="bypass"} 1`)
	assert.Contains(t, body, "emr_db_pool_max_connections 10")
	assert.Contains(t, body, "emr_db_pool_acquired_connections 1")
}
