package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("test", nil)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusForbidden) })

	for _, path := range []string{"/ok", "/ok", "/fail", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorCounter.WithLabelValues("GET", "/fail", "403")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorCounter.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("test", nil)
	m.TenantsCreated.Inc()

	router := gin.New()
	router.GET("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_tenants_created_total 1"))
}
