package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())

	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "hello")
	})

	// Baselines before we hit the routes (other tests share the registry).
	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))

	// Registered route: path label is the route pattern.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /ok -> %d", w.Code)
	}

	// Missing route: no match, path label falls back to the raw URL path.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("GET /does-not-exist -> %d", w2.Code)
	}

	gotOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200"))
	if gotOK != baseOK+1 {
		t.Fatalf("requests_total{/ok,200} = %v, want %v", gotOK, baseOK+1)
	}
	got404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))
	if got404 != base404+1 {
		t.Fatalf("requests_total{/does-not-exist,404} = %v, want %v", got404, base404+1)
	}
}

func TestMetrics_InflightReturnsToZeroDelta(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())

	seen := make(chan float64, 1)
	r.GET("/slow", func(c *gin.Context) {
		seen <- testutil.ToFloat64(httpInflight)
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpInflight)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/slow", nil)
	r.ServeHTTP(w, req)

	during := <-seen
	if during != before+1 {
		t.Fatalf("inflight during request = %v, want %v", during, before+1)
	}
	after := testutil.ToFloat64(httpInflight)
	if after != before {
		t.Fatalf("inflight after request = %v, want %v", after, before)
	}
}
