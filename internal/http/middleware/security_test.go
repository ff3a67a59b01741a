package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	h := w.Header()
	if got := h.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := h.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
	if got := h.Get("Referrer-Policy"); got != "no-referrer" {
		t.Fatalf("Referrer-Policy = %q", got)
	}
	if got := h.Get("Cache-Control"); got != "" {
		t.Fatalf("Cache-Control should be unset, got %q", got)
	}
	if got := h.Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS should be unset, got %q", got)
	}
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	r := securityRouter(SecurityOptions{NoStore: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	h := w.Header()
	if got := h.Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
	if got := h.Get("Pragma"); got != "no-cache" {
		t.Fatalf("Pragma = %q", got)
	}
	if got := h.Get("Expires"); got != "0" {
		t.Fatalf("Expires = %q", got)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	t.Run("plain HTTP never gets HSTS", func(t *testing.T) {
		r := securityRouter(SecurityOptions{EnableHSTS: true})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Fatalf("HSTS on plain HTTP: %q", got)
		}
	})

	t.Run("TLS request gets HSTS with custom max-age", func(t *testing.T) {
		maxAge := 24 * time.Hour
		r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: maxAge})

		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.TLS = &tls.ConnectionState{}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get("Strict-Transport-Security")
		want := "max-age=" + strconv.Itoa(int(maxAge.Seconds()))
		if !strings.HasPrefix(got, want) {
			t.Fatalf("HSTS = %q, want prefix %q", got, want)
		}
	})

	t.Run("X-Forwarded-Proto https counts as HTTPS, default max-age", func(t *testing.T) {
		r := securityRouter(SecurityOptions{EnableHSTS: true})

		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Forwarded-Proto", "HTTPS")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get("Strict-Transport-Security")
		want := "max-age=" + strconv.Itoa(int((180 * 24 * time.Hour).Seconds()))
		if !strings.HasPrefix(got, want) {
			t.Fatalf("HSTS = %q, want prefix %q", got, want)
		}
	})
}
