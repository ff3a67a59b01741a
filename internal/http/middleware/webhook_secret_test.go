package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-relay/internal/telegram"
)

func webhookRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WebhookSecret(secret))
	r.POST("/hook", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestWebhookSecret(t *testing.T) {
	t.Run("matching secret passes", func(t *testing.T) {
		r := webhookRouter("s3cret")
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		req.Header.Set(telegram.SecretTokenHeader, "s3cret")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		r := webhookRouter("s3cret")
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		req.Header.Set(telegram.SecretTokenHeader, "nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
		if !strings.Contains(w.Body.String(), "forbidden") {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		r := webhookRouter("s3cret")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
	})

	t.Run("empty secret disables the gate", func(t *testing.T) {
		r := webhookRouter("")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})
}
