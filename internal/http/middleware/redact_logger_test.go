package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-image-relay/internal/telegram"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestRedactingLogger_MasksSecretHeaderAndToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// Simulate upstream RequestID middleware that sets the response header.
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))

	r.POST("/hook/:secret", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token := "123456789:AAEabcdefghijklmnopqrstuvwxyz012345"
	req := httptest.NewRequest(http.MethodPost, "/hook/"+token+"?t="+token, nil)
	req.Header.Set(telegram.SecretTokenHeader, "super-secret-value")
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("X-Api-Key", "key-123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, token) {
		t.Fatalf("bot token leaked into log: %s", out)
	}
	if strings.Contains(out, "super-secret-value") || strings.Contains(out, "Bearer abc") || strings.Contains(out, "key-123") {
		t.Fatalf("masked header value leaked into log: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected [REDACTED] marker in log: %s", out)
	}
	if !strings.Contains(out, `"request_id":"rid-resp"`) {
		t.Fatalf("expected request_id in log: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("expected info level for 200: %s", out)
	}
}

func TestRedactingLogger_RedactsOpaquePathSegments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)
	r.Use(RedactingLogger(RedactOptions{}))

	// No matching route: the raw URL path is logged, scrubbed.
	secret := strings.Repeat("s3cr3tSEG", 4) // 36 chars
	req := httptest.NewRequest(http.MethodGet, "/webhook/"+secret, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, secret) {
		t.Fatalf("opaque path segment leaked into log: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:secret]") {
		t.Fatalf("expected redacted path marker: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected warn level for 404: %s", out)
	}
}

func TestRedactingLogger_ErrorLevelFor5xx(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if out := buf.String(); !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("expected error level for 500: %s", out)
	}
}
