// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the webhook shared-secret gate. Telegram echoes the
// secret configured at setWebhook time back on every delivery via the
// X-Telegram-Bot-Api-Secret-Token header; requests missing or mismatching the
// secret are rejected before the update body is ever parsed.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-relay/internal/telegram"
)

// WebhookSecret returns a Gin middleware that rejects requests whose
// X-Telegram-Bot-Api-Secret-Token header does not match secret.
//
// The comparison is constant-time. A 403 response carries no detail about
// which part of the check failed. When secret is empty the gate is a no-op,
// which supports local development against a tunnel without a configured
// secret.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(telegram.SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			LoggerFrom(c).Warn().Msg("webhook secret mismatch")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "forbidden",
				"message": "invalid webhook secret",
			})
			return
		}
		c.Next()
	}
}
