// Webhook HTTP handler.
//
// This file exposes the single inbound endpoint of the service:
//   - POST /<webhook path>  (receive a Telegram update)
//
// The handler is transport-thin: it decodes the update envelope, delegates to
// the pipeline, and acknowledges with 200 so Telegram does not redeliver.
// Processing outcomes (denied, duplicate, provider failure) are communicated
// to the end user through bot replies, never through the HTTP status.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-relay/internal/http/middleware"
	"github.com/tbourn/go-image-relay/internal/telegram"
)

// UpdatePipeline consumes decoded Telegram updates. Implemented by
// services.PipelineService.
type UpdatePipeline interface {
	HandleUpdate(ctx context.Context, upd telegram.Update)
}

// Handler bundles the dependencies of the webhook endpoints.
type Handler struct {
	Pipeline UpdatePipeline
}

// New constructs a Handler around the given update pipeline.
func New(pipeline UpdatePipeline) *Handler {
	return &Handler{Pipeline: pipeline}
}

// Webhook handles POST /<webhook path>.
//
// Malformed JSON yields 400; everything else yields 200 {"status":"ok"} once
// the update has been processed. The pipeline runs synchronously on the
// request context: generation can take minutes, and if Telegram gives up and
// redelivers the update, the dedup window discards the replay.
func (h *Handler) Webhook(c *gin.Context) {
	var upd telegram.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("malformed update payload")
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed update payload")
		return
	}

	h.Pipeline.HandleUpdate(c.Request.Context(), upd)

	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
