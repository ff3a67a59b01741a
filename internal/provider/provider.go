// Package provider abstracts external image-generation vendors behind one
// capability: submit a prompt plus a reference image, get image bytes back.
//
// Two adapters conform to the contract: an OpenAI-style image-edit endpoint
// and a Stability-style img2img endpoint. Their request encodings and
// response shapes differ structurally; each adapter normalizes its vendor's
// failures into the shared Error taxonomy so callers never branch on vendor
// specifics.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/tbourn/go-image-relay/internal/config"
)

// Generator produces an image conditioned on a prompt and a fixed reference
// image (PNG bytes). Implementations perform one blocking network call with
// a bounded timeout and return the result as PNG/image bytes, or an *Error.
type Generator interface {
	Generate(ctx context.Context, prompt string, refPNG []byte) ([]byte, error)
}

// FromConfig returns the adapter selected by cfg.Provider. The selection is
// made once at startup; callers hold the returned Generator for the process
// lifetime. cfg is assumed validated (config.Load rejects unknown providers).
func FromConfig(cfg config.Config) Generator {
	if cfg.Provider == config.ProviderStability {
		return NewStability(cfg.Stability)
	}
	return NewOpenAI(cfg.OpenAI)
}

// newHTTPClient returns the default client used by adapters. Generation is
// slow; the timeout is per-provider and generous by design of the upstream
// APIs.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
