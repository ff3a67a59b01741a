// Package services – GenerationService.
//
// The dispatcher owns the provider boundary: it applies the global
// prompt-prefix policy, delegates to the one adapter selected at startup,
// and instruments every call. Provider errors pass through unchanged in the
// uniform provider.Error shape; interpretation happens in the pipeline.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/tbourn/go-image-relay/internal/provider"
)

// GenerationService dispatches prompts to the configured image provider,
// conditioning every request on the fixed reference image loaded at startup.
type GenerationService struct {
	// Provider is the adapter selected for the process lifetime.
	Provider provider.Generator
	// ProviderName labels metrics; one of the config.Provider* values.
	ProviderName string
	// PromptPrefix, when non-empty, is prepended to every user prompt.
	PromptPrefix string
	// RefPNG is the immutable reference image, shared by all requests.
	RefPNG []byte
}

// Generate produces image bytes for the given user prompt. The prompt must
// be non-empty after trimming; callers enforce that before dispatching.
func (s *GenerationService) Generate(ctx context.Context, prompt string) ([]byte, error) {
	full := s.fullPrompt(prompt)

	start := time.Now()
	out, err := s.Provider.Generate(ctx, full, s.RefPNG)
	providerLatency.WithLabelValues(s.ProviderName).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if pe, ok := provider.AsError(err); ok {
			outcome = string(pe.Kind)
		}
		providerCalls.WithLabelValues(s.ProviderName, outcome).Inc()
		return nil, err
	}
	providerCalls.WithLabelValues(s.ProviderName, "ok").Inc()
	return out, nil
}

// RefLoaded reports whether the reference image is available.
func (s *GenerationService) RefLoaded() bool { return len(s.RefPNG) > 0 }

// fullPrompt applies the prefix policy: a configured prefix is joined to the
// prompt with a single space; without one the prompt passes through as-is.
func (s *GenerationService) fullPrompt(prompt string) string {
	if s.PromptPrefix != "" {
		return strings.TrimSpace(s.PromptPrefix + " " + prompt)
	}
	return prompt
}
