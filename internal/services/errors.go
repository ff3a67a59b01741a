// Package services implements the business logic of the relay: dispatching
// generation requests to the configured provider and running the per-message
// request pipeline. This file centralizes service-level error values and the
// classification of provider failures into user-facing outcomes.
//
// Raw provider errors (status codes, vendor bodies) are logged, never shown
// to the requester; the pipeline maps every failure to one of exactly two
// notices (content-restricted or generic transient failure).
package services

import (
	"errors"
	"strings"
)

// ErrNoPrompt is returned when a generation request carries an empty prompt.
var ErrNoPrompt = errors.New("prompt is empty")

// restrictedMarkers are substrings of vendor error text that indicate the
// request was refused on content grounds rather than failing transiently.
// Keyword sniffing is brittle; neither vendor exposes a structured moderation
// flag on these endpoints today, so this stays isolated here until one does.
var restrictedMarkers = []string{"moderation", "safety", "rejected"}

// IsContentRestricted reports whether a provider error message describes a
// moderation/safety refusal.
func IsContentRestricted(errText string) bool {
	lower := strings.ToLower(errText)
	for _, m := range restrictedMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
