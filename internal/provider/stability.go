// Package provider – Stability img2img adapter.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-image-relay/internal/config"
)

// stabilityTimeout bounds one img2img call.
const stabilityTimeout = 180 * time.Second

// stabilityBaseURL is the v1 generation endpoint root. Overridable for tests.
const stabilityBaseURL = "https://api.stability.ai"

// Stability generates images via the SDXL v1 image-to-image endpoint: the
// reference image is sent as the init image and the prompt as a single
// weighted text term. Strength, guidance scale and step count come from
// configuration; a seed is passed through only when configured.
type Stability struct {
	cfg config.StabilityConfig

	// BaseURL may be replaced in tests; defaults to the public endpoint.
	BaseURL string
	// HTTPClient may be replaced in tests; defaults to a client with
	// stabilityTimeout.
	HTTPClient *http.Client
}

// NewStability constructs the adapter from validated configuration.
func NewStability(cfg config.StabilityConfig) *Stability {
	return &Stability{
		cfg:        cfg,
		BaseURL:    stabilityBaseURL,
		HTTPClient: newHTTPClient(stabilityTimeout),
	}
}

// stabilityResponse is the JSON success shape: a list of generated artifacts.
type stabilityResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

// Generate implements Generator.
//
// The form deliberately omits output_format (rejected with 400 by some
// gateways). The response branches on the declared content type: JSON with
// base64 artifacts is preferred, a raw image body is returned verbatim, and
// anything else is an unrecognized payload.
func (s *Stability) Generate(ctx context.Context, prompt string, refPNG []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := writeImagePart(mw, "init_image", "ref.png", refPNG); err != nil {
		return nil, newError(KindEmpty, "build request: %v", err)
	}

	fields := map[string]string{
		"text_prompts[0][text]":   prompt,
		"text_prompts[0][weight]": "1",
		"image_strength":          strconv.FormatFloat(s.cfg.Strength, 'f', -1, 64),
		"cfg_scale":               strconv.Itoa(s.cfg.CFGScale),
		"steps":                   strconv.Itoa(s.cfg.Steps),
		"samples":                 "1",
	}
	if s.cfg.Seed != "" {
		fields["seed"] = s.cfg.Seed
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, newError(KindEmpty, "build request: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, newError(KindEmpty, "build request: %v", err)
	}

	url := s.BaseURL + "/v1/generation/" + s.cfg.Engine + "/image-to-image"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, newError(KindHTTP, "build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, newError(KindHTTP, "stability request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindHTTP, "stability read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindHTTP, "stability error %d: %s", resp.StatusCode, string(raw))
	}

	ctype := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(ctype, "application/json"):
		var parsed stabilityResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, newError(KindEmpty, "stability malformed json: %v", err)
		}
		if len(parsed.Artifacts) == 0 || parsed.Artifacts[0].Base64 == "" {
			return nil, newError(KindEmpty, "no image in stability response")
		}
		img, err := base64.StdEncoding.DecodeString(parsed.Artifacts[0].Base64)
		if err != nil {
			return nil, newError(KindEmpty, "stability base64 decode: %v", err)
		}
		return img, nil

	case strings.HasPrefix(ctype, "image/"):
		// Some gateway variants return the image body directly.
		return raw, nil

	default:
		return nil, newError(KindUnrecognized, "unrecognized stability response type: %s", ctype)
	}
}
