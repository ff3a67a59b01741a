// Package provider – OpenAI-style image-edit adapter.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-image-relay/internal/config"
)

// openAITimeout bounds one edit call including response download.
const openAITimeout = 120 * time.Second

// OpenAI generates images via the Images "edits" endpoint: the reference
// image is sent as the base image, the prompt drives the edit, and an
// optional local mask PNG (opaque = keep, transparent = editable) constrains
// it. Exactly one candidate is requested so results stay reproducible.
type OpenAI struct {
	cfg config.OpenAIConfig

	// HTTPClient may be replaced in tests; defaults to a client with
	// openAITimeout.
	HTTPClient *http.Client
}

// NewOpenAI constructs the adapter from validated configuration.
func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	return &OpenAI{cfg: cfg, HTTPClient: newHTTPClient(openAITimeout)}
}

// openAIEditResponse is the subset of the edits response we consume.
type openAIEditResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// Generate implements Generator.
//
// The multipart form deliberately omits response_format: some gateways
// reject the parameter, and both payload shapes (inline base64 and temporary
// URL) are handled on the way back. Base64 is preferred; a URL triggers a
// secondary GET.
func (o *OpenAI) Generate(ctx context.Context, prompt string, refPNG []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := writeImagePart(mw, "image", "ref.png", refPNG); err != nil {
		return nil, newError(KindEmpty, "build request: %v", err)
	}
	if o.cfg.MaskPath != "" {
		if mask, err := os.ReadFile(o.cfg.MaskPath); err == nil {
			// Mask failures are non-fatal; the edit proceeds unmasked.
			if werr := writeImagePart(mw, "mask", "mask.png", mask); werr != nil {
				log.Warn().Err(werr).Str("mask_path", o.cfg.MaskPath).Msg("skipping mask part")
			}
		} else {
			log.Warn().Err(err).Str("mask_path", o.cfg.MaskPath).Msg("mask unreadable, proceeding without it")
		}
	}

	fields := map[string]string{
		"model":  o.cfg.Model,
		"prompt": prompt,
		"size":   o.cfg.Size,
		"n":      "1",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, newError(KindEmpty, "build request: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, newError(KindEmpty, "build request: %v", err)
	}

	url := o.cfg.BaseURL + "/images/edits"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, newError(KindHTTP, "build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, newError(KindHTTP, "openai request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindHTTP, "openai read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindHTTP, "openai error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed openAIEditResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, newError(KindEmpty, "openai malformed json: %v", err)
	}
	if len(parsed.Data) == 0 {
		return nil, newError(KindEmpty, "openai returned no data")
	}
	first := parsed.Data[0]

	// Prefer inline base64 over a temporary URL.
	if first.B64JSON != "" {
		img, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, newError(KindEmpty, "openai base64 decode: %v", err)
		}
		return img, nil
	}
	if first.URL != "" {
		return o.fetchURL(ctx, first.URL)
	}
	return nil, newError(KindEmpty, "no image payload in openai response (no b64_json or url)")
}

// fetchURL downloads the generated image from a temporary result URL.
func (o *OpenAI) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(KindFetch, "build image fetch: %v", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, newError(KindFetch, "fetch openai image url: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindFetch, "fetch openai image url: status %d", resp.StatusCode)
	}
	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindFetch, "read openai image url body: %v", err)
	}
	return img, nil
}

// writeImagePart adds a PNG file part with an explicit image/png content type
// (CreateFormFile would label it application/octet-stream).
func writeImagePart(mw *multipart.Writer, field, filename string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
