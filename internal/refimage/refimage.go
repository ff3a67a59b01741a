// Package refimage loads the fixed reference image every generation is
// conditioned on. The source is a local path (preferred) or a URL; whatever
// format arrives is decoded and re-encoded as PNG so downstream adapters can
// rely on one content type. Loading happens once at startup; the returned
// bytes are shared read-only by all requests.
package refimage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"time"

	// Accept the common source formats.
	_ "image/gif"
	_ "image/jpeg"
)

// ErrNoSource is returned when neither a path nor a URL is configured.
var ErrNoSource = errors.New("refimage: set a reference image path or URL")

// downloadTimeout bounds the one-time URL fetch at startup.
const downloadTimeout = 60 * time.Second

// Load returns the reference image as PNG bytes. A non-empty path wins over
// a URL.
func Load(ctx context.Context, path, url string) ([]byte, error) {
	switch {
	case path != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("refimage: open local image: %w", err)
		}
		return toPNG(raw)
	case url != "":
		raw, err := download(ctx, url)
		if err != nil {
			return nil, err
		}
		return toPNG(raw)
	default:
		return nil, ErrNoSource
	}
}

func download(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("refimage: build download: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refimage: download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refimage: download image: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("refimage: read download: %w", err)
	}
	return raw, nil
}

// toPNG decodes raw image bytes and re-encodes them as PNG.
func toPNG(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("refimage: decode image: %w", err)
	}
	out := &bytes.Buffer{}
	if err := png.Encode(out, img); err != nil {
		return nil, fmt.Errorf("refimage: encode png: %w", err)
	}
	return out.Bytes(), nil
}
