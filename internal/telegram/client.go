package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// UploadPhotoAction is the chat action shown while a photo reply is prepared.
const UploadPhotoAction = "upload_photo"

// clientTimeout bounds one Bot API call. Photo uploads dominate; text calls
// finish well inside it.
const clientTimeout = 90 * time.Second

// Sender is the outbound reply surface the pipeline depends on. The concrete
// Client implements it; tests substitute a recorder.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// Client is a thin Bot API HTTP client.
type Client struct {
	token string

	// BaseURL may be replaced in tests; defaults to the public Bot API.
	BaseURL string
	// HTTPClient may be replaced in tests.
	HTTPClient *http.Client
}

// NewClient returns a Client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		BaseURL:    "https://api.telegram.org",
		HTTPClient: &http.Client{Timeout: clientTimeout},
	}
}

// apiResponse is the Bot API envelope; Result is ignored.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) methodURL(method string) string {
	return c.BaseURL + "/bot" + c.token + "/" + method
}

// postJSON issues one Bot API call with a JSON body and checks the envelope.
func (c *Client) postJSON(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encode: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: read response: %w", method, err)
	}
	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("telegram %s: status %d, malformed response", method, resp.StatusCode)
	}
	if !env.OK {
		return fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode, env.Description)
	}
	return nil
}

// SendMessage sends a plain-text reply with link previews disabled.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.postJSON(ctx, "sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
}

// SendChatAction signals an ongoing activity (e.g. UploadPhotoAction).
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.postJSON(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  action,
	})
}

// SendPhoto uploads photo bytes as a multipart form with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return fmt.Errorf("telegram sendPhoto: %w", err)
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), body)
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, "sendPhoto")
}

// SetWebhook registers the webhook URL with the shared secret, optionally
// discarding updates queued while the service was down.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string, dropPending bool) error {
	return c.postJSON(ctx, "setWebhook", map[string]any{
		"url":                  url,
		"secret_token":         secretToken,
		"drop_pending_updates": dropPending,
	})
}
