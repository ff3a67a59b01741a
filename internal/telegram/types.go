// Package telegram provides the minimal Bot API surface this service needs:
// the webhook update model on the way in, and a thin HTTP client for replies
// and webhook registration on the way out. It deliberately covers only the
// fields and methods the pipeline consumes.
package telegram

// Chat types as reported by the Bot API.
const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

// SecretTokenHeader carries the shared webhook secret on every delivery.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Update is one webhook delivery. Only message updates are handled; other
// update kinds decode with a nil Message and are ignored upstream.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User is the sender of a message.
type User struct {
	ID int64 `json:"id"`
}

// Chat is the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// IsPrivate reports whether the chat is a one-to-one conversation.
func (c Chat) IsPrivate() bool { return c.Type == ChatTypePrivate }

// IsGroup reports whether the chat is a group or supergroup.
func (c Chat) IsGroup() bool {
	return c.Type == ChatTypeGroup || c.Type == ChatTypeSupergroup
}
