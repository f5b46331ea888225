package llm

import (
	"context"
	"errors"
)

// ErrUnsupportedAttachment is returned when a provider cannot accept the
// attachment's MIME type.
var ErrUnsupportedAttachment = errors.New("attachment type not supported by provider")

// Client generates one reply for a conversation.
type Client interface {
	Run(ctx context.Context, req ChatRequest) (string, error)
	Name() string
}

type ChatRequest struct {
	System   string
	Messages []Message
	Options  Options
}

type Options struct {
	Temperature     float32
	MaxOutputTokens int
}

type Message struct {
	Role       string // "user" or "assistant"
	Content    string
	Attachment *Attachment
}

type Attachment struct {
	MIMEType string
	Data     []byte
}

func isImage(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}
