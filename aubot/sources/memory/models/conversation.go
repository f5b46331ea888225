package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultTitle = "New Conversation"
)

// Attachment describes a file sent with a user message. Data holds the payload
// while it lives in memory; Reference is the archive key once it was uploaded.
type Attachment struct {
	Name      string `json:"name" yaml:"name"`
	MIMEType  string `json:"type" yaml:"type"`
	Size      int64  `json:"size" yaml:"size"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Data      []byte `json:"-" yaml:"-"`
}

type Message struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"file,omitempty" yaml:"file,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Edited     bool        `json:"edited"`
	EditedAt   *time.Time  `json:"edited_at,omitempty" yaml:"edited_at,omitempty"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a copy that shares no mutable state with c. Attachment
// payloads are never mutated in place, so the byte slices are shared.
func (c *Conversation) Clone() Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.Clone()
	}
	return out
}

func (m Message) Clone() Message {
	if m.Attachment != nil {
		a := *m.Attachment
		m.Attachment = &a
	}
	if m.EditedAt != nil {
		t := *m.EditedAt
		m.EditedAt = &t
	}
	return m
}

// LastAssistantIndex returns the index of the most recent assistant message, or -1.
func (c *Conversation) LastAssistantIndex() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}

// LastUserIndex returns the index of the most recent user message, or -1.
func (c *Conversation) LastUserIndex() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}
