// Package memory keeps conversations in process memory. Nothing survives a restart.
package memory

import (
	"strings"
	"sync"
	"time"

	"aubot/aubot/sources/memory/models"
	"aubot/aubot/utils/errs"

	"github.com/google/uuid"
)

// ConversationStore owns every conversation. List returns them in insertion order.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	order         []string
	now           func() time.Time
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*models.Conversation),
		now:           time.Now,
	}
}

func (s *ConversationStore) Create(title string) models.Conversation {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultTitle
	}
	now := s.now()
	conv := &models.Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
	s.order = append(s.order, conv.ID)
	return conv.Clone()
}

func (s *ConversationStore) List() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.conversations[id].Clone())
	}
	return out
}

func (s *ConversationStore) Get(id string) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, errs.NotFound("conversation %s", id)
	}
	return conv.Clone(), nil
}

func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return errs.NotFound("conversation %s", id)
	}
	delete(s.conversations, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ConversationStore) Rename(id, title string) (models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Conversation{}, errs.Validation("title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, errs.NotFound("conversation %s", id)
	}
	conv.Title = title
	conv.UpdatedAt = s.now()
	return conv.Clone(), nil
}

func (s *ConversationStore) AppendMessage(convID string, msg models.Message) (models.Message, error) {
	out, err := s.AppendMessages(convID, msg)
	if err != nil {
		return models.Message{}, err
	}
	return out[0], nil
}

// AppendMessages appends all messages under one lock, so concurrent writers
// never interleave between them. Empty ids and timestamps are filled in.
func (s *ConversationStore) AppendMessages(convID string, msgs ...models.Message) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[convID]
	if !ok {
		return nil, errs.NotFound("conversation %s", convID)
	}
	now := s.now()
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		m = m.Clone()
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		conv.Messages = append(conv.Messages, m)
		out = append(out, m.Clone())
	}
	conv.UpdatedAt = now
	return out, nil
}

// EditMessage replaces a message's content and marks it edited. Id and
// position are preserved.
func (s *ConversationStore) EditMessage(convID, msgID, content string) (models.Message, error) {
	return s.update(convID, msgID, func(m *models.Message, now time.Time) {
		m.Content = content
		m.Edited = true
		m.EditedAt = &now
	})
}

// ReplaceMessage stores a regenerated reply in place of an existing message.
func (s *ConversationStore) ReplaceMessage(convID, msgID, content string) (models.Message, error) {
	return s.update(convID, msgID, func(m *models.Message, now time.Time) {
		m.Content = content
		m.Timestamp = now
		m.Edited = false
		m.EditedAt = nil
	})
}

func (s *ConversationStore) DeleteMessage(convID, msgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[convID]
	if !ok {
		return errs.NotFound("conversation %s", convID)
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == msgID {
			conv.Messages = append(conv.Messages[:i], conv.Messages[i+1:]...)
			conv.UpdatedAt = s.now()
			return nil
		}
	}
	return errs.NotFound("message %s in conversation %s", msgID, convID)
}

func (s *ConversationStore) update(convID, msgID string, fn func(*models.Message, time.Time)) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[convID]
	if !ok {
		return models.Message{}, errs.NotFound("conversation %s", convID)
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == msgID {
			now := s.now()
			fn(&conv.Messages[i], now)
			conv.UpdatedAt = now
			return conv.Messages[i].Clone(), nil
		}
	}
	return models.Message{}, errs.NotFound("message %s in conversation %s", msgID, convID)
}
