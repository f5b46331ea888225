package controllers

import (
	"context"
	"strings"

	"aubot/aubot/sources/memory"
	"aubot/aubot/sources/memory/models"
	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/logging"

	"go.uber.org/zap"
)

type ConversationController struct {
	store *memory.ConversationStore
}

func NewConversationController(store *memory.ConversationStore) *ConversationController {
	return &ConversationController{store: store}
}

func (c *ConversationController) ListConversations(ctx context.Context) []models.Conversation {
	return c.store.List()
}

func (c *ConversationController) CreateConversation(ctx context.Context, title string) models.Conversation {
	conv := c.store.Create(title)
	logging.AppLogger.Info("conversation created", zap.String("conversation_id", conv.ID))
	return conv
}

func (c *ConversationController) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	return c.store.Get(id)
}

func (c *ConversationController) RenameConversation(ctx context.Context, id, title string) (models.Conversation, error) {
	return c.store.Rename(id, title)
}

func (c *ConversationController) DeleteConversation(ctx context.Context, id string) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	logging.AppLogger.Info("conversation deleted", zap.String("conversation_id", id))
	return nil
}

// EditMessage requires the new content to be present and non-blank.
func (c *ConversationController) EditMessage(ctx context.Context, convID, msgID string, content *string) (models.Message, error) {
	if content == nil || strings.TrimSpace(*content) == "" {
		return models.Message{}, errs.Validation("content is required")
	}
	return c.store.EditMessage(convID, msgID, *content)
}

func (c *ConversationController) DeleteMessage(ctx context.Context, convID, msgID string) error {
	return c.store.DeleteMessage(convID, msgID)
}
