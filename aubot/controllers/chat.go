package controllers

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"aubot/aubot/config"
	"aubot/aubot/services/llm"
	"aubot/aubot/sources/memory"
	"aubot/aubot/sources/memory/models"
	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/lang"
	"aubot/aubot/utils/logging"
	"aubot/aubot/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSystemPrompt = `You are AnuragBot, the official and highly professional AI assistant for Anurag University in Telangana, India.
You provide accurate, up-to-date information about admissions, academic programs, campus facilities, and student life.
You respond in a polite, friendly, and conversational tone.
If asked about topics unrelated to Anurag University, politely redirect the conversation.`

	fallbackReply = "I apologize, but I could not generate a response. Please try again."
	filePrompt    = "Please analyze the attached file."

	maxTitleRunes = 50
)

type ChatOptions struct {
	SystemPrompt    string
	UpstreamTimeout time.Duration
	MaxUploadBytes  int64
	Temperature     float32
	MaxOutputTokens int
}

func ChatOptionsFromConfig(cfg config.Config) ChatOptions {
	return ChatOptions{
		SystemPrompt:    cfg.SystemPrompt,
		UpstreamTimeout: cfg.UpstreamTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

// ChatController sends conversations to the AI client and records the replies.
type ChatController struct {
	store   *memory.ConversationStore
	client  llm.Client
	archive AttachmentArchive
	opts    ChatOptions
}

// NewChatController wires the orchestrator. archive may be nil.
func NewChatController(store *memory.ConversationStore, client llm.Client, archive AttachmentArchive, opts ChatOptions) *ChatController {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = 60 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = 2048
	}
	return &ChatController{store: store, client: client, archive: archive, opts: opts}
}

// Chat validates the request, asks the AI client for a reply and stores the
// exchange. Nothing is written when validation or the upstream call fails.
func (c *ChatController) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	defer logging.LogDuration(ctx, "chat_controller_chat")()

	text := strings.TrimSpace(req.Message)
	if text == "" && req.File == nil {
		return nil, errs.Validation("message or file is required")
	}
	language, err := lang.Resolve(req.Language)
	if err != nil {
		return nil, err
	}
	attachment, err := validateAttachment(req.File, c.opts.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	var history []models.Message
	if req.ConversationID != "" {
		conv, err := c.store.Get(req.ConversationID)
		if err != nil {
			return nil, err
		}
		history = conv.Messages
	}

	msgs := historyToLLM(history)
	current := llm.Message{Role: models.RoleUser, Content: text}
	if attachment != nil {
		current.Attachment = &llm.Attachment{MIMEType: attachment.MIMEType, Data: attachment.Data}
		if current.Content == "" {
			current.Content = filePrompt
		}
	}
	msgs = append(msgs, current)

	reply, err := c.generate(ctx, language, msgs)
	if err != nil {
		return nil, err
	}

	convID := req.ConversationID
	if convID == "" {
		convID = c.store.Create(titleFrom(text, attachment)).ID
	}

	userMsg := models.Message{
		ID:         newMessageID(),
		Role:       models.RoleUser,
		Content:    text,
		Attachment: attachment,
	}
	c.archiveAttachment(ctx, convID, userMsg.ID, userMsg.Attachment)
	stored, err := c.store.AppendMessages(convID, userMsg, models.Message{Role: models.RoleAssistant, Content: reply})
	if err != nil {
		// the conversation was deleted while the AI call was in flight
		return nil, err
	}

	logging.AppLogger.Info("chat reply stored",
		zap.String("conversation_id", convID),
		zap.String("provider", c.client.Name()),
		zap.Bool("attachment", attachment != nil),
	)
	return &types.ChatResponse{
		Success:        true,
		Response:       stored[1].Content,
		ConversationID: convID,
		Sources:        []string{},
		UserMessage:    &stored[0],
		Reply:          stored[1],
	}, nil
}

// Regenerate asks for a new answer to the most recent user message. A trailing
// assistant reply is replaced in place; otherwise the reply is appended.
func (c *ChatController) Regenerate(ctx context.Context, req types.RegenerateRequest) (*types.ChatResponse, error) {
	defer logging.LogDuration(ctx, "chat_controller_regenerate")()

	if req.ConversationID == "" {
		return nil, errs.Validation("conversation_id is required")
	}
	language, err := lang.Resolve(req.Language)
	if err != nil {
		return nil, err
	}
	conv, err := c.store.Get(req.ConversationID)
	if err != nil {
		return nil, err
	}
	lastUser := conv.LastUserIndex()
	if lastUser < 0 {
		return nil, errs.Validation("conversation %s has no user message to answer", conv.ID)
	}

	prior := conv.Messages
	replaceID := ""
	if last := len(conv.Messages) - 1; conv.Messages[last].Role == models.RoleAssistant {
		prior = conv.Messages[:last]
		replaceID = conv.Messages[last].ID
	}

	msgs := historyToLLM(prior)
	if a := conv.Messages[lastUser].Attachment; a != nil && lastUser < len(prior) {
		data, err := c.loadAttachment(ctx, a)
		if err != nil {
			logging.ErrorLogger.Warn("attachment unavailable for regeneration, sending text only",
				zap.String("conversation_id", conv.ID),
				zap.String("attachment", a.Name),
				zap.Error(err),
			)
		} else {
			msgs[lastUser].Content = conv.Messages[lastUser].Content
			if msgs[lastUser].Content == "" {
				msgs[lastUser].Content = filePrompt
			}
			msgs[lastUser].Attachment = &llm.Attachment{MIMEType: a.MIMEType, Data: data}
		}
	}

	reply, err := c.generate(ctx, language, msgs)
	if err != nil {
		return nil, err
	}

	var stored models.Message
	if replaceID != "" {
		stored, err = c.store.ReplaceMessage(conv.ID, replaceID, reply)
	} else {
		var out []models.Message
		out, err = c.store.AppendMessages(conv.ID, models.Message{Role: models.RoleAssistant, Content: reply})
		if err == nil {
			stored = out[0]
		}
	}
	if err != nil {
		return nil, err
	}

	logging.AppLogger.Info("reply regenerated",
		zap.String("conversation_id", conv.ID),
		zap.Bool("replaced", replaceID != ""),
	)
	return &types.ChatResponse{
		Success:        true,
		Response:       stored.Content,
		ConversationID: conv.ID,
		Sources:        []string{},
		Reply:          stored,
	}, nil
}

// generate runs one bounded upstream call.
func (c *ChatController) generate(ctx context.Context, language string, msgs []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.UpstreamTimeout)
	defer cancel()

	reply, err := c.client.Run(ctx, llm.ChatRequest{
		System:   c.opts.SystemPrompt + "\nRespond entirely in " + language + ".",
		Messages: msgs,
		Options: llm.Options{
			Temperature:     c.opts.Temperature,
			MaxOutputTokens: c.opts.MaxOutputTokens,
		},
	})
	if err != nil {
		if errors.Is(err, llm.ErrUnsupportedAttachment) {
			return "", errs.Validation("%s: %v", c.client.Name(), err)
		}
		logging.ErrorLogger.Error("ai request failed",
			zap.String("provider", c.client.Name()),
			zap.Error(err),
		)
		return "", errs.Upstream(err)
	}
	if strings.TrimSpace(reply) == "" {
		return fallbackReply, nil
	}
	return reply, nil
}

// historyToLLM sends prior turns as text; only the newest user message carries
// its file.
func historyToLLM(history []models.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		content := m.Content
		if m.Attachment != nil {
			if content == "" {
				content = "[attached " + m.Attachment.Name + "]"
			} else {
				content += "\n[attached " + m.Attachment.Name + "]"
			}
		}
		out = append(out, llm.Message{Role: m.Role, Content: content})
	}
	return out
}

func newMessageID() string {
	return uuid.New().String()
}

func titleFrom(text string, a *models.Attachment) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if line == "" && a != nil {
		line = a.Name
	}
	if utf8.RuneCountInString(line) > maxTitleRunes {
		r := []rune(line)
		line = strings.TrimSpace(string(r[:maxTitleRunes])) + "..."
	}
	return line
}
