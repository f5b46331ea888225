package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"aubot/aubot/utils/logging"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient covers OpenAI and any OpenAI-compatible endpoint (OpenRouter, Groq, ...).
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai:" + c.model
}

func (c *OpenAIClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "openai_service_run")()

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		om, err := toOpenAIMessage(m)
		if err != nil {
			return "", err
		}
		msgs = append(msgs, om)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessage(m Message) (openai.ChatCompletionMessage, error) {
	role := openai.ChatMessageRoleUser
	if m.Role == "assistant" {
		role = openai.ChatMessageRoleAssistant
	}
	if m.Attachment == nil || len(m.Attachment.Data) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: m.Content}, nil
	}
	if !isImage(m.Attachment.MIMEType) {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, m.Attachment.MIMEType)
	}
	// Content and MultiContent are mutually exclusive in the SDK.
	var parts []openai.ChatMessagePart
	if m.Content != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: m.Content})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    "data:" + m.Attachment.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Attachment.Data),
			Detail: openai.ImageURLDetailAuto,
		},
	})
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}, nil
}
