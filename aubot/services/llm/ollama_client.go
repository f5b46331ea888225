package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	httputils "aubot/aubot/utils/http"
	"aubot/aubot/utils/logging"
)

type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

// Images are base64 encoded by encoding/json.
type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  [][]byte `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (c *OllamaClient) Name() string {
	return "ollama:" + c.model
}

func (c *OllamaClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "ollama_service_run")()

	oreq := ollamaChatRequest{
		Model:  c.model,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Options.Temperature,
			NumPredict:  req.Options.MaxOutputTokens,
		},
	}
	if req.System != "" {
		oreq.Messages = append(oreq.Messages, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		om := ollamaMessage{Role: m.Role, Content: m.Content}
		if m.Attachment != nil && len(m.Attachment.Data) > 0 {
			if !isImage(m.Attachment.MIMEType) {
				return "", fmt.Errorf("%w: %s", ErrUnsupportedAttachment, m.Attachment.MIMEType)
			}
			om.Images = [][]byte{m.Attachment.Data}
		}
		oreq.Messages = append(oreq.Messages, om)
	}

	var resp ollamaChatResponse
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat", nil, oreq, &resp); err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	return resp.Message.Content, nil
}
