package types

import "aubot/aubot/sources/memory/models"

// FileUpload is a file as received from the client, before validation.
// In JSON bodies Data is base64.
type FileUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Data        []byte `json:"data"`
}

type ChatRequest struct {
	ConversationID string      `json:"conversation_id,omitempty"`
	Message        string      `json:"message"`
	Language       string      `json:"language,omitempty"`
	File           *FileUpload `json:"file,omitempty"`
}

type ChatResponse struct {
	Success        bool            `json:"success"`
	Response       string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	Sources        []string        `json:"sources"`
	UserMessage    *models.Message `json:"user_message,omitempty"`
	Reply          models.Message  `json:"reply"`
}

type RegenerateRequest struct {
	ConversationID string `json:"conversation_id"`
	Language       string `json:"language,omitempty"`
}

type ExportRequest struct {
	ConversationID string `json:"conversation_id"`
	Format         string `json:"format,omitempty"`
	// Store uploads the document to the archive as well.
	Store bool `json:"store,omitempty"`
}

type ExportResponse struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Key         string `json:"key,omitempty"`
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type RenameConversationRequest struct {
	Title string `json:"title"`
}

type EditMessageRequest struct {
	Content *string `json:"content"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
