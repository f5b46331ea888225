package controllers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"aubot/aubot/sources/memory/models"
	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/jsonutils"
	"aubot/aubot/utils/logging"
	"aubot/aubot/utils/types"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatText     = "text"
)

type exportFormat struct {
	name        string
	ext         string
	contentType string
	render      func(models.Conversation) (string, error)
}

var exportFormats = map[string]exportFormat{
	FormatMarkdown: {FormatMarkdown, ".md", "text/markdown; charset=utf-8", renderMarkdown},
	FormatJSON:     {FormatJSON, ".json", "application/json", renderJSON},
	FormatYAML:     {FormatYAML, ".yaml", "application/yaml", renderYAML},
	FormatText:     {FormatText, ".txt", "text/plain; charset=utf-8", renderText},
}

var formatAliases = map[string]string{
	"":    FormatMarkdown,
	"md":  FormatMarkdown,
	"yml": FormatYAML,
	"txt": FormatText,
}

func lookupFormat(name string) (exportFormat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := formatAliases[name]; ok {
		name = alias
	}
	f, ok := exportFormats[name]
	if !ok {
		return exportFormat{}, errs.Validation("unknown export format %q, use markdown, json, yaml or text", name)
	}
	return f, nil
}

// Export renders a conversation as a document. With req.Store the document is
// uploaded to the archive too.
func (c *ChatController) Export(ctx context.Context, req types.ExportRequest) (*types.ExportResponse, error) {
	if req.ConversationID == "" {
		return nil, errs.Validation("conversation_id is required")
	}
	format, err := lookupFormat(req.Format)
	if err != nil {
		return nil, err
	}
	if req.Store && c.archive == nil {
		return nil, errs.Validation("export storage is not configured")
	}
	conv, err := c.store.Get(req.ConversationID)
	if err != nil {
		return nil, err
	}
	content, err := format.render(conv)
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format.name, err)
	}

	resp := &types.ExportResponse{
		Content:     content,
		Filename:    safeFilename(conv.Title) + format.ext,
		Format:      format.name,
		ContentType: format.contentType,
	}
	if req.Store {
		key := fmt.Sprintf("exports/%s/%s%s", conv.ID, time.Now().UTC().Format("20060102T150405Z"), format.ext)
		if err := c.archive.Put(ctx, key, format.contentType, []byte(content)); err != nil {
			return nil, fmt.Errorf("store export: %w", err)
		}
		resp.Key = key
		logging.AppLogger.Info("export stored", zap.String("conversation_id", conv.ID), zap.String("key", key))
	}
	return resp, nil
}

func roleLabel(role string) string {
	if role == models.RoleUser {
		return "User"
	}
	return "Assistant"
}

func renderMarkdown(conv models.Conversation) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	fmt.Fprintf(&b, "Created: %s\n", conv.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Updated: %s\n\n", conv.UpdatedAt.Format(time.RFC3339))
	for _, m := range conv.Messages {
		fmt.Fprintf(&b, "**%s** (%s):\n%s\n", roleLabel(m.Role), m.Timestamp.Format(time.RFC3339), m.Content)
		if m.Attachment != nil {
			fmt.Fprintf(&b, "_Attachment: %s (%s)_\n", m.Attachment.Name, m.Attachment.MIMEType)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func renderJSON(conv models.Conversation) (string, error) {
	out := jsonutils.ToJSON(conv)
	if out == "" {
		return "", fmt.Errorf("conversation %s is not serializable", conv.ID)
	}
	return out, nil
}

func renderYAML(conv models.Conversation) (string, error) {
	out, err := yaml.Marshal(conv)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func renderText(conv models.Conversation) (string, error) {
	var b strings.Builder
	b.WriteString(conv.Title + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(conv.Title))) + "\n\n")
	for _, m := range conv.Messages {
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04:05"), roleLabel(m.Role), m.Content)
		if m.Attachment != nil {
			fmt.Fprintf(&b, "    attachment: %s\n", m.Attachment.Name)
		}
	}
	return b.String(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N} ._-]+`)

func safeFilename(title string) string {
	name := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(title, "_"))
	name = strings.Trim(name, "._ ")
	if name == "" {
		return "conversation"
	}
	return name
}
