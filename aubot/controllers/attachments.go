package controllers

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"aubot/aubot/sources/memory/models"
	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/logging"
	"aubot/aubot/utils/types"

	"go.uber.org/zap"
)

// AttachmentArchive stores uploaded files and exported documents out of process.
// *storage.MinIOClient implements it.
type AttachmentArchive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// detectMIMEType uses the declared type when it is meaningful and falls back
// to the file extension otherwise.
func detectMIMEType(name, declared string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return strings.ToLower(mt)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
		return mt
	}
	return ""
}

// validateAttachment checks an upload against the allow-list and size limit
// and turns it into the attachment kept on the user message.
func validateAttachment(f *types.FileUpload, maxBytes int64) (*models.Attachment, error) {
	if f == nil {
		return nil, nil
	}
	name := path.Base(filepath.ToSlash(strings.TrimSpace(f.Name)))
	if name == "." || name == "/" {
		name = ""
	}
	if len(f.Data) == 0 {
		return nil, errs.Validation("file %q is empty", name)
	}
	if int64(len(f.Data)) > maxBytes {
		return nil, errs.Validation("file %q exceeds the %d byte limit", name, maxBytes)
	}
	mt := detectMIMEType(name, f.ContentType)
	if !allowedMIMETypes[mt] {
		if mt == "" {
			mt = "unknown"
		}
		return nil, errs.Validation("file type %s is not allowed, use JPEG, PNG, WebP or PDF", mt)
	}
	if name == "" {
		name = "attachment" + firstExtension(mt)
	}
	return &models.Attachment{
		Name:     name,
		MIMEType: mt,
		Size:     int64(len(f.Data)),
		Data:     f.Data,
	}, nil
}

func firstExtension(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

func attachmentKey(convID, msgID, name string) string {
	return "attachments/" + convID + "/" + msgID + "/" + name
}

// archiveAttachment moves the payload of a to the archive. On failure the
// payload stays in memory.
func (c *ChatController) archiveAttachment(ctx context.Context, convID, msgID string, a *models.Attachment) {
	if c.archive == nil || a == nil {
		return
	}
	key := attachmentKey(convID, msgID, a.Name)
	if err := c.archive.Put(ctx, key, a.MIMEType, a.Data); err != nil {
		logging.ErrorLogger.Error("failed to archive attachment",
			zap.String("conversation_id", convID),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	a.Reference = key
	a.Data = nil
}

// loadAttachment returns the payload of a from memory or the archive.
func (c *ChatController) loadAttachment(ctx context.Context, a *models.Attachment) ([]byte, error) {
	if len(a.Data) > 0 {
		return a.Data, nil
	}
	if a.Reference == "" || c.archive == nil {
		return nil, errs.NotFound("attachment %s has no stored content", a.Name)
	}
	return c.archive.Get(ctx, a.Reference)
}

// Attachment returns a message's attachment together with its bytes.
func (c *ChatController) Attachment(ctx context.Context, convID, msgID string) (*models.Attachment, []byte, error) {
	conv, err := c.store.Get(convID)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range conv.Messages {
		if m.ID != msgID {
			continue
		}
		if m.Attachment == nil {
			return nil, nil, errs.NotFound("message %s has no attachment", msgID)
		}
		data, err := c.loadAttachment(ctx, m.Attachment)
		if err != nil {
			return nil, nil, err
		}
		return m.Attachment, data, nil
	}
	return nil, nil, errs.NotFound("message %s in conversation %s", msgID, convID)
}
