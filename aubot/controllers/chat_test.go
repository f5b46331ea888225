package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"aubot/aubot/services/llm"
	"aubot/aubot/sources/memory"
	"aubot/aubot/sources/memory/models"
	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakeClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   bool
	calls   []llm.ChatRequest
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Run(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if n <= len(f.replies) {
		return f.replies[n-1], nil
	}
	return "reply", nil
}

func (f *fakeClient) lastCall(t *testing.T) llm.ChatRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string][]byte{}}
}

func (a *fakeArchive) Put(ctx context.Context, key, contentType string, data []byte) error {
	if a.putErr != nil {
		return a.putErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *fakeArchive) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func newTestChat(client llm.Client, archive AttachmentArchive) (*ChatController, *memory.ConversationStore) {
	store := memory.NewConversationStore()
	return NewChatController(store, client, archive, ChatOptions{UpstreamTimeout: time.Second}), store
}

func TestChatCreatesConversation(t *testing.T) {
	client := &fakeClient{replies: []string{"Admissions open in May."}}
	ctrl, store := newTestChat(client, nil)

	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{Message: "When do admissions open?\nThanks", Language: "te"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Admissions open in May.", resp.Response)

	conv, err := store.Get(resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "When do admissions open?", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "When do admissions open?\nThanks", conv.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, resp.Reply.ID, conv.Messages[1].ID)
	assert.Equal(t, resp.UserMessage.ID, conv.Messages[0].ID)

	call := client.lastCall(t)
	assert.True(t, strings.HasSuffix(call.System, "Respond entirely in Telugu."))
	assert.Equal(t, float32(0), call.Options.Temperature)
	assert.Equal(t, 2048, call.Options.MaxOutputTokens)
}

func TestChatSendsHistory(t *testing.T) {
	client := &fakeClient{replies: []string{"first", "second"}}
	ctrl, store := newTestChat(client, nil)

	first, err := ctrl.Chat(context.Background(), types.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	_, err = ctrl.Chat(context.Background(), types.ChatRequest{ConversationID: first.ConversationID, Message: "more"})
	require.NoError(t, err)

	call := client.lastCall(t)
	require.Len(t, call.Messages, 3)
	assert.Equal(t, "hi", call.Messages[0].Content)
	assert.Equal(t, "first", call.Messages[1].Content)
	assert.Equal(t, "more", call.Messages[2].Content)

	conv, err := store.Get(first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 4)
}

func TestChatValidation(t *testing.T) {
	tests := []struct {
		name string
		req  types.ChatRequest
	}{
		{"empty", types.ChatRequest{Message: "   "}},
		{"executable", types.ChatRequest{Message: "run this", File: &types.FileUpload{Name: "setup.exe", ContentType: "application/octet-stream", Data: []byte("MZ")}}},
		{"executable declared", types.ChatRequest{File: &types.FileUpload{Name: "setup.exe", ContentType: "application/x-msdownload", Data: []byte("MZ")}}},
		{"empty file", types.ChatRequest{File: &types.FileUpload{Name: "a.png", ContentType: "image/png"}}},
		{"oversized", types.ChatRequest{File: &types.FileUpload{Name: "a.png", ContentType: "image/png", Data: make([]byte, 11<<20)}}},
		{"bad language", types.ChatRequest{Message: "hi", Language: "<script>"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{}
			ctrl, store := newTestChat(client, nil)
			existing := store.Create("kept")

			_, err := ctrl.Chat(context.Background(), tc.req)
			assert.ErrorIs(t, err, errs.ErrValidation)
			assert.Empty(t, client.calls)

			tc.req.ConversationID = existing.ID
			_, err = ctrl.Chat(context.Background(), tc.req)
			assert.ErrorIs(t, err, errs.ErrValidation)

			convs := store.List()
			require.Len(t, convs, 1)
			assert.Empty(t, convs[0].Messages)
		})
	}
}

func TestChatUnknownConversation(t *testing.T) {
	ctrl, _ := newTestChat(&fakeClient{}, nil)
	_, err := ctrl.Chat(context.Background(), types.ChatRequest{ConversationID: "missing", Message: "hi"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestChatUpstreamFailureLeavesStoreUntouched(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	ctrl, store := newTestChat(client, nil)
	conv := store.Create("existing")

	_, err := ctrl.Chat(context.Background(), types.ChatRequest{ConversationID: conv.ID, Message: "hi"})
	require.ErrorIs(t, err, errs.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, errs.HTTPStatus(err))

	_, err = ctrl.Chat(context.Background(), types.ChatRequest{Message: "new thread"})
	require.ErrorIs(t, err, errs.ErrUpstream)

	convs := store.List()
	require.Len(t, convs, 1)
	assert.Empty(t, convs[0].Messages)
}

func TestChatUpstreamTimeout(t *testing.T) {
	client := &fakeClient{block: true}
	store := memory.NewConversationStore()
	ctrl := NewChatController(store, client, nil, ChatOptions{UpstreamTimeout: 20 * time.Millisecond})

	_, err := ctrl.Chat(context.Background(), types.ChatRequest{Message: "hi"})
	require.ErrorIs(t, err, errs.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, errs.HTTPStatus(err))
	assert.Empty(t, store.List())
}

func TestChatUnsupportedByProvider(t *testing.T) {
	client := &fakeClient{err: llm.ErrUnsupportedAttachment}
	ctrl, store := newTestChat(client, nil)

	_, err := ctrl.Chat(context.Background(), types.ChatRequest{File: &types.FileUpload{Name: "doc.pdf", Data: []byte("%PDF-1.4")}})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, store.List())
}

func TestChatEmptyReplyFallback(t *testing.T) {
	ctrl, _ := newTestChat(&fakeClient{replies: []string{"  "}}, nil)
	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, resp.Response)
}

func TestChatAttachmentInMemory(t *testing.T) {
	client := &fakeClient{}
	ctrl, store := newTestChat(client, nil)

	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{
		File: &types.FileUpload{Name: "campus.png", ContentType: "image/png; name=campus.png", Data: pngBytes},
	})
	require.NoError(t, err)

	call := client.lastCall(t)
	require.Len(t, call.Messages, 1)
	require.NotNil(t, call.Messages[0].Attachment)
	assert.Equal(t, "image/png", call.Messages[0].Attachment.MIMEType)
	assert.Equal(t, filePrompt, call.Messages[0].Content)

	conv, err := store.Get(resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "campus.png", conv.Title)
	a := conv.Messages[0].Attachment
	require.NotNil(t, a)
	assert.Equal(t, int64(len(pngBytes)), a.Size)
	assert.Empty(t, a.Reference)

	got, data, err := ctrl.Attachment(context.Background(), resp.ConversationID, conv.Messages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "campus.png", got.Name)
	assert.Equal(t, pngBytes, data)

	_, _, err = ctrl.Attachment(context.Background(), resp.ConversationID, conv.Messages[1].ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestChatAttachmentArchived(t *testing.T) {
	archive := newFakeArchive()
	client := &fakeClient{}
	ctrl, store := newTestChat(client, archive)

	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{
		Message: "what is in this brochure",
		File:    &types.FileUpload{Name: "brochure.pdf", Data: []byte("%PDF-1.4")},
	})
	require.NoError(t, err)

	conv, err := store.Get(resp.ConversationID)
	require.NoError(t, err)
	a := conv.Messages[0].Attachment
	require.NotNil(t, a)
	assert.Equal(t, "application/pdf", a.MIMEType)
	assert.Equal(t, attachmentKey(conv.ID, conv.Messages[0].ID, "brochure.pdf"), a.Reference)
	assert.Nil(t, a.Data)
	assert.Equal(t, []byte("%PDF-1.4"), archive.objects[a.Reference])

	_, data, err := ctrl.Attachment(context.Background(), conv.ID, conv.Messages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	// regeneration resends the archived file
	_, err = ctrl.Regenerate(context.Background(), types.RegenerateRequest{ConversationID: conv.ID})
	require.NoError(t, err)
	call := client.lastCall(t)
	require.Len(t, call.Messages, 1)
	require.NotNil(t, call.Messages[0].Attachment)
	assert.Equal(t, []byte("%PDF-1.4"), call.Messages[0].Attachment.Data)
	assert.Equal(t, "what is in this brochure", call.Messages[0].Content)
}

func TestChatArchiveFailureKeepsPayload(t *testing.T) {
	archive := newFakeArchive()
	archive.putErr = errors.New("bucket unavailable")
	ctrl, store := newTestChat(&fakeClient{}, archive)

	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{File: &types.FileUpload{Name: "a.jpg", Data: []byte{0xff, 0xd8, 0xff}}})
	require.NoError(t, err)

	conv, err := store.Get(resp.ConversationID)
	require.NoError(t, err)
	a := conv.Messages[0].Attachment
	assert.Empty(t, a.Reference)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, a.Data)
}

func TestRegenerateReplacesLastReply(t *testing.T) {
	client := &fakeClient{replies: []string{"one", "two", "two again"}}
	ctrl, store := newTestChat(client, nil)

	first, err := ctrl.Chat(context.Background(), types.ChatRequest{Message: "q1"})
	require.NoError(t, err)
	convID := first.ConversationID
	_, err = ctrl.Chat(context.Background(), types.ChatRequest{ConversationID: convID, Message: "q2"})
	require.NoError(t, err)
	before, err := store.Get(convID)
	require.NoError(t, err)

	resp, err := ctrl.Regenerate(context.Background(), types.RegenerateRequest{ConversationID: convID})
	require.NoError(t, err)
	assert.Equal(t, "two again", resp.Response)

	call := client.lastCall(t)
	require.Len(t, call.Messages, 3)
	assert.Equal(t, "q2", call.Messages[2].Content)

	after, err := store.Get(convID)
	require.NoError(t, err)
	require.Len(t, after.Messages, 4)
	assert.Equal(t, before.Messages[:3], after.Messages[:3])
	assert.Equal(t, before.Messages[3].ID, after.Messages[3].ID)
	assert.Equal(t, "two again", after.Messages[3].Content)
}

func TestRegenerateAfterFailedChatAppends(t *testing.T) {
	client := &fakeClient{}
	ctrl, store := newTestChat(client, nil)
	conv := store.Create("t")
	_, err := store.AppendMessage(conv.ID, models.Message{Role: models.RoleUser, Content: "unanswered"})
	require.NoError(t, err)

	_, err = ctrl.Regenerate(context.Background(), types.RegenerateRequest{ConversationID: conv.ID})
	require.NoError(t, err)

	got, err := store.Get(conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleAssistant, got.Messages[1].Role)
}

func TestRegenerateErrors(t *testing.T) {
	client := &fakeClient{}
	ctrl, store := newTestChat(client, nil)
	empty := store.Create("empty")

	_, err := ctrl.Regenerate(context.Background(), types.RegenerateRequest{})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = ctrl.Regenerate(context.Background(), types.RegenerateRequest{ConversationID: "nope"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = ctrl.Regenerate(context.Background(), types.RegenerateRequest{ConversationID: empty.ID})
	assert.ErrorIs(t, err, errs.ErrValidation)

	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{Message: "q"})
	require.NoError(t, err)
	before, _ := store.Get(resp.ConversationID)
	client.err = errors.New("boom")
	_, err = ctrl.Regenerate(context.Background(), types.RegenerateRequest{ConversationID: resp.ConversationID})
	assert.ErrorIs(t, err, errs.ErrUpstream)
	after, _ := store.Get(resp.ConversationID)
	assert.Equal(t, before, after)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "hello", titleFrom("hello\nworld", nil))
	assert.Equal(t, "scan.pdf", titleFrom("", &models.Attachment{Name: "scan.pdf"}))
	assert.Equal(t, "", titleFrom("", nil))
	long := strings.Repeat("a", 80)
	assert.Equal(t, strings.Repeat("a", 50)+"...", titleFrom(long, nil))
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "image/png", detectMIMEType("x.bin", "image/png"))
	assert.Equal(t, "image/jpeg", detectMIMEType("photo.JPG", ""))
	assert.Equal(t, "application/pdf", detectMIMEType("doc.pdf", "application/octet-stream"))
	assert.Equal(t, "image/webp", detectMIMEType("pic.webp", ""))
	assert.Equal(t, "", detectMIMEType("noext", ""))
}
