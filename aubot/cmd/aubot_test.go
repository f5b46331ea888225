package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"aubot/aubot/controllers"
	"aubot/aubot/services/llm"
	"aubot/aubot/sources/memory"
	"aubot/aubot/utils/color"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoClient struct {
	fail bool
	n    int
}

func (e *echoClient) Name() string { return "echo" }

func (e *echoClient) Run(ctx context.Context, req llm.ChatRequest) (string, error) {
	if e.fail {
		return "", errors.New("offline")
	}
	e.n++
	last := req.Messages[len(req.Messages)-1]
	return strings.ToUpper(last.Content) + strings.Repeat("!", e.n), nil
}

func TestREPL(t *testing.T) {
	color.Disable()
	store := memory.NewConversationStore()
	client := &echoClient{}
	chat := controllers.NewChatController(store, client, nil, controllers.ChatOptions{})

	in := strings.NewReader("/regen\nhello\n/regen\n/export text\n/new\nexit\nignored\n")
	var out bytes.Buffer
	newREPL(chat, "", in, &out).run(context.Background())

	got := out.String()
	assert.Contains(t, got, "Nothing to regenerate yet.")
	assert.Contains(t, got, "aubot> HELLO!\n")
	assert.Contains(t, got, "aubot> HELLO!!\n")
	assert.Contains(t, got, "Assistant: HELLO!!")
	assert.Contains(t, got, "Started a new conversation.")
	assert.Contains(t, got, "Goodbye!")
	assert.NotContains(t, got, "IGNORED")

	convs := store.List()
	require.Len(t, convs, 1)
	assert.Len(t, convs[0].Messages, 2)
}

func TestREPLShowsErrors(t *testing.T) {
	color.Disable()
	chat := controllers.NewChatController(memory.NewConversationStore(), &echoClient{fail: true}, nil, controllers.ChatOptions{})

	var out bytes.Buffer
	newREPL(chat, "", strings.NewReader("hi\n/export\n"), &out).run(context.Background())
	assert.Contains(t, out.String(), "upstream error")
	assert.Contains(t, out.String(), "Nothing to export yet.")
}
