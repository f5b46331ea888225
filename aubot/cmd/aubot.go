// Command-line interface for AnuragBot
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"aubot/aubot/config"
	"aubot/aubot/controllers"
	"aubot/aubot/middlewares"
	"aubot/aubot/services/llm"
	"aubot/aubot/sources/memory"
	"aubot/aubot/utils/color"
	"aubot/aubot/utils/logging"
	"aubot/aubot/utils/types"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		os.Exit(1)
	}
	if err := logging.InitLogger(cfg.LogDir, false); err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		os.Exit(1)
	}
	defer logging.Sync()

	args := os.Args[1:]
	switch {
	case len(args) >= 1 && args[0] == "chat":
		client, err := llm.NewClient(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
			os.Exit(1)
		}
		if !llm.Enabled(cfg) {
			fmt.Println(color.ColorWarning("No API key configured for " + cfg.LLMProvider + ", requests will fail."))
		}
		language := ""
		if len(args) >= 2 {
			language = args[1]
		}
		store := memory.NewConversationStore()
		chat := controllers.NewChatController(store, client, nil, controllers.ChatOptionsFromConfig(cfg))
		logging.AppLogger.Info("aubot CLI started", zap.String("provider", client.Name()))
		newREPL(chat, language, os.Stdin, os.Stdout).run(context.Background())
	case len(args) >= 2 && args[0] == "token":
		token, err := middlewares.IssueToken(cfg.JWTSecret, args[1], 30*24*time.Hour)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
	default:
		fmt.Println("aubot CLI usage:")
		fmt.Println("  aubot chat [language]   # Chat with AnuragBot in the terminal")
		fmt.Println("  aubot token <subject>   # Print a bearer token for JWT_SECRET")
		os.Exit(1)
	}
}

type repl struct {
	chat     *controllers.ChatController
	language string
	convID   string
	in       io.Reader
	out      io.Writer
}

func newREPL(chat *controllers.ChatController, language string, in io.Reader, out io.Writer) *repl {
	return &repl{chat: chat, language: language, in: in, out: out}
}

func (r *repl) run(ctx context.Context) {
	fmt.Fprintln(r.out, color.ColorInfo("AnuragBot is ready."))
	fmt.Fprintln(r.out, "Commands: /regen, /export [markdown|json|yaml|text], /new, exit")

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, color.ColorPrompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Fprintln(r.out, "Goodbye!")
			break
		}
		if line == "" {
			continue
		}
		r.handle(ctx, line)
	}
}

func (r *repl) handle(ctx context.Context, line string) {
	switch {
	case line == "/new":
		r.convID = ""
		fmt.Fprintln(r.out, color.ColorInfo("Started a new conversation."))
	case line == "/regen":
		if r.convID == "" {
			fmt.Fprintln(r.out, color.ColorWarning("Nothing to regenerate yet."))
			return
		}
		resp, err := r.chat.Regenerate(ctx, types.RegenerateRequest{ConversationID: r.convID, Language: r.language})
		if err != nil {
			fmt.Fprintln(r.out, color.ColorError(err.Error()))
			return
		}
		fmt.Fprintln(r.out, color.ColorReply("aubot> ")+resp.Response)
	case strings.HasPrefix(line, "/export"):
		if r.convID == "" {
			fmt.Fprintln(r.out, color.ColorWarning("Nothing to export yet."))
			return
		}
		format := strings.TrimSpace(strings.TrimPrefix(line, "/export"))
		resp, err := r.chat.Export(ctx, types.ExportRequest{ConversationID: r.convID, Format: format})
		if err != nil {
			fmt.Fprintln(r.out, color.ColorError(err.Error()))
			return
		}
		fmt.Fprintln(r.out, resp.Content)
	default:
		resp, err := r.chat.Chat(ctx, types.ChatRequest{ConversationID: r.convID, Message: line, Language: r.language})
		if err != nil {
			fmt.Fprintln(r.out, color.ColorError(err.Error()))
			return
		}
		r.convID = resp.ConversationID
		fmt.Fprintln(r.out, color.ColorReply("aubot> ")+resp.Response)
	}
}
