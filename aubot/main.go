package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aubot/aubot/config"
	"aubot/aubot/controllers"
	"aubot/aubot/routes"
	"aubot/aubot/services/llm"
	"aubot/aubot/sources/memory"
	"aubot/aubot/sources/storage"
	"aubot/aubot/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logging.InitLogger(cfg.LogDir, cfg.Debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.Sync()

	client, err := llm.NewClient(cfg)
	if err != nil {
		logging.ErrorLogger.Error("llm client error", zap.Error(err))
		os.Exit(1)
	}
	aiEnabled := llm.Enabled(cfg)
	if !aiEnabled {
		logging.AppLogger.Warn("no API key configured, chat requests will fail", zap.String("provider", cfg.LLMProvider))
	}

	// A nil *MinIOClient must not end up inside the interface.
	var archive controllers.AttachmentArchive
	if cfg.ArchiveEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		cancel()
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		archive = minioClient
	}

	store := memory.NewConversationStore()
	handler := routes.NewRouter(cfg, routes.Controllers{
		Health:        controllers.NewHealthController(cfg.LLMProvider, aiEnabled),
		Conversations: controllers.NewConversationController(store),
		Chat:          controllers.NewChatController(store, client, archive, controllers.ChatOptionsFromConfig(cfg)),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", client.Name()),
			zap.Bool("ai_enabled", aiEnabled),
			zap.Bool("archive", archive != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
			os.Exit(1)
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
		return
	}
	logging.AppLogger.Info("server shutdown complete")
}
