// Command coursechat runs the course-materials assistant: it loads
// configuration, opens the vector store, ingests any course documents
// found in the docs folder, and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/philippgille/chromem-go"

	"coursechat/pkg/ai"
	"coursechat/pkg/assistant"
	"coursechat/pkg/config"
	"coursechat/pkg/server"
	"coursechat/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "coursechat:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	st, err := store.New(cfg.DBPath, cfg.MaxResults, embeddingFunc(cfg))
	if err != nil {
		return err
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	generator := ai.New(client, cfg.AnthropicModel, cfg.MaxToolRounds)
	sys := assistant.New(cfg, st, generator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if info, err := os.Stat(cfg.DocsPath); err == nil && info.IsDir() {
		added, err := sys.AddCourseFolder(ctx, cfg.DocsPath)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", cfg.DocsPath, err)
		}
		slog.Info("startup ingestion complete", "courses_added", added)
	} else {
		slog.Info("no docs folder, skipping ingestion", "path", cfg.DocsPath)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(sys).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// embeddingFunc selects the embedding backend for the vector store.
func embeddingFunc(cfg *config.Config) chromem.EmbeddingFunc {
	switch cfg.EmbeddingProvider {
	case "openai":
		return chromem.NewEmbeddingFuncOpenAI(cfg.OpenAIAPIKey, chromem.EmbeddingModelOpenAI(cfg.EmbeddingModel))
	default:
		return chromem.NewEmbeddingFuncOllama(cfg.EmbeddingModel, cfg.OllamaBaseURL)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
