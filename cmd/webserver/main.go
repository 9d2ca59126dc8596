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

	"triviaquiz"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	cfg, err := triviaquiz.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := triviaquiz.NewLogger(cfg.LogConfig(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	history, err := triviaquiz.OpenHistoryDB(cfg.HistoryDBPath)
	if err != nil {
		logger.Fatal("Failed to open history database", zap.Error(err))
	}
	defer history.Close()

	var llm triviaquiz.Completer = triviaquiz.NewOpenAIClient(cfg, logger.Named("openai"))
	if cfg.TranscriptDir != "" {
		llmLogger, err := triviaquiz.NewLLMLogger(cfg.TranscriptDir, "webserver-"+uuid.NewString())
		if err != nil {
			logger.Fatal("Failed to create transcript", zap.Error(err))
		}
		defer llmLogger.Close()
		llm = triviaquiz.WithTranscript(llm, llmLogger)
		logger.Info("Writing model transcript", zap.String("path", llmLogger.Path()))
	}
	game := triviaquiz.NewGame(llm, triviaquiz.GameOptionsFromConfig(cfg), logger)
	defer game.Close()

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	server := NewServer(game, triviaquiz.NewSessionRegistry(cfg.MaxSessions), history, store, logger.Named("http"))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerateTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("model", cfg.Model),
			zap.String("format", string(cfg.Format)),
			zap.Int("max_calls_per_window", cfg.MaxCallsPerWindow),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
