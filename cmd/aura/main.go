package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aura/internal/ai"
	"aura/internal/audio"
	"aura/internal/logger"
	"aura/internal/server"
	"aura/internal/speech"
	"aura/internal/voice"
	db "aura/repository/db"
	inmemory "aura/repository/inmemory"
)

const shutdownTimeout = 30 * time.Second

// Repository is everything the HTTP layer and the voice interpreter need
// from storage.
type Repository interface {
	server.UserRepository
	server.TaskRepository
	voice.TaskStore
	Close()
}

// Server is the part of the HTTP API the process lifecycle drives.
type Server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// openRepository is swapped in tests.
var openRepository = InitializeRepositories

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Deferred cleanup runs on every path.
func run(args []string) int {
	cfg, err := server.ReadConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read config:", err)
		return 2
	}
	logger.New(cfg.LogLevel, os.Stderr)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		return 2
	}
	slog.Info("starting aura", "addr", cfg.ListenAddr())

	if err := RunMigrations(cfg); err != nil {
		slog.Warn("migrations not applied", "err", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		slog.Error("initialize repositories", "err", err)
		return 1
	}
	defer repo.Close()

	opts, cleanup, err := voiceOptions(cfg, repo)
	if err != nil {
		slog.Error("initialize voice pipeline", "err", err)
		return 1
	}
	defer cleanup()

	api := server.NewTaskAPI(repo, repo, cfg, opts...)
	if api == nil {
		slog.Error("failed to initialize API")
		return 1
	}

	sigChan, serverErr := StartServer(api, cfg)
	select {
	case sig := <-sigChan:
		if err := HandleShutdown(api, sig); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
			return 1
		}
	case err := <-serverErr:
		slog.Error("server error", "err", err)
		return 1
	}

	slog.Info("aura stopped")
	return 0
}

// InitializeRepositories connects to PostgreSQL and falls back to the
// in-memory store when the database is unreachable.
func InitializeRepositories(cfg *server.Config) (Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	storage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		slog.Warn("database unavailable, using in-memory storage", "err", err)
		return inmemory.NewStorage(), nil
	}
	return storage, nil
}

func RunMigrations(cfg *server.Config) error {
	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		return err
	}
	slog.Info("migrations applied", "path", cfg.MigratePath)
	return nil
}

// voiceOptions wires the speech pipeline. Without an OpenAI key the voice
// and speech endpoints stay disabled.
func voiceOptions(cfg *server.Config, repo voice.TaskStore) ([]server.Option, func(), error) {
	if cfg.OpenAIKey == "" {
		slog.Warn("OPENAI_API_KEY is not set, voice endpoints disabled")
		return nil, func() {}, nil
	}

	client, err := ai.NewClient(ai.ClientConfig{
		APIKey:    cfg.OpenAIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		ProxyAddr: cfg.ProxyAddr,
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := speech.NewStore(cfg.SpeechDir, cfg.BaseURL(), cfg.SpeechTTL)
	if err != nil {
		return nil, nil, err
	}

	pipeline := voice.NewPipeline(
		audio.NewTranscoder(cfg.FFmpegPath, audio.DefaultMaxDuration),
		ai.NewTranscriber(client, cfg.TranscriptionModel),
		ai.NewIntentExtractor(client, cfg.ChatModel),
		voice.NewInterpreter(repo),
		cfg.Language,
	)
	synth := ai.NewSynthesizer(client, cfg.SpeechModel, cfg.Voice)

	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Warn("cleaning speech files", "err", err)
		}
	}
	return []server.Option{server.WithVoice(pipeline), server.WithSpeech(synth, store)}, cleanup, nil
}

// StartServer runs api in the background and returns the channels main
// waits on.
func StartServer(api Server, cfg *server.Config) (chan os.Signal, chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("service listening", "addr", cfg.ListenAddr())
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()
	return sigChan, serverErr
}

func HandleShutdown(api Server, sig os.Signal) error {
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := api.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("graceful shutdown complete")
	return nil
}
