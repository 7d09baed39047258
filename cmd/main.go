package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lavrova/rfpdesk/internal/ai"
	appconfig "github.com/lavrova/rfpdesk/internal/config"
	"github.com/lavrova/rfpdesk/internal/database"
	"github.com/lavrova/rfpdesk/internal/drive"
	"github.com/lavrova/rfpdesk/internal/extract"
	"github.com/lavrova/rfpdesk/internal/memq"
	"github.com/lavrova/rfpdesk/internal/pipeline"
	"github.com/lavrova/rfpdesk/internal/repository"
	"github.com/lavrova/rfpdesk/internal/rfp"
	"github.com/lavrova/rfpdesk/internal/sections"
	"github.com/lavrova/rfpdesk/internal/server"
	httpapi "github.com/lavrova/rfpdesk/internal/transport/http"
	"github.com/lavrova/rfpdesk/internal/workers"
)

func main() {
	cfg := appconfig.Load()
	slog.Info("starting rfpdesk", "addr", cfg.HTTPAddr, "workers", cfg.QueueWorkers, "storage", cfg.StorageMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	templateStore, err := sections.NewRedisStore(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to Redis", "err", err)
		os.Exit(1)
	}
	defer templateStore.Close()

	driveStore, err := drive.NewStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize drive storage", "err", err)
		os.Exit(1)
	}

	var aiClient *ai.Client
	if cfg.OpenAIAPIKey != "" {
		aiClient = ai.NewClient(cfg.OpenAIAPIKey)
	}

	var transcriber extract.Transcriber
	if aiClient != nil {
		transcriber = aiClient
	}
	extractor := extract.New(transcriber)

	// nil generator falls back to the keyword heuristic
	builder := rfp.NewBuilder(nil)
	if aiClient != nil && cfg.UseAI {
		builder = rfp.NewBuilder(aiClient)
	}

	pipe := pipeline.New(extractor, templateStore, builder, driveStore, cfg.MaxUploadBytes, pipeline.Timeouts{
		Transcribe: cfg.TranscribeTimeout,
		Generate:   cfg.AITimeout,
		Upload:     cfg.UploadTimeout,
	})

	repo := repository.New(db)

	q := memq.NewMemoryQueue(cfg.QueueBuf, cfg.JobMaxDuration, cfg.JobTTL)
	genHandler := workers.NewGenerateHandler(pipe, repo)
	q.StartConsumers(ctx, cfg.QueueWorkers, genHandler.HandleGenerateJob)

	handlers := &httpapi.Handlers{
		Q:        q,
		Pipeline: pipe,
		Sections: templateStore,
		Drive:    driveStore,
		Repo:     repo,
		DB:       db,
		Config:   cfg,
	}
	r := server.NewRouter(handlers)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	slog.Info("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	cancel()
}
