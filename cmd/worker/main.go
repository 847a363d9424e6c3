package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/notiflex/internal/config"
	"github.com/nikhilbhutani/notiflex/internal/database"
	"github.com/nikhilbhutani/notiflex/internal/document"
	"github.com/nikhilbhutani/notiflex/internal/item"
	"github.com/nikhilbhutani/notiflex/internal/queue"
	"github.com/nikhilbhutani/notiflex/internal/queue/workers"
	"github.com/nikhilbhutani/notiflex/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	sqlDB := database.OpenDB(pool)
	defer sqlDB.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("storage unavailable", "error", err)
		os.Exit(1)
	}

	ocr := document.NewOCRService(cfg.OCR, document.ExecRunner{})
	if !ocr.IsAvailable(ctx) {
		slog.Error("tesseract not found", "path", cfg.OCR.TesseractPath)
		os.Exit(1)
	}
	extractor := document.NewTextExtractor(ocr, document.NewPageRasterizer(cfg.OCR.DPI), cfg.OCR, slog.Default())

	items := item.NewService(item.Deps{
		Repo:      item.NewRepository(sqlDB),
		Storage:   store,
		Extractor: extractor,
	}, item.Options{Bucket: cfg.Storage.Bucket})

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeItemReextract, workers.NewReextractWorker(items))

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
