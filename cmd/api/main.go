package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/notiflex/internal/api"
	"github.com/nikhilbhutani/notiflex/internal/api/middleware"
	"github.com/nikhilbhutani/notiflex/internal/audit"
	"github.com/nikhilbhutani/notiflex/internal/auth"
	"github.com/nikhilbhutani/notiflex/internal/cache"
	"github.com/nikhilbhutani/notiflex/internal/config"
	"github.com/nikhilbhutani/notiflex/internal/database"
	"github.com/nikhilbhutani/notiflex/internal/document"
	"github.com/nikhilbhutani/notiflex/internal/item"
	"github.com/nikhilbhutani/notiflex/internal/queue"
	"github.com/nikhilbhutani/notiflex/internal/storage"
	"github.com/nikhilbhutani/notiflex/internal/tenant"
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

	if err := database.RunMigrations(ctx, sqlDB); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, previews will not be cached", "error", err)
	}
	defer rdb.Close()
	previewCache := cache.NewCache(rdb, "notiflex:")

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("storage unavailable", "error", err)
		os.Exit(1)
	}

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	ocr := document.NewOCRService(cfg.OCR, document.ExecRunner{})
	if !ocr.IsAvailable(ctx) {
		slog.Warn("tesseract not found, image OCR will return no text", "path", cfg.OCR.TesseractPath)
	}
	extractor := document.NewTextExtractor(ocr, document.NewPageRasterizer(cfg.OCR.DPI), cfg.OCR, slog.Default())

	items := item.NewService(item.Deps{
		Repo:      item.NewRepository(sqlDB),
		Storage:   store,
		Extractor: extractor,
		Queue:     queueClient,
		Cache:     previewCache,
		Audit:     audit.NewService(sqlDB),
	}, item.Options{
		Bucket:     cfg.Storage.Bucket,
		PreviewTTL: cfg.Ingest.PreviewCacheTTLDuration(),
	})

	directory := tenant.NewService(pool)
	limiter := middleware.NewRateLimiter(float64(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst)
	stopLimiter := make(chan struct{})
	go limiter.Run(stopLimiter)
	defer close(stopLimiter)

	router := api.NewRouter(cfg, api.Deps{
		Items:   items,
		DB:      directory,
		Redis:   previewCache,
		Auth:    auth.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Public(), directory),
		Menus:   auth.NewMenuGuard(directory),
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Ingest.TimeoutDuration() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
