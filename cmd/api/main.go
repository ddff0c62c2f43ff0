package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/chromaflow/internal/api"
	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/config"
	"github.com/dunamismax/chromaflow/internal/pipeline"
	"github.com/dunamismax/chromaflow/internal/queue"
	"github.com/dunamismax/chromaflow/internal/ratelimit"
	"github.com/dunamismax/chromaflow/internal/storage"
	"github.com/dunamismax/chromaflow/internal/store"
	"github.com/dunamismax/chromaflow/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "chromaflow-api",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := codec.Startup(); err != nil {
		logger.Fatalf("codec startup failed: %v", err)
	}
	defer codec.Shutdown()

	records, err := store.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("open store failed: %v", err)
	}
	defer records.Close()

	blobs, err := storage.Open(ctx, cfg.Storage.Backend, cfg.Storage.LocalDir, storage.Config{
		Endpoint: cfg.Storage.Endpoint,
		Access:   cfg.Storage.AccessKey,
		Secret:   cfg.Storage.SecretKey,
		Bucket:   cfg.Storage.Bucket,
		UseSSL:   cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatalf("open storage failed backend=%s: %v", cfg.Storage.Backend, err)
	}

	processor, err := pipeline.NewProcessor(
		records,
		blobs,
		codec.JPEGQuality(cfg.Codec.JPEGQuality),
		codec.MaxPixels(cfg.Codec.MaxPixels),
	)
	if err != nil {
		logger.Fatalf("processor setup failed: %v", err)
	}

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Printf("queue client close error: %v", err)
		}
	}()

	var opts []api.Option
	if cfg.RateLimit.Enabled() {
		redisClient := redis.NewClient(cfg.Queue.RedisOptions())
		defer redisClient.Close()

		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, ratelimit.Config{
			Capacity: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})
		if err != nil {
			logger.Fatalf("rate limiter setup failed: %v", err)
		}
		opts = append(opts, api.WithRateLimiter(limiter, cfg.RateLimit.UserHeader))
		logger.Printf("rate limiting enabled requests=%d window=%s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	app := api.NewServer(logger, queueClient, records, records, blobs, processor, opts...)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s storage=%s", cfg.API.Addr, cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}
