package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/config"
	"github.com/dunamismax/chromaflow/internal/pipeline"
	"github.com/dunamismax/chromaflow/internal/storage"
	"github.com/dunamismax/chromaflow/internal/store"
	"github.com/dunamismax/chromaflow/internal/telemetry"
	"github.com/dunamismax/chromaflow/internal/webhook"
	"github.com/dunamismax/chromaflow/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "chromaflow-worker",
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
	if cfg.Database.DSN == "" {
		logger.Printf("POSTGRES_DSN not set; using in-memory store, records are not shared with the api")
	}

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

	webhookClient := webhook.NewClient(webhook.Config{
		SigningSecret: cfg.Webhook.SigningSecret,
		Timeout:       cfg.Webhook.Timeout,
		MaxAttempts:   cfg.Webhook.MaxAttempts,
		MaxBackoff:    30 * time.Second,
	})

	logger.Printf(
		"starting worker concurrency=%d max_active_jobs=%d queue=%s redis=%s",
		cfg.Worker.Concurrency,
		cfg.Worker.MaxActiveJobs,
		cfg.Queue.Name,
		cfg.Queue.RedisAddr,
	)

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, processor, webhookClient, records)
	if err != nil {
		logger.Fatalf("worker setup failed: %v", err)
	}

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           srv.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("metrics listening on %s", cfg.Worker.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server failed: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// Run blocks until SIGINT or SIGTERM and drains active tasks.
	if err := srv.Run(); err != nil {
		logger.Printf("worker failed: %v", err)
	}
}
