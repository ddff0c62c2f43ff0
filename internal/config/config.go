package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	API       APIConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Codec     CodecConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Tracing   TracingConfig
}

type APIConfig struct {
	Addr string
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

func (q QueueConfig) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency   int
	MaxActiveJobs int
	MetricsAddr   string
}

type StorageConfig struct {
	Backend   string
	LocalDir  string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DatabaseConfig with an empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN string
}

type CodecConfig struct {
	JPEGQuality int
	MaxPixels   int
}

type RateLimitConfig struct {
	Requests   int
	Window     time.Duration
	UserHeader string
}

func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && r.Window > 0
}

type WebhookConfig struct {
	SigningSecret string
	Timeout       time.Duration
	MaxAttempts   int
}

type TracingConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	defaultWorkerSlots := max(1, runtime.NumCPU()/2)

	return Config{
		API: APIConfig{
			Addr: env("CHROMAFLOW_API_ADDR", ":8080"),
		},
		Queue: QueueConfig{
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Name:          env("ASYNC_QUEUE", "default"),
		},
		Worker: WorkerConfig{
			Concurrency:   envInt("WORKER_CONCURRENCY", max(2, runtime.NumCPU())),
			MaxActiveJobs: envInt("WORKER_MAX_ACTIVE_JOBS", defaultWorkerSlots),
			MetricsAddr:   env("CHROMAFLOW_WORKER_METRICS_ADDR", ":9091"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(env("STORAGE_BACKEND", "minio")),
			LocalDir:  env("STORAGE_LOCAL_DIR", "./.chromaflow-blobs"),
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "chromaflow-images"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		Database: DatabaseConfig{
			DSN: env("POSTGRES_DSN", ""),
		},
		Codec: CodecConfig{
			JPEGQuality: envInt("CODEC_JPEG_QUALITY", 95),
			MaxPixels:   envInt("CODEC_MAX_PIXELS", 1<<25),
		},
		RateLimit: RateLimitConfig{
			Requests:   envInt("RATE_LIMIT_REQUESTS", 60),
			Window:     envDuration("RATE_LIMIT_WINDOW", time.Minute),
			UserHeader: env("RATE_LIMIT_USER_HEADER", "X-User-ID"),
		},
		Webhook: WebhookConfig{
			SigningSecret: env("WEBHOOK_SIGNING_SECRET", ""),
			Timeout:       envDuration("WEBHOOK_TIMEOUT", 10*time.Second),
			MaxAttempts:   envInt("WEBHOOK_MAX_ATTEMPTS", 3),
		},
		Tracing: TracingConfig{
			Exporter:     env("OTEL_TRACES_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
