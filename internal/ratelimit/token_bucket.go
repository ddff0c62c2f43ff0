package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "chromaflow:ratelimit"

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Config struct {
	Capacity  int
	Window    time.Duration
	KeyPrefix string
}

// tokenBucketScript refills and drains a bucket hash atomically.
// KEYS[1] bucket key; ARGV capacity, refill per ms, now ms, cost, ttl ms.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_per_ms = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])

local state = redis.call("HMGET", key, "tokens", "timestamp")
local tokens = tonumber(state[1]) or capacity
local last_ms = tonumber(state[2]) or now_ms

tokens = math.min(capacity, tokens + math.max(0, now_ms - last_ms) * refill_per_ms)

local allowed = 0
local retry_ms = 0
if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
else
  retry_ms = math.ceil((cost - tokens) / refill_per_ms)
end

redis.call("HSET", key, "tokens", tokens, "timestamp", now_ms)
redis.call("PEXPIRE", key, ttl_ms)

return {allowed, math.floor(tokens), retry_ms}
`)

// RedisTokenBucket limits requests per subject with a token bucket shared
// by every API replica through redis.
type RedisTokenBucket struct {
	client      redis.UniversalClient
	capacity    int64
	refillPerMS float64
	ttl         time.Duration
	keyPrefix   string
	now         func() time.Time
}

func NewRedisTokenBucket(client redis.UniversalClient, cfg Config) (*RedisTokenBucket, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Capacity <= 0 {
		return nil, errors.New("capacity must be positive")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("window must be positive")
	}

	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	windowMS := max(1, cfg.Window.Milliseconds())
	return &RedisTokenBucket{
		client:      client,
		capacity:    int64(cfg.Capacity),
		refillPerMS: float64(cfg.Capacity) / float64(windowMS),
		ttl:         2 * cfg.Window,
		keyPrefix:   prefix,
		now:         time.Now,
	}, nil
}

func (l *RedisTokenBucket) key(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "anonymous"
	}
	return l.keyPrefix + ":" + subject
}

// Allow takes one token from the subject's bucket.
func (l *RedisTokenBucket) Allow(ctx context.Context, subject string) (Decision, error) {
	raw, err := tokenBucketScript.Run(
		ctx,
		l.client,
		[]string{l.key(subject)},
		l.capacity,
		l.refillPerMS,
		l.now().UTC().UnixMilli(),
		1,
		l.ttl.Milliseconds(),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("run token bucket script: %w", err)
	}
	return parseDecision(raw)
}

func parseDecision(raw any) (Decision, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("invalid token bucket response %T", raw)
	}

	var parsed [3]int64
	for i, v := range values {
		n, err := toInt64(v)
		if err != nil {
			return Decision{}, fmt.Errorf("parse token bucket field %d: %w", i, err)
		}
		parsed[i] = n
	}

	return Decision{
		Allowed:    parsed[0] == 1,
		Remaining:  parsed[1],
		RetryAfter: time.Duration(parsed[2]) * time.Millisecond,
	}, nil
}

func toInt64(in any) (int64, error) {
	switch v := in.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", in)
	}
}
