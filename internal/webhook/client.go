package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderSignature = "X-Chromaflow-Signature"
	HeaderTimestamp = "X-Chromaflow-Timestamp"
	HeaderEvent     = "X-Chromaflow-Event"
)

const (
	EventConversionCompleted = "conversion.completed"
	EventConversionFailed    = "conversion.failed"
)

const signaturePrefix = "sha256="

type Config struct {
	SigningSecret  string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client delivers signed conversion events to caller supplied endpoints.
type Client struct {
	httpClient     *http.Client
	signingSecret  string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = time.Second
	}

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		signingSecret:  cfg.SigningSecret,
		maxAttempts:    max(1, cfg.MaxAttempts),
		initialBackoff: initialBackoff,
		maxBackoff:     max(initialBackoff, cfg.MaxBackoff),
		now:            time.Now,
	}
}

// Send posts payload as JSON to endpoint. An empty endpoint is a no-op.
func (c *Client) Send(ctx context.Context, endpoint, event string, payload any) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().UTC().Unix(), 10)
	signature := Sign(c.signingSecret, timestamp, body)

	backoff := c.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = c.deliver(ctx, endpoint, event, timestamp, signature, body)
		if lastErr == nil {
			return nil
		}
		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) deliver(ctx context.Context, endpoint, event, timestamp, signature string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderEvent, event)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status=%d", resp.StatusCode)
	}
	return nil
}

// Sign returns the signature header value for a timestamped body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the timestamped body.
func Verify(secret, timestamp, signature string, body []byte) bool {
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
