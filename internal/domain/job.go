package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dunamismax/chromaflow/internal/colorspace"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

type ConvertRequest struct {
	Mode       string `json:"mode"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

type ConversionJob struct {
	ID            string          `json:"id"`
	ImageID       int64           `json:"image_id"`
	Mode          colorspace.Mode `json:"mode"`
	Status        string          `json:"status"`
	WebhookURL    string          `json:"webhook_url,omitempty"`
	ConvertedName string          `json:"converted_name,omitempty"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r ConvertRequest) Validate() (colorspace.Mode, error) {
	if strings.TrimSpace(r.Mode) == "" {
		return 0, errors.New("mode is required")
	}
	mode, err := colorspace.ParseMode(r.Mode)
	if err != nil {
		return 0, err
	}

	if hook := strings.TrimSpace(r.WebhookURL); hook != "" {
		u, err := url.Parse(hook)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return 0, errors.New("webhook_url must be an absolute http(s) URL")
		}
	}
	return mode, nil
}

func IsTerminalStatus(status string) bool {
	return status == JobStatusSucceeded || status == JobStatusFailed
}
