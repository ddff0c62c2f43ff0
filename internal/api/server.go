package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/dunamismax/chromaflow/internal/domain"
	"github.com/dunamismax/chromaflow/internal/id"
	"github.com/dunamismax/chromaflow/internal/pipeline"
	"github.com/dunamismax/chromaflow/internal/queue"
	"github.com/dunamismax/chromaflow/internal/storage"
	"github.com/dunamismax/chromaflow/internal/store"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	logger                *log.Logger
	queueClient           queueEnqueuer
	records               store.RecordStore
	jobs                  store.JobStore
	blobs                 blobReader
	converter             converter
	mux                   *http.ServeMux
	metrics               *metrics
	tracer                trace.Tracer
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
}

type queueEnqueuer interface {
	EnqueueConvertImage(ctx context.Context, payload queue.ConvertImagePayload) (*asynq.TaskInfo, error)
}

type blobReader interface {
	Exists(ctx context.Context, path string) (bool, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
}

type converter interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Option func(*Server)

// WithRateLimiter limits POST /v1 requests per value of userHeader.
func WithRateLimiter(limiter RateLimiter, userHeader string) Option {
	return func(s *Server) {
		s.rateLimiter = limiter
		if strings.TrimSpace(userHeader) != "" {
			s.rateLimitUserIDHeader = userHeader
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

func NewServer(
	logger *log.Logger,
	queueClient queueEnqueuer,
	records store.RecordStore,
	jobs store.JobStore,
	blobs blobReader,
	converter converter,
	opts ...Option,
) *Server {
	s := &Server{
		logger:                logger,
		queueClient:           queueClient,
		records:               records,
		jobs:                  jobs,
		blobs:                 blobs,
		converter:             converter,
		mux:                   http.NewServeMux(),
		metrics:               newMetrics(),
		tracer:                otel.Tracer("chromaflow/api"),
		rateLimitUserIDHeader: "X-User-ID",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.metrics.withHTTPMetrics(s.withTracing(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/images", s.handleRegisterImage)
	s.mux.HandleFunc("GET /v1/images/{id}", s.handleGetImage)
	s.mux.HandleFunc("POST /v1/images/{id}/convert", s.handleConvertImage)
	s.mux.HandleFunc("POST /v1/images/{id}/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /v1/images/{id}/result", s.handleGetResult)
	s.mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegisterImage(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	rec := domain.ImageRecord{
		ID:        req.ID,
		RawName:   strings.TrimSpace(req.RawName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.records.CreateRecord(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrRecordExists) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Printf("create record failed image_id=%d err=%v", rec.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register image"})
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathImageID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := s.records.GetRecord(r.Context(), imageID)
	if err != nil {
		s.writeError(w, "get image", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleConvertImage runs a conversion inline and returns its summary.
func (s *Server) handleConvertImage(w http.ResponseWriter, r *http.Request) {
	imageID, mode, _, ok := s.decodeConvert(w, r)
	if !ok {
		return
	}

	result, err := s.converter.Process(r.Context(), pipeline.Request{ImageID: imageID, Mode: mode})
	if err != nil {
		s.writeError(w, "convert image", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	imageID, mode, webhookURL, ok := s.decodeConvert(w, r)
	if !ok {
		return
	}

	rec, err := s.records.GetRecord(r.Context(), imageID)
	if err != nil {
		s.writeError(w, "load image", err)
		return
	}
	if err := s.verifySourceExists(r.Context(), rec); err != nil {
		s.writeError(w, "verify source", err)
		return
	}

	now := time.Now().UTC()
	job := domain.ConversionJob{
		ID:         id.New(),
		ImageID:    imageID,
		Mode:       mode,
		Status:     domain.JobStatusQueued,
		WebhookURL: webhookURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.jobs.CreateJob(r.Context(), job); err != nil {
		s.logger.Printf("create job failed job_id=%s err=%v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	taskInfo, err := s.queueClient.EnqueueConvertImage(r.Context(), queue.ConvertImagePayload{
		JobID:       job.ID,
		ImageID:     job.ImageID,
		Mode:        job.Mode,
		WebhookURL:  job.WebhookURL,
		RequestedAt: now,
	})
	if err != nil {
		s.logger.Printf("enqueue failed job_id=%s err=%v", job.ID, err)
		if _, updateErr := s.jobs.UpdateJob(r.Context(), job.ID, store.JobUpdate{
			Status: domain.JobStatusFailed,
			Error:  "enqueue failed",
		}); updateErr != nil {
			s.logger.Printf("update job failed job_id=%s err=%v", job.ID, updateErr)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue job"})
		return
	}
	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"image_id":    job.ImageID,
		"mode":        job.Mode,
		"status":      job.Status,
		"queue":       taskInfo.Queue,
		"task_id":     taskInfo.ID,
		"state":       taskInfo.State.String(),
		"enqueued_at": now,
		"status_url":  fmt.Sprintf("/v1/jobs/%s", job.ID),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.PathValue("id"))
	job, ok, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed job_id=%s err=%v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleGetResult streams the converted blob of an image.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathImageID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := s.records.GetRecord(r.Context(), imageID)
	if err != nil {
		s.writeError(w, "get image", err)
		return
	}
	if rec.ConvertedName == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "image has not been converted"})
		return
	}

	data, err := s.blobs.Fetch(r.Context(), domain.BlobPath(rec.ConvertedName))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "converted image is missing"})
			return
		}
		s.writeError(w, "fetch result", err)
		return
	}

	w.Header().Set("Content-Type", storage.ContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) decodeConvert(w http.ResponseWriter, r *http.Request) (int64, colorspace.Mode, string, bool) {
	imageID, err := pathImageID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return 0, 0, "", false
	}

	var req domain.ConvertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return 0, 0, "", false
	}
	mode, err := req.Validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return 0, 0, "", false
	}
	return imageID, mode, strings.TrimSpace(req.WebhookURL), true
}

func (s *Server) verifySourceExists(ctx context.Context, rec domain.ImageRecord) error {
	exists, err := s.blobs.Exists(ctx, domain.BlobPath(rec.RawName))
	if err != nil {
		return fmt.Errorf("source object check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, rec.RawName)
	}
	return nil
}

// writeError maps conversion and store failures onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, action string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("%s failed err=%v", action, err)
	}

	body := map[string]string{"error": err.Error()}
	if kind := codec.KindOf(err); kind != codec.KindUnknown {
		body["kind"] = kind.String()
	}
	writeJSON(w, status, body)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, store.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusConflict
	case errors.Is(err, codec.ErrWebPUnavailable):
		// WebP sources decode in every build; writing them back needs libvips.
		return http.StatusNotImplemented
	}

	switch codec.KindOf(err) {
	case codec.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case codec.KindDecode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func pathImageID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	imageID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || imageID <= 0 {
		return 0, fmt.Errorf("invalid image id %q", raw)
	}
	return imageID, nil
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
