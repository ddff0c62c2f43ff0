package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/config"
	"github.com/dunamismax/chromaflow/internal/domain"
	"github.com/dunamismax/chromaflow/internal/pipeline"
	"github.com/dunamismax/chromaflow/internal/queue"
	"github.com/dunamismax/chromaflow/internal/storage"
	"github.com/dunamismax/chromaflow/internal/store"
	"github.com/dunamismax/chromaflow/internal/webhook"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	processor     converter
	webhookClient webhookSender
	jobStore      store.JobStore
	metrics       *metrics
	tracer        trace.Tracer
}

type converter interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	processor *pipeline.Processor,
	webhookClient *webhook.Client,
	jobStore store.JobStore,
) (*Server, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if jobStore == nil {
		return nil, errors.New("job store is required")
	}

	s := newServer(logger, processor, jobStore, workerCfg.MaxActiveJobs)
	if webhookClient != nil {
		s.webhookClient = webhookClient
	}
	s.server = asynq.NewServer(
		queueCfg.RedisClientOpt(),
		asynq.Config{
			Concurrency: workerCfg.Concurrency,
			Queues: map[string]int{
				queueCfg.Name: 1,
			},
			LogLevel: asynq.InfoLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
			}),
		},
	)
	return s, nil
}

func newServer(logger *log.Logger, processor converter, jobStore store.JobStore, maxActiveJobs int) *Server {
	return &Server{
		logger:    logger,
		sem:       make(chan struct{}, max(1, maxActiveJobs)),
		processor: processor,
		jobStore:  jobStore,
		metrics:   newMetrics(),
		tracer:    otel.Tracer("chromaflow/worker"),
	}
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeConvertImage, s.handleConvertImage)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleConvertImage(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseConvertImagePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	startedAt := time.Now()
	mode := payload.Mode.String()
	outcome := domain.JobStatusFailed

	ctx, span := s.tracer.Start(ctx, "worker.convert_image", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("job.id", payload.JobID),
		attribute.Int64("image.id", payload.ImageID),
		attribute.String("conversion.mode", mode),
	)
	defer span.End()
	defer func() {
		s.metrics.jobDuration.WithLabelValues(mode, outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.jobsTotal.WithLabelValues(mode, outcome).Inc()
	}()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.metrics.activeJobs.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeJobs.Dec()
	}()

	if s.jobFinished(ctx, payload.JobID) {
		s.logger.Printf("skipping finished job job_id=%s", payload.JobID)
		outcome = "skipped"
		return nil
	}

	s.logger.Printf("Working... job_id=%s image_id=%d mode=%s", payload.JobID, payload.ImageID, mode)
	s.updateJob(ctx, payload.JobID, store.JobUpdate{Status: domain.JobStatusProcessing})

	result, err := s.processor.Process(ctx, pipeline.Request{
		ImageID: payload.ImageID,
		Mode:    payload.Mode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")
		return s.handleFailure(ctx, payload, err)
	}

	s.logger.Printf(
		"Converted job_id=%s image_id=%d name=%s format=%s %dx%d",
		payload.JobID,
		payload.ImageID,
		result.ConvertedName,
		result.Format,
		result.Width,
		result.Height,
	)
	s.updateJob(ctx, payload.JobID, store.JobUpdate{
		Status:        domain.JobStatusSucceeded,
		ConvertedName: result.ConvertedName,
	})
	s.metrics.pixelsConvertedTotal.Add(float64(result.Width * result.Height))
	s.metrics.bytesWrittenTotal.Add(float64(result.OutputBytes))

	s.dispatchWebhook(ctx, payload, webhook.EventConversionCompleted, map[string]any{
		"job_id":       payload.JobID,
		"status":       domain.JobStatusSucceeded,
		"requested_at": payload.RequestedAt,
		"completed_at": time.Now().UTC(),
		"result":       result,
	})

	outcome = domain.JobStatusSucceeded
	span.SetStatus(codes.Ok, "converted")
	return nil
}

// handleFailure records a failed attempt. Permanent failures and the last
// retry mark the job failed and notify; earlier attempts requeue it.
func (s *Server) handleFailure(ctx context.Context, payload queue.ConvertImagePayload, err error) error {
	if kind := codec.KindOf(err); kind != codec.KindUnknown {
		s.metrics.codecErrorsTotal.WithLabelValues(kind.String()).Inc()
	}

	permanent := isPermanent(err)
	if !permanent && !lastAttempt(ctx) {
		s.updateJob(ctx, payload.JobID, store.JobUpdate{
			Status: domain.JobStatusQueued,
			Error:  err.Error(),
		})
		return fmt.Errorf("convert image: %w", err)
	}

	s.updateJob(ctx, payload.JobID, store.JobUpdate{
		Status: domain.JobStatusFailed,
		Error:  err.Error(),
	})
	s.dispatchWebhook(ctx, payload, webhook.EventConversionFailed, map[string]any{
		"job_id":       payload.JobID,
		"image_id":     payload.ImageID,
		"mode":         payload.Mode,
		"status":       domain.JobStatusFailed,
		"requested_at": payload.RequestedAt,
		"failed_at":    time.Now().UTC(),
		"error":        err.Error(),
		"error_kind":   codec.KindOf(err).String(),
	})

	if permanent {
		return fmt.Errorf("convert image: %w: %w", err, asynq.SkipRetry)
	}
	return fmt.Errorf("convert image: %w", err)
}

// isPermanent reports errors that a retry of the same task cannot fix.
func isPermanent(err error) bool {
	return codec.KindOf(err) != codec.KindUnknown ||
		errors.Is(err, store.ErrRecordNotFound) ||
		errors.Is(err, storage.ErrObjectNotFound) ||
		errors.Is(err, pipeline.ErrInvalidRequest)
}

func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

// jobFinished reports whether a redelivered task's job already reached a
// terminal status.
func (s *Server) jobFinished(ctx context.Context, jobID string) bool {
	if s.jobStore == nil || jobID == "" {
		return false
	}
	job, ok, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Printf("job lookup failed job_id=%s err=%v", jobID, err)
		return false
	}
	return ok && domain.IsTerminalStatus(job.Status)
}

func (s *Server) updateJob(ctx context.Context, jobID string, update store.JobUpdate) {
	if s.jobStore == nil || jobID == "" {
		return
	}
	if _, err := s.jobStore.UpdateJob(ctx, jobID, update); err != nil {
		s.logger.Printf("job update failed job_id=%s status=%s err=%v", jobID, update.Status, err)
	}
}

// dispatchWebhook logs delivery failures; they never fail the task.
func (s *Server) dispatchWebhook(ctx context.Context, payload queue.ConvertImagePayload, event string, body map[string]any) {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return
	}
	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.metrics.webhookFailuresTotal.WithLabelValues(event).Inc()
		s.logger.Printf("webhook delivery failed job_id=%s event=%s err=%v", payload.JobID, event, err)
	}
}
