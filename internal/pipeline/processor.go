package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dunamismax/chromaflow/internal/codec"
	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/dunamismax/chromaflow/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidRequest = errors.New("invalid conversion request")

type Request struct {
	ImageID int64
	Mode    colorspace.Mode
}

type Result struct {
	ImageID       int64           `json:"image_id"`
	SourceName    string          `json:"source_name"`
	ConvertedName string          `json:"converted_name"`
	Format        string          `json:"format"`
	Mode          colorspace.Mode `json:"mode"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	SourceBytes   int             `json:"source_bytes"`
	OutputBytes   int             `json:"bytes"`
}

// NameResolver resolves and renames logical image ids.
type NameResolver interface {
	LookupName(ctx context.Context, id int64) (string, error)
	UpdateConvertedName(ctx context.Context, id int64, name string) error
}

type BlobStore interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
	Store(ctx context.Context, data []byte, path string) error
}

type Processor struct {
	names      NameResolver
	blobs      BlobStore
	encodeOpts []codec.Option
	tracer     trace.Tracer
}

func NewProcessor(names NameResolver, blobs BlobStore, opts ...codec.Option) (*Processor, error) {
	if names == nil {
		return nil, errors.New("name resolver is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	return &Processor{
		names:      names,
		blobs:      blobs,
		encodeOpts: opts,
		tracer:     otel.Tracer("chromaflow/pipeline"),
	}, nil
}

// Process runs one conversion end to end: resolve the source name, fetch its
// bytes, convert, store the output as converted_<name> and record the new
// name. The output is stored before the record points at it.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if req.ImageID <= 0 {
		return Result{}, fmt.Errorf("%w: image id must be positive", ErrInvalidRequest)
	}
	if !req.Mode.Valid() {
		return Result{}, fmt.Errorf("%w: unknown mode %d", ErrInvalidRequest, int(req.Mode))
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	span.SetAttributes(
		attribute.Int64("image.id", req.ImageID),
		attribute.String("conversion.mode", req.Mode.String()),
	)
	defer span.End()

	result, err := p.process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("image.format", result.Format),
		attribute.Int("image.width", result.Width),
		attribute.Int("image.height", result.Height),
	)
	span.SetStatus(codes.Ok, "converted")
	return result, nil
}

func (p *Processor) process(ctx context.Context, req Request) (Result, error) {
	name, err := p.names.LookupName(ctx, req.ImageID)
	if err != nil {
		return Result{}, fmt.Errorf("lookup stage image_id=%d: %w", req.ImageID, err)
	}

	source, err := p.blobs.Fetch(ctx, domain.BlobPath(name))
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage name=%s: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	converted, err := ConvertImage(source, req.Mode, p.encodeOpts...)
	if err != nil {
		return Result{}, fmt.Errorf("convert stage name=%s mode=%s: %w", name, req.Mode, err)
	}

	convertedName := domain.ConvertedName(name)
	if err := p.blobs.Store(ctx, converted.Data, domain.BlobPath(convertedName)); err != nil {
		return Result{}, fmt.Errorf("store stage name=%s: %w", convertedName, err)
	}

	if err := p.names.UpdateConvertedName(ctx, req.ImageID, convertedName); err != nil {
		return Result{}, fmt.Errorf("update stage image_id=%d: %w", req.ImageID, err)
	}

	return Result{
		ImageID:       req.ImageID,
		SourceName:    name,
		ConvertedName: convertedName,
		Format:        converted.Format.String(),
		Mode:          req.Mode,
		Width:         converted.Width,
		Height:        converted.Height,
		SourceBytes:   len(source),
		OutputBytes:   len(converted.Data),
	}, nil
}
