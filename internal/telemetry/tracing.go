package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type TraceConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// SetupTracing installs the global tracer provider and propagator. With the
// exporter disabled the global no-op provider stays in place.
func SetupTracing(ctx context.Context, cfg TraceConfig, logger *log.Logger) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporterName := normalizeExporter(cfg.Exporter)
	if exporterName == ExporterNone {
		if logger != nil {
			logger.Printf("tracing exporter disabled service=%s", cfg.ServiceName)
		}
		return noopShutdown, nil
	}

	exp, err := newExporter(ctx, exporterName, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if logger != nil {
		logger.Printf("tracing exporter enabled type=%s service=%s", exporterName, cfg.ServiceName)
	}
	return tp.Shutdown, nil
}

func normalizeExporter(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ExporterNone
	}
	return name
}

func newExporter(ctx context.Context, name string, cfg TraceConfig) (sdktrace.SpanExporter, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch name {
	case ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
		if endpoint == "" {
			return nil, errors.New("otlp trace exporter requires endpoint")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err = otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", name, err)
	}
	return exp, nil
}
