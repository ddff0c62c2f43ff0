package telemetry

import (
	"context"
	"io"
	"log"
	"testing"
)

func TestSetupTracingDisabled(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	for _, exporter := range []string{"", "none", " NONE "} {
		shutdown, err := SetupTracing(context.Background(), TraceConfig{ServiceName: "test", Exporter: exporter}, logger)
		if err != nil {
			t.Fatalf("exporter %q: unexpected error: %v", exporter, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("exporter %q: shutdown error: %v", exporter, err)
		}
	}
}

func TestSetupTracingRejectsBadConfig(t *testing.T) {
	if _, err := SetupTracing(context.Background(), TraceConfig{Exporter: "zipkin"}, nil); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
	if _, err := SetupTracing(context.Background(), TraceConfig{Exporter: "otlp"}, nil); err == nil {
		t.Fatal("expected error for otlp without endpoint")
	}
}
