package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestInit_WithoutExporters(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{ServiceName: "poupa-test", Environment: "test"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := otel.Tracer("poupa/test").Start(ctx, "probe")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording tracer provider to be installed")
	}
	span.End()

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
