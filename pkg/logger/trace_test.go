package logger_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/kangminLeo/Ironbot/pkg/logger"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestHandler_StampsTraceIDsFromContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()
	otel.SetTracerProvider(tp)
	tr := tp.Tracer("test")

	ctx, span := tr.Start(context.Background(), "op")
	defer span.End()

	out := captureStdOut(func() {
		logger.Init(logger.Config{
			Service:          "ironbot",
			Format:           "json",
			SampleInitial:    100000,
			SampleThereafter: 100000,
		})
		slog.InfoContext(ctx, "with trace")
	})

	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("expected JSON, got: %s, err=%v", out, err)
	}

	if m["trace_id"] == nil || m["span_id"] == nil {
		t.Fatalf("trace_id/span_id missing in log: %v", m)
	}
	if m["msg"] != "with trace" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
}

func TestHandler_NoTraceAttrsWithoutSpan(t *testing.T) {
	out := captureStdOut(func() {
		logger.Init(logger.Config{Service: "ironbot", Format: "text"})
		slog.InfoContext(context.Background(), "plain")
	})

	for _, key := range []string{"trace_id", "span_id"} {
		if strings.Contains(out, key) {
			t.Fatalf("%s present without an active span: %s", key, out)
		}
	}
}
