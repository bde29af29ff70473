package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/harvest-translate/pkg/observability"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestToolRunMiddleware_CreatesSpanAndLogsApplied(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("test")

	var buf bytes.Buffer

	logger := newTestLogger(&buf)

	outcome, err := observability.ToolRunMiddleware(context.Background(), tracer, logger, "identify_project_kind", 1,
		func(_ context.Context) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, observability.OutcomeApplied, outcome)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.run identify_project_kind", spans[0].Name)
	assert.Contains(t, buf.String(), `"outcome":"applied"`)
}

func TestToolRunMiddleware_RecordsError(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("test")

	var buf bytes.Buffer

	logger := newTestLogger(&buf)

	boom := errors.New("build failed")

	outcome, err := observability.ToolRunMiddleware(context.Background(), tracer, logger, "try_cargo_build", 2,
		func(_ context.Context) error { return boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, observability.OutcomeError, outcome)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status.Code.String())
}

func TestToolRunMiddleware_RecoversPanic(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("test")

	var buf bytes.Buffer

	logger := newTestLogger(&buf)

	outcome, err := observability.ToolRunMiddleware(context.Background(), tracer, logger, "raw_source_to_cargo_llm", 1,
		func(_ context.Context) error { panic("unexpected nil pointer") })

	require.Error(t, err)
	assert.Equal(t, observability.OutcomePanic, outcome)
	assert.Contains(t, err.Error(), "unexpected nil pointer")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status.Code.String())
}
