package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error type classification constants per OTel semantic conventions.
const (
	ErrTypeTimeout               = "timeout"
	ErrTypeCancel                = "cancel"
	ErrTypeValidation            = "validation"
	ErrTypeDependencyUnavailable = "dependency_unavailable"
	ErrTypeInternal              = "internal"
)

// Error source classification constants.
const (
	ErrSourceClient     = "client"
	ErrSourceServer     = "server"
	ErrSourceDependency = "dependency"
)

// RecordSpanError records an error on a span with structured classification
// attributes (error.type and optionally error.source).
func RecordSpanError(span trace.Span, err error, errType, errSource string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attrs := []attribute.KeyValue{
		attribute.String("error.type", errType),
	}

	if errSource != "" {
		attrs = append(attrs, attribute.String("error.source", errSource))
	}

	span.SetAttributes(attrs...)
}

// errPanic is a sentinel error for recovered panics.
var errPanic = errors.New("panic recovered")

// RunOutcome classifies how a tool run wrapped by ToolRunMiddleware ended.
type RunOutcome string

const (
	// OutcomeApplied means the tool returned without error.
	OutcomeApplied RunOutcome = "applied"
	// OutcomeError means the tool returned a non-nil error.
	OutcomeError RunOutcome = "error"
	// OutcomePanic means the tool panicked and the panic was recovered.
	OutcomePanic RunOutcome = "panic"
)

// ToolRunMiddleware wraps a single tool invocation with a span, panic
// recovery, and a structured completion log line. It mirrors the attempt
// and outcome attributes the scheduler and runner attach to their own
// telemetry, so a trace can be read end to end from dispatch to outcome.
//
// The panic, if any, is always recovered here: the caller never observes
// it as a Go panic, only as a non-nil error with outcome OutcomePanic.
func ToolRunMiddleware(
	ctx context.Context,
	tracer trace.Tracer,
	logger *slog.Logger,
	toolName string,
	attempt int,
	next func(ctx context.Context) error,
) (outcome RunOutcome, err error) {
	start := time.Now()

	spanCtx, span := tracer.Start(ctx, "tool.run "+toolName,
		trace.WithAttributes(
			attribute.String("tool.name", toolName),
			attribute.Int("scheduler.attempt", attempt),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", errPanic, r, debug.Stack())
			outcome = OutcomePanic

			RecordSpanError(span, err, ErrTypeInternal, "")
		}

		span.SetAttributes(attribute.String("outcome", string(outcome)))

		logger.InfoContext(spanCtx, "tool.run.complete",
			"tool", toolName,
			"attempt", attempt,
			"outcome", string(outcome),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	runErr := next(spanCtx)
	if runErr != nil {
		outcome = OutcomeError

		RecordSpanError(span, runErr, ErrTypeInternal, "")

		return outcome, runErr
	}

	outcome = OutcomeApplied

	return outcome, nil
}
