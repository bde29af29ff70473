package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricInvocationsTotal = "harvest.tool.invocations.total"
	metricToolRunsTotal    = "harvest.tool.runs.total"
	metricToolRunDuration  = "harvest.tool.run.duration.seconds"
	metricEditsAppliedTotal = "harvest.edit.applied.total"
	metricEditsAbandonedTotal = "harvest.edit.abandoned.total"

	attrTool    = "tool"
	attrOutcome = "outcome"
)

// PipelineMetrics holds OTel instruments for scheduler and runner activity.
type PipelineMetrics struct {
	invocationsTotal metric.Int64Counter
	toolRunsTotal    metric.Int64Counter
	toolRunDuration  metric.Float64Histogram
	editsApplied     metric.Int64Counter
	editsAbandoned   metric.Int64Counter
}

// RunStats summarizes the outcome of a single tool invocation, decoupled
// from the runner and scheduler packages to avoid an import cycle.
type RunStats struct {
	Tool     string
	Outcome  string // "applied", "error", "panic"
	Duration time.Duration
}

// NewPipelineMetrics creates pipeline metric instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	invocations, err := mt.Int64Counter(metricInvocationsTotal,
		metric.WithDescription("Total tool invocations dequeued by the scheduler"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInvocationsTotal, err)
	}

	runs, err := mt.Int64Counter(metricToolRunsTotal,
		metric.WithDescription("Total tool runs completed, labeled by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolRunsTotal, err)
	}

	runDur, err := mt.Float64Histogram(metricToolRunDuration,
		metric.WithDescription("Per-tool-run wall clock duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolRunDuration, err)
	}

	applied, err := mt.Int64Counter(metricEditsAppliedTotal,
		metric.WithDescription("Edits successfully applied to the organizer"),
		metric.WithUnit("{edit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEditsAppliedTotal, err)
	}

	abandoned, err := mt.Int64Counter(metricEditsAbandonedTotal,
		metric.WithDescription("Edits dropped without being applied"),
		metric.WithUnit("{edit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEditsAbandonedTotal, err)
	}

	return &PipelineMetrics{
		invocationsTotal: invocations,
		toolRunsTotal:    runs,
		toolRunDuration:  runDur,
		editsApplied:     applied,
		editsAbandoned:   abandoned,
	}, nil
}

// RecordDequeue records that the scheduler handed an invocation to the runner.
// Safe to call on a nil receiver (no-op).
func (pm *PipelineMetrics) RecordDequeue(ctx context.Context, tool string) {
	if pm == nil {
		return
	}

	pm.invocationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTool, tool)))
}

// RecordRun records the outcome of a completed tool run.
// Safe to call on a nil receiver (no-op).
func (pm *PipelineMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, stats.Tool),
		attribute.String(attrOutcome, stats.Outcome),
	)

	pm.toolRunsTotal.Add(ctx, 1, attrs)
	pm.toolRunDuration.Record(ctx, stats.Duration.Seconds(), attrs)

	switch stats.Outcome {
	case "applied":
		pm.editsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTool, stats.Tool)))
	case "error", "panic":
		pm.editsAbandoned.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTool, stats.Tool)))
	}
}
