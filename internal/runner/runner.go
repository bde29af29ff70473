// Package runner dispatches each tool invocation onto its own goroutine,
// isolates panics behind a recover barrier, and reaps completed
// invocations back into the Organizer.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/observability"
)

// completion is what a worker goroutine ships back on the runner's
// shared channel when a tool invocation finishes, successfully or not.
type completion struct {
	invocationID uint64
	toolName     string
	edit         *edit.Edit
	reservation  *edit.Reservation
	outcome      observability.RunOutcome
	duration     time.Duration
	err          error
}

// Runner tracks in-flight tool invocations and reaps them as they
// complete. It is not safe for concurrent use by multiple goroutines
// calling Spawn/ProcessResults simultaneously; callers serialize access
// to a single Runner through the main loop, matching the reference
// design's single-threaded scheduler driver.
type Runner struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	inFlight map[uint64]struct{}
	results  chan completion
	nextID   uint64

	// OnApplied, if set, is called with the new snapshot every time a
	// tool's edit is successfully applied. The diagnostics collector uses
	// this to materialize each IR version as it is produced.
	OnApplied func(snapshot *ir.IR)

	// Metrics, if set, receives a dequeue count at spawn time and a
	// labeled run outcome/duration at reap time. A nil Metrics is a no-op:
	// every method on *observability.PipelineMetrics tolerates a nil
	// receiver.
	Metrics *observability.PipelineMetrics
}

// New returns an empty Runner. tracer and logger are handed to
// observability.ToolRunMiddleware for each spawned invocation.
func New(tracer trace.Tracer, logger *slog.Logger) *Runner {
	return &Runner{
		tracer:   tracer,
		logger:   logger,
		inFlight: map[uint64]struct{}{},
		results:  make(chan completion, 64),
	}
}

// Spawn reserves mightWrite against organizer, then launches a worker
// goroutine running t against snapshot. It returns as soon as the
// reservation succeeds or fails; it never blocks on the tool itself.
//
// A nil error means the worker was launched. An error wrapping
// edit.ErrIDInUse means the caller should defer this invocation to a
// later scheduler tick; one wrapping edit.ErrUnknownID means the caller
// should log and drop it, per the reference design's NewEditError
// split.
func (r *Runner) Spawn(
	ctx context.Context,
	organizer *edit.Organizer,
	t tool.Tool,
	snapshot *ir.IR,
	mightWrite []id.ID,
	config any,
	diagnostics func(toolName string, attempt int) tool.Diagnostics,
	attempt int,
) error {
	e, reservation, err := organizer.NewEdit(mightWrite)
	if err != nil {
		return fmt.Errorf("runner: spawn %s: %w", t.Name(), err)
	}

	r.nextID++
	invocationID := r.nextID
	r.inFlight[invocationID] = struct{}{}

	var diag tool.Diagnostics
	if diagnostics != nil {
		diag = diagnostics(t.Name(), attempt)
	}

	r.Metrics.RecordDequeue(ctx, t.Name())

	go r.runWorker(ctx, invocationID, t, snapshot, e, reservation, config, diag, attempt)

	return nil
}

// runWorker is the body of the dedicated goroutine for one tool
// invocation. A panic inside t.Run is always recovered by
// observability.ToolRunMiddleware and surfaced here as a plain error, so
// it can never unwind past this function and take the runner's state
// with it.
func (r *Runner) runWorker(
	ctx context.Context,
	invocationID uint64,
	t tool.Tool,
	snapshot *ir.IR,
	e *edit.Edit,
	reservation *edit.Reservation,
	config any,
	diag tool.Diagnostics,
	attempt int,
) {
	start := time.Now()

	outcome, runErr := observability.ToolRunMiddleware(ctx, r.tracer, r.logger, t.Name(), attempt,
		func(spanCtx context.Context) error {
			return t.Run(tool.Context{
				Ctx:         spanCtx,
				Snapshot:    snapshot,
				Edit:        e,
				Config:      config,
				Diagnostics: diag,
			})
		},
	)

	duration := time.Since(start)

	if closer, ok := diag.(io.Closer); ok {
		if closeErr := closer.Close(); closeErr != nil {
			r.logger.Error("failed to close tool diagnostics", "tool", t.Name(), "error", closeErr)
		}
	}

	result := completion{
		invocationID: invocationID,
		toolName:     t.Name(),
		reservation:  reservation,
		outcome:      outcome,
		duration:     duration,
		err:          runErr,
	}
	if runErr == nil {
		result.edit = e
	}

	r.results <- result
}

// ProcessResults blocks until at least one worker has signaled
// completion, then drains every worker that has completed so far
// without blocking further. For each, a successful edit is applied to
// organizer; a failed or panicking invocation has its reservation
// released via Abandon so the ids are free to retry on a later tick.
// Returns false if no workers were in flight to begin with.
func (r *Runner) ProcessResults(organizer *edit.Organizer) bool {
	if len(r.inFlight) == 0 {
		return false
	}

	first := <-r.results
	r.reap(organizer, first)

	for {
		select {
		case c := <-r.results:
			r.reap(organizer, c)
		default:
			return true
		}
	}
}

func (r *Runner) reap(organizer *edit.Organizer, c completion) {
	delete(r.inFlight, c.invocationID)

	r.Metrics.RecordRun(context.Background(), observability.RunStats{
		Tool:     c.toolName,
		Outcome:  string(c.outcome),
		Duration: c.duration,
	})

	if c.err != nil {
		r.logger.Error("tool invocation failed", "tool", c.toolName, "error", c.err)
		organizer.Abandon(c.reservation)

		return
	}

	organizer.ApplyEdit(c.edit, c.reservation)

	if r.OnApplied != nil {
		r.OnApplied(organizer.Snapshot())
	}
}

// InFlight reports how many invocations have been spawned but not yet
// reaped by ProcessResults.
func (r *Runner) InFlight() int {
	return len(r.inFlight)
}
