// Package pipeline wires the Scheduler, Runner, and Organizer into the
// main loop: the single place that actually performs the might_write ->
// reserve -> spawn dance the Scheduler delegates to its attempt
// callback.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/runner"
	"github.com/Sumatoshi-tech/harvest-translate/internal/scheduler"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
)

// DiagnosticsFactory allocates a per-tool-run reporter. It may be nil, in
// which case tools are run with a nil tool.Diagnostics.
type DiagnosticsFactory func(toolName string, attempt int) tool.Diagnostics

// Pipeline drives tools through an Organizer until quiescence: no
// scheduled invocation is runnable and no worker is in flight.
// Determining whether that quiescent state represents overall success is
// outside this package's scope.
type Pipeline struct {
	Organizer   *edit.Organizer
	Scheduler   *scheduler.Scheduler[tool.Tool]
	Runner      *runner.Runner
	Config      any
	Diagnostics DiagnosticsFactory
	Logger      *slog.Logger

	attempts map[string]int
}

// New returns a Pipeline ready to drive the given tools against
// organizer. Tools should already be queued onto sched before Run is
// called, though Run itself never queues anything; callers add more
// invocations between ticks by calling sched.Queue directly.
func New(organizer *edit.Organizer, sched *scheduler.Scheduler[tool.Tool], r *runner.Runner, config any, diagnostics DiagnosticsFactory, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Organizer:   organizer,
		Scheduler:   sched,
		Runner:      r,
		Config:      config,
		Diagnostics: diagnostics,
		Logger:      logger,
		attempts:    map[string]int{},
	}
}

// Run drives the main loop to quiescence. It returns only on a Spawn
// error other than ErrIDInUse/ErrUnknownID, which the attempt callback
// reports to the scheduler to abort the tick, or once no invocation is
// schedulable and no worker is in flight.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		err := p.Scheduler.NextInvocations(func(t tool.Tool) (scheduler.Decision, error) {
			return p.attempt(ctx, t)
		})
		if err != nil {
			return err
		}

		reaped := p.Runner.ProcessResults(p.Organizer)

		if p.Scheduler.Len() == 0 && !reaped && p.Runner.InFlight() == 0 {
			return nil
		}
	}
}

// attempt performs one tool's probe -> reserve -> spawn step and
// translates the outcome into a scheduler.Decision, per spec 4.7: a
// reservation conflict defers the tool, an unknown id drops it with a
// log line, and a successful spawn also drops it from the queue (the
// runner, not the scheduler, now owns its lifetime).
func (p *Pipeline) attempt(ctx context.Context, t tool.Tool) (scheduler.Decision, error) {
	snapshot := p.Organizer.Snapshot()
	probe := t.MightWrite(snapshot)

	switch probe.Outcome {
	case tool.NotRunnable:
		return scheduler.DontTryAgain, nil
	case tool.TryAgain:
		return scheduler.TryLater, nil
	}

	p.attempts[t.Name()]++
	attempt := p.attempts[t.Name()]

	err := p.Runner.Spawn(ctx, p.Organizer, t, snapshot, probe.IDs, p.Config, p.Diagnostics, attempt)
	if err == nil {
		return scheduler.DontTryAgain, nil
	}

	if errors.Is(err, edit.ErrIDInUse) {
		return scheduler.TryLater, nil
	}

	if errors.Is(err, edit.ErrUnknownID) {
		p.logger().Error("tool might_write referenced an unknown id", "tool", t.Name(), "error", err)

		return scheduler.DontTryAgain, nil
	}

	return scheduler.DontTryAgain, err
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}

	return slog.Default()
}
