package pipeline_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/pipeline"
	"github.com/Sumatoshi-tech/harvest-translate/internal/runner"
	"github.com/Sumatoshi-tech/harvest-translate/internal/scheduler"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
)

// chainTool is runnable exactly while ready(snapshot) holds, and writes
// make(snapshot) into a fresh id when run. Both predicates are pure
// functions of the snapshot they are given, so probing never mutates
// state a later Run observes, matching the Tool contract.
type chainTool struct {
	name  string
	ready func(snapshot *ir.IR) bool
	make  func(snapshot *ir.IR) ir.Representation
}

func (c *chainTool) Name() string { return c.name }

func (c *chainTool) MightWrite(snapshot *ir.IR) tool.Probe {
	if !c.ready(snapshot) {
		return tool.Probe{Outcome: tool.TryAgain}
	}

	return tool.Probe{Outcome: tool.Runnable}
}

func (c *chainTool) Run(ctx tool.Context) error {
	ctx.Edit.AddRepresentation(c.make(ctx.Snapshot))

	return nil
}

func TestPipeline_RunsChainToQuiescence(t *testing.T) {
	t.Parallel()

	organizer := edit.NewOrganizer()
	sched := scheduler.New[tool.Tool]()
	r := runner.New(otel.Tracer("test"), slog.New(slog.DiscardHandler))

	load := &chainTool{
		name:  "load",
		ready: func(snapshot *ir.IR) bool { return len(snapshot.OfKind("RawSource")) == 0 },
		make:  func(_ *ir.IR) ir.Representation { return ir.RawSource{Tree: ir.NewDir()} },
	}

	build := &chainTool{
		name: "build",
		ready: func(snapshot *ir.IR) bool {
			return len(snapshot.OfKind("RawSource")) > 0 && len(snapshot.OfKind("CargoBuildResult")) == 0
		},
		make: func(_ *ir.IR) ir.Representation { return ir.CargoBuildResult{Ok: true} },
	}

	sched.Queue(load)
	sched.Queue(build)

	p := pipeline.New(organizer, sched, r, nil, nil, slog.New(slog.DiscardHandler))

	require.NoError(t, p.Run(context.Background()))

	snap := organizer.Snapshot()
	assert.Len(t, snap.OfKind("RawSource"), 1)
	assert.Len(t, snap.OfKind("CargoBuildResult"), 1)
	assert.Equal(t, 0, sched.Len())
}

func TestPipeline_NotRunnableToolIsDropped(t *testing.T) {
	t.Parallel()

	organizer := edit.NewOrganizer()
	sched := scheduler.New[tool.Tool]()
	r := runner.New(otel.Tracer("test"), slog.New(slog.DiscardHandler))

	neverRunnable := &alwaysNotRunnable{name: "dead"}
	sched.Queue(neverRunnable)

	p := pipeline.New(organizer, sched, r, nil, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 0, sched.Len())
	assert.Equal(t, 0, organizer.Snapshot().Len())
}

type alwaysNotRunnable struct{ name string }

func (a *alwaysNotRunnable) Name() string { return a.name }

func (a *alwaysNotRunnable) MightWrite(_ *ir.IR) tool.Probe {
	return tool.Probe{Outcome: tool.NotRunnable}
}

func (a *alwaysNotRunnable) Run(_ tool.Context) error { return nil }
