// Package tool defines the contract a pipeline tool implements and the
// context a running tool is given.
package tool

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

// Outcome is the result of probing a tool with MightWrite.
type Outcome int

const (
	// NotRunnable means the tool will never be runnable against this IR
	// and should be discarded by the scheduler.
	NotRunnable Outcome = iota
	// TryAgain means prerequisites are not yet present; the scheduler
	// keeps the tool queued and retries after the IR changes.
	TryAgain
	// Runnable means the tool can run now against the declared ids.
	Runnable
)

// String renders the outcome for logging.
func (o Outcome) String() string {
	switch o {
	case Runnable:
		return "Runnable"
	case TryAgain:
		return "TryAgain"
	case NotRunnable:
		return "NotRunnable"
	default:
		return "Unknown"
	}
}

// Probe is the result of MightWrite: an Outcome plus, when Runnable, the
// set of pre-existing ids the tool may overwrite.
type Probe struct {
	Outcome Outcome
	IDs     []id.ID
}

// Diagnostics is the narrow per-run interface a tool uses to report
// progress and materialize ad hoc debugging artifacts. It is implemented
// by the diagnostics package's ToolReporter; tools never see the rest of
// the Collector.
type Diagnostics interface {
	// WorkDir returns the per-tool-run scratch directory (steps/<tool>_<n>/).
	WorkDir() string
	// Logger returns a logger tee'd into this run's step log in addition
	// to the global diagnostics sinks.
	Logger() *slog.Logger
}

// Context is what Run receives: the snapshot MightWrite last saw, an
// owned Edit reserving the ids that snapshot declared runnable, the run
// configuration, and a per-run diagnostics reporter.
type Context struct {
	Ctx         context.Context
	Snapshot    *ir.IR
	Edit        *edit.Edit
	Config      any
	Diagnostics Diagnostics
}

// Tool represents one invocation of a transformation. A Tool value is
// consumed by Run: implementations should not be reused across runs.
// Tools must be safe to hand to another goroutine.
type Tool interface {
	// Name returns the stable name used for directories and log filtering.
	Name() string

	// MightWrite probes whether the tool can run against snapshot. It may
	// be called multiple times with different snapshots before the tool
	// runs, and must not mutate tool state observable by a later Run.
	MightWrite(snapshot *ir.IR) Probe

	// Run executes the tool once. Returning a non-nil error discards the
	// edit; returning nil means the edit should be applied.
	Run(ctx Context) error
}
