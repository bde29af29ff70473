package tools_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
)

// fakeDiagnostics is a minimal tool.Diagnostics for tests: it gives every
// run the same scratch directory and a logger that discards output.
type fakeDiagnostics struct {
	dir    string
	logger *slog.Logger
}

func newFakeDiagnostics(dir string) *fakeDiagnostics {
	return &fakeDiagnostics{dir: dir, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (f *fakeDiagnostics) WorkDir() string      { return f.dir }
func (f *fakeDiagnostics) Logger() *slog.Logger { return f.logger }

// runTool runs tl against org as the caller has seeded it, reserving
// ids as its MightWrite probe declares, and returns the applied snapshot.
func runTool(t *testing.T, tl tool.Tool, org *edit.Organizer, diagDir string) (*ir.IR, error) {
	t.Helper()

	snapshot := org.Snapshot()
	probe := tl.MightWrite(snapshot)

	e, reservation, err := org.NewEdit(probe.IDs)
	if err != nil {
		return nil, err
	}

	runErr := tl.Run(toolContext(snapshot, e, diagDir))
	if runErr != nil {
		org.Abandon(reservation)

		return org.Snapshot(), runErr
	}

	org.ApplyEdit(e, reservation)

	return org.Snapshot(), nil
}

func toolContext(snapshot *ir.IR, e *edit.Edit, diagDir string) tool.Context {
	return tool.Context{
		Ctx:         context.Background(),
		Snapshot:    snapshot,
		Edit:        e,
		Diagnostics: newFakeDiagnostics(diagDir),
	}
}

// toolContextWithConfig is toolContext plus an opaque per-tool config
// table, for exercising the tools.toolConfig decode path.
func toolContextWithConfig(snapshot *ir.IR, e *edit.Edit, diagDir string, cfg map[string]map[string]any) tool.Context {
	c := toolContext(snapshot, e, diagDir)
	c.Config = cfg

	return c
}

// idOf finds the single id holding a representation of the given kind.
func idOf(snapshot *ir.IR, kind string) (id.ID, bool) {
	entries := snapshot.OfKind(kind)
	if len(entries) != 1 {
		return 0, false
	}

	return entries[0].ID, true
}
