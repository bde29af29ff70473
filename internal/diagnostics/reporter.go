package diagnostics

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/harvest-translate/pkg/persist"
)

// runManifest is the small per-run summary persisted alongside a tool's
// steps/<tool>_<n>/ scratch directory, so a post-mortem over the
// diagnostics tree doesn't need to parse the messages log to learn which
// run id and attempt a given directory belongs to.
type runManifest struct {
	Tool      string    `json:"tool"`
	Attempt   int       `json:"attempt"`
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

var manifestPersister = persist.NewPersister[runManifest]("manifest", persist.NewJSONCodec())

// ToolReporter is the per-tool-run diagnostics handle given to a tool
// through tool.Context.Diagnostics. It satisfies tool.Diagnostics.
type ToolReporter struct {
	runID   uuid.UUID
	workDir string
	runLog  *os.File
	logger  *slog.Logger
}

// RunID uniquely identifies this tool invocation, so its span, log
// lines, and steps/<tool>_<n>/ directory can be cross-referenced even
// when two runs of the same tool interleave in the messages log.
func (r *ToolReporter) RunID() uuid.UUID { return r.runID }

// WorkDir satisfies tool.Diagnostics: it is the tool's private
// steps/<tool>_<n>/ scratch directory.
func (r *ToolReporter) WorkDir() string { return r.workDir }

// Logger returns a logger whose records are tee'd to this run's log file
// in addition to the global messages file and console sink.
func (r *ToolReporter) Logger() *slog.Logger { return r.logger }

// Close flushes and closes the per-run log file. The runner's worker
// goroutine that owns this reporter calls it once the tool's Run has
// returned, so the run's log is complete before the run is reported done.
func (r *ToolReporter) Close() error {
	if err := r.runLog.Close(); err != nil {
		return fmt.Errorf("diagnostics: close tool run log: %w", err)
	}

	return nil
}
