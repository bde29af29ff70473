// Package diagnostics owns the on-disk diagnostics tree the core writes
// as it runs: per-IR-version materialized snapshots, per-tool-run
// scratch directories, and a structured event log. No diagnostics
// failure is ever allowed to fail the pipeline; every I/O error in this
// package is logged and swallowed.
package diagnostics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/harvest-translate/internal/config"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

const (
	messagesFileName = "messages"
	irDirName        = "ir"
	stepsDirName     = "steps"
	indexFileName    = "index"
)

// Collector owns the diagnostics root directory and mediates all writes
// to it. Its internal state is behind a mutex that may be acquired from
// any goroutine. ReportIRVersion, which does not take that mutex,
// recovers and logs a panic raised while it writes rather than letting
// it reach the caller.
type Collector struct {
	mu sync.Mutex

	root          string
	ephemeral     bool
	messagesFile  *os.File
	filter        config.LogFilter
	toolRunCounts map[string]uint64
	logger        *slog.Logger
}

// New creates a Collector rooted at cfg.Diagnostics. If that path is
// empty, a temporary directory is used instead and removed by Close. If
// the path is non-empty and already populated, New fails unless
// cfg.Force is set, in which case the existing contents are removed.
func New(cfg *config.Config) (*Collector, error) {
	filter, err := config.ParseLogFilter(cfg.LogFilter)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	root := cfg.Diagnostics
	ephemeral := root == ""

	if ephemeral {
		root, err = os.MkdirTemp("", "harvest-translate-diagnostics-")
		if err != nil {
			return nil, fmt.Errorf("diagnostics: create temp dir: %w", err)
		}
	} else if err := prepareDir(root, cfg.Force); err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: resolve root: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(root, irDirName), 0o755); err != nil {
		return nil, fmt.Errorf("diagnostics: create ir dir: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(root, stepsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("diagnostics: create steps dir: %w", err)
	}

	messagesFile, err := os.OpenFile(
		filepath.Join(root, messagesFileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_EXCL,
		0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: create messages file: %w", err)
	}

	c := &Collector{
		root:          root,
		ephemeral:     ephemeral,
		messagesFile:  messagesFile,
		filter:        filter,
		toolRunCounts: map[string]uint64{},
	}

	c.logger = slog.New(newFanoutHandler(
		slog.NewTextHandler(messagesFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
		newFilteredHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}), filter, ""),
	))

	return c, nil
}

// prepareDir ensures path exists and is empty, removing existing
// contents first when force is set.
func prepareDir(path string, force bool) error {
	entries, err := os.ReadDir(path)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(path, 0o755)
	case err != nil:
		return fmt.Errorf("read diagnostics dir: %w", err)
	case len(entries) == 0:
		return nil
	case !force:
		return fmt.Errorf("%w: %s", errNotEmpty, path)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(path, entry.Name())); err != nil {
			return fmt.Errorf("clear diagnostics dir: %w", err)
		}
	}

	return nil
}

// Root returns the diagnostics directory's absolute path.
func (c *Collector) Root() string { return c.root }

// Logger returns the global logger: every record reaches the messages
// file unfiltered and the console sink filtered by the configured log
// filter. Use ToolReporter.Logger for a logger additionally tee'd to a
// per-tool-run log.
func (c *Collector) Logger() *slog.Logger { return c.logger }

// Close flushes and closes the messages file, and removes the root
// directory if it was created as a temporary directory.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.messagesFile.Close()

	if c.ephemeral {
		if rmErr := os.RemoveAll(c.root); rmErr != nil && err == nil {
			err = rmErr
		}
	}

	if err != nil {
		return fmt.Errorf("diagnostics: close: %w", err)
	}

	return nil
}

// ReportIRVersion materializes every representation in snapshot under
// ir/<version>/ and writes the matching index file. Materialization
// failures are logged, not returned: a diagnostics failure must never
// fail the pipeline.
func (c *Collector) ReportIRVersion(version uint64, snapshot *ir.IR) {
	defer c.recoverPoison("report_ir_version")

	versionDir := filepath.Join(c.root, irDirName, fmt.Sprintf("%03d", version))

	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		c.logger.Error("failed to create IR version directory", "version", version, "error", err)

		return
	}

	entries := snapshot.All()

	var index []byte

	for _, entry := range entries {
		idPath := filepath.Join(versionDir, entry.ID.String())

		if err := entry.Repr.Materialize(idPath); err != nil {
			c.logger.Error("failed to materialize representation", "id", entry.ID.String(), "error", err)
		}

		index = fmt.Appendf(index, "%s: %s\n", entry.ID.String(), entry.Repr.Kind())
	}

	if err := os.WriteFile(filepath.Join(versionDir, indexFileName), index, 0o644); err != nil {
		c.logger.Error("failed to write IR index", "version", version, "error", err)
	}
}

// StartToolRun reserves the next steps/<name>_<n>/ directory for
// toolName (n starts at 1 and is monotone per tool name) and returns a
// ToolReporter bound to it.
func (c *Collector) StartToolRun(toolName string, attempt int) (*ToolReporter, error) {
	c.mu.Lock()
	c.toolRunCounts[toolName]++
	n := c.toolRunCounts[toolName]
	c.mu.Unlock()

	dirName := fmt.Sprintf("%s_%d", toolName, n)
	workDir := filepath.Join(c.root, stepsDirName, dirName)

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("diagnostics: create tool run dir: %w", err)
	}

	runLog, err := os.OpenFile(filepath.Join(workDir, messagesFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: create tool run log: %w", err)
	}

	runID := uuid.New()

	logger := slog.New(newFanoutHandler(
		slog.NewTextHandler(runLog, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(c.messagesFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
		newFilteredHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}), c.filter, toolName),
	)).With("tool", toolName, "run", n, "run_id", runID.String())

	if err := manifestPersister.Save(workDir, func() *runManifest {
		return &runManifest{Tool: toolName, Attempt: attempt, RunID: runID.String(), StartedAt: time.Now()}
	}); err != nil {
		c.logger.Error("failed to write tool run manifest", "tool", toolName, "error", err)
	}

	return &ToolReporter{runID: runID, workDir: workDir, runLog: runLog, logger: logger}, nil
}

// recoverPoison logs and swallows a panic raised by the deferring
// diagnostics operation, so a single bad materialization or write can't
// take the pipeline down with it.
func (c *Collector) recoverPoison(op string) {
	if r := recover(); r != nil {
		c.logger.Error("diagnostics operation panicked; state recovered", "op", op, "panic", r)
	}
}
