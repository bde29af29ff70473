// Package tools holds the concrete tool.Tool implementations that make up
// a translation pipeline: loading source, identifying project shape,
// generating a Cargo package, and attempting to build it.
package tools

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
)

// LoadRawSource reads the configured input directory once and publishes it
// as a RawSource representation. It is always runnable and runs exactly
// once in practice: its MightWrite never checks the IR, so a pipeline that
// calls it more than once would add a second RawSource rather than erroring,
// which mirrors the reference tool's own lack of a re-entrancy guard.
type LoadRawSource struct {
	Directory string
}

// Name satisfies tool.Tool.
func (LoadRawSource) Name() string { return "load_raw_source" }

// MightWrite satisfies tool.Tool: this tool has no prerequisites, so it is
// always immediately runnable against a fresh id.
func (LoadRawSource) MightWrite(_ *ir.IR) tool.Probe {
	return tool.Probe{Outcome: tool.Runnable}
}

// Run satisfies tool.Tool.
func (t LoadRawSource) Run(ctx tool.Context) error {
	tree, err := ir.PopulateFrom(t.Directory)
	if err != nil {
		return fmt.Errorf("load_raw_source: %w", err)
	}

	id := ctx.Edit.AddRepresentation(ir.RawSource{Tree: tree})

	var totalBytes uint64

	files := tree.Files()
	for _, f := range files {
		totalBytes += uint64(len(f.Contents))
	}

	ctx.Diagnostics.Logger().Info("loaded raw source",
		"directory", t.Directory, "files", len(files), "size", humanize.Bytes(totalBytes), "id", id.String())

	return nil
}
