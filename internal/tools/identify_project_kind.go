package tools

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
)

// IdentifyProjectKind waits for a RawSource to exist, then inspects its
// CMakeLists.txt for the first add_executable(/add_library( directive to
// decide whether the source builds a binary or a library.
type IdentifyProjectKind struct{}

// Name satisfies tool.Tool.
func (IdentifyProjectKind) Name() string { return "identify_project_kind" }

// MightWrite satisfies tool.Tool: it reports NotRunnable once a
// ProjectKind exists, since a second run would only add a redundant
// representation, TryAgain while no RawSource is present, and Runnable
// otherwise. Run itself fails unless exactly one RawSource is present.
func (IdentifyProjectKind) MightWrite(snapshot *ir.IR) tool.Probe {
	if len(snapshot.OfKind("ProjectKind")) > 0 {
		return tool.Probe{Outcome: tool.NotRunnable}
	}

	if len(snapshot.OfKind("RawSource")) == 0 {
		return tool.Probe{Outcome: tool.TryAgain}
	}

	return tool.Probe{Outcome: tool.Runnable}
}

// Run satisfies tool.Tool.
func (IdentifyProjectKind) Run(ctx tool.Context) error {
	sources := ctx.Snapshot.OfKind("RawSource")
	if len(sources) != 1 {
		return fmt.Errorf("identify_project_kind: expected exactly one RawSource, found %d", len(sources))
	}

	source, ok := sources[0].Repr.(ir.RawSource)
	if !ok {
		return fmt.Errorf("identify_project_kind: RawSource entry held unexpected type %T", sources[0].Repr)
	}

	contents, ok := source.Tree.File("CMakeLists.txt")
	if !ok {
		ctx.Diagnostics.Logger().Warn("no CMakeLists.txt found; leaving project kind unidentified")

		return nil
	}

	kind := ir.ProjectKindLibrary

	for _, line := range strings.Split(string(contents), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "add_executable("):
			kind = ir.ProjectKindExecutable
		case strings.HasPrefix(trimmed, "add_library("):
			kind = ir.ProjectKindLibrary
		default:
			continue
		}

		break
	}

	id := ctx.Edit.AddRepresentation(ir.ProjectKind{Value: kind})

	ctx.Diagnostics.Logger().Info("identified project kind", "kind", kind.String(), "id", id.String())

	return nil
}
