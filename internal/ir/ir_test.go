package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

func TestEmpty_HasNoEntries(t *testing.T) {
	t.Parallel()

	v := ir.Empty()
	assert.Equal(t, 0, v.Len())
	assert.Empty(t, v.All())
}

func TestProjectKind_RenderAndMaterializeSentinel(t *testing.T) {
	t.Parallel()

	lib := ir.ProjectKind{Value: ir.ProjectKindLibrary}
	assert.Equal(t, "ProjectKind", lib.Kind())
	assert.Equal(t, "Library", lib.Render())

	exe := ir.ProjectKind{Value: ir.ProjectKindExecutable}
	assert.Equal(t, "Executable", exe.Render())

	root := t.TempDir() + "/lib"
	assert.NoError(t, lib.Materialize(root))
	assert.FileExists(t, root+"/library")
}

func TestCargoBuildResult_RenderReflectsOutcome(t *testing.T) {
	t.Parallel()

	ok := ir.CargoBuildResult{Ok: true, Artifacts: []ir.BuildArtifact{{Path: "bin/app"}}}
	assert.Contains(t, ok.Render(), "1 artifacts")

	failed := ir.CargoBuildResult{Ok: false, Diagnostic: "error[E0308]: mismatched types"}
	assert.Contains(t, failed.Render(), "mismatched types")

	assert.NoError(t, ok.Materialize(t.TempDir()))
}

func TestProjectKind_MaterializeWritesSentinelFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir() + "/kind"

	exe := ir.ProjectKind{Value: ir.ProjectKindExecutable}
	assert.NoError(t, exe.Materialize(root))
	assert.FileExists(t, root+"/executable")
}
