package diagnostics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/harvest-translate/internal/config"
	"github.com/Sumatoshi-tech/harvest-translate/internal/diagnostics"
	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

func TestNew_EphemeralDirIsRemovedOnClose(t *testing.T) {
	t.Parallel()

	c, err := diagnostics.New(&config.Config{LogFilter: "info"})
	require.NoError(t, err)

	root := c.Root()
	assert.DirExists(t, root)

	require.NoError(t, c.Close())
	assert.NoDirExists(t, root)
}

func TestNew_NonEmptyDirWithoutForceFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover"), []byte("x"), 0o644))

	_, err := diagnostics.New(&config.Config{Diagnostics: dir, LogFilter: "info"})
	assert.Error(t, err)
}

func TestNew_ForceClearsExistingContents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover"), []byte("x"), 0o644))

	c, err := diagnostics.New(&config.Config{Diagnostics: dir, Force: true, LogFilter: "info"})
	require.NoError(t, err)
	defer c.Close()

	assert.NoFileExists(t, filepath.Join(dir, "leftover"))
	assert.DirExists(t, filepath.Join(dir, "ir"))
}

func TestReportIRVersion_WritesIndexAndMaterializes(t *testing.T) {
	t.Parallel()

	c, err := diagnostics.New(&config.Config{LogFilter: "info"})
	require.NoError(t, err)
	defer c.Close()

	org := edit.NewOrganizer()
	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)

	a := e.AddRepresentation(ir.ProjectKind{Value: ir.ProjectKindLibrary})
	org.ApplyEdit(e, res)

	c.ReportIRVersion(0, org.Snapshot())

	versionDir := filepath.Join(c.Root(), "ir", "000")
	assert.DirExists(t, versionDir)

	index, err := os.ReadFile(filepath.Join(versionDir, "index"))
	require.NoError(t, err)
	assert.Contains(t, string(index), a.String()+": ProjectKind\n")

	assert.FileExists(t, filepath.Join(versionDir, a.String(), "library"))
}

func TestStartToolRun_CreatesStepsDirectoryAndIncrementsCounter(t *testing.T) {
	t.Parallel()

	c, err := diagnostics.New(&config.Config{LogFilter: "info"})
	require.NoError(t, err)
	defer c.Close()

	r1, err := c.StartToolRun("load_raw_source", 1)
	require.NoError(t, err)
	defer r1.Close()

	r2, err := c.StartToolRun("load_raw_source", 1)
	require.NoError(t, err)
	defer r2.Close()

	assert.Equal(t, filepath.Join(c.Root(), "steps", "load_raw_source_1"), r1.WorkDir())
	assert.Equal(t, filepath.Join(c.Root(), "steps", "load_raw_source_2"), r2.WorkDir())
	assert.DirExists(t, r1.WorkDir())
	assert.DirExists(t, r2.WorkDir())
	assert.FileExists(t, filepath.Join(r1.WorkDir(), "manifest.json"))
	assert.NotEqual(t, r1.RunID(), r2.RunID())
}
