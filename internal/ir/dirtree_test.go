package ir_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

func TestDir_SetFileAndFile(t *testing.T) {
	t.Parallel()

	d := ir.NewDir()
	d.SetFile("src/main.rs", []byte("fn main() {}"))
	d.SetFile("Cargo.toml", []byte("[package]\n"))

	contents, ok := d.File("Cargo.toml")
	require.True(t, ok)
	assert.Equal(t, "[package]\n", string(contents))

	_, ok = d.File("src")
	assert.False(t, ok, "a subdirectory is not a file")
}

func TestDir_FilesEnumeratesRecursively(t *testing.T) {
	t.Parallel()

	d := ir.NewDir()
	d.SetFile("src/lib.rs", []byte("pub fn f() {}"))
	d.SetFile("src/util/helpers.rs", []byte("// helpers"))
	d.SetFile("Cargo.toml", []byte("[package]\n"))

	files := d.Files()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	assert.ElementsMatch(t, []string{"Cargo.toml", "src/lib.rs", "src/util/helpers.rs"}, paths)
}

func TestDir_RenderListsDirsBeforeFiles(t *testing.T) {
	t.Parallel()

	d := ir.NewDir()
	d.SetFile("b.txt", []byte("hi"))
	d.SetFile("a/nested.txt", []byte("nested"))

	rendered := d.Render()

	assert.Contains(t, rendered, "a\n")
	assert.Contains(t, rendered, "b.txt (2B)")
	assert.Less(t, strings.Index(rendered, "a\n"), strings.Index(rendered, "b.txt"))
}

func TestPopulateFrom_RoundTripsThroughMaterialize(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "root.txt"), []byte("root"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "nested.txt"), []byte("nested"), 0o644))

	tree, err := ir.PopulateFrom(src)
	require.NoError(t, err)

	files := tree.Files()
	assert.Len(t, files, 2)

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, tree.Materialize(dst))

	got, err := os.ReadFile(filepath.Join(dst, "sub", "nested.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(got))
}

func TestDir_MaterializeFailsIfPathExists(t *testing.T) {
	t.Parallel()

	dst := t.TempDir()

	tree := ir.NewDir()
	err := tree.Materialize(dst)
	assert.Error(t, err, "materialize must fail into an already-existing directory")
}
