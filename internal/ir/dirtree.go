package ir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a representation of a file-system directory tree: a mapping from
// entry name to entry, where each entry is either a file (byte contents)
// or another Dir. Iteration order is always by name, making rendering and
// materialization deterministic.
//
// Dir implements Representation directly; tool kinds such as RawSource and
// CargoPackage wrap it (see kinds.go) to give it a stable kind name while
// reusing its render/materialize logic.
type Dir struct {
	entries map[string]dirEntry
}

type dirEntry struct {
	dir   *Dir
	file  []byte
	isDir bool
}

// NewDir returns an empty directory tree.
func NewDir() *Dir {
	return &Dir{entries: map[string]dirEntry{}}
}

// PopulateFrom recursively builds a Dir from an on-disk directory rooted
// at path. It fails on anything that is not a regular file or a
// directory (symlinks, devices, sockets), since a Dir cannot represent
// those.
func PopulateFrom(path string) (*Dir, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	result := NewDir()

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", filepath.Join(path, entry.Name()), err)
		}

		childPath := filepath.Join(path, entry.Name())

		switch {
		case info.IsDir():
			sub, err := PopulateFrom(childPath)
			if err != nil {
				return nil, err
			}

			result.entries[entry.Name()] = dirEntry{dir: sub, isDir: true}
		case info.Mode().IsRegular():
			contents, err := os.ReadFile(childPath)
			if err != nil {
				return nil, fmt.Errorf("read file %s: %w", childPath, err)
			}

			result.entries[entry.Name()] = dirEntry{file: contents}
		default:
			return nil, fmt.Errorf("unsupported file type %s: %s", childPath, info.Mode().Type())
		}
	}

	return result, nil
}

// sortedNames returns d's entry names in stable (lexical) order.
func (d *Dir) sortedNames() []string {
	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Kind satisfies Representation. Concrete tool kinds override this via
// embedding; Dir's own Kind is only used if a tool stores a bare Dir.
func (d *Dir) Kind() string { return "Dir" }

// Render returns an indented listing of the tree: subdirectories first,
// then files annotated with their byte size, mirroring the reference
// loader's display(level) routine.
func (d *Dir) Render() string {
	var b strings.Builder

	d.render(&b, 0)

	return b.String()
}

func (d *Dir) render(b *strings.Builder, level int) {
	pad := strings.Repeat("  ", level)

	for _, name := range d.sortedNames() {
		entry := d.entries[name]
		if !entry.isDir {
			continue
		}

		fmt.Fprintf(b, "%s%s\n", pad, name)
		entry.dir.render(b, level+1)
	}

	for _, name := range d.sortedNames() {
		entry := d.entries[name]
		if entry.isDir {
			continue
		}

		fmt.Fprintf(b, "%s%s (%dB)\n", pad, name, len(entry.file))
	}
}

// Materialize recreates the tree rooted at path. It fails if path already
// exists, unless overwrite materialization is handled by the caller
// (diagnostics snapshots always materialize into a fresh per-version
// directory, so collision is a bug upstream, not a condition to paper
// over here).
func (d *Dir) Materialize(path string) error {
	err := os.Mkdir(path, 0o755)
	if err != nil {
		return fmt.Errorf("materialize dir %s: %w", path, err)
	}

	for name, entry := range d.entries {
		childPath := filepath.Join(path, name)

		if entry.isDir {
			if err := entry.dir.Materialize(childPath); err != nil {
				return err
			}

			continue
		}

		if err := os.WriteFile(childPath, entry.file, 0o644); err != nil {
			return fmt.Errorf("materialize file %s: %w", childPath, err)
		}
	}

	return nil
}

// Files recursively enumerates every (relative-path, bytes) pair in the
// tree, in stable order. Paths use "/" regardless of OS.
func (d *Dir) Files() []FileEntry {
	var out []FileEntry

	d.collectFiles("", &out)

	return out
}

// FileEntry is one (path, contents) pair yielded by Dir.Files.
type FileEntry struct {
	Path     string
	Contents []byte
}

func (d *Dir) collectFiles(prefix string, out *[]FileEntry) {
	for _, name := range d.sortedNames() {
		entry := d.entries[name]

		relPath := name
		if prefix != "" {
			relPath = prefix + "/" + name
		}

		if entry.isDir {
			entry.dir.collectFiles(relPath, out)

			continue
		}

		*out = append(*out, FileEntry{Path: relPath, Contents: entry.file})
	}
}

// SetFile sets the file at relPath (slash-separated) to contents,
// creating intermediate directories as needed. Mutates d in place; Dir is
// only treated as immutable once it is stored as a Representation in an
// IR, so tools may freely build one up with SetFile before handing it to
// an Edit.
func (d *Dir) SetFile(relPath string, contents []byte) {
	parts := strings.Split(relPath, "/")

	cur := d

	for _, part := range parts[:len(parts)-1] {
		entry, ok := cur.entries[part]
		if !ok || !entry.isDir {
			entry = dirEntry{dir: NewDir(), isDir: true}
			cur.entries[part] = entry
		}

		cur = entry.dir
	}

	cur.entries[parts[len(parts)-1]] = dirEntry{file: contents}
}

// File looks up a file by name at the root of the tree.
func (d *Dir) File(name string) ([]byte, bool) {
	entry, ok := d.entries[name]
	if !ok || entry.isDir {
		return nil, false
	}

	return entry.file, true
}
