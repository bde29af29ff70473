// Package ir implements HarvestIR: the immutable, versioned map from Id to
// Representation that the scheduler, runner, and tools operate over.
package ir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
)

// Representation is an opaque, immutable, thread-safely shareable value
// tagged with a stable kind name. Once created, a Representation is never
// mutated; any "modification" is a new Representation replacing the old
// one under the same id in a later IR version.
//
// The core invokes only these three methods; it never inspects a
// Representation's concrete type. Tools supply new kinds by implementing
// this interface.
type Representation interface {
	// Kind returns the stable, short ASCII kind name (e.g. "RawSource").
	Kind() string

	// Render returns a human-readable rendering of the representation.
	// The diagnostics "index" files list each entry's Kind, not this.
	Render() string

	// Materialize writes the representation to the given filesystem path.
	// Kinds that are naturally a single blob write one file at path;
	// kinds that are directory trees recreate the tree rooted at path.
	Materialize(path string) error
}

// Entry pairs an Id with the Representation currently stored under it.
type Entry struct {
	ID   id.ID
	Repr Representation
}

// MaterializeRendered writes render to a single file at path, creating
// parent directories as needed. This is the default materialization per
// the spec's representation-kinds table; kinds representing directory
// trees implement Materialize directly instead of calling this.
func MaterializeRendered(path string, render string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("materialize %s: %w", path, err)
	}

	err = os.WriteFile(path, []byte(render), 0o644)
	if err != nil {
		return fmt.Errorf("materialize %s: %w", path, err)
	}

	return nil
}
