package ir

import (
	"sort"

	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
)

// IR is an immutable mapping from Id to Representation, iterated in
// ascending id order. A new IR is produced only by the Organizer applying
// an Edit; IR values themselves never mutate after construction.
type IR struct {
	entries map[id.ID]Representation
}

// Empty returns the zero IR version: no ids, no representations. This is
// the Organizer's initial snapshot before any Edit has been applied.
func Empty() *IR {
	return &IR{entries: map[id.ID]Representation{}}
}

// fromMap wraps an already-built map as an IR without copying. Callers
// must not mutate m after the call; only the Organizer's apply path uses
// this, and it always hands fromMap a map nobody else can reach.
func fromMap(m map[id.ID]Representation) *IR {
	return &IR{entries: m}
}

// Has reports whether id is present in this IR version.
func (ir *IR) Has(i id.ID) bool {
	_, ok := ir.entries[i]

	return ok
}

// Get returns the representation stored under id, if any.
func (ir *IR) Get(i id.ID) (Representation, bool) {
	repr, ok := ir.entries[i]

	return repr, ok
}

// Len returns the number of ids present in this IR version.
func (ir *IR) Len() int {
	return len(ir.entries)
}

// All returns every (id, representation) pair in this IR version, sorted
// by ascending id. The returned slice is a fresh copy; mutating it does
// not affect the IR.
func (ir *IR) All() []Entry {
	out := make([]Entry, 0, len(ir.entries))
	for i, repr := range ir.entries {
		out = append(out, Entry{ID: i, Repr: repr})
	}

	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })

	return out
}

// OfKind returns every representation of the given kind, in ascending id
// order.
func (ir *IR) OfKind(kind string) []Entry {
	var out []Entry

	for _, entry := range ir.All() {
		if entry.Repr.Kind() == kind {
			out = append(out, entry)
		}
	}

	return out
}

// WithChanges returns a new IR equal to ir with each (id, repr) pair in
// changes inserted or overridden. ir itself is not mutated: this is a
// copy-on-write clone of the entry map, as required by the Organizer's
// apply_edit contract (§4.5: copy the current snapshot, then insert or
// override each staged representation). Only the Organizer calls this;
// it is exported because the Organizer lives in a different package.
func (ir *IR) WithChanges(changes map[id.ID]Representation) *IR {
	next := make(map[id.ID]Representation, len(ir.entries)+len(changes))

	for i, repr := range ir.entries {
		next[i] = repr
	}

	for i, repr := range changes {
		next[i] = repr
	}

	return fromMap(next)
}
