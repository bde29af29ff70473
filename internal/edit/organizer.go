package edit

import (
	"errors"
	"sync"

	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

// ErrIDInUse is returned by NewEdit when a requested id is already
// reserved by another live edit.
var ErrIDInUse = errors.New("organizer: id already reserved by another edit")

// ErrUnknownID is returned by NewEdit when a requested id is neither
// present in the current IR nor previously allocated through this
// Organizer.
var ErrUnknownID = errors.New("organizer: id not present in the IR")

// Organizer owns the authoritative current IR snapshot and mediates all
// edits against it. new_edit and apply_edit are serialized with respect
// to each other via a single mutex. Snapshot holds that mutex only for
// the pointer read; the returned *ir.IR is immutable and shared by
// pointer, so reading it needs no lock.
type Organizer struct {
	mu sync.Mutex

	current *ir.IR

	// reserved holds, for each id currently claimed by a live edit, the
	// edit's generation number. Released on apply or on Abandon.
	reserved map[id.ID]uint64

	// knownIDs is every id reserved by NewEdit or allocated by an edit
	// that ApplyEdit has applied, whether or not it has since appeared in
	// current. Ids allocated by an edit that is abandoned or not yet
	// applied are not recorded here.
	knownIDs map[id.ID]struct{}

	nextGeneration uint64
}

// NewOrganizer creates an Organizer whose initial snapshot is empty.
func NewOrganizer() *Organizer {
	return &Organizer{
		current:  ir.Empty(),
		reserved: map[id.ID]uint64{},
		knownIDs: map[id.ID]struct{}{},
	}
}

// Snapshot returns the current immutable IR snapshot. Cheap: it is a
// pointer read under the mutex, not a copy of the IR's contents.
func (o *Organizer) Snapshot() *ir.IR {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.current
}

// Reservation is a live claim on a set of ids, returned by NewEdit
// alongside the Edit itself. The runner hands the Reservation back to
// ApplyEdit or Abandon when the tool invocation finishes.
type Reservation struct {
	generation uint64
	ids        []id.ID
}

// NewEdit creates an Edit reserving ids. Each id must be present in the
// current snapshot or be known to this Organizer, that is, reserved by a
// prior NewEdit call or allocated by an edit that ApplyEdit has applied.
// An id allocated by an edit that is abandoned or not yet applied is not
// known and fails the call with ErrUnknownID, as does any other id this
// Organizer has never seen; any id already reserved by another live edit
// fails the whole call with ErrIDInUse. Ids allocated via
// Edit.AddRepresentation/NewID after this call need no prior reservation.
func (o *Organizer) NewEdit(ids []id.ID) (*Edit, *Reservation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, i := range ids {
		if _, busy := o.reserved[i]; busy {
			return nil, nil, ErrIDInUse
		}

		_, inSnapshot := o.current.Get(i)
		_, known := o.knownIDs[i]

		if !inSnapshot && !known {
			return nil, nil, ErrUnknownID
		}
	}

	o.nextGeneration++
	gen := o.nextGeneration

	for _, i := range ids {
		o.reserved[i] = gen
		o.knownIDs[i] = struct{}{}
	}

	return New(ids), &Reservation{generation: gen, ids: ids}, nil
}

// ApplyEdit merges e's staged representations into a new snapshot,
// releases r's reservations, and publishes the new snapshot. Ids that e
// allocated itself (via AddRepresentation/NewID, not present in r) are
// recorded as known so a later NewEdit reserving them for further writes
// does not fail with ErrUnknownID.
func (o *Organizer) ApplyEdit(e *Edit, r *Reservation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	changes := e.changes()

	for i := range changes {
		o.knownIDs[i] = struct{}{}
	}

	for _, i := range e.writableIDs() {
		o.knownIDs[i] = struct{}{}
	}

	o.current = o.current.WithChanges(changes)

	o.releaseLocked(r)
}

// Abandon releases r's reservations without applying any changes. Used
// when a tool errors or panics: the Edit is dropped and the IR is
// untouched.
func (o *Organizer) Abandon(r *Reservation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.releaseLocked(r)
}

func (o *Organizer) releaseLocked(r *Reservation) {
	for _, i := range r.ids {
		if o.reserved[i] == r.generation {
			delete(o.reserved, i)
		}
	}
}
