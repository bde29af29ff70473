// Package edit implements the scoped, mutable staging area a tool uses to
// propose changes to the IR, and the Organizer that mediates edits into
// new IR versions.
package edit

import (
	"errors"
	"sort"

	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

// ErrNotWritable is returned by TryWrite when the given id is not in the
// edit's writable set.
var ErrNotWritable = errors.New("edit: cannot write this id")

// Edit is a scoped, mutable staging area for a single tool invocation. It
// carries the writable set (ids the tool may produce: pre-reserved plus
// any allocated through the edit itself) and, for each writable id, the
// representation staged under it, if any.
//
// The general pattern for a tool editing an existing id's representation:
// read it out of the snapshot, derive a new value, then Write it back
// under the same id.
type Edit struct {
	writable map[id.ID]ir.Representation // value is nil until written
}

// New creates an Edit limited to changing the given set of ids. Callers
// outside this package get an Edit only from Organizer.NewEdit, which
// reserves the ids first; New itself does no reservation bookkeeping.
func New(mightChange []id.ID) *Edit {
	writable := make(map[id.ID]ir.Representation, len(mightChange))
	for _, i := range mightChange {
		writable[i] = nil
	}

	return &Edit{writable: writable}
}

// AddRepresentation allocates a fresh id, marks it writable, and stores
// repr under it. Returns the new id.
func (e *Edit) AddRepresentation(repr ir.Representation) id.ID {
	newID := id.New()
	e.writable[newID] = repr

	return newID
}

// NewID allocates a fresh id, marks it writable, and leaves it unwritten.
func (e *Edit) NewID() id.ID {
	newID := id.New()
	e.writable[newID] = nil

	return newID
}

// TryWrite stages repr under id. Fails with ErrNotWritable if id is not in
// this edit's writable set.
func (e *Edit) TryWrite(i id.ID, repr ir.Representation) error {
	if _, ok := e.writable[i]; !ok {
		return ErrNotWritable
	}

	e.writable[i] = repr

	return nil
}

// Write stages repr under id. It panics if id is not writable: per the
// core's error handling design, writing an unreserved id is a programming
// error, fatal to the offending worker and never meant to propagate past
// the runner's panic recovery.
func (e *Edit) Write(i id.ID, repr ir.Representation) {
	if err := e.TryWrite(i, repr); err != nil {
		panic(err)
	}
}

// ChangedIDs returns the writable ids that currently hold a
// representation, in ascending order.
func (e *Edit) ChangedIDs() []id.ID {
	out := make([]id.ID, 0, len(e.writable))

	for i, repr := range e.writable {
		if repr != nil {
			out = append(out, i)
		}
	}

	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })

	return out
}

// writableIDs returns every id in the writable set regardless of whether
// it has been written, in ascending order. Used by the Organizer to
// release reservations.
func (e *Edit) writableIDs() []id.ID {
	out := make([]id.ID, 0, len(e.writable))
	for i := range e.writable {
		out = append(out, i)
	}

	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })

	return out
}

// changes returns the (id -> representation) pairs staged in this edit,
// for handing to the Organizer's apply path.
func (e *Edit) changes() map[id.ID]ir.Representation {
	out := make(map[id.ID]ir.Representation, len(e.writable))

	for i, repr := range e.writable {
		if repr != nil {
			out[i] = repr
		}
	}

	return out
}
