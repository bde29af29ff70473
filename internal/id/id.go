// Package id provides the process-global identifier allocator for
// HarvestIR representations. Ids are monotone, never reused, and cheap to
// allocate in bulk.
package id

import (
	"fmt"
	"sync/atomic"
)

// ErrOverflow is the panic value raised by [New] and [NewBatch] when the
// 64-bit id space is exhausted. Per the core's error handling design this
// is a programming error: it is fatal to the goroutine that triggered it
// and must never propagate past the runner's panic recovery.
var ErrOverflow = fmt.Errorf("harvest-translate/internal/id: allocation overflow")

// ID refers to a particular representation instance in the IR. The zero
// value is never produced by [New] or [NewBatch]; it is reserved to let
// callers use ID as a map key sentinel when convenient.
type ID uint64

// String renders the ID the way diagnostics directory entries name it.
func (i ID) String() string {
	return fmt.Sprintf("%03d", uint64(i))
}

// highestID is the highest ID allocated so far, process-wide. Each
// NewBatch call starts allocating at highestID+1.
var highestID atomic.Uint64

// New returns a single ID that has not been seen before in this process.
func New() ID {
	return newBatch(&highestID, 1)[0]
}

// NewBatch returns n fresh, unique, strictly increasing IDs. Allocating in
// bulk costs one atomic add regardless of n, which matters when a tool
// wants to reserve ids for every Representation it plans to write in an
// Edit before it starts writing them.
func NewBatch(n int) []ID {
	return newBatch(&highestID, n)
}

// newBatch is New/NewBatch with an injected counter, so tests can use a
// private counter and run in parallel without interfering with each other.
func newBatch(counter *atomic.Uint64, n int) []ID {
	if n <= 0 {
		return nil
	}

	prev := counter.Add(uint64(n)) - uint64(n)

	out := make([]ID, n)
	for i := range out {
		next := prev + uint64(i) + 1
		if next == 0 {
			// 64-bit wraparound. There is no unreserved id left to hand back
			// to the caller; this goroutine cannot make progress.
			panic(ErrOverflow)
		}

		out[i] = ID(next)
	}

	return out
}
