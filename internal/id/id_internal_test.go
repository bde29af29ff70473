package id

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewBatch_SequentialAndUnique generates 3000 ids from three concurrent
// goroutines sharing one private counter, each using a different batching
// strategy, and verifies the result is exactly the set {1, ..., 3000} with
// no gaps or duplicates. A private counter (rather than the package-level
// one) keeps this test independent of whatever else runs in parallel.
func TestNewBatch_SequentialAndUnique(t *testing.T) {
	t.Parallel()

	const total = 3000

	var counter atomic.Uint64

	var (
		wg                            sync.WaitGroup
		oneAtATime, chunks, allAtOnce []ID
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		for range 1000 {
			oneAtATime = append(oneAtATime, newBatch(&counter, 1)[0])
		}
	}()

	go func() {
		defer wg.Done()

		for range 10 {
			chunks = append(chunks, newBatch(&counter, 100)...)
		}
	}()

	allAtOnce = newBatch(&counter, 1000)

	wg.Wait()

	found := make([]bool, total)

	for _, group := range [][]ID{oneAtATime, chunks, allAtOnce} {
		assert.Len(t, group, 1000)

		for _, v := range group {
			idx := int(v) - 1
			require.False(t, found[idx], "duplicate id %v", v)
			found[idx] = true
		}
	}

	for i, ok := range found {
		assert.True(t, ok, "missing id %d", i+1)
	}
}

func TestNewBatch_ZeroOrNegativeReturnsNil(t *testing.T) {
	t.Parallel()

	var counter atomic.Uint64

	assert.Nil(t, newBatch(&counter, 0))
	assert.Nil(t, newBatch(&counter, -5))
}

func TestNewBatch_OverflowPanics(t *testing.T) {
	t.Parallel()

	var counter atomic.Uint64
	counter.Store(^uint64(0) - 1)

	assert.PanicsWithError(t, ErrOverflow.Error(), func() {
		newBatch(&counter, 5)
	})
}
