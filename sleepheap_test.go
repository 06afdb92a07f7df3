// File: sleepheap_test.go
// Author: momentics <momentics@gmail.com>

package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSleepHeapOrdering is spec.md §8 property 11: arbitrary-order
// insertion followed by repeated extract-min yields non-decreasing
// deadlines, equal deadlines extracted in insertion order.
func TestSleepHeapOrdering(t *testing.T) {
	require.NoError(t, Init())
	r := rt
	floor := len(r.sleepHeap)

	durationsUS := []int64{30_000, 10_000, 20_000, 10_000, 50_000}
	inserted := make([]*Fiber, len(durationsUS))
	for i, us := range durationsUS {
		f := &Fiber{id: uint64(100000 + i)}
		inserted[i] = f
		r.sleepHeapInsert(f, us)
	}
	require.Len(t, r.sleepHeap, floor+len(durationsUS))

	var order []int64
	var ids []uint64
	for len(r.sleepHeap) > floor {
		f := r.sleepHeap[0]
		order = append(order, f.deadline-r.lastClockUS)
		ids = append(ids, f.id)
		r.sleepHeapDelete(f)
	}

	require.Equal(t, []int64{10_000, 10_000, 20_000, 30_000, 50_000}, order)
	// The two equal (10ms) deadlines were inserted at indices 1 and 3;
	// insertion-order tie-break means index 1's fiber (id 100001)
	// extracts before index 3's (id 100003).
	require.Equal(t, uint64(100001), ids[0])
	require.Equal(t, uint64(100003), ids[1])
}

// TestSleepHeapDeleteArbitrary confirms a sleeper removed out of order
// (as Interrupt does) leaves the remaining heap correctly ordered.
func TestSleepHeapDeleteArbitrary(t *testing.T) {
	require.NoError(t, Init())
	r := rt
	floor := len(r.sleepHeap)

	a := &Fiber{id: 200001}
	b := &Fiber{id: 200002}
	c := &Fiber{id: 200003}
	r.sleepHeapInsert(a, 10_000)
	r.sleepHeapInsert(b, 20_000)
	r.sleepHeapInsert(c, 30_000)

	r.sleepHeapDelete(b)
	require.Len(t, r.sleepHeap, floor+2)

	first := r.sleepHeap[0]
	require.Equal(t, uint64(200001), first.id)
	r.sleepHeapDelete(a)
	require.Len(t, r.sleepHeap, floor+1)
	require.Equal(t, uint64(200003), r.sleepHeap[0].id)
	r.sleepHeapDelete(c)
	require.Len(t, r.sleepHeap, floor)
}
