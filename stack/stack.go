// File: stack/stack.go
// Author: momentics <momentics@gmail.com>
//
// Guarded stack pool with free-list reuse and optional randomized
// offset. Grounded on the teacher's NUMA-bucketed buffer pool
// (pool/base_bufferpool.go: a free-list-backed factory keyed by size,
// first-fit reuse before allocating new backing memory) adapted here to
// the original_source/stk.c guarded-mmap stack allocator: two PROT_NONE
// redzone pages flank the usable region, and release never unmaps —
// the allocator trades memory for reuse latency.

package stack

import (
	"fmt"
	"math/rand"

	"github.com/momentics/fiberrt/internal/list"
)

// Stack is a guarded, reusable stack segment. The zero value is not
// valid; construct via Allocator.Allocate.
type Stack struct {
	region []byte // full backing mapping: leading redzone + usable [+ random slop] + trailing redzone
	usable []byte // the fiber-usable region; len(usable) == size
	size   int
	node   list.Node
}

// Size returns the usable size of the stack, in bytes.
func (s *Stack) Size() int { return s.size }

// Bytes returns the usable region. Writing outside it (into a redzone
// page) faults synchronously on platforms where Allocator backs stacks
// with real guard pages.
func (s *Stack) Bytes() []byte { return s.usable }

// Allocator is a free-list of guarded stacks, reused first-fit by
// usable size before any new backing memory is reserved.
type Allocator struct {
	freeList    *list.List
	defaultSize int
	randomize   bool
	rng         *rand.Rand
	freeCount   int
}

// NewAllocator creates an allocator whose Allocate(0) requests default
// as the usable size; randomize controls whether new backing mappings
// receive a randomized 16-byte-aligned offset within their guard pages.
func NewAllocator(defaultSize int, randomize bool) *Allocator {
	if defaultSize <= 0 {
		defaultSize = 128 * 1024
	}
	a := &Allocator{
		freeList:    list.New(),
		defaultSize: defaultSize,
		randomize:   randomize,
	}
	if randomize {
		a.rng = rand.New(rand.NewSource(1))
	}
	return a
}

// Randomize enables or disables randomized stack offsets. Enabling
// reseeds the local PRNG from nowUS (the runtime's current time
// source), matching original_source/stk.c's st_randomize_stacks, which
// reseeds from st_utime() on every enable rather than using a fixed
// seed — so repeated enable/disable cycles within one process don't
// replay the same offsets.
func (a *Allocator) Randomize(on bool, nowUS int64) {
	if on {
		a.rng = rand.New(rand.NewSource(nowUS))
	}
	a.randomize = on
}

// Allocate returns a stack with usable size >= requested (requested<=0
// uses the allocator's default). It first scans the free list in
// insertion order for a first-fit reuse candidate; on miss it reserves
// fresh backing memory.
func (a *Allocator) Allocate(requested int) (*Stack, error) {
	if requested <= 0 {
		requested = a.defaultSize
	}
	var found *Stack
	a.freeList.EachUntil(func(n *list.Node) bool {
		s := n.Owner.(*Stack)
		if s.size >= requested {
			found = s
			return true
		}
		return false
	})
	if found != nil {
		found.node.Remove()
		a.freeCount--
		return found, nil
	}
	s, err := a.newBackingStack(requested)
	if err != nil {
		return nil, fmt.Errorf("stack: allocate %d bytes: %w", requested, err)
	}
	s.node.Owner = s
	return s, nil
}

// Release returns s to the free list. The backing mapping is not
// unmapped; it will be reused by a future Allocate call whose requested
// size fits.
func (a *Allocator) Release(s *Stack) {
	if s == nil {
		return
	}
	a.freeList.PushBack(&s.node)
	a.freeCount++
}

// FreeCount returns the number of stacks currently on the free list.
func (a *Allocator) FreeCount() int {
	return a.freeCount
}
