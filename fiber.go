// File: fiber.go
// Author: momentics <momentics@gmail.com>
//
// Fiber: a user-space unit of execution with its own accounted stack
// and context, switched cooperatively by the scheduler in context.go.

package fiber

import (
	"github.com/momentics/fiberrt/internal/list"
	"github.com/momentics/fiberrt/reactor"
	"github.com/momentics/fiberrt/stack"
)

// State is one of the fiber lifecycle states named in spec.md §3/§4.5.
type State int

const (
	StateRunning State = iota
	StateRunnable
	StateIOWait
	StateLockWait
	StateCondWait
	StateSleeping
	StateZombie
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateRunnable:
		return "RUNNABLE"
	case StateIOWait:
		return "IO_WAIT"
	case StateLockWait:
		return "LOCK_WAIT"
	case StateCondWait:
		return "COND_WAIT"
	case StateSleeping:
		return "SLEEPING"
	case StateZombie:
		return "ZOMBIE"
	case StateSuspended:
		return "SUSPENDED"
	default:
		return "UNKNOWN"
	}
}

// Flags is a bitset of fiber modifiers.
type Flags uint8

const (
	FlagPrimordial Flags = 1 << iota
	FlagIdle
	FlagOnSleepHeap
	FlagInterrupted
	FlagTimedOut
)

// MaxKeys is the process-global fiber-local-storage key limit, matching
// original_source/common.h's ST_KEYS_MAX.
const MaxKeys = 16

// NoTimeout requests an unbounded wait from Poll, Usleep, or Cond.Wait.
const NoTimeout int64 = -1

// PollFD is one fd/interest-mask pair passed to Poll.
type PollFD struct {
	FD      uintptr
	Events  reactor.EventMask
	Revents reactor.EventMask
}

// Fiber is a scheduled unit of execution. The zero value is not valid;
// fibers are constructed by Create (and, once, by Init for the
// primordial fiber).
type Fiber struct {
	id    uint64
	state State
	flags Flags

	entry func(any) any
	arg   any
	ret   any

	stk *stack.Stack

	// SchedLink is the run/IO/zombie queue linkage. A fiber occupies
	// at most one of those queues at a time (spec.md §3 invariant 1).
	SchedLink list.Node
	// SyncLink is the condvar/mutex wait-queue linkage.
	SyncLink list.Node

	// sleep heap linkage: heapIndex is this fiber's current slot in
	// Runtime.sleepHeap, kept in sync on every swap so sleepHeapDelete
	// can locate an arbitrary fiber in O(1) instead of scanning.
	heapIndex int
	heapSeq   int64
	deadline  int64

	fls [MaxKeys]any

	joinable bool
	term     *Cond

	// active Poll() bookkeeping; only meaningful while state==StateIOWait
	ioFDs []PollFD
	onIOQ bool

	cont chan struct{}
}

// ID returns a stable per-process identifier, useful for logging.
func (f *Fiber) ID() uint64 { return f.id }

// State returns the fiber's current lifecycle state.
func (f *Fiber) State() State { return f.state }

// Flags returns the fiber's current flag bitset.
func (f *Fiber) Flags() Flags { return f.flags }
