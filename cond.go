// File: cond.go
// Author: momentics <momentics@gmail.com>
//
// Condition variables, decoupled from any particular mutex (spec.md
// §4.6): a Cond is nothing but a wait queue. Callers are responsible
// for pairing it with whatever external state it guards, exactly as
// original_source/sync.c's st_cond_t.

package fiber

import (
	"fmt"

	"github.com/momentics/fiberrt/internal/list"
)

// Cond is a wait queue of fibers blocked in Wait/TimedWait, released by
// Signal or Broadcast.
type Cond struct {
	waitQ *list.List
}

func newCond() *Cond {
	return &Cond{waitQ: list.New()}
}

// NewCond allocates a condition variable.
func NewCond() *Cond {
	return newCond()
}

// Wait blocks the calling fiber until Signal or Broadcast wakes it.
// Wait neither releases nor acquires any lock. Callers check their
// predicate with no parking call between the check and Wait, and
// re-check it after Wait returns nil, since other fibers may run and
// change the guarded state before the woken fiber resumes.
func Wait(c *Cond) error {
	return rt.condWait(c, NoTimeout)
}

// TimedWait is Wait bounded by timeoutUS microseconds; it returns
// ErrTimedOut if no Signal/Broadcast arrives in time.
func TimedWait(c *Cond, timeoutUS int64) error {
	return rt.condWait(c, timeoutUS)
}

func (rt *Runtime) condWait(c *Cond, timeoutUS int64) error {
	f := rt.current
	if f.flags&FlagInterrupted != 0 {
		f.flags &^= FlagInterrupted
		return fmt.Errorf("fiber: cond wait: %w", ErrInterrupted)
	}

	f.state = StateCondWait
	c.waitQ.PushBack(&f.SyncLink)
	if timeoutUS != NoTimeout {
		rt.sleepHeapInsert(f, timeoutUS)
	}

	rt.park(f)

	timedOut := f.flags&FlagTimedOut != 0
	interrupted := f.flags&FlagInterrupted != 0
	f.flags &^= FlagTimedOut | FlagInterrupted
	if f.SyncLink.Linked() {
		f.SyncLink.Remove()
	}
	if f.flags&FlagOnSleepHeap != 0 {
		rt.sleepHeapDelete(f)
	}

	switch {
	case interrupted:
		return fmt.Errorf("fiber: cond wait: %w", ErrInterrupted)
	case timedOut:
		return fmt.Errorf("fiber: cond wait: %w", ErrTimedOut)
	default:
		return nil
	}
}

// Signal wakes at most one fiber waiting on c, FIFO. A Signal delivered
// while no fiber is in Wait (spec.md §9 Open Question) is simply
// dropped — conditions carry no memory of signals sent before a
// waiter arrived.
func Signal(c *Cond) {
	rt.condSignal(c, false)
}

// Broadcast wakes every fiber waiting on c.
func Broadcast(c *Cond) {
	rt.condSignal(c, true)
}

// condSignal walks c.waitQ without unlinking any node — entries stay on
// the queue until the waiter itself resumes and removes its own SyncLink
// (condWait, above), exactly as original_source/sync.c's
// _st_cond_signal never calls ST_REMOVE_LINK. Only fibers still in
// StateCondWait are woken; an entry that checkClock already timed out
// (moved to StateRunnable but not yet resumed to unlink itself) is left
// alone so it isn't queued onto runQ a second time.
func (rt *Runtime) condSignal(c *Cond, all bool) {
	if all {
		c.waitQ.Each(func(n *list.Node) {
			rt.wakeCondWaiter(n)
		})
		return
	}
	c.waitQ.EachUntil(func(n *list.Node) bool {
		return rt.wakeCondWaiter(n)
	})
}

// wakeCondWaiter makes n's owning fiber runnable if it is still parked
// in COND_WAIT, returning true iff it did — the signal used that to stop
// after the first wake.
func (rt *Runtime) wakeCondWaiter(n *list.Node) bool {
	f := n.Owner.(*Fiber)
	if f.state != StateCondWait {
		return false
	}
	if f.flags&FlagOnSleepHeap != 0 {
		rt.sleepHeapDelete(f)
	}
	f.state = StateRunnable
	rt.runQ.PushBack(&f.SchedLink)
	return true
}

// DestroyCond releases c. It is an error to destroy a condition variable
// with fibers still waiting on it.
func DestroyCond(c *Cond) error {
	if !c.waitQ.Empty() {
		return fmt.Errorf("fiber: destroy cond: waiters present: %w", ErrBusy)
	}
	return nil
}
