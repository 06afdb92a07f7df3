// File: mutex.go
// Author: momentics <momentics@gmail.com>
//
// Mutex implements ownership handoff rather than barging (spec.md
// §4.7): Unlock with waiters present hands ownership directly to the
// head of the wait queue and wakes only that fiber, so a newly
// Lock-ing fiber can never steal the lock out from under a fiber that
// has been waiting longer. This mirrors original_source/sync.c's
// st_mutex_unlock, which moves the waiting thread straight onto the
// run queue already marked as the new owner.

package fiber

import (
	"fmt"

	"github.com/momentics/fiberrt/internal/list"
)

// Mutex is a non-reentrant mutual-exclusion lock scoped to one
// runtime.
type Mutex struct {
	owner *Fiber
	waitQ *list.List
}

// NewMutex allocates an unlocked mutex.
func NewMutex() *Mutex {
	return &Mutex{waitQ: list.New()}
}

// Lock blocks until the calling fiber owns m. Locking a mutex already
// held by the calling fiber fails immediately with ErrDeadlock,
// since Mutex is non-reentrant.
func Lock(m *Mutex) error {
	return rt.lock(m)
}

func (rt *Runtime) lock(m *Mutex) error {
	f := rt.current
	if f.flags&FlagInterrupted != 0 {
		f.flags &^= FlagInterrupted
		return fmt.Errorf("fiber: lock: %w", ErrInterrupted)
	}
	if m.owner == f {
		return fmt.Errorf("fiber: lock: already held by caller: %w", ErrDeadlock)
	}
	if m.owner == nil {
		m.owner = f
		return nil
	}

	f.state = StateLockWait
	m.waitQ.PushBack(&f.SyncLink)
	rt.park(f)

	if f.SyncLink.Linked() {
		f.SyncLink.Remove()
	}
	interrupted := f.flags&FlagInterrupted != 0
	f.flags &^= FlagInterrupted
	if interrupted && m.owner != f {
		// The interrupt raced us out of the wait queue before Unlock
		// could hand ownership over.
		return fmt.Errorf("fiber: lock: %w", ErrInterrupted)
	}
	// Either not interrupted, or interrupted but Unlock already made
	// f the owner and requeued it runnable first — ownership stands.
	return nil
}

// TryLock attempts to acquire m without blocking: nil on success,
// ErrBusy if any fiber holds it, including the caller.
func TryLock(m *Mutex) error {
	return rt.tryLock(m)
}

func (rt *Runtime) tryLock(m *Mutex) error {
	f := rt.current
	if m.owner != nil {
		return fmt.Errorf("fiber: trylock: %w", ErrBusy)
	}
	m.owner = f
	return nil
}

// Unlock releases m, which must be held by the calling fiber. If other
// fibers are waiting, ownership passes directly to the longest-waiting
// one, which is made runnable; otherwise m becomes unowned.
func Unlock(m *Mutex) error {
	return rt.unlock(m)
}

func (rt *Runtime) unlock(m *Mutex) error {
	f := rt.current
	if m.owner != f {
		return fmt.Errorf("fiber: unlock: not held by caller: %w", ErrPerm)
	}

	node := m.waitQ.PopFront()
	if node == nil {
		m.owner = nil
		return nil
	}
	next := node.Owner.(*Fiber)
	m.owner = next
	if next.flags&FlagOnSleepHeap != 0 {
		rt.sleepHeapDelete(next)
	}
	next.state = StateRunnable
	rt.runQ.PushBack(&next.SchedLink)
	return nil
}

// DestroyMutex releases m. It is an error to destroy a mutex that is
// currently held or has fibers waiting on it, matching
// original_source/sync.c's st_mutex_destroy.
func DestroyMutex(m *Mutex) error {
	if m.owner != nil || !m.waitQ.Empty() {
		return fmt.Errorf("fiber: destroy mutex: %w", ErrBusy)
	}
	return nil
}
