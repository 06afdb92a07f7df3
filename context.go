// File: context.go
// Author: momentics <momentics@gmail.com>
//
// Context switching. Go exposes no public API to swap a goroutine's
// stack pointer, so "suspend this fiber, transfer to a named other
// context" (spec.md §9) is implemented as a strict rendezvous between
// one goroutine per fiber and a single scheduler goroutine: park sends
// on the shared schedBack channel then blocks on the fiber's own
// per-fiber channel; the scheduler is the only reader of schedBack and
// the only writer of any fiber's channel. Because exactly one of these
// goroutines is ever unblocked at a time, the runtime's single-threaded
// invariants (spec.md §5) hold despite being implemented with real
// goroutines.

package fiber

import (
	"fmt"
	"runtime"

	"github.com/momentics/fiberrt/affinity"
	"github.com/momentics/fiberrt/control"
)

// Self returns the currently running fiber.
func Self() *Fiber {
	return rt.current
}

// Create allocates a new fiber, appends it to the run queue, and
// returns it. joinable fibers may be awaited exactly once via Join.
// stackSize of 0 uses the runtime's configured default.
func Create(entry func(any) any, arg any, joinable bool, stackSize int) (*Fiber, error) {
	return rt.create(entry, arg, joinable, stackSize)
}

func (rt *Runtime) create(entry func(any) any, arg any, joinable bool, stackSize int) (*Fiber, error) {
	st, err := rt.allocator.Allocate(stackSize)
	if err != nil {
		return nil, fmt.Errorf("fiber: create: %w", ErrNoMemory)
	}
	f := &Fiber{
		id:       rt.nextID,
		state:    StateRunnable,
		entry:    entry,
		arg:      arg,
		stk:      st,
		joinable: joinable,
		cont:     make(chan struct{}),
	}
	rt.nextID++
	f.SchedLink.Owner = f
	f.SyncLink.Owner = f
	if joinable {
		f.term = newCond()
	}
	rt.activeCount++
	rt.runQ.PushBack(&f.SchedLink)
	go rt.fiberMain(f)
	rt.trace.Record("create", f.id, fmt.Sprintf("joinable=%t stack=%d", joinable, stackSize))
	control.Log.Debug().Uint64("fiber", f.id).Bool("joinable", joinable).Msg("fiber created")
	return f, nil
}

func (rt *Runtime) fiberMain(f *Fiber) {
	<-f.cont
	ret := f.entry(f.arg)
	rt.exit(f, ret)
}

// park yields the current fiber back to the scheduler and blocks until
// the scheduler resumes it.
func (rt *Runtime) park(f *Fiber) {
	rt.schedBack <- struct{}{}
	<-f.cont
}

// finalPark hands control back to the scheduler without expecting a
// future resume on this goroutine; used by the terminal leg of Exit.
func (rt *Runtime) finalPark() {
	rt.schedBack <- struct{}{}
}

// Exit stashes retval, runs fiber-local destructors, and terminates the
// calling fiber. A joinable fiber becomes a zombie until Join reaps it;
// Exit never returns to its caller.
func Exit(retval any) {
	rt.exit(rt.current, retval)
}

func (rt *Runtime) exit(f *Fiber, retval any) {
	f.ret = retval
	rt.runFLSDestructors(f)
	rt.activeCount--
	rt.trace.Record("exit", f.id, fmt.Sprintf("joinable=%t", f.joinable))
	control.Log.Debug().Uint64("fiber", f.id).Msg("fiber exited")

	if f.joinable {
		f.state = StateZombie
		rt.zombieQ.PushBack(&f.SchedLink)
		rt.condSignal(f.term, false)
		rt.park(f)
		// Resumed by Join, re-queued RUNNABLE; nothing touches
		// f.term's wait queue here because Join already removed its
		// own wait entry before re-queuing us (see join below).
		f.term = nil
	}

	if f.flags&FlagPrimordial == 0 {
		rt.allocator.Release(f.stk)
		f.stk = nil
	}

	rt.finalPark()
	runtime.Goexit()
}

// Join blocks until target (which must have been created joinable)
// terminates, then returns its exit value. Only one fiber may join a
// given target.
func Join(target *Fiber) (any, error) {
	return rt.join(target)
}

func (rt *Runtime) join(target *Fiber) (any, error) {
	me := rt.current
	if target.term == nil && target.state != StateZombie {
		return nil, fmt.Errorf("fiber: join: target not joinable: %w", ErrInvalidArg)
	}
	if target == me {
		return nil, fmt.Errorf("fiber: join self: %w", ErrDeadlock)
	}
	for target.state != StateZombie {
		if target.term == nil {
			return nil, fmt.Errorf("fiber: join: %w", ErrInvalidArg)
		}
		if !target.term.waitQ.Empty() {
			return nil, fmt.Errorf("fiber: join: another joiner already waits: %w", ErrInvalidArg)
		}
		if err := rt.condWait(target.term, NoTimeout); err != nil {
			return nil, err
		}
	}
	retval := target.ret
	target.SchedLink.Remove()
	target.state = StateRunnable
	rt.runQ.PushBack(&target.SchedLink)
	rt.trace.Record("join", target.id, fmt.Sprintf("joiner=%d", me.id))
	control.Log.Debug().Uint64("fiber", target.id).Msg("fiber joined")
	return retval, nil
}

// Interrupt forces target out of any parked state; its next (or
// current, if already parked) parking call will fail with
// ErrInterrupted. A no-op on a zombie target.
func Interrupt(target *Fiber) {
	rt.interrupt(target)
}

func (rt *Runtime) interrupt(f *Fiber) {
	if f.state == StateZombie {
		return
	}
	f.flags |= FlagInterrupted
	if f.state == StateRunning || f.state == StateRunnable {
		rt.trace.Record("interrupt-flagged", f.id, f.state.String())
		return
	}
	if f.flags&FlagOnSleepHeap != 0 {
		rt.sleepHeapDelete(f)
	}
	if f.onIOQ {
		f.onIOQ = false
	}
	// LockWait/CondWait fibers are linked into a Mutex/Cond wait queue
	// via SyncLink, not SchedLink; detach from both, whichever applies.
	f.SchedLink.Remove()
	f.SyncLink.Remove()
	f.state = StateRunnable
	rt.runQ.PushBack(&f.SchedLink)
	rt.trace.Record("interrupt", f.id, "")
}

func (rt *Runtime) scheduleLoop() {
	if rt.cfg.PinCPU >= 0 {
		if err := affinity.Pin(rt.cfg.PinCPU); err != nil {
			control.Log.Warn().Err(err).Int("cpu", rt.cfg.PinCPU).Msg("fiber: scheduler pin failed")
		}
	}
	<-rt.schedBack
	for rt.activeCount > 0 {
		var f *Fiber
		if node := rt.runQ.PopFront(); node != nil {
			f = node.Owner.(*Fiber)
		} else {
			f = rt.idle
		}
		f.state = StateRunning
		rt.current = f
		f.cont <- struct{}{}
		<-rt.schedBack
	}
	control.Log.Info().Msg("fiber: active_count reached zero, runtime terminating")
}

func (rt *Runtime) newIdleFiber(stackSize int) *Fiber {
	st, err := rt.allocator.Allocate(stackSize)
	if err != nil {
		panic(fmt.Errorf("fiber: allocate idle stack: %w", err))
	}
	f := &Fiber{
		id:    rt.nextID,
		state: StateRunnable,
		flags: FlagIdle,
		stk:   st,
		cont:  make(chan struct{}),
	}
	rt.nextID++
	f.SchedLink.Owner = f
	f.SyncLink.Owner = f
	go rt.idleLoop(f)
	return f
}

func (rt *Runtime) idleLoop(f *Fiber) {
	<-f.cont
	for {
		timeoutMS := rt.nextWaitTimeoutMS()
		if rt.backend.PIDChanged() {
			if err := rt.backend.Rebuild(); err != nil {
				control.Log.Error().Err(err).Msg("fiber: fork-time backend rebuild failed")
				panic(fmt.Errorf("fiber: irrecoverable backend rebuild failure: %w", err))
			}
		}
		events, err := rt.backend.Wait(timeoutMS)
		if err != nil {
			control.Log.Warn().Err(err).Msg("fiber: event backend wait error")
		} else {
			rt.processReadyEvents(events)
		}
		rt.checkClock()
		rt.park(f)
	}
}

// nextWaitTimeoutMS computes the idle fiber's bounded wait deadline:
// infinite if the sleep heap is empty, else the time until the nearest
// deadline, never negative.
func (rt *Runtime) nextWaitTimeoutMS() int {
	if len(rt.sleepHeap) == 0 {
		return -1
	}
	remaining := rt.sleepHeap[0].deadline - rt.lastClockUS
	if remaining < 0 {
		remaining = 0
	}
	ms := remaining / 1000
	if remaining%1000 != 0 {
		ms++
	}
	return int(ms)
}
