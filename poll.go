// File: poll.go
// Author: momentics <momentics@gmail.com>
//
// Poll blocks the calling fiber on a batch of fd/interest pairs,
// exactly as original_source/io.c's st_poll, but registers and
// deregisters interest through the reactor.Backend on every call
// rather than keeping a persistent per-fd registration, matching
// spec.md §4.4's seven-step poll() outline.

package fiber

import (
	"fmt"

	"github.com/momentics/fiberrt/control"
	"github.com/momentics/fiberrt/internal/list"
	"github.com/momentics/fiberrt/reactor"
)

// Poll waits until at least one of fds is ready, the calling fiber is
// interrupted, or timeoutUS microseconds elapse (NoTimeout blocks
// indefinitely). It returns the count of fds with a nonzero Revents;
// fds is updated in place.
func Poll(fds []PollFD, timeoutUS int64) (int, error) {
	return rt.poll(fds, timeoutUS)
}

func (rt *Runtime) poll(fds []PollFD, timeoutUS int64) (int, error) {
	f := rt.current

	if f.flags&FlagInterrupted != 0 {
		f.flags &^= FlagInterrupted
		return 0, fmt.Errorf("fiber: poll: %w", ErrInterrupted)
	}

	registered := make([]reactor.FDInterest, 0, len(fds))
	for _, pfd := range fds {
		fi := reactor.FDInterest{FD: pfd.FD, Events: pfd.Events}
		if err := rt.backend.PollsetAdd([]reactor.FDInterest{fi}); err != nil {
			rt.backend.PollsetDel(registered)
			return 0, fmt.Errorf("fiber: poll: register fd %d: %w", pfd.FD, ErrIO)
		}
		registered = append(registered, fi)
	}

	f.ioFDs = fds
	for i := range f.ioFDs {
		f.ioFDs[i].Revents = 0
	}

	if len(fds) > 0 {
		f.onIOQ = true
		f.state = StateIOWait
		rt.ioQ.PushBack(&f.SchedLink)
	} else {
		f.state = StateSleeping
	}

	if timeoutUS != NoTimeout {
		rt.sleepHeapInsert(f, timeoutUS)
	}

	rt.park(f)

	if f.onIOQ {
		f.onIOQ = false
		f.SchedLink.Remove()
	}
	if f.flags&FlagOnSleepHeap != 0 {
		rt.sleepHeapDelete(f)
	}

	if err := rt.backend.PollsetDel(registered); err != nil {
		control.Log.Warn().Err(err).Msg("fiber: poll: deregister failed")
	}

	interrupted := f.flags&FlagInterrupted != 0
	f.flags &^= FlagTimedOut | FlagInterrupted
	f.ioFDs = nil

	n := 0
	for _, pfd := range fds {
		if pfd.Revents != 0 {
			n++
		}
	}

	if interrupted {
		return n, fmt.Errorf("fiber: poll: %w", ErrInterrupted)
	}
	// A timeout surfaces as a plain zero return, never an error (spec.md
	// §5: poll's timeouts "manifest... as a zero return", unlike
	// cond.wait's TIMED_OUT).
	return n, nil
}

// processReadyEvents folds backend readiness, restricted to the events
// each PollFD requested, into every waiting fiber's PollFD slice and
// wakes those with at least one requested event ready. Owned
// by the scheduler (not package reactor) to keep the backend a pure
// mechanism; see reactor/doc.go.
func (rt *Runtime) processReadyEvents(events []reactor.ReadyEvent) {
	if len(events) == 0 {
		return
	}
	ready := make(map[uintptr]reactor.EventMask, len(events))
	for _, e := range events {
		ready[e.FD] = e.Revents
	}

	rt.ioQ.Each(func(n *list.Node) {
		f := n.Owner.(*Fiber)
		matched := false
		for i := range f.ioFDs {
			if mask, ok := ready[f.ioFDs[i].FD]; ok {
				if m := mask & f.ioFDs[i].Events; m != 0 {
					f.ioFDs[i].Revents = m
					matched = true
				}
			}
		}
		if matched {
			f.onIOQ = false
			n.Remove()
			if f.flags&FlagOnSleepHeap != 0 {
				rt.sleepHeapDelete(f)
			}
			f.state = StateRunnable
			rt.runQ.PushBack(&f.SchedLink)
		}
	})

	for fd := range ready {
		if err := rt.backend.ConsumeOneShot(fd); err != nil {
			control.Log.Warn().Err(err).Msg("fiber: consume one-shot failed")
		}
	}
}
