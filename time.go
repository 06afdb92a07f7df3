// File: time.go
// Author: momentics <momentics@gmail.com>
//
// Clock access. LastClockUS returns the value the scheduler cached on
// its last pass through checkClock — cheap, and accurate to within one
// idle-loop iteration's wait timeout. NowUS always calls the
// configured time source directly. TimeCache mirrors
// original_source/sync.c's second-granularity cached "now" used by
// callers that only need whole-second resolution.

package fiber

import "fmt"

// NowUS returns the current time in microseconds from the configured
// time source, uncached.
func NowUS() int64 {
	return rt.timeSource()
}

// LastClockUS returns the clock value the scheduler observed on its
// most recent pass through the idle loop.
func LastClockUS() int64 {
	return rt.lastClockUS
}

// NowSeconds returns the current time in whole seconds. When
// TimeCache(true) is in effect it returns the cached value, refreshed
// at most once per second; otherwise it computes directly from NowUS.
func NowSeconds() int64 {
	if rt.coarseEnabled {
		return rt.lastCoarseUS / 1_000_000
	}
	return rt.timeSource() / 1_000_000
}

// TimeCache enables or disables second-granularity caching for
// NowSeconds.
func TimeCache(on bool) {
	rt.coarseEnabled = on
	if on {
		rt.coarseSeconds = 1
		rt.lastCoarseUS = rt.lastClockUS
	}
}

// Usleep parks the calling fiber for at least us microseconds.
func Usleep(us int64) error {
	return rt.usleep(us)
}

func (rt *Runtime) usleep(us int64) error {
	f := rt.current
	if f.flags&FlagInterrupted != 0 {
		f.flags &^= FlagInterrupted
		return fmt.Errorf("fiber: usleep: %w", ErrInterrupted)
	}
	if us < 0 && us != NoTimeout {
		return fmt.Errorf("fiber: usleep: negative duration: %w", ErrInvalidArg)
	}

	if us == NoTimeout {
		// Suspended indefinitely; only Interrupt can make this fiber
		// runnable again (spec.md §4.5: RUNNING → SUSPENDED → RUNNABLE
		// on interrupt).
		f.state = StateSuspended
	} else {
		f.state = StateSleeping
		rt.sleepHeapInsert(f, us)
	}

	rt.park(f)

	interrupted := f.flags&FlagInterrupted != 0
	f.flags &^= FlagTimedOut | FlagInterrupted
	if f.flags&FlagOnSleepHeap != 0 {
		rt.sleepHeapDelete(f)
	}
	if interrupted {
		return fmt.Errorf("fiber: usleep: %w", ErrInterrupted)
	}
	return nil
}

// Sleep parks the calling fiber for at least s seconds.
func Sleep(s float64) error {
	return Usleep(int64(s * 1_000_000))
}
