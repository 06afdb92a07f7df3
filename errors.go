// File: errors.go
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy. Errors are sentinel values wrapped with fmt.Errorf for
// context, never panics across a yield point.

package fiber

import "errors"

var (
	// ErrInvalidArg covers a bad key, a bad join target, or a malformed
	// argument to any public call.
	ErrInvalidArg = errors.New("fiber: invalid argument")
	// ErrBusy is returned by Cond.Destroy on a non-empty wait queue and
	// by Mutex.TryLock on a held mutex.
	ErrBusy = errors.New("fiber: busy")
	// ErrPerm is returned by Mutex.Unlock when the caller is not the
	// owner.
	ErrPerm = errors.New("fiber: permission denied")
	// ErrDeadlock is returned by Mutex.Lock when the caller already
	// owns the mutex, and by Join when a fiber attempts to join itself.
	ErrDeadlock = errors.New("fiber: deadlock")
	// ErrInterrupted is returned by a parking primitive when the
	// parked fiber was the target of Interrupt.
	ErrInterrupted = errors.New("fiber: interrupted")
	// ErrTimedOut is returned by Cond.Wait/Cond.TimedWait when the
	// deadline elapses before a signal.
	ErrTimedOut = errors.New("fiber: timed out")
	// ErrIO wraps event-backend failures.
	ErrIO = errors.New("fiber: io error")
	// ErrNoMemory is returned when a resource allocation (stack, fd
	// table slot) fails.
	ErrNoMemory = errors.New("fiber: no memory")
)
