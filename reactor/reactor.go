// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral event-backend contract. Grounded on the teacher's
// reactor/reactor.go EventReactor interface and reactor_linux.go /
// reactor_stub.go platform split, generalized from "register a
// callback" to the ref-counted, per-(fd,kind) interest registry
// spec.md §6 requires: PollsetAdd/PollsetDel are additive/subtractive
// over reference counts, not overwrites, so multiple fibers waiting on
// the same fd for different event kinds compose correctly.

package reactor

import "fmt"

// EventMask is a bitset of interest/readiness kinds.
type EventMask uint8

const (
	EventRead EventMask = 1 << iota
	EventWrite
	EventExcept
)

// FDInterest is one (fd, requested-events) pair in a PollsetAdd/Del
// batch.
type FDInterest struct {
	FD     uintptr
	Events EventMask
}

// ReadyEvent is one fd's accumulated readiness bits from a single Wait
// call, already folded per spec.md §4.5: err/hup bits are OR'd with
// every bit currently of interest on that fd.
type ReadyEvent struct {
	FD      uintptr
	Revents EventMask
}

// Backend is the event-system adapter contract. Implementations must be
// ref-counted per (fd, kind): PollsetAdd/PollsetDel change the backend's
// actual registration only when the aggregated mask for a fd changes,
// and FDClose fails if any interest remains.
type Backend interface {
	// PollsetAdd registers interest for each entry, incrementing its
	// fd's per-kind reference counts. On failure it rolls back the
	// increments for the prefix that already succeeded.
	PollsetAdd(fds []FDInterest) error
	// PollsetDel decrements reference counts; failures are tolerated
	// silently (the fd is collected on FDClose).
	PollsetDel(fds []FDInterest) error
	// FDNew ensures the backend's per-fd table has capacity for osfd.
	FDNew(osfd uintptr) error
	// FDClose fails with a busy error if osfd still has any interest
	// registered.
	FDClose(osfd uintptr) error
	// FDGetLimit returns the backend's fd capacity, or 0 for unlimited.
	FDGetLimit() int
	// Wait blocks up to timeoutMS (negative means forever) for
	// readiness, returning the folded per-fd readiness set.
	Wait(timeoutMS int) ([]ReadyEvent, error)
	// ConsumeOneShot clears fd's stored readiness and re-arms its
	// interest from current reference counts, so a fd registered for
	// one fiber does not fire again for another that did not ask.
	ConsumeOneShot(fd uintptr) error
	// PIDChanged reports whether the process PID differs from the one
	// recorded at backend construction (fork detection).
	PIDChanged() bool
	// Rebuild recreates the backend's kernel-side state (a fresh
	// epoll/kqueue descriptor) and re-registers every current
	// interest. Called after a fork in the child.
	Rebuild() error
	// Close releases backend resources.
	Close() error
}

// ErrFDBusy is returned by FDClose when interest remains registered.
var ErrFDBusy = fmt.Errorf("reactor: fd close: interest still registered")
