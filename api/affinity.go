// Package api
// Author: momentics@gmail.com
//
// CPU affinity and thread pinning definitions.

package api

// Affinity controls which CPU the scheduler's OS thread runs on.
type Affinity interface {
	// Pin locks the current OS thread to cpuID.
	Pin(cpuID int) error
	// Unpin removes affinity.
	Unpin() error
	// Current returns the CPU index last pinned, or -1 if unpinned.
	Current() int
}
