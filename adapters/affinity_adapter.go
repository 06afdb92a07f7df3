// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
//
// Adapter implementing the api.Affinity interface, delegating to the
// affinity package's sched_setaffinity-backed primitives.
//
// Package adapters provides glue code between the core API contracts
// and the internal implementation.

package adapters

import (
	"github.com/momentics/fiberrt/affinity"
	"github.com/momentics/fiberrt/api"
)

// AffinityAdapter implements api.Affinity using the affinity package.
type AffinityAdapter struct{}

// NewAffinityAdapter creates a new AffinityAdapter.
func NewAffinityAdapter() api.Affinity {
	return &AffinityAdapter{}
}

// Pin binds the calling OS thread to cpuID.
func (a *AffinityAdapter) Pin(cpuID int) error {
	return affinity.Pin(cpuID)
}

// Unpin clears any affinity mask set by Pin.
func (a *AffinityAdapter) Unpin() error {
	return affinity.Unpin()
}

// Current returns the CPU index last pinned, or -1 if unpinned.
func (a *AffinityAdapter) Current() int {
	return affinity.Current()
}
