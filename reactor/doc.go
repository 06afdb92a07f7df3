// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package reactor is the event-system backend: ref-counted per-fd
// interest registration and a single readiness wait, exactly the
// contract spec.md §6 names and nothing more. The I/O-queue scan,
// one-shot re-arming trigger, and sleep-deadline-bounded wait timeout
// are policy that belongs to the scheduler (package fiber), not this
// package, to avoid an import cycle between the two.
package reactor
