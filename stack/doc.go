// File: stack/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package stack provides a guarded, free-list-backed stack allocator
// for the fiber runtime's per-fiber accounting. Go exposes no public
// API to switch the goroutine execution stack manually, so this pool
// does not back the actual call stack the fiber's goroutine runs on —
// it is the resource-accounting and overflow-detection layer spec.md's
// stack allocator describes, giving every Fiber a guarded region whose
// lifecycle (allocate on Create, release on the reclaimed Exit
// continuation) matches the original.
package stack
