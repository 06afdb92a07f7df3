//go:build !linux
// +build !linux

// File: stack/allocator_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux fallback: plain heap-backed slices. No guard pages — a
// stack overflow here corrupts adjacent Go heap memory instead of
// faulting synchronously. Only the Linux backend (allocator_linux.go)
// provides the guarantee in spec.md's stack-allocator invariants;
// platforms without mmap/mprotect get this documented degradation
// rather than a build failure, matching reactor's own linux/stub split.

package stack

func (a *Allocator) newBackingStack(size int) (*Stack, error) {
	usable := make([]byte, size)
	return &Stack{
		region: usable,
		usable: usable,
		size:   size,
	}, nil
}
