//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux CPU affinity via sched_setaffinity(2), through x/sys/unix rather
// than cgo — the same pure-Go syscall idiom the reactor and stack
// packages use.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

func pinThread(cpuID int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity: %w", err)
	}
	return nil
}

func unpinThread() error {
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < numCPU(); i++ {
		set.Set(i)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity: %w", err)
	}
	return nil
}

func numCPU() int {
	return runtime.NumCPU()
}
