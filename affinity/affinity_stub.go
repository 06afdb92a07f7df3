//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without sched_setaffinity.

package affinity

import "errors"

func pinThread(cpuID int) error {
	return errors.New("affinity: CPU pinning not supported on this platform")
}

func unpinThread() error {
	return errors.New("affinity: CPU pinning not supported on this platform")
}

func numCPU() int {
	return 1
}
