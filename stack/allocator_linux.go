//go:build linux
// +build linux

// File: stack/allocator_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux backing allocator: anonymous private mmap with two PROT_NONE
// redzone guard pages, matching original_source/stk.c's
// _st_new_stk_segment exactly (REDZONE = one page on each side of the
// usable region, plus one extra page of slop when randomization is
// on).

package stack

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func (a *Allocator) newBackingStack(size int) (*Stack, error) {
	redzone := unix.Getpagesize()
	extra := 0
	if a.randomize {
		extra = redzone
	}
	total := size + redzone*2 + extra

	region, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	if err := unix.Mprotect(region[:redzone], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(region)
		return nil, fmt.Errorf("mprotect leading redzone: %w", err)
	}
	if err := unix.Mprotect(region[len(region)-redzone:], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(region)
		return nil, fmt.Errorf("mprotect trailing redzone: %w", err)
	}

	bottomOff := redzone
	if extra > 0 && a.rng != nil {
		offset := int(a.rng.Int63()%int64(extra)) &^ 0xf
		bottomOff += offset
	}

	return &Stack{
		region: region,
		usable: region[bottomOff : bottomOff+size],
		size:   size,
	}, nil
}
