// File: fls.go
// Author: momentics <momentics@gmail.com>
//
// Fiber-local storage. Keys are process-global (allocated once, shared
// by every fiber); values are per-fiber. Ported from
// original_source/key.c: a global destructor table indexed by key, a
// global high-water key counter, and a fixed-size per-fiber value
// array sized to MaxKeys.

package fiber

import "fmt"

// KeyCreate allocates a new fiber-local-storage key, shared by every
// fiber in the runtime. destructor, if non-nil, runs on a fiber's
// value for this key when that value is overwritten with a different
// one, and once more when the fiber exits with a non-nil value still
// set.
func KeyCreate(destructor func(any)) (int, error) {
	return rt.keyCreate(destructor)
}

func (rt *Runtime) keyCreate(destructor func(any)) (int, error) {
	if rt.keyMax >= MaxKeys {
		return 0, fmt.Errorf("fiber: key create: limit of %d reached: %w", MaxKeys, ErrNoMemory)
	}
	key := rt.keyMax
	rt.keyDestructors[key] = destructor
	rt.keyMax++
	return key, nil
}

// KeyLimit returns the process-wide fiber-local-storage key capacity.
func KeyLimit() int {
	return MaxKeys
}

// Set stores value under key for the calling fiber. If a different
// non-nil value was previously set, its destructor (if any) runs
// first.
func Set(key int, value any) error {
	return rt.setFLS(rt.current, key, value)
}

func (rt *Runtime) setFLS(f *Fiber, key int, value any) error {
	if key < 0 || key >= rt.keyMax {
		return fmt.Errorf("fiber: fls set: invalid key %d: %w", key, ErrInvalidArg)
	}
	old := f.fls[key]
	if old != nil && old != value {
		if d := rt.keyDestructors[key]; d != nil {
			d(old)
		}
	}
	f.fls[key] = value
	return nil
}

// Get returns the calling fiber's current value for key, or nil if
// unset or key is out of range.
func Get(key int) any {
	f := rt.current
	if key < 0 || key >= rt.keyMax {
		return nil
	}
	return f.fls[key]
}

// runFLSDestructors invokes every key's destructor against f's
// remaining non-nil values, in key order, once at fiber exit.
func (rt *Runtime) runFLSDestructors(f *Fiber) {
	for key := 0; key < rt.keyMax; key++ {
		v := f.fls[key]
		if v == nil {
			continue
		}
		if d := rt.keyDestructors[key]; d != nil {
			d(v)
		}
		f.fls[key] = nil
	}
}
