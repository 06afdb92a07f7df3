// File: doc.go
// Author: momentics <momentics@gmail.com>
//
// Package fiber is a single-process, single-OS-thread cooperative
// user-space threading runtime. It multiplexes many lightweight fibers
// onto one kernel thread, integrates non-blocking I/O through a
// readiness-notification event backend (package reactor), and provides
// sleeping, synchronization (Cond, Mutex) and fiber-local storage
// primitives.
//
// Exactly one fiber is RUNNING at any instant; the scheduler is the only
// agent that mutates fiber state, run/IO/zombie queues, the sleep heap,
// or the event registry — there is no internal locking because there is
// no concurrency inside the runtime, only cooperative interleaving via
// explicit yields at named parking primitives (Poll, Sleep, Cond.Wait,
// Mutex.Lock, Exit on a joinable fiber, Join).
package fiber
