// File: runtime.go
// Author: momentics <momentics@gmail.com>
//
// Runtime lifecycle: Init, configuration, and the package-level
// singleton. Configuration follows the teacher's functional-options
// idiom (server/options.go's ServerOption / server/hioload.go's
// HioloadWS.Config: a plain struct plus Option funcs), not a config
// file — the runtime has no persisted state (spec.md §6).

package fiber

import (
	"fmt"
	"time"

	"github.com/momentics/fiberrt/control"
	"github.com/momentics/fiberrt/internal/list"
	"github.com/momentics/fiberrt/reactor"
	"github.com/momentics/fiberrt/stack"
)

// Config holds runtime-wide tunables passed to Init.
type Config struct {
	// DefaultStackSize is used by Create when a caller passes 0.
	DefaultStackSize int
	// IdleStackSize sizes the idle fiber's accounted stack.
	IdleStackSize int
	// RandomizeStacks enables randomized stack offsets; see
	// stack.Allocator.Randomize.
	RandomizeStacks bool
	// BackendBatchSize bounds events drained per reactor.Backend.Wait
	// call.
	BackendBatchSize int
	// TimeSource overrides the clock used for deadlines; nil uses
	// wall-clock microseconds. See SetTimeSource for the restriction
	// on changing it after fibers exist.
	TimeSource func() int64
	// PinCPU binds the scheduler goroutine's OS thread to this CPU
	// index via affinity.Pin once the scheduler starts. Negative (the
	// default) leaves the thread unpinned.
	PinCPU int
	// Trace receives Create/Exit/Join/Interrupt transitions recorded
	// by the scheduler. nil (the default) allocates a private log
	// sized TraceCapacity; pass the same *control.TraceLog an
	// adapters.ControlAdapter was built with to surface real
	// scheduler history through its "scheduler.trace" debug probe.
	Trace *control.TraceLog
	// TraceCapacity sizes the privately allocated trace log when
	// Trace is nil. 0 uses control.NewTraceLog's default.
	TraceCapacity int
}

// Option mutates a Config, in the same functional-options idiom the
// teacher uses for server.Config / HioloadWS.Config.
type Option func(*Config)

// WithDefaultStackSize overrides the default per-fiber accounted stack
// size.
func WithDefaultStackSize(n int) Option {
	return func(c *Config) { c.DefaultStackSize = n }
}

// WithRandomizeStacks enables or disables randomized stack offsets.
func WithRandomizeStacks(on bool) Option {
	return func(c *Config) { c.RandomizeStacks = on }
}

// WithBackendBatchSize overrides the reactor's per-Wait event batch
// size.
func WithBackendBatchSize(n int) Option {
	return func(c *Config) { c.BackendBatchSize = n }
}

// WithTimeSource overrides the clock Init installs.
func WithTimeSource(fn func() int64) Option {
	return func(c *Config) { c.TimeSource = fn }
}

// WithPinCPU pins the scheduler goroutine's OS thread to cpuID once the
// scheduler starts, the natural fit for a runtime whose own definition
// is "single process, single OS thread."
func WithPinCPU(cpuID int) Option {
	return func(c *Config) { c.PinCPU = cpuID }
}

// WithTrace routes the scheduler's Create/Exit/Join/Interrupt history
// into an existing trace log rather than a private one, so the same
// log can back an adapters.ControlAdapter's "scheduler.trace" debug
// probe.
func WithTrace(t *control.TraceLog) Option {
	return func(c *Config) { c.Trace = t }
}

// WithTraceCapacity sizes the privately allocated trace log used when
// no Trace log was supplied via WithTrace.
func WithTraceCapacity(n int) Option {
	return func(c *Config) { c.TraceCapacity = n }
}

func defaultConfig() Config {
	return Config{
		DefaultStackSize: 128 * 1024,
		IdleStackSize:    32 * 1024,
		BackendBatchSize: 256,
		PinCPU:           -1,
	}
}

// Runtime is the scheduler's private state. There is exactly one, held
// in the package-level rt variable, constructed by Init.
type Runtime struct {
	current    *Fiber
	primordial *Fiber
	idle       *Fiber

	runQ    *list.List
	ioQ     *list.List
	zombieQ *list.List

	// sleepHeap is a binary min-heap ordered by Fiber.deadline. Each
	// fiber's heapIndex tracks its current slot so sleepHeapDelete can
	// remove an arbitrary sleeper without a linear scan.
	sleepHeap   []*Fiber
	heapSeqNext int64

	activeCount int
	nextID      uint64

	backend   reactor.Backend
	allocator *stack.Allocator

	timeSource      func() int64
	lastClockUS     int64
	coarseEnabled   bool
	coarseSeconds   int64
	lastCoarseUS    int64

	keyMax         int
	keyDestructors [MaxKeys]func(any)

	trace *control.TraceLog

	schedBack chan struct{}
	cfg       Config
}

var rt *Runtime

// Init constructs the runtime and starts its scheduler goroutine. The
// calling goroutine becomes the primordial fiber. Init is idempotent:
// a second call is a no-op.
func Init(opts ...Option) error {
	if rt != nil {
		return nil
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	backend, err := reactor.New(cfg.BackendBatchSize)
	if err != nil {
		return fmt.Errorf("fiber: init: %w", err)
	}

	timeSource := cfg.TimeSource
	if timeSource == nil {
		timeSource = func() int64 { return time.Now().UnixMicro() }
	}

	r := &Runtime{
		runQ:       list.New(),
		ioQ:        list.New(),
		zombieQ:    list.New(),
		backend:    backend,
		allocator:  stack.NewAllocator(cfg.DefaultStackSize, cfg.RandomizeStacks),
		timeSource: timeSource,
		schedBack:  make(chan struct{}),
		cfg:        cfg,
	}
	r.lastClockUS = timeSource()
	r.coarseSeconds = r.lastClockUS / 1_000_000
	r.lastCoarseUS = r.lastClockUS

	if cfg.Trace != nil {
		r.trace = cfg.Trace
	} else {
		r.trace = control.NewTraceLog(cfg.TraceCapacity)
	}

	primordial := &Fiber{
		id:    r.nextID,
		state: StateRunning,
		flags: FlagPrimordial,
		cont:  make(chan struct{}),
	}
	primordial.SchedLink.Owner = primordial
	primordial.SyncLink.Owner = primordial
	r.nextID++
	r.primordial = primordial
	r.current = primordial
	r.activeCount = 1

	rt = r

	rt.idle = rt.newIdleFiber(cfg.IdleStackSize)
	go rt.scheduleLoop()

	control.Log.Info().Msg("fiber: runtime initialized")
	return nil
}

// FDLimit returns the event backend's fd capacity, or 0 for unlimited.
func FDLimit() int {
	return rt.backend.FDGetLimit()
}

// FreeStackCount returns the number of stacks currently sitting on the
// allocator's free list. This is the observable signal spec.md's
// join-after-exit scenario uses to confirm a joined fiber's stack was
// reclaimed.
func FreeStackCount() int {
	return rt.allocator.FreeCount()
}

// ActiveCount returns the number of fibers that have been created and
// not yet exited, including the primordial fiber.
func ActiveCount() int {
	return rt.activeCount
}

// TraceSnapshot returns a copy of the scheduler's recent
// Create/Exit/Join/Interrupt history, oldest first.
func TraceSnapshot() []control.TraceEntry {
	return rt.trace.Snapshot()
}

// RandomizeStacks toggles randomized stack offsets at any time, not just
// at Init, matching original_source/stk.c's st_randomize_stacks. Unlike
// SetTimeSource below, it is never rejected after Init. Enabling reseeds
// the allocator's PRNG from the runtime's current time source.
func RandomizeStacks(on bool) {
	rt.allocator.Randomize(on, rt.timeSource())
}

// SetTimeSource overrides the clock used for deadlines. The original
// (original_source/sync.c's st_set_utime_function) rejects this call
// once active_count > 0 — in practice, once the primordial fiber
// exists, which is as soon as Init returns. Use the WithTimeSource
// Option passed to Init instead; this function is retained to surface
// the same rejection for callers that try anyway.
func SetTimeSource(fn func() int64) error {
	if rt.activeCount > 0 {
		return fmt.Errorf("fiber: set time source after init: %w", ErrInvalidArg)
	}
	rt.timeSource = fn
	rt.lastClockUS = fn()
	return nil
}
