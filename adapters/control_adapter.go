// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/fiberrt/api"
	"github.com/momentics/fiberrt/control"
)

type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
	trace   *control.TraceLog
}

func NewControlAdapter() *ControlAdapter {
	return NewControlAdapterWithTrace(nil)
}

// NewControlAdapterWithTrace builds a ControlAdapter backed by trace
// instead of a private log. Pass the same *control.TraceLog to
// fiber.Init via fiber.WithTrace so the "scheduler.trace" debug probe
// this adapter registers surfaces the runtime's own
// Create/Exit/Join/Interrupt history rather than a log only this
// adapter ever writes to. nil allocates a private log of the default
// size, matching NewControlAdapter.
func NewControlAdapterWithTrace(trace *control.TraceLog) *ControlAdapter {
	if trace == nil {
		trace = control.NewTraceLog(512)
	}
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
		trace:   trace,
	}
	control.RegisterPlatformProbes(adapter.debug)
	adapter.debug.RegisterProbe("scheduler.trace", func() any {
		return adapter.trace.Snapshot()
	})
	return adapter
}

var _ api.Control = (*ControlAdapter)(nil)

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}
func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any)
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}
func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
	control.RegisterReloadHook(fn)
}
func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}
func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Trace returns the bounded scheduler event history backing the
// "scheduler.trace" debug probe, so the runtime can record transitions.
func (c *ControlAdapter) Trace() *control.TraceLog {
	return c.trace
}
