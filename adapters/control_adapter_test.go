package adapters_test

import (
	"testing"
	"time"

	"github.com/momentics/fiberrt"
	"github.com/momentics/fiberrt/adapters"
	"github.com/stretchr/testify/require"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	cfg := ctrl.GetConfig()
	require.Empty(t, cfg)

	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 1}))
	cfg = ctrl.GetConfig()
	require.Equal(t, 1, cfg["k"])

	done := make(chan struct{})
	ctrl.OnReload(func() { close(done) })
	ctrl.SetConfig(map[string]any{"x": 2})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reload hook not invoked")
	}
}

func TestControlAdapterTraceProbe(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.Trace().Record("fiber.create", 1, "joinable")
	ctrl.Trace().Record("fiber.exit", 1, "retval=nil")

	state := ctrl.Stats()
	entries, ok := state["debug.scheduler.trace"]
	require.True(t, ok)
	require.Len(t, entries, 2)
}

// TestControlAdapterSharesRuntimeTrace confirms the "scheduler.trace"
// debug probe reflects the fiber runtime's own Create/Exit/Join
// history, not just hand-fed entries, once the adapter's TraceLog is
// handed to fiber.Init via WithTrace.
func TestControlAdapterSharesRuntimeTrace(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	require.NoError(t, fiber.Init(fiber.WithTrace(ctrl.Trace())))

	c, err := fiber.Create(func(any) any { return nil }, nil, true, 0)
	require.NoError(t, err)
	_, err = fiber.Join(c)
	require.NoError(t, err)

	entries := ctrl.Trace().Snapshot()
	require.NotEmpty(t, entries)

	var sawCreate, sawExit, sawJoin bool
	for _, e := range entries {
		switch e.Event {
		case "create":
			sawCreate = true
		case "exit":
			sawExit = true
		case "join":
			sawJoin = true
		}
	}
	require.True(t, sawCreate, "expected a create trace entry")
	require.True(t, sawExit, "expected an exit trace entry")
	require.True(t, sawJoin, "expected a join trace entry")
}
