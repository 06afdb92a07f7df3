// File: fiber_scenarios_test.go
// Author: momentics <momentics@gmail.com>
//
// End-to-end scenarios from spec.md §8 (S1, S3, S4, S5, S6). S2 (timer
// ordering) is covered directly against the sleep heap in
// sleepheap_test.go; the scenarios here go through the full
// Create/Poll/Usleep/Join public surface.

package fiber_test

import (
	"os"
	"testing"
	"time"

	"github.com/momentics/fiberrt"
	"github.com/momentics/fiberrt/reactor"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	require.NoError(t, fiber.Init())
	require.NoError(t, fiber.Init())
}

// S1 — ping-pong via condvars. Each side parks on a predicate-checked
// Wait loop (the idiom Cond.Wait's own doc comment requires) so the
// outcome doesn't depend on which side the scheduler happens to run
// first; a signal delivered before the other side starts waiting is
// not a lost wakeup because the predicate is rechecked, not assumed.
func TestPingPongCondvars(t *testing.T) {
	require.NoError(t, fiber.Init())
	cv := fiber.NewCond()
	turn := 0
	var aErr, bErr error

	a, err := fiber.Create(func(any) any {
		for i := 0; i < 100; i++ {
			for turn != 0 {
				if err := fiber.Wait(cv); err != nil {
					aErr = err
					return nil
				}
			}
			turn = 1
			fiber.Signal(cv)
		}
		return nil
	}, nil, true, 0)
	require.NoError(t, err)

	b, err := fiber.Create(func(any) any {
		for i := 0; i < 100; i++ {
			for turn != 1 {
				if err := fiber.Wait(cv); err != nil {
					bErr = err
					return nil
				}
			}
			turn = 0
			fiber.Signal(cv)
		}
		return nil
	}, nil, true, 0)
	require.NoError(t, err)

	before := fiber.ActiveCount()

	_, err = fiber.Join(a)
	require.NoError(t, err)
	_, err = fiber.Join(b)
	require.NoError(t, err)
	require.NoError(t, aErr)
	require.NoError(t, bErr)
	require.Equal(t, before-2, fiber.ActiveCount())
}

// S3 — accept with timeout.
func TestAcceptWithTimeout(t *testing.T) {
	require.NoError(t, fiber.Init())
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var n1, n2 int
	var err1, err2 error

	f, err := fiber.Create(func(any) any {
		fds := []fiber.PollFD{{FD: r.Fd(), Events: reactor.EventRead}}
		n1, err1 = fiber.Poll(fds, 50_000)

		fds2 := []fiber.PollFD{{FD: r.Fd(), Events: reactor.EventRead}}
		n2, err2 = fiber.Poll(fds2, fiber.NoTimeout)
		return nil
	}, nil, true, 0)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("x"))
	}()

	_, err = fiber.Join(f)
	require.NoError(t, err)

	require.Equal(t, 0, n1)
	require.NoError(t, err1)
	require.Equal(t, 1, n2)
	require.NoError(t, err2)
}

// S4 — interrupt a sleeper. X is created before interrupter, so X runs
// (and parks on Usleep) before interrupter gets its first turn.
func TestInterruptSleeper(t *testing.T) {
	require.NoError(t, fiber.Init())
	var sleepErr error

	x, err := fiber.Create(func(any) any {
		sleepErr = fiber.Usleep(1_000_000)
		return nil
	}, nil, true, 0)
	require.NoError(t, err)

	interrupter, err := fiber.Create(func(any) any {
		time.Sleep(10 * time.Millisecond)
		fiber.Interrupt(x)
		return nil
	}, nil, true, 0)
	require.NoError(t, err)

	begin := time.Now()
	_, err = fiber.Join(x)
	require.NoError(t, err)
	require.Less(t, time.Since(begin), 200*time.Millisecond)
	require.ErrorIs(t, sleepErr, fiber.ErrInterrupted)

	_, err = fiber.Join(interrupter)
	require.NoError(t, err)
}

// S4b — interrupting a fiber that has not run yet must make its first
// parking call fail immediately instead of actually blocking (spec.md
// §8 property 12). X is created but never given a turn before
// Interrupt runs, since Create doesn't yield the caller; its entry
// then calls Lock on an unheld mutex, which would simply succeed
// (lockErr nil) if the entry-time interrupted check were missing.
func TestInterruptBeforeFirstRun(t *testing.T) {
	require.NoError(t, fiber.Init())
	m := fiber.NewMutex()
	var lockErr error

	x, err := fiber.Create(func(any) any {
		lockErr = fiber.Lock(m)
		return nil
	}, nil, true, 0)
	require.NoError(t, err)
	require.Equal(t, fiber.StateRunnable, x.State())

	fiber.Interrupt(x)

	_, err = fiber.Join(x)
	require.NoError(t, err)
	require.ErrorIs(t, lockErr, fiber.ErrInterrupted)
}

// Same boundary property as TestInterruptBeforeFirstRun, exercised
// against Usleep, Cond.Wait, and Poll — the other three parking
// primitives spec.md requires to fail fast on entry when already
// flagged INTERRUPTED, rather than actually blocking.
func TestInterruptBeforeFirstRunAllPrimitives(t *testing.T) {
	require.NoError(t, fiber.Init())

	t.Run("usleep", func(t *testing.T) {
		var sleepErr error
		x, err := fiber.Create(func(any) any {
			sleepErr = fiber.Usleep(60_000_000)
			return nil
		}, nil, true, 0)
		require.NoError(t, err)
		fiber.Interrupt(x)
		_, err = fiber.Join(x)
		require.NoError(t, err)
		require.ErrorIs(t, sleepErr, fiber.ErrInterrupted)
	})

	t.Run("condwait", func(t *testing.T) {
		cv := fiber.NewCond()
		var waitErr error
		x, err := fiber.Create(func(any) any {
			waitErr = fiber.Wait(cv)
			return nil
		}, nil, true, 0)
		require.NoError(t, err)
		fiber.Interrupt(x)
		_, err = fiber.Join(x)
		require.NoError(t, err)
		require.ErrorIs(t, waitErr, fiber.ErrInterrupted)
	})

	t.Run("poll", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer r.Close()
		defer w.Close()
		var pollErr error
		x, err := fiber.Create(func(any) any {
			fds := []fiber.PollFD{{FD: r.Fd(), Events: reactor.EventRead}}
			_, pollErr = fiber.Poll(fds, fiber.NoTimeout)
			return nil
		}, nil, true, 0)
		require.NoError(t, err)
		fiber.Interrupt(x)
		_, err = fiber.Join(x)
		require.NoError(t, err)
		require.ErrorIs(t, pollErr, fiber.ErrInterrupted)
	})
}

// S5 — mutex handoff fairness. Owner acquires uncontended, sleeps
// briefly so W1/W2/W3 queue up in order, then unlocks; ownership must
// hand off strictly FIFO, never to a later arrival.
func TestMutexHandoffFairness(t *testing.T) {
	require.NoError(t, fiber.Init())
	m := fiber.NewMutex()
	var order []int

	owner, err := fiber.Create(func(any) any {
		require.NoError(t, fiber.Lock(m))
		require.NoError(t, fiber.Usleep(30_000))
		require.NoError(t, fiber.Unlock(m))
		return nil
	}, nil, true, 0)
	require.NoError(t, err)

	waiters := make([]*fiber.Fiber, 3)
	for i := 0; i < 3; i++ {
		id := i + 1
		w, err := fiber.Create(func(any) any {
			require.NoError(t, fiber.Lock(m))
			order = append(order, id)
			require.NoError(t, fiber.Unlock(m))
			return nil
		}, nil, true, 0)
		require.NoError(t, err)
		waiters[i] = w
	}

	_, err = fiber.Join(owner)
	require.NoError(t, err)
	for _, w := range waiters {
		_, err := fiber.Join(w)
		require.NoError(t, err)
	}
	require.Equal(t, []int{1, 2, 3}, order)
}

// S6 — join after exit. C exits immediately with 42; after Join
// reclaims it, its stack is back on the free list.
func TestJoinAfterExit(t *testing.T) {
	require.NoError(t, fiber.Init())
	// Earlier tests leave joined fibers queued for their own final
	// reclaim turn; let those run first so they don't move the count.
	require.NoError(t, fiber.Usleep(0))

	c, err := fiber.Create(func(any) any { return 42 }, nil, true, 0)
	require.NoError(t, err)
	// Taken after Create, since C's stack may come off the free list.
	before := fiber.FreeStackCount()

	ret, err := fiber.Join(c)
	require.NoError(t, err)
	require.Equal(t, 42, ret)

	// Let the scheduler run C's own reclaim continuation (parked
	// inside Exit until Join requeues it); a zero-delay Usleep forces
	// one more round without a real wall-clock wait.
	require.NoError(t, fiber.Usleep(0))
	require.Equal(t, before+1, fiber.FreeStackCount())
}
