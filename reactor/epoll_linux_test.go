//go:build linux
// +build linux

package reactor_test

import (
	"os"
	"testing"
	"time"

	"github.com/momentics/fiberrt/reactor"
	"github.com/stretchr/testify/require"
)

func TestPollsetAddWaitConsume(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	b, err := reactor.New(16)
	require.NoError(t, err)
	defer b.Close()

	fd := r.Fd()
	require.NoError(t, b.FDNew(fd))
	require.NoError(t, b.PollsetAdd([]reactor.FDInterest{{FD: fd, Events: reactor.EventRead}}))

	events, err := b.Wait(10)
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	var events2 []reactor.ReadyEvent
	for time.Now().Before(deadline) {
		events2, err = b.Wait(50)
		require.NoError(t, err)
		if len(events2) > 0 {
			break
		}
	}
	require.Len(t, events2, 1)
	require.Equal(t, fd, events2[0].FD)
	require.NotZero(t, events2[0].Revents&reactor.EventRead)

	require.NoError(t, b.ConsumeOneShot(fd))
	require.NoError(t, b.PollsetDel([]reactor.FDInterest{{FD: fd, Events: reactor.EventRead}}))
	require.NoError(t, b.FDClose(fd))
}

func TestPollsetAddRollbackOnFailure(t *testing.T) {
	b, err := reactor.New(16)
	require.NoError(t, err)
	defer b.Close()

	// 9999 is not an open fd; epoll_ctl should fail and the batch
	// should roll back cleanly (no entries left registered).
	err = b.PollsetAdd([]reactor.FDInterest{{FD: uintptr(9999), Events: reactor.EventRead}})
	require.Error(t, err)
}
