package stack_test

import (
	"testing"

	"github.com/momentics/fiberrt/stack"
	"github.com/stretchr/testify/require"
)

func TestAllocateReleaseReuse(t *testing.T) {
	a := stack.NewAllocator(64*1024, false)

	s1, err := a.Allocate(32 * 1024)
	require.NoError(t, err)
	require.GreaterOrEqual(t, s1.Size(), 32*1024)
	require.Len(t, s1.Bytes(), s1.Size())

	a.Release(s1)
	require.Equal(t, 1, a.FreeCount())

	s2, err := a.Allocate(16 * 1024)
	require.NoError(t, err)
	require.Equal(t, 0, a.FreeCount())
	require.GreaterOrEqual(t, s2.Size(), 32*1024)
}

func TestAllocateMissGrowsFreshBacking(t *testing.T) {
	a := stack.NewAllocator(0, false)
	s, err := a.Allocate(8 * 1024)
	require.NoError(t, err)
	require.Equal(t, 8*1024, s.Size())
}

func TestAllocateAfterRandomizeEnable(t *testing.T) {
	a := stack.NewAllocator(16*1024, false)
	a.Randomize(true, 1000)
	s1, err := a.Allocate(16 * 1024)
	require.NoError(t, err)
	require.NotNil(t, s1)
}
