package list_test

import (
	"testing"

	"github.com/momentics/fiberrt/internal/list"
	"github.com/stretchr/testify/require"
)

type item struct {
	node list.Node
	val  int
}

func TestPushBackOrderAndRemoval(t *testing.T) {
	l := list.New()
	items := make([]*item, 5)
	for i := range items {
		items[i] = &item{val: i}
		items[i].node.Owner = items[i]
		l.PushBack(&items[i].node)
	}

	items[2].node.Remove()
	require.False(t, items[2].node.Linked())

	var got []int
	l.Each(func(n *list.Node) {
		got = append(got, n.Owner.(*item).val)
	})
	require.Equal(t, []int{0, 1, 3, 4}, got)
}

func TestEmptyAndPopFront(t *testing.T) {
	l := list.New()
	require.True(t, l.Empty())
	require.Nil(t, l.PopFront())

	it := &item{val: 7}
	it.node.Owner = it
	l.PushBack(&it.node)
	require.False(t, l.Empty())

	n := l.PopFront()
	require.Equal(t, 7, n.Owner.(*item).val)
	require.True(t, l.Empty())
}

func TestEachUntilStopsEarly(t *testing.T) {
	l := list.New()
	items := make([]*item, 4)
	for i := range items {
		items[i] = &item{val: i}
		items[i].node.Owner = items[i]
		l.PushBack(&items[i].node)
	}

	var visited []int
	l.EachUntil(func(n *list.Node) bool {
		v := n.Owner.(*item).val
		visited = append(visited, v)
		return v == 1
	})
	require.Equal(t, []int{0, 1}, visited)
}
