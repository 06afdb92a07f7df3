// File: internal/list/list.go
// Author: momentics <momentics@gmail.com>
//
// Sentinel-based circular doubly-linked list. Intrusive: callers embed a
// Node value inside the struct they want queued and set Owner once, at
// construction, to a stable back-pointer. Insert/remove are O(1); no
// allocation happens on either path.

package list

// Node is a link record. The zero value is an unlinked node.
type Node struct {
	prev, next *Node
	list       *List
	Owner      any
}

// Linked reports whether the node currently belongs to some List.
func (n *Node) Linked() bool {
	return n.list != nil
}

// Remove detaches n from whatever list it belongs to. No-op if unlinked.
func (n *Node) Remove() {
	if n.list == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	n.list = nil
}

// List is a circular doubly-linked list with a sentinel root node.
type List struct {
	root Node
}

// New returns an empty list.
func New() *List {
	l := &List{}
	l.root.next = &l.root
	l.root.prev = &l.root
	l.root.list = l
	return l
}

// Empty reports whether the list has no elements.
func (l *List) Empty() bool {
	return l.root.next == &l.root
}

// PushBack appends n at the tail of l. n must not already be linked.
func (l *List) PushBack(n *Node) {
	n.prev = l.root.prev
	n.next = &l.root
	l.root.prev.next = n
	l.root.prev = n
	n.list = l
}

// PushFront inserts n at the head of l. n must not already be linked.
func (l *List) PushFront(n *Node) {
	n.next = l.root.next
	n.prev = &l.root
	l.root.next.prev = n
	l.root.next = n
	n.list = l
}

// Front returns the head node, or nil if l is empty.
func (l *List) Front() *Node {
	if l.Empty() {
		return nil
	}
	return l.root.next
}

// PopFront removes and returns the head node, or nil if l is empty.
func (l *List) PopFront() *Node {
	n := l.Front()
	if n != nil {
		n.Remove()
	}
	return n
}

// Each visits every node in order. fn may remove the node it is given
// (the next pointer is captured before fn runs) but must not remove or
// insert other nodes of the same list.
func (l *List) Each(fn func(*Node)) {
	n := l.root.next
	for n != &l.root {
		next := n.next
		fn(n)
		n = next
	}
}

// EachUntil visits nodes in order until fn returns true.
func (l *List) EachUntil(fn func(*Node) bool) {
	n := l.root.next
	for n != &l.root {
		next := n.next
		if fn(n) {
			return
		}
		n = next
	}
}
