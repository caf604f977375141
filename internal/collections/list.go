// Package collections provides the small, intrusive data structures the
// compositor core reuses everywhere: linked lists with stable node
// references, an index arena, a copy-on-write map for broadcast tables,
// and a bitmap allocator for small-number id reuse.
//
// The shapes follow the teacher's habit of keeping long-lived entities
// in a table keyed by a stable identity (honnef.co/go/libwayland's
// Display.proxies) rather than relying on pointer identity surviving
// reallocation; in a language without a C-ABI escape hatch, an arena of
// indices plays the same role (see DESIGN.md, "internal/collections").
package collections

// List is an intrusive doubly-linked list. The zero value is an empty
// list. Nodes are owned by the caller; List never allocates per node.
type List[T any] struct {
	root Node[T]
}

// Node is an embeddable intrusive list node.
type Node[T any] struct {
	prev, next *Node[T]
	list       *List[T]
	Value      T
}

// lazyInit makes the zero value usable: every List method calls it
// first, pointing the root at itself on first use.
func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
		l.root.list = l
	}
}

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool {
	l.lazyInit()
	return l.root.next == &l.root
}

// PushBack appends n to the back of the list.
func (l *List[T]) PushBack(n *Node[T]) {
	l.lazyInit()
	n.prev = l.root.prev
	n.next = &l.root
	l.root.prev.next = n
	l.root.prev = n
	n.list = l
}

// PushFront prepends n to the front of the list.
func (l *List[T]) PushFront(n *Node[T]) {
	l.lazyInit()
	n.next = l.root.next
	n.prev = &l.root
	l.root.next.prev = n
	l.root.next = n
	n.list = l
}

// Remove detaches n from whatever list it is in. Safe to call on a
// node that is not currently linked (no-op).
func (n *Node[T]) Remove() {
	if n.list == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	n.list = nil
}

// Linked reports whether n is currently part of a list.
func (n *Node[T]) Linked() bool { return n.list != nil }

// InsertBefore inserts n immediately before mark, which must already be
// linked into a list.
func (n *Node[T]) InsertBefore(mark *Node[T]) {
	n.Remove()
	n.prev = mark.prev
	n.next = mark
	mark.prev.next = n
	mark.prev = n
	n.list = mark.list
}

// InsertAfter inserts n immediately after mark.
func (n *Node[T]) InsertAfter(mark *Node[T]) {
	n.Remove()
	n.next = mark.next
	n.prev = mark
	mark.next.prev = n
	mark.next = n
	n.list = mark.list
}

// Next returns the next node, or nil at the end of the list.
func (n *Node[T]) Next() *Node[T] {
	if n.list == nil || n.next == &n.list.root {
		return nil
	}
	return n.next
}

// Prev returns the previous node, or nil at the start of the list.
func (n *Node[T]) Prev() *Node[T] {
	if n.list == nil || n.prev == &n.list.root {
		return nil
	}
	return n.prev
}

// Front returns the first node, or nil if the list is empty.
func (l *List[T]) Front() *Node[T] {
	l.lazyInit()
	if l.root.next == &l.root {
		return nil
	}
	return l.root.next
}

// Back returns the last node, or nil if the list is empty.
func (l *List[T]) Back() *Node[T] {
	l.lazyInit()
	if l.root.prev == &l.root {
		return nil
	}
	return l.root.prev
}

// Each calls fn for every node in front-to-back order. fn may remove
// the current node but must not remove other nodes.
func (l *List[T]) Each(fn func(*Node[T])) {
	l.lazyInit()
	for n := l.root.next; n != &l.root; {
		next := n.next
		fn(n)
		n = next
	}
}

// EachReverse calls fn for every node in back-to-front order.
func (l *List[T]) EachReverse(fn func(*Node[T])) {
	l.lazyInit()
	for n := l.root.prev; n != &l.root; {
		prev := n.prev
		fn(n)
		n = prev
	}
}
