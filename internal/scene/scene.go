// Package scene implements the node tree of spec.md §4.6: a z-ordered
// graph from the display root down through outputs, workspaces,
// containers and floating windows, to the surfaces and subsurfaces
// that back them, plus the bottom-to-top/top-to-bottom walker used for
// rendering and hit-testing.
//
// Grounded on the teacher's event-fan-out shape (wayland.go's
// Registry.Bind* family establishes a parent-owns-children lifetime
// the same way a scene Node owns its Children list) and on
// gogpu-gogpu/internal/platform/x11/window.go for the idea of a small
// interface (here Node) that every concrete kind implements instead of
// a single tagged-union struct.
package scene

import "jaywl/internal/surface"

// Kind distinguishes the node types spec.md §4.6 and §3 name.
type Kind uint8

const (
	KindDisplay Kind = iota
	KindOutput
	KindWorkspace
	KindContainer
	KindPlaceholder
	KindToplevel
	KindStacked // floating window, popup, or drag icon layer
)

// Point is a local-coordinate hit, appended by FindAt as the walker
// unwinds from the leaf back up to the root.
type Point struct {
	Node  Node
	LocalX, LocalY int32
}

// FrameBuilder receives draw ops during a render walk; the concrete
// implementation lives in internal/render (software) or a future GPU
// backend, kept opaque here so the scene tree has no rendering
// dependency of its own (spec.md §6: backend is pluggable).
type FrameBuilder interface {
	DrawSurface(s *surface.Surface, x, y int32)
	FillRect(r surface.Rect, rgba [4]float32)
}

// Visitor is called once per child during a VisitChildren walk.
type Visitor func(child Node)

// Node is implemented by every scene tree entity (spec.md §4.6: "each
// node implements find_at, render, visible, parent, destroy,
// visit_children").
type Node interface {
	Kind() Kind
	Parent() Node
	Visible() bool
	// FindAt reports whether this node (or a descendant) absorbs input
	// at the given node-local point, appending itself and its local
	// coordinates to path as it unwinds, so path ends up in
	// leaf-to-root order: the deepest hit first, the root last.
	FindAt(x, y int32, path *[]Point) bool
	// Render appends this node's (and its children's) draw ops to fb,
	// at the given accumulated offset from the output origin.
	Render(fb FrameBuilder, xOffset, yOffset int32)
	// Destroy detaches this node from its parent's child list iff
	// detach is true, and recursively destroys children.
	Destroy(detach bool)
	VisitChildren(v Visitor)
	// AddFocusClear/RemoveFocusClear let internal/seat register a
	// callback that drops its focus pointer when this node is
	// destroyed, without the seat having to scan the tree for it.
	AddFocusClear(fn func()) int
	RemoveFocusClear(id int)
}

// base holds the fields every concrete node kind shares; it is
// embedded, never used standalone.
type base struct {
	kind     Kind
	parent   Node
	children []Node
	visible  bool
	x, y     int32 // offset from parent, in parent-local coordinates

	// focusClear holds one closure per seat currently focusing this
	// node (pointer, keyboard, or touch), registered by
	// internal/seat when it assigns focus here. Every concrete kind's
	// Destroy calls clearFocus so a destroyed node's focus is dropped
	// from every seat in O(number of seats actually focusing it)
	// rather than every seat scanning the whole tree (spec.md §3:
	// "seat-state record ... for O(1) unfocus-on-destroy").
	focusClear   []focusClearEntry
	focusClearID int
}

type focusClearEntry struct {
	id int
	fn func()
}

// AddFocusClear registers fn to run once, when this node is
// destroyed, to clear whatever seat-side focus pointer fn closes over.
// The returned token can be passed to RemoveFocusClear to cancel it
// when focus moves away normally instead of via destruction.
func (b *base) AddFocusClear(fn func()) int {
	b.focusClearID++
	id := b.focusClearID
	b.focusClear = append(b.focusClear, focusClearEntry{id: id, fn: fn})
	return id
}

// RemoveFocusClear cancels a registration made by AddFocusClear.
func (b *base) RemoveFocusClear(id int) {
	for i, e := range b.focusClear {
		if e.id == id {
			b.focusClear = append(b.focusClear[:i], b.focusClear[i+1:]...)
			return
		}
	}
}

func (b *base) clearFocus() {
	for _, e := range b.focusClear {
		e.fn()
	}
	b.focusClear = nil
}

func (b *base) Kind() Kind     { return b.kind }
func (b *base) Parent() Node   { return b.parent }
func (b *base) Visible() bool  { return b.visible }

func (b *base) VisitChildren(v Visitor) {
	for _, c := range b.children {
		v(c)
	}
}

// findAtChildren walks children back-to-front (topmost first) so the
// first hit wins, matching spec.md §4.6's "reverse [z-order], for
// hit-testing".
func (b *base) findAtChildren(x, y int32, path *[]Point) bool {
	for i := len(b.children) - 1; i >= 0; i-- {
		c := b.children[i]
		if c.FindAt(x, y, path) {
			return true
		}
	}
	return false
}

// renderChildren walks children front-to-back (bottommost first),
// spec.md §4.6's z-order for painting.
func (b *base) renderChildren(fb FrameBuilder, xOffset, yOffset int32) {
	for _, c := range b.children {
		c.Render(fb, xOffset, yOffset)
	}
}

func (b *base) addChild(n Node, parent Node) {
	b.children = append(b.children, n)
}

func (b *base) removeChild(n Node) {
	for i, c := range b.children {
		if c == n {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}

func (b *base) destroyChildren() {
	for _, c := range b.children {
		c.Destroy(false)
	}
	b.children = nil
}

// contains reports whether the node-local point (x,y) falls within a
// w x h box anchored at the origin — the common geometry test every
// concrete leaf kind needs for FindAt.
func contains(x, y, w, h int32) bool {
	return x >= 0 && y >= 0 && x < w && y < h
}
