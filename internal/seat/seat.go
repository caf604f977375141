// Package seat implements the per-seat Seat / Input Router of spec.md
// §4.7 and §3: pointer/keyboard/touch state, focus, the grab stack,
// cursor image, and the routing of backend device events into the
// scene tree and back out as protocol-facing callbacks.
//
// Grounded on gioui-gio/io/router/pointer.go and key.go for the
// router's external shape — track current focus per device class,
// compare against a freshly hit-tested target, and emit synthesized
// enter/leave pairs on change — adapted from gio's op-tree hit testing
// to a walk over internal/scene's Node tree; and on
// gioui-gio/app/internal/window/os_wayland.go's repeatState for the
// key-repeat/LED bookkeeping idiom (a small state machine recomputed
// from the depressed/latched/locked mask on every key event rather
// than tracked incrementally).
package seat

import (
	"time"

	"jaywl/internal/scene"
	"jaywl/internal/surface"
)

// ID identifies a seat for the compositor's lifetime (spec.md §3).
type ID uint64

// PointerDelegate receives the protocol-facing events a pointer path
// produces; implemented at the proto layer so this package has no
// wire-format dependency of its own.
type PointerDelegate interface {
	Enter(s *surface.Surface, serial uint32, surfaceX, surfaceY float64)
	Leave(s *surface.Surface, serial uint32)
	Motion(s *surface.Surface, timeMS uint32, surfaceX, surfaceY float64)
	Button(s *surface.Surface, serial uint32, timeMS uint32, code uint32, pressed bool)
	Axis(s *surface.Surface, timeMS uint32, source, axis uint32, discrete int32, value float64)
}

// KeyboardDelegate receives keyboard protocol-facing events.
type KeyboardDelegate interface {
	Enter(s *surface.Surface, serial uint32)
	Leave(s *surface.Surface, serial uint32)
	Key(s *surface.Surface, serial uint32, timeMS uint32, code uint32, pressed bool)
	Modifiers(s *surface.Surface, serial uint32, depressed, latched, locked, group uint32)
}

// TouchDelegate receives touch protocol-facing events.
type TouchDelegate interface {
	Down(s *surface.Surface, serial uint32, timeMS uint32, id int32, x, y float64)
	Up(serial uint32, timeMS uint32, id int32)
	Motion(timeMS uint32, id int32, x, y float64)
}

// SerialAllocator hands out fresh, monotonically increasing serials
// shared across a seat's clients (spec.md §3 Seat: "a serial allocator
// shared with its clients"). Implemented by internal/client.
type SerialAllocator interface {
	NextSerial(ctx any) uint32
}

// SurfaceOf resolves a hit scene node down to the owning protocol
// surface and its local offset, or reports false if the node has none
// (a Container, Placeholder, or output background are not surfaces).
type SurfaceOf func(n scene.Node) (s *surface.Surface, localX, localY int32, ok bool)

// Grab overrides normal hit-test routing: while a grab is active,
// every device event for its class goes to Holder instead of whatever
// the hit test finds (spec.md §4.7 step 2, §3 Seat "active keyboard
// grab (a stack)").
type Grab struct {
	Kind   GrabKind
	Holder scene.Node
	// Owner, if non-nil, is the client that owns this grab; all its
	// grabs are released when that client disconnects (spec.md §4.7
	// cancellation).
	Owner any
}

// GrabKind distinguishes the grab stack's layers (spec.md §4.7 step 3).
type GrabKind uint8

const (
	GrabPopup GrabKind = iota
	GrabDrag
	GrabExplicit // from an input-method
)

// ModState is the keyboard modifier state machine of spec.md §3 Seat
// ("keyboard state (keymap, depressed/latched/locked modifier masks,
// group, indicator LEDs)").
type ModState struct {
	Depressed, Latched, Locked uint32
	Group                      uint32
}

// LEDs derives indicator LED state from the modifier mask, per
// spec.md §4.7 step 4 ("LEDs: derived from modifier state"). The
// bit layout (caps lock = bit 0, num lock = bit 1, scroll lock = bit
// 2) matches the conventional evdev LED ordinals; capsMask etc. are
// the keymap's modifier bit positions, supplied by the caller since
// they depend on the bound keymap, not a fixed constant.
func (m ModState) LEDs(capsMask, numMask, scrollMask uint32) uint32 {
	var leds uint32
	eff := m.Depressed | m.Latched | m.Locked
	if eff&capsMask != 0 {
		leds |= 1 << 0
	}
	if eff&numMask != 0 {
		leds |= 1 << 1
	}
	if eff&scrollMask != 0 {
		leds |= 1 << 2
	}
	return leds
}

// touchPoint tracks one active touch contact (spec.md §4.7 touch
// path: "each touch point has stable id").
type touchPoint struct {
	id       int32
	captured scene.Node
	clearTok int
}

// Seat is one input seat's complete routing state (spec.md §3).
type Seat struct {
	ID ID

	serials SerialAllocator
	resolve SurfaceOf

	root scene.Node // the Display node, starting point for hit tests

	// Pointer state.
	PointerX, PointerY float64 // global coordinates
	pointerFocus       scene.Node
	pointerFocusClear  int
	CursorHotspotX, CursorHotspotY int32
	cursorImage        any // opaque to this package; proto layer owns the concrete type

	// Keyboard state.
	Mods             ModState
	keyboardFocus    scene.Node
	keyboardFocusTok int
	focusPolicy      FocusPolicy

	touches []touchPoint

	dndSource, dndTarget any

	selection          SelectionSource
	selectionSerial    uint32
	selectionObservers []SelectionObserver

	grabs []Grab // stack, last element has priority (spec.md §3, §4.7)

	textInputFocus any

	// tabletTools holds per-tool proximity/position state, keyed by
	// the backend's tool id (spec.md §3 Seat: "tablet tool state").
	// Wire-level tablet protocol objects are out of scope (spec.md
	// §1: "per-protocol message field layouts ... out of scope"), so
	// only the state a grab/focus decision needs is tracked here.
	tabletTools map[uint64]TabletToolState

	lastInputTime time.Time

	pointerDelegate  PointerDelegate
	keyboardDelegate KeyboardDelegate
	touchDelegate    TouchDelegate
}

// FocusPolicy selects how keyboard focus follows window-manager
// activity (spec.md §4.7 step 2: "normally driven by window-manager
// policy (click-to-focus or follow-pointer)").
type FocusPolicy uint8

const (
	FocusClickToFocus FocusPolicy = iota
	FocusFollowsPointer
)

// New creates a Seat rooted at the display node for hit-testing.
func New(id ID, root scene.Node, serials SerialAllocator, resolve SurfaceOf,
	pointer PointerDelegate, keyboard KeyboardDelegate, touch TouchDelegate) *Seat {
	return &Seat{
		ID:               id,
		root:             root,
		serials:          serials,
		resolve:          resolve,
		pointerDelegate:  pointer,
		keyboardDelegate: keyboard,
		touchDelegate:    touch,
	}
}

// SetFocusPolicy changes whether keyboard focus follows click or the
// pointer.
func (s *Seat) SetFocusPolicy(p FocusPolicy) { s.focusPolicy = p }

// hitTest walks the tree from root at the seat's current global
// pointer position (or an explicit point for touch), returning the
// deepest node hit; spec.md §4.6 FindAt already does the walking, the
// seat only needs the leaf.
func (s *Seat) hitTest(x, y int32) scene.Node {
	var path []scene.Point
	if !s.root.FindAt(x, y, &path) || len(path) == 0 {
		return nil
	}
	// path is leaf-to-root order from FindAt's append-on-unwind
	// convention (deepest hit appended first, root appended last), so
	// the leaf (the actual hit target) is path[0].
	return path[0].Node
}

// activeGrab returns the topmost grab of the given kind, or (Grab{},
// false) if none is active.
func (s *Seat) activeGrab(kinds ...GrabKind) (Grab, bool) {
	for i := len(s.grabs) - 1; i >= 0; i-- {
		for _, k := range kinds {
			if s.grabs[i].Kind == k {
				return s.grabs[i], true
			}
		}
	}
	return Grab{}, false
}

// PushGrab installs a new grab on top of the stack (spec.md §4.7 step
// 3, §3 Seat "active keyboard grab (a stack)").
func (s *Seat) PushGrab(g Grab) { s.grabs = append(s.grabs, g) }

// PopGrab removes the topmost grab matching kind, if any.
func (s *Seat) PopGrab(kind GrabKind) {
	for i := len(s.grabs) - 1; i >= 0; i-- {
		if s.grabs[i].Kind == kind {
			s.grabs = append(s.grabs[:i], s.grabs[i+1:]...)
			return
		}
	}
}

// ReleaseGrabsOwnedBy drops every grab owned by owner, used on client
// teardown (spec.md §4.7 cancellation: "on client teardown, all grabs
// owned by that client are released").
func (s *Seat) ReleaseGrabsOwnedBy(owner any) {
	kept := s.grabs[:0]
	for _, g := range s.grabs {
		if g.Owner != owner {
			kept = append(kept, g)
		}
	}
	s.grabs = kept
}

// TabletToolState is the proximity/position record for one tablet
// tool (spec.md §3 Seat).
type TabletToolState struct {
	X, Y     float64
	Pressure float64
	InProximity bool
}

// SetTabletTool records proximity/position state for a tool id,
// routed the same way pointer motion is (hit-test, or active grab).
func (s *Seat) SetTabletTool(toolID uint64, st TabletToolState) {
	if s.tabletTools == nil {
		s.tabletTools = map[uint64]TabletToolState{}
	}
	s.tabletTools[toolID] = st
}

// TabletTool returns the last recorded state for toolID.
func (s *Seat) TabletTool(toolID uint64) (TabletToolState, bool) {
	st, ok := s.tabletTools[toolID]
	return st, ok
}

// SetDnD records the current drag-and-drop source/target pair.
func (s *Seat) SetDnD(source, target any) { s.dndSource, s.dndTarget = source, target }

// DnD returns the current drag-and-drop source/target pair.
func (s *Seat) DnD() (source, target any) { return s.dndSource, s.dndTarget }
