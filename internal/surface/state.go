package surface

import "jaywl/internal/collections"

// Role is the one-shot protocol-assigned function of a surface
// (spec.md §3).
type Role uint8

const (
	RoleNone Role = iota
	RoleXdgToplevel
	RoleXdgPopup
	RoleSubsurface
	RoleLayerShell
	RoleSessionLock
	RoleDragIcon
	RoleCursor
	RoleInputMethodPopup
	RoleTrayItem
	RoleXWaylandShell
)

// Rect is an axis-aligned integer rectangle, used for damage and
// input/opaque regions.
type Rect struct{ X, Y, W, H int32 }

// Region is a set of rectangles; kept as a simple slice rather than a
// merged/optimized region tree, matching the scale this core needs
// (tens of rectangles per commit, not thousands).
type Region []Rect

// FrameCallback is a one-shot done-event registration (spec.md §4.5,
// GLOSSARY "Frame callback").
type FrameCallback struct {
	node collections.Node[*FrameCallback]
	// Fire is invoked with the vblank timestamp, in milliseconds,
	// once a presentation containing the commit that registered this
	// callback completes (spec.md §4.8).
	Fire func(timestampMS uint32)
}

// PendingState accumulates client mutations since the last commit
// (spec.md §3).
type PendingState struct {
	Buffer        *Buffer
	BufferSet     bool // distinguishes "no attach since last commit" from "attach(null)"
	BufferX, BufferY int32

	DamageSurfaceLocal []Rect
	DamageBufferLocal  []Rect

	OpaqueRegion Region
	InputRegion  Region
	HasInput     bool

	Transform uint32
	Scale     int32

	ViewportSrc Rect
	ViewportDst struct{ W, H int32 }
	HasViewportSrc, HasViewportDst bool

	FractionalScale uint32 // 120ths, 0 = unset

	AlphaMultiplier float64 // 1.0 = opaque passthrough
	TearingHint     bool

	FrameCallbacks []*FrameCallback

	// Commit barrier inputs (spec.md §4.5).
	CommitTimerAt   int64 // unix nanos; 0 = unset
	SyncAcquireFd   int   // -1 = unset
	SyncReleaseFd   int
	FifoBarrier     bool

	// Subsurface-only fields (spec.md §3).
	SubX, SubY int32
	SubSync    bool
	PlaceAbove, PlaceBelow *SurfaceRef // order move requested this cycle
}

// SurfaceRef is an indirection so surface.go doesn't need a forward
// reference cycle with itself for sibling ordering; it simply wraps
// *Surface once that type is defined below.
type SurfaceRef struct{ S *Surface }

// CurrentState is the applied state used by rendering and input
// routing (spec.md §3). Structurally identical to PendingState minus
// the barrier/queueing-only fields, since those only matter while a
// commit is in flight.
type CurrentState struct {
	Buffer    *Buffer
	BufferX, BufferY int32
	Mapped    bool

	DamageSurfaceLocal []Rect
	DamageBufferLocal  []Rect

	OpaqueRegion Region
	InputRegion  Region
	HasInput     bool

	Transform       uint32
	Scale           int32
	ViewportSrc     Rect
	HasViewportSrc  bool
	ViewportDstW    int32
	ViewportDstH    int32
	HasViewportDst  bool
	FractionalScale uint32
	AlphaMultiplier float64

	SubX, SubY int32
}

func newPending() *PendingState {
	return &PendingState{SyncAcquireFd: -1, SyncReleaseFd: -1, AlphaMultiplier: 1.0}
}
