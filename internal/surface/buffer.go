// Package surface implements the central Surface entity of spec.md §3
// and the commit engine of §4.5: double-buffered pending/current
// state, the commit barrier (syncobj acquire points, fifo barriers,
// commit timers), buffer reference counting and release, subsurface
// ordering, and role assignment.
//
// The call shape (Attach/Damage/Frame/Commit, buffer OnRelease) is
// grounded on the teacher's Surface/Buffer/Callback types in
// wayland.go; there it is the *client* issuing these calls to a C
// library, here it is the *state machine* those calls would drive on
// the compositor end of the same wire protocol.
package surface

import "jaywl/internal/wlog"

// BufferShape distinguishes the three import shapes spec.md §6 names.
type BufferShape uint8

const (
	ShapeShm BufferShape = iota
	ShapeSinglePixel
	ShapeDMABuf
)

// Buffer is an external import handle plus release-counting state
// (spec.md §3). It may be referenced by Pending, Current, and
// in-flight presentations simultaneously; it is released to the
// client exactly once, when the last reference drops.
type Buffer struct {
	Shape BufferShape

	// Shm fields.
	ShmFd     int
	ShmOffset int32
	Width     int32
	Height    int32
	Stride    int32
	Format    uint32

	// Single-pixel fields.
	R, G, B, A uint32

	// DMA-buf fields.
	Planes   []DMABufPlane
	Modifier uint64

	refCount int
	released bool

	// OnRelease is invoked exactly once, the moment refCount reaches
	// zero (spec.md §4.5 step 4, §8 property 2). A buffer with an
	// attached release syncobj point signals that instead; both are
	// supported via the same hook so callers don't need to branch.
	OnRelease func()

	log *wlog.Logger
}

// DMABufPlane is one plane of a dma-buf import (spec.md §6).
type DMABufPlane struct {
	Fd     int
	Offset uint32
	Stride uint32
}

// NewBuffer wraps a freshly imported buffer with a zero refcount; the
// first Ref call (from a commit that makes it a surface's current
// buffer) brings it to one.
func NewBuffer(shape BufferShape) *Buffer {
	return &Buffer{Shape: shape, log: wlog.Surface.Sub("buffer")}
}

// Ref increments the reference count, e.g. when a commit makes this
// the surface's current buffer, or a frame captures it for presentation.
func (b *Buffer) Ref() {
	if b.refCount == 0 {
		// Re-attaching a previously released buffer: it needs to be
		// released again, not treated as still-released, the next
		// time its refcount reaches zero.
		b.released = false
	}
	b.refCount++
}

// Unref decrements the reference count and fires OnRelease exactly
// once when it reaches zero (spec.md §8 property 2: "exactly once and
// only after no current state or in-flight presentation references
// B").
func (b *Buffer) Unref() {
	if b.refCount == 0 {
		return
	}
	b.refCount--
	if b.refCount == 0 && !b.released {
		b.released = true
		if b.OnRelease != nil {
			b.OnRelease()
		}
	}
}

// RefCount reports the current reference count, for tests.
func (b *Buffer) RefCount() int { return b.refCount }

// Released reports whether OnRelease has already fired.
func (b *Buffer) Released() bool { return b.released }
