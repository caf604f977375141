// Package syncobj implements the explicit-sync primitives spec.md §4.5
// and §6 name: DRM syncobj timelines imported from a client fd, and the
// readable-fd wait that lets the commit engine defer a commit until its
// acquire point has materialized.
//
// Grounded on original_source/src/ifs/wp_linux_drm_syncobj_manager_v1.rs
// (import_timeline: a client fd becomes a timeline object bound to a
// surface) and original_source/src/gfx_apis/gl/renderer/sync.rs (a sync
// point is an opaque handle you wait on or export back to an fd); the
// actual fd-readable wait is wired through internal/loop the way the
// teacher's Display multiplexes C callbacks onto the single dispatch
// thread, here onto the event loop's epoll instance instead.
package syncobj

import (
	"time"

	"golang.org/x/sys/unix"

	"jaywl/internal/loop"
	"jaywl/internal/wlog"
)

// Timeline wraps an imported drm_syncobj fd (spec.md §6: "dma-buf and
// syncobj imports are opaque handles; this module does not implement a
// GPU driver").
type Timeline struct {
	Fd int
}

// Point is a (timeline, value) pair identifying one point on a
// timeline, the unit the protocol signals acquire/release against.
type Point struct {
	Timeline *Timeline
	Value    uint64
}

// NewTimeline takes ownership of fd, imported via
// wp_linux_drm_syncobj_manager_v1.import_timeline.
func NewTimeline(fd int) *Timeline {
	return &Timeline{Fd: fd}
}

// Close releases the timeline's fd.
func (t *Timeline) Close() error {
	if t.Fd < 0 {
		return nil
	}
	err := unix.Close(t.Fd)
	t.Fd = -1
	return err
}

// Waiter registers readable-fd waits on the event loop and satisfies
// internal/surface's FenceWaiter, letting the commit engine defer a
// commit until its acquire fence signals (spec.md §4.5 step 2).
type Waiter struct {
	l      *loop.Loop
	nextID uint64
	log    *wlog.Logger
}

func NewWaiter(l *loop.Loop) *Waiter {
	return &Waiter{l: l, log: wlog.New("syncobj")}
}

// WaitReadable registers fd with the event loop and invokes cb the
// moment it becomes readable, then deregisters it. fd is not closed;
// the caller (the commit engine, via the surface's acquire fd) owns
// its lifetime.
func (w *Waiter) WaitReadable(fd int, cb func()) {
	w.nextID++
	id := loop.ID(1<<63 | w.nextID) // high bit reserved so syncobj ids never collide with caller-chosen loop ids
	err := w.l.Insert(id, fd, loop.Readable, func(now time.Time) error {
		w.l.Remove(id)
		cb()
		return nil
	})
	if err != nil {
		w.log.Printf("failed to register fence wait on fd %d: %v", fd, err)
		cb()
	}
}
