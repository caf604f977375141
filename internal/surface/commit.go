package surface

import "time"

// Clock abstracts the monotonic clock so tests can drive commit-timer
// and fence-wait behavior deterministically (spec.md §6: "a monotonic
// clock for relative timing").
type Clock interface{ Now() time.Time }

// FenceWaiter registers a readable-fd wait and calls cb once the fence
// signals (spec.md §4.5 step 2). Implemented by internal/syncobj.
type FenceWaiter interface {
	WaitReadable(fd int, cb func())
}

// Engine runs the commit algorithm of spec.md §4.5 for one surface.
type Engine struct {
	Clock Clock
	Fence FenceWaiter
}

// Commit implements spec.md §4.5's four-step algorithm. desynchronized
// reports whether this surface's *own* subsurface mode (if any) is
// desynchronized; root surfaces pass true.
func (e *Engine) Commit(s *Surface, desynchronized bool) error {
	p := s.Pending

	// Step 1: commit timer.
	if p.CommitTimerAt != 0 {
		now := e.Clock.Now().UnixNano()
		if now < p.CommitTimerAt {
			s.queueCommit(p, p.CommitTimerAt, -1)
			s.Pending = newPending()
			return nil
		}
	}

	// Step 2: sync-obj acquire point.
	if p.SyncAcquireFd >= 0 {
		fd := p.SyncAcquireFd
		queued := p
		s.queueCommit(queued, 0, fd)
		s.Pending = newPending()
		e.Fence.WaitReadable(fd, func() {
			e.replayQueued(s, queued)
		})
		return nil
	}

	// Step 3: synchronized subsurface.
	if s.Role == RoleSubsurface && p.SubSync && !desynchronized {
		s.shadow = p
		s.Pending = newPending()
		return nil
	}

	return e.apply(s, p)
}

// apply performs the unconditional swap of step 4: Pending -> Current,
// damage computation, buffer release, frame-done scheduling, and
// output dirtying.
func (e *Engine) apply(s *Surface, p *PendingState) error {
	prevBuffer := s.Current.Buffer

	if p.BufferSet {
		if p.Buffer == nil {
			// Attach(null): unmaps the surface (spec.md §4.5 invariant).
			s.Current.Mapped = false
			s.Current.Buffer = nil
		} else {
			p.Buffer.Ref()
			s.Current.Buffer = p.Buffer
			s.Current.Mapped = true
			s.Current.BufferX, s.Current.BufferY = p.BufferX, p.BufferY
		}
	}
	// A commit without a new attachment preserves the previously
	// attached buffer's content (spec.md §4.5 invariant): Current.Buffer
	// is simply left as-is when !p.BufferSet.

	if p.OpaqueRegion != nil {
		s.Current.OpaqueRegion = p.OpaqueRegion
	}
	if p.HasInput {
		s.Current.InputRegion = p.InputRegion
		s.Current.HasInput = true
	}
	if p.Transform != 0 {
		s.Current.Transform = p.Transform
	}
	if p.Scale != 0 {
		s.Current.Scale = p.Scale
	}
	if p.HasViewportSrc {
		s.Current.ViewportSrc = p.ViewportSrc
		s.Current.HasViewportSrc = true
	}
	if p.HasViewportDst {
		s.Current.ViewportDstW, s.Current.ViewportDstH = p.ViewportDst.W, p.ViewportDst.H
		s.Current.HasViewportDst = true
	}
	if p.FractionalScale != 0 {
		s.Current.FractionalScale = p.FractionalScale
	}
	s.Current.AlphaMultiplier = p.AlphaMultiplier

	s.Current.DamageSurfaceLocal = p.DamageSurfaceLocal
	s.Current.DamageBufferLocal = p.DamageBufferLocal

	// Drop Current's reference on the previous buffer whenever this
	// commit attached something (a new buffer, the same one again, or
	// null); for a re-attached buffer the Ref above and this Unref net
	// out to the same refcount.
	if prevBuffer != nil && p.BufferSet {
		prevBuffer.Unref()
	}

	// Mark affected outputs dirty with damage mapped to output-local
	// coordinates. Coordinate mapping itself is the scene tree's job
	// (it knows the surface's position); here we just forward the
	// surface-local damage to each output this surface currently
	// intersects, letting the output translate it.
	for _, out := range s.outputs {
		for _, r := range s.Current.DamageSurfaceLocal {
			out.MarkDamaged(r)
		}
		if len(s.Current.DamageSurfaceLocal) == 0 && len(s.Current.DamageBufferLocal) > 0 {
			for _, r := range s.Current.DamageBufferLocal {
				out.MarkDamaged(r)
			}
		}
	}

	// Frame-done callbacks scheduled for "at most after the next
	// presentation" are handed to the output loop; this package only
	// stashes them where outputloop can find and fire them once
	// vblank occurs for a presentation containing this commit.
	s.pendingFrameCallbacks = append(s.pendingFrameCallbacks, p.FrameCallbacks...)

	// Pending becomes fresh and empty (damage is cumulative only
	// within one commit cycle — spec.md §4.5 invariant).
	s.Pending = newPending()

	// If this is a synchronized subsurface's root committing, copy
	// every child's shadow into its Current too.
	for _, child := range s.Subsurfaces() {
		if child.shadow != nil {
			shadow := child.shadow
			child.shadow = nil
			if err := e.apply(child, shadow); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Surface) queueCommit(p *PendingState, readyAt int64, fenceFd int) {
	s.queuedCommits = append(s.queuedCommits, &queuedCommit{readyAt: readyAt, fenceFd: fenceFd, state: p})
}

func (e *Engine) replayQueued(s *Surface, p *PendingState) {
	for i, qc := range s.queuedCommits {
		if qc.state == p {
			s.queuedCommits = append(s.queuedCommits[:i], s.queuedCommits[i+1:]...)
			break
		}
	}
	e.apply(s, p)
}

// ReplayDueTimers is called by the event loop's timer dispatch to
// replay any commit whose commit-timer timestamp has now elapsed.
func (e *Engine) ReplayDueTimers(s *Surface) {
	now := e.Clock.Now().UnixNano()
	var remaining []*queuedCommit
	for _, qc := range s.queuedCommits {
		if qc.fenceFd < 0 && qc.readyAt != 0 && now >= qc.readyAt {
			e.apply(s, qc.state)
		} else {
			remaining = append(remaining, qc)
		}
	}
	s.queuedCommits = remaining
}

// TakeFrameCallbacks removes and returns every frame-done callback
// accumulated since the last take, for the output loop to fire at
// vblank (spec.md §4.8).
func (s *Surface) TakeFrameCallbacks() []*FrameCallback {
	cbs := s.pendingFrameCallbacks
	s.pendingFrameCallbacks = nil
	return cbs
}
