// Package outputloop implements the per-output frame state machine of
// spec.md §4.8: Idle -> FrameArmed -> AwaitingFlip -> AwaitingVblank,
// driven by accumulated damage, a scheduled tick, the backend's flip
// acknowledgement, and the vblank signal, with frame-callback firing,
// in-flight buffer release, tearing, and VRR pacing layered on top.
//
// Grounded on spec.md §4.8 directly for the state machine shape; the
// teacher's wp_presentation event trio (OnPresented/OnDiscarded/
// OnSyncOutput in wayland.go) grounds the presentation-feedback shape
// emitted once a frame lands, inverted from "client receives" to
// "compositor sends". Waiting for the backend's atomic-commit
// acknowledgement without blocking the main loop thread reuses
// internal/cpuworker exactly the way spec.md §5 describes offloading
// "GPU work ... asynchronously": the commit's result channel is
// drained on a worker goroutine, whose completion re-enters through
// the event loop like any other CpuWorker job.
package outputloop

import (
	"strconv"
	"time"

	"jaywl/internal/backend"
	"jaywl/internal/cpuworker"
	"jaywl/internal/loop"
	"jaywl/internal/scene"
	"jaywl/internal/surface"
	"jaywl/internal/wlog"
)

// State is one of the four frame-cycle states spec.md §4.8 names.
type State uint8

const (
	Idle State = iota
	FrameArmed
	AwaitingFlip
	AwaitingVblank
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrameArmed:
		return "frame-armed"
	case AwaitingFlip:
		return "awaiting-flip"
	case AwaitingVblank:
		return "awaiting-vblank"
	default:
		return "unknown"
	}
}

// TearingPrecedence resolves spec.md §9's open question ("tearing +
// VRR interaction precedence when both are enabled") in favor of
// tearing, matching "source prioritizes tearing"; recorded as a named
// constant per DESIGN.md rather than left implicit in the branch
// below.
const TearingPrecedence = true

// maxFailureRetries is how many times a flip failure is retried before
// the output is disabled (spec.md §4.8: "persistent failure disables
// the output").
const maxFailureRetries = 1

// FrameBuilderFactory constructs a fresh FrameBuilder sized to the
// output's current mode, e.g. a soft.Frame or a hardware plane list
// builder.
type FrameBuilderFactory func() scene.FrameBuilder

// PresentationFeedback receives the presentation-feedback events
// spec.md §6 and GLOSSARY name, mirroring wp_presentation's
// presented/discarded pair.
type PresentationFeedback interface {
	Presented(vblank time.Time)
	Discarded()
}

// Output drives one connector's frame cycle.
type Output struct {
	Scene     *scene.Output
	Connector backend.ConnectorID

	kms    backend.KMS
	l      *loop.Loop
	pool   *cpuworker.Pool
	build  FrameBuilderFactory
	modeHz int32 // nominal refresh rate in millihertz

	state State

	// inFlight is every buffer referenced by a presentation that has
	// not yet reached AwaitingVblank without referencing it (spec.md
	// §4.8: "a buffer remains in flight ... until the next frame that
	// does not reference it enters AwaitingVblank").
	inFlight [][]*surface.Buffer

	// presentedSurfaces is the set of surfaces whose content is part
	// of the frame currently being submitted, used to fire their
	// frame callbacks on the vblank that lands it (spec.md §4.7
	// "frame callback ordering").
	presentedSurfaces []*surface.Surface

	failureCount int
	disabled     bool

	vrrEnabled         bool
	cursorRefreshCapHz int32 // 0 = no cap

	feedback PresentationFeedback

	log *wlog.Logger
}

// New creates an Output frame-cycle driver for one connector, idle
// until the first damage arrives.
func New(sc *scene.Output, connector backend.ConnectorID, kms backend.KMS, l *loop.Loop, pool *cpuworker.Pool, build FrameBuilderFactory, modeHz int32) *Output {
	return &Output{
		Scene:     sc,
		Connector: connector,
		kms:       kms,
		l:         l,
		pool:      pool,
		build:     build,
		modeHz:    modeHz,
		log:       wlog.Output.Sub(strconv.FormatUint(sc.ID, 10)),
	}
}

// SetPresentationFeedback installs the delegate notified once a
// submitted presentation either lands (Presented) or is dropped before
// submission (Discarded).
func (o *Output) SetPresentationFeedback(fb PresentationFeedback) { o.feedback = fb }

// SetVRR toggles variable refresh pacing (spec.md §4.8 "VRR mode").
func (o *Output) SetVRR(enabled bool, cursorCapHz int32) {
	o.vrrEnabled = enabled
	o.cursorRefreshCapHz = cursorCapHz
}

// State returns the current frame-cycle state, for tests and diagnostics.
func (o *Output) State() State { return o.state }

// Disabled reports whether persistent flip failures have disabled this
// output (spec.md §4.8, §7).
func (o *Output) Disabled() bool { return o.disabled }

// Damage notifies the output that new content requires a repaint and
// arms the next frame if the output is Idle (spec.md §4.8: "as soon as
// any node visible on this output reports damage or a frame callback
// is due"). Calls while a frame is armed or in flight are ignored;
// onVblank re-arms instead when scene damage accumulated meanwhile,
// and a retried flip failure re-arms from onFlipResult.
func (o *Output) Damage() {
	if o.disabled || o.state != Idle {
		return
	}
	o.arm()
}

// arm transitions Idle -> FrameArmed and schedules the tick that
// builds and submits the next presentation, timed from the output's
// nominal refresh unless VRR pacing says otherwise.
func (o *Output) arm() {
	o.state = FrameArmed
	delay := o.frameDelay()
	o.l.Timeout(time.Now().Add(delay), func(now time.Time) { o.tick(now) })
}

// frameDelay computes the FrameArmed -> AwaitingFlip scheduling delay:
// nominal-refresh cadence, shortened toward content's natural cadence
// under VRR, except that a cursor-only update is capped at
// cursorRefreshCapHz to avoid driving the panel at mode-max frequency
// purely for cursor motion (spec.md §4.8 "VRR mode").
func (o *Output) frameDelay() time.Duration {
	if o.modeHz <= 0 {
		return 0
	}
	nominal := time.Second * 1000 / time.Duration(o.modeHz)
	if !o.vrrEnabled {
		return nominal
	}
	if o.cursorOnlyDamage() && o.cursorRefreshCapHz > 0 {
		capped := time.Second * 1000 / time.Duration(o.cursorRefreshCapHz)
		if capped > nominal {
			return capped
		}
	}
	return 0 // submit as soon as possible, matching content's natural cadence
}

// cursorOnlyDamage is a placeholder hook for the VRR cursor-rate cap:
// the scene package does not currently distinguish cursor-only damage
// from content damage, so this conservatively reports false (never
// capped) until that distinction is wired through Scene.Output.
func (o *Output) cursorOnlyDamage() bool { return false }

// tick runs the FrameArmed -> AwaitingFlip transition: build the
// presentation and submit it to the backend.
func (o *Output) tick(now time.Time) {
	if o.disabled {
		return
	}
	o.state = AwaitingFlip

	fb := o.build()
	o.Scene.Render(fb, 0, 0)
	damage := o.Scene.TakeDamage()

	tearing := o.anySurfaceWantsTearing()
	req := backend.CommitRequest{
		Connector: o.Connector,
		Tearing:   TearingPrecedence && tearing,
	}
	_ = damage // consumed by the backend-specific plane/texture assembly, opaque to this package

	o.presentedSurfaces = o.collectPresentedSurfaces()
	o.inFlight = append(o.inFlight, o.collectInFlightBuffers())

	resultCh := o.kms.Commit(req)
	o.pool.Submit(func() any {
		return <-resultCh
	}, func(v any) {
		o.onFlipResult(v.(backend.CommitResult))
	})
}

// anySurfaceWantsTearing reports whether any surface contributing to
// this output requested a tearing presentation (spec.md §4.8:
// "Tearing mode: if any surface on the output has tearing hints").
// It always reports false: Scene.Output exposes no per-surface tearing
// hints, and surface.CurrentState has no tearing-hint field (apply does
// not carry PendingState.TearingHint over).
func (o *Output) anySurfaceWantsTearing() bool { return false }

func (o *Output) collectPresentedSurfaces() []*surface.Surface {
	var out []*surface.Surface
	var visit func(n scene.Node)
	visit = func(n scene.Node) {
		if tl, ok := n.(*scene.Toplevel); ok {
			out = append(out, tl.Surface)
			for _, child := range tl.Surface.Subsurfaces() {
				out = append(out, child)
			}
		}
		n.VisitChildren(visit)
	}
	visit(o.Scene)
	return out
}

func (o *Output) collectInFlightBuffers() []*surface.Buffer {
	var bufs []*surface.Buffer
	for _, s := range o.presentedSurfaces {
		if s.Current.Buffer != nil {
			s.Current.Buffer.Ref()
			bufs = append(bufs, s.Current.Buffer)
		}
	}
	return bufs
}

// onFlipResult runs on the main loop thread (via the CpuWorker
// completion dispatcher): AwaitingFlip -> AwaitingVblank on success,
// retry-then-disable on failure (spec.md §4.8, §7).
func (o *Output) onFlipResult(res backend.CommitResult) {
	if res.Err != nil {
		if o.feedback != nil {
			o.feedback.Discarded()
		}
		if backend.IsTransient(res.Err) && o.failureCount < maxFailureRetries {
			o.failureCount++
			o.log.Printf("flip failed (transient), retrying: %v", res.Err)
			o.state = Idle
			o.arm()
			return
		}
		o.log.Printf("flip failed, disabling output: %v", res.Err)
		o.disabled = true
		o.state = Idle
		return
	}
	o.failureCount = 0
	o.onVblank(res.VblankTime)
}

// onVblank implements the AwaitingVblank -> Idle transition (and
// immediately back to FrameArmed if damage queued during the frame):
// fires frame callbacks, releases any buffer no longer in flight, and
// notifies presentation feedback.
func (o *Output) onVblank(vblank time.Time) {
	o.state = AwaitingVblank

	if o.feedback != nil {
		o.feedback.Presented(vblank)
	}

	tsMS := uint32(vblank.UnixMilli())
	for _, s := range o.presentedSurfaces {
		for _, cb := range s.TakeFrameCallbacks() {
			cb.Fire(tsMS)
		}
	}
	o.presentedSurfaces = nil

	o.releaseCompletedInFlight()

	o.state = Idle
	if len(o.Scene.TakeDamage()) > 0 {
		// new damage queued during this frame: arm immediately rather
		// than waiting for the next external Damage() call, per
		// spec.md §4.8's "immediately -> FrameArmed if new damage
		// queued during the frame".
		o.arm()
	}
}

// releaseCompletedInFlight implements spec.md §4.8's buffer-in-flight
// rule: the frame that just reached AwaitingVblank drops its own
// buffer set from inFlight tracking, returning the presentation-held
// reference collectInFlightBuffers took on each buffer in that set.
// Each submission's entry holds its own reference, independent of
// whatever else (current state, an earlier or later submission still
// outstanding) also references the same buffer, so this always
// Unrefs exactly the reference it added — never the attach-time
// reference a surface's current state still holds (spec.md §8
// property 2: "exactly once and only after no current state or
// in-flight presentation references B").
func (o *Output) releaseCompletedInFlight() {
	if len(o.inFlight) == 0 {
		return
	}
	completed := o.inFlight[0]
	o.inFlight = o.inFlight[1:]

	for _, b := range completed {
		b.Unref()
	}
}
