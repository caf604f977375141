package outputloop

import (
	"errors"
	"testing"
	"time"

	"jaywl/internal/backend"
	"jaywl/internal/cpuworker"
	"jaywl/internal/loop"
	"jaywl/internal/scene"
	"jaywl/internal/surface"
)

type fakeKMS struct {
	results chan backend.CommitResult
	commits int
}

func newFakeKMS() *fakeKMS {
	return &fakeKMS{results: make(chan backend.CommitResult, 8)}
}

func (k *fakeKMS) Connectors() []backend.ConnectorID          { return nil }
func (k *fakeKMS) Events() <-chan backend.ConnectorEvent      { return nil }
func (k *fakeKMS) RenderNodeFD(backend.ConnectorID) int       { return -1 }
func (k *fakeKMS) Formats(backend.ConnectorID) []backend.FormatModifier { return nil }
func (k *fakeKMS) Commit(req backend.CommitRequest) <-chan backend.CommitResult {
	k.commits++
	ch := make(chan backend.CommitResult, 1)
	select {
	case r := <-k.results:
		ch <- r
	default:
		ch <- backend.CommitResult{VblankTime: time.Now()}
	}
	return ch
}

type transientErr struct{}

func (transientErr) Error() string  { return "busy" }
func (transientErr) Transient() bool { return true }

func newTestRig(t *testing.T) (*Output, *fakeKMS, *loop.Loop) {
	t.Helper()
	l, err := loop.New()
	if err != nil {
		t.Fatalf("loop.New: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	pool, err := cpuworker.New(l, loop.ID(1), 1)
	if err != nil {
		t.Fatalf("cpuworker.New: %v", err)
	}
	t.Cleanup(pool.Close)

	kms := newFakeKMS()
	sc := scene.NewOutput(1, 1920, 1080)
	build := func() scene.FrameBuilder { return nil }
	o := New(sc, backend.ConnectorID(1), kms, l, pool, build, 60000)
	return o, kms, l
}

func TestDamageArmsFromIdle(t *testing.T) {
	o, _, _ := newTestRig(t)
	if o.State() != Idle {
		t.Fatalf("expected Idle initially, got %v", o.State())
	}
	o.Damage()
	if o.State() != FrameArmed {
		t.Errorf("expected FrameArmed after Damage, got %v", o.State())
	}
	// a second Damage while already armed must not re-arm or schedule twice
	o.Damage()
	if o.State() != FrameArmed {
		t.Errorf("expected to stay FrameArmed, got %v", o.State())
	}
}

func TestDamageIgnoredWhenDisabled(t *testing.T) {
	o, _, _ := newTestRig(t)
	o.disabled = true
	o.Damage()
	if o.State() != Idle {
		t.Errorf("expected disabled output to ignore Damage, got %v", o.State())
	}
}

// TestOnFlipResultSuccessReleasesBuffers exercises the real
// collectInFlightBuffers/releaseCompletedInFlight path (not a
// hand-built inFlight set) to confirm a buffer still held by a
// surface's current state is never released just because the frame
// that presented it reached vblank (spec.md §8 property 2).
func TestOnFlipResultSuccessReleasesBuffers(t *testing.T) {
	o, _, _ := newTestRig(t)

	s := surface.New(1)
	buf := surface.NewBuffer(surface.ShapeSinglePixel)
	buf.Ref() // the reference s.Current.Buffer holds after attach+commit
	s.Current.Buffer = buf
	released := false
	buf.OnRelease = func() { released = true }

	o.presentedSurfaces = []*surface.Surface{s}
	o.inFlight = append(o.inFlight, o.collectInFlightBuffers())
	o.state = AwaitingFlip

	o.onFlipResult(backend.CommitResult{VblankTime: time.Now()})

	if o.State() != Idle {
		t.Errorf("expected Idle after a clean vblank, got %v", o.State())
	}
	if released {
		t.Error("buffer still referenced by the surface's current state must not be released when its presenting frame lands")
	}
	if buf.RefCount() != 1 {
		t.Errorf("expected only the current-state reference to remain, got refcount %d", buf.RefCount())
	}
}

// TestOnFlipResultKeepsBufferInFlightAcrossOverlappingFrames submits
// the same buffer via two successive presentations (no intervening
// attach) and confirms it survives the first frame's vblank, then is
// still not released after the second either, since the surface's
// current state keeps its own reference throughout.
func TestOnFlipResultKeepsBufferInFlightAcrossOverlappingFrames(t *testing.T) {
	o, _, _ := newTestRig(t)

	s := surface.New(1)
	buf := surface.NewBuffer(surface.ShapeSinglePixel)
	buf.Ref()
	s.Current.Buffer = buf
	released := false
	buf.OnRelease = func() { released = true }

	o.presentedSurfaces = []*surface.Surface{s}
	o.inFlight = append(o.inFlight, o.collectInFlightBuffers())
	o.presentedSurfaces = []*surface.Surface{s}
	o.inFlight = append(o.inFlight, o.collectInFlightBuffers())

	o.state = AwaitingFlip
	o.onFlipResult(backend.CommitResult{VblankTime: time.Now()})
	if released {
		t.Error("buffer must not be released while a second outstanding frame still references it")
	}
	if len(o.inFlight) != 1 {
		t.Errorf("expected one remaining in-flight frame, got %d", len(o.inFlight))
	}

	o.state = AwaitingFlip
	o.onFlipResult(backend.CommitResult{VblankTime: time.Now()})
	if released {
		t.Error("buffer still referenced by the surface's current state must not be released once the last outstanding frame completes")
	}
	if buf.RefCount() != 1 {
		t.Errorf("expected only the current-state reference to remain, got refcount %d", buf.RefCount())
	}
}

// TestOnFlipResultReleasesBufferOnceCurrentStateStopsReferencingIt
// covers the other half of spec.md §8 property 2: a buffer superseded
// by a new attach (so current state drops its reference, the way
// internal/surface/commit.go's apply does on replacement) is released
// once its last outstanding presentation also completes — no sooner,
// no later, and exactly once.
func TestOnFlipResultReleasesBufferOnceCurrentStateStopsReferencingIt(t *testing.T) {
	o, _, _ := newTestRig(t)

	s := surface.New(1)
	old := surface.NewBuffer(surface.ShapeSinglePixel)
	old.Ref()
	s.Current.Buffer = old
	releaseCount := 0
	old.OnRelease = func() { releaseCount++ }

	o.presentedSurfaces = []*surface.Surface{s}
	o.inFlight = append(o.inFlight, o.collectInFlightBuffers())

	// a new attach replaces current state's buffer; apply() would Unref
	// the superseded buffer here (internal/surface/commit.go:114-116).
	old.Unref()
	s.Current.Buffer = surface.NewBuffer(surface.ShapeSinglePixel)

	if releaseCount != 0 {
		t.Fatal("buffer must not release while its presenting frame is still outstanding")
	}

	o.state = AwaitingFlip
	o.onFlipResult(backend.CommitResult{VblankTime: time.Now()})

	if releaseCount != 1 {
		t.Errorf("expected the buffer to release exactly once after the last reference dropped, got %d releases", releaseCount)
	}
}

func TestOnFlipResultTransientFailureRetriesOnce(t *testing.T) {
	o, _, _ := newTestRig(t)
	o.state = AwaitingFlip

	o.onFlipResult(backend.CommitResult{Err: transientErr{}})
	if o.disabled {
		t.Fatal("expected a transient failure to retry, not disable")
	}
	if o.failureCount != 1 {
		t.Errorf("expected failureCount 1, got %d", o.failureCount)
	}
	if o.State() != FrameArmed {
		t.Errorf("expected retry to re-arm, got %v", o.State())
	}
}

func TestOnFlipResultPersistentFailureDisables(t *testing.T) {
	o, _, _ := newTestRig(t)
	o.state = AwaitingFlip
	o.failureCount = maxFailureRetries

	o.onFlipResult(backend.CommitResult{Err: transientErr{}})
	if !o.Disabled() {
		t.Error("expected output to be disabled after exceeding retry budget")
	}
}

func TestOnFlipResultFatalErrorDisablesImmediately(t *testing.T) {
	o, _, _ := newTestRig(t)
	o.state = AwaitingFlip

	o.onFlipResult(backend.CommitResult{Err: errors.New("device removed")})
	if !o.Disabled() {
		t.Error("expected a non-transient error to disable the output without retrying")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Idle, "idle"},
		{FrameArmed, "frame-armed"},
		{AwaitingFlip, "awaiting-flip"},
		{AwaitingVblank, "awaiting-vblank"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
