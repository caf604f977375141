package seat

import (
	"testing"

	"jaywl/internal/scene"
	"jaywl/internal/surface"
)

// fakeSerials hands out strictly increasing serials, like
// internal/client.Client.NextSerial but without the ring buffer.
type fakeSerials struct{ next uint32 }

func (f *fakeSerials) NextSerial(ctx any) uint32 {
	f.next++
	return f.next
}

// fakePointer records every call it receives for assertions.
type fakePointer struct {
	entered, left []scene.Node
	sfcOf         map[*surface.Surface]scene.Node
	motions       int
	buttons       int
}

func (p *fakePointer) Enter(s *surface.Surface, serial uint32, sx, sy float64) {
	p.entered = append(p.entered, p.sfcOf[s])
}
func (p *fakePointer) Leave(s *surface.Surface, serial uint32) {
	p.left = append(p.left, p.sfcOf[s])
}
func (p *fakePointer) Motion(s *surface.Surface, timeMS uint32, sx, sy float64) { p.motions++ }
func (p *fakePointer) Button(s *surface.Surface, serial, timeMS, code uint32, pressed bool) {
	p.buttons++
}
func (p *fakePointer) Axis(s *surface.Surface, timeMS uint32, source, axis uint32, discrete int32, value float64) {
}

func resolverFor(m map[scene.Node]*surface.Surface) SurfaceOf {
	return func(n scene.Node) (*surface.Surface, int32, int32, bool) {
		sfc, ok := m[n]
		return sfc, 0, 0, ok
	}
}

func identityCal() Calibration {
	return Calibration{Matrix: [6]float64{1, 0, 0, 0, 1, 0}}
}

func TestPointerFocusEnterLeaveOnMotion(t *testing.T) {
	sfcA := surface.New(1)
	sfcB := surface.New(2)
	a := scene.NewPlaceholder(50, 50)
	b := scene.NewPlaceholder(50, 50)

	root := scene.NewContainer()
	root.AddChild(a, 0, 0, 50, 50)
	root.AddChild(b, 100, 0, 50, 50)

	fp := &fakePointer{sfcOf: map[*surface.Surface]scene.Node{sfcA: a, sfcB: b}}
	resolve := resolverFor(map[scene.Node]*surface.Surface{a: sfcA, b: sfcB})
	s := New(1, root, &fakeSerials{}, resolve, fp, nil, nil)

	s.MotionAbsolute(identityCal(), 10, 10, 0)
	if s.PointerFocus() != a {
		t.Fatalf("expected focus on a, got %v", s.PointerFocus())
	}
	if len(fp.entered) != 1 || fp.entered[0] != a {
		t.Errorf("expected enter(a), got %+v", fp.entered)
	}

	s.MotionAbsolute(identityCal(), 110, 10, 1)
	if s.PointerFocus() != b {
		t.Fatalf("expected focus on b, got %v", s.PointerFocus())
	}
	if len(fp.left) != 1 || fp.left[0] != a {
		t.Errorf("expected leave(a), got %+v", fp.left)
	}
	if len(fp.entered) != 2 || fp.entered[1] != b {
		t.Errorf("expected enter(b), got %+v", fp.entered)
	}
}

func TestPointerFocusClearedOnNodeDestroy(t *testing.T) {
	sfcA := surface.New(1)
	a := scene.NewPlaceholder(50, 50)
	root := scene.NewContainer()
	root.AddChild(a, 0, 0, 50, 50)

	fp := &fakePointer{sfcOf: map[*surface.Surface]scene.Node{sfcA: a}}
	resolve := resolverFor(map[scene.Node]*surface.Surface{a: sfcA})
	s := New(1, root, &fakeSerials{}, resolve, fp, nil, nil)

	s.MotionAbsolute(identityCal(), 10, 10, 0)
	if s.PointerFocus() == nil {
		t.Fatal("expected pointer focus to be set")
	}

	a.Destroy(true)
	if s.PointerFocus() != nil {
		t.Errorf("expected pointer focus cleared on destroy, got %v", s.PointerFocus())
	}
}

func TestGrabStackPriority(t *testing.T) {
	sfcA := surface.New(1)
	sfcDrag := surface.New(2)
	a := scene.NewPlaceholder(50, 50)
	dragHolder := scene.NewPlaceholder(50, 50)
	root := scene.NewContainer()
	root.AddChild(a, 0, 0, 50, 50)

	fp := &fakePointer{sfcOf: map[*surface.Surface]scene.Node{sfcA: a, sfcDrag: dragHolder}}
	resolve := resolverFor(map[scene.Node]*surface.Surface{a: sfcA, dragHolder: sfcDrag})
	s := New(1, root, &fakeSerials{}, resolve, fp, nil, nil)

	s.PushGrab(Grab{Kind: GrabDrag, Holder: dragHolder, Owner: "client1"})
	s.MotionAbsolute(identityCal(), 10, 10, 0)

	if s.PointerFocus() != dragHolder {
		t.Fatalf("expected drag grab to override hit test, got %v", s.PointerFocus())
	}

	s.ReleaseGrabsOwnedBy("client1")
	if _, ok := s.activeGrab(GrabDrag); ok {
		t.Error("expected grab to be released")
	}
}

func TestModStateLEDs(t *testing.T) {
	m := ModState{Depressed: 0x2, Locked: 0x1}
	leds := m.LEDs(0x1, 0x2, 0x4)
	if leds&(1<<0) == 0 {
		t.Error("expected caps LED bit set from Locked")
	}
	if leds&(1<<1) == 0 {
		t.Error("expected num LED bit set from Depressed")
	}
	if leds&(1<<2) != 0 {
		t.Error("expected scroll LED bit clear")
	}
}

func TestTouchCaptureRoutesToDownNode(t *testing.T) {
	sfcA := surface.New(1)
	a := scene.NewPlaceholder(100, 100)
	root := scene.NewContainer()
	root.AddChild(a, 0, 0, 100, 100)

	resolve := resolverFor(map[scene.Node]*surface.Surface{a: sfcA})
	td := &fakeTouch{}
	s := New(1, root, &fakeSerials{}, resolve, nil, nil, td)

	s.TouchDown(1, 10, 10, 0)
	if len(s.Touches()) != 1 {
		t.Fatalf("expected one active touch, got %d", len(s.Touches()))
	}
	s.TouchMotion(1, 90, 90, 1)
	if td.motions != 1 {
		t.Errorf("expected motion delivered to captured node, got %d", td.motions)
	}
	s.TouchUp(1, 2)
	if len(s.Touches()) != 0 {
		t.Error("expected touch removed after up")
	}
}

type fakeTouch struct{ motions int }

func (f *fakeTouch) Down(s *surface.Surface, serial, timeMS uint32, id int32, x, y float64) {}
func (f *fakeTouch) Up(serial, timeMS uint32, id int32)                                     {}
func (f *fakeTouch) Motion(timeMS uint32, id int32, x, y float64)                            { f.motions++ }
