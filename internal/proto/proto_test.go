package proto

import (
	"testing"

	"jaywl/internal/surface"
)

type fakeToplevelDelegate struct {
	closed, remapped          bool
	movedSerial, resizeSerial uint32
	resizeEdges               uint32
}

func (d *fakeToplevelDelegate) Close(t *XdgToplevel)    { d.closed = true }
func (d *fakeToplevelDelegate) Remapped(t *XdgToplevel) { d.remapped = true }
func (d *fakeToplevelDelegate) BeginMove(t *XdgToplevel, serial uint32) { d.movedSerial = serial }
func (d *fakeToplevelDelegate) BeginResize(t *XdgToplevel, serial uint32, edges uint32) {
	d.resizeSerial, d.resizeEdges = serial, edges
}

func TestXdgToplevelRequestsMutateState(t *testing.T) {
	s := surface.New(1)
	d := &fakeToplevelDelegate{}
	top := NewXdgToplevel(100, 1, s, d)

	if s.Role != surface.RoleXdgToplevel {
		t.Fatalf("expected surface to receive the toplevel role, got %v", s.Role)
	}

	if err := top.Dispatch(OpToplevelSetTitle, SetTitleArgs{Title: "terminal"}); err != nil {
		t.Fatalf("set_title: %v", err)
	}
	if top.Title != "terminal" || !d.remapped {
		t.Errorf("expected title set and Remapped notified, got title=%q remapped=%v", top.Title, d.remapped)
	}

	if err := top.Dispatch(OpToplevelMove, MoveArgs{Serial: 7}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if d.movedSerial != 7 {
		t.Errorf("expected BeginMove(7), got %d", d.movedSerial)
	}

	if err := top.Dispatch(OpToplevelSetMaximized, nil); err != nil {
		t.Fatalf("set_maximized: %v", err)
	}
	if !top.Maximized {
		t.Error("expected Maximized to be true")
	}

	if err := top.Dispatch(OpToplevelSetTitle, struct{}{}); err == nil {
		t.Error("expected a protocol error for mistyped args")
	}
}

func TestXdgToplevelDestroyNotifiesDelegateAndClearsRole(t *testing.T) {
	s := surface.New(1)
	d := &fakeToplevelDelegate{}
	top := NewXdgToplevel(100, 1, s, d)

	reg := NewRegistry(false)
	if err := reg.AddClientObj(top); err != nil {
		t.Fatalf("AddClientObj: %v", err)
	}
	if err := reg.Remove(top.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !d.closed {
		t.Error("expected delegate.Close to fire via BreakLoops")
	}
	if s.Role != surface.RoleNone {
		t.Errorf("expected role cleared after destroy, got %v", s.Role)
	}
}

type fakePopupDelegate struct {
	dismissed bool
	grabbedOn ID
}

func (d *fakePopupDelegate) Dismiss(p *XdgPopup)              { d.dismissed = true }
func (d *fakePopupDelegate) Grab(p *XdgPopup, seat ID, serial uint32) { d.grabbedOn = seat }

func TestXdgPopupGrabAndDismiss(t *testing.T) {
	child := surface.New(2)
	parent := surface.New(1)
	d := &fakePopupDelegate{}
	popup := NewXdgPopup(200, 1, child, parent, PositionerState{Width: 100, Height: 50}, d)

	if child.Role != surface.RoleXdgPopup {
		t.Fatalf("expected popup role, got %v", child.Role)
	}
	if err := popup.Dispatch(OpPopupGrab, GrabArgs{SeatID: 5, Serial: 9}); err != nil {
		t.Fatalf("grab: %v", err)
	}
	if d.grabbedOn != 5 {
		t.Errorf("expected Grab(seat=5), got %d", d.grabbedOn)
	}

	popup.BreakLoops()
	if !d.dismissed {
		t.Error("expected Dismiss to fire")
	}
}

func TestSubsurfaceLinksAndPositions(t *testing.T) {
	parent := surface.New(1)
	child := surface.New(2)

	ss := NewSubsurface(300, 1, child, parent)
	if child.Role != surface.RoleSubsurface {
		t.Fatalf("expected subsurface role, got %v", child.Role)
	}
	if len(parent.Subsurfaces()) != 1 || parent.Subsurfaces()[0] != child {
		t.Fatalf("expected child linked under parent's subsurface list")
	}

	if err := ss.Dispatch(OpSubsurfaceSetPosition, SetPositionArgs{X: 10, Y: 20}); err != nil {
		t.Fatalf("set_position: %v", err)
	}
	if child.Pending.SubX != 10 || child.Pending.SubY != 20 {
		t.Errorf("expected pending position (10,20), got (%d,%d)", child.Pending.SubX, child.Pending.SubY)
	}

	if err := ss.Dispatch(OpSubsurfaceSetSync, nil); err != nil {
		t.Fatalf("set_sync: %v", err)
	}
	if !child.Pending.SubSync {
		t.Error("expected pending sync mode true")
	}

	ss.Destructor()
	if len(parent.Subsurfaces()) != 0 {
		t.Error("expected child unlinked from parent after destroy")
	}
}

func TestLayerSurfaceReflowOnAnchorChange(t *testing.T) {
	var reflowed int
	s := surface.New(1)
	l := NewLayerSurface(400, 1, s, "panel", 0, LayerTop, &recordingLayerDelegate{onReflow: func() { reflowed++ }})

	if err := l.Dispatch(OpLayerSurfaceSetAnchor, SetAnchorArgs{Anchor: AnchorTop | AnchorLeft | AnchorRight}); err != nil {
		t.Fatalf("set_anchor: %v", err)
	}
	if l.Anchor != AnchorTop|AnchorLeft|AnchorRight {
		t.Errorf("expected anchor bits set, got %#x", l.Anchor)
	}
	if reflowed != 1 {
		t.Errorf("expected exactly one Reflow call, got %d", reflowed)
	}
}

type recordingLayerDelegate struct {
	onReflow func()
	closed   bool
}

func (d *recordingLayerDelegate) Reflow(l *LayerSurface) { d.onReflow() }
func (d *recordingLayerDelegate) Close(l *LayerSurface)  { d.closed = true }

type fakeSessionLockDelegate struct {
	locked, unlocked bool
}

func (d *fakeSessionLockDelegate) Lock(l *SessionLock)   { d.locked = true }
func (d *fakeSessionLockDelegate) Unlock(l *SessionLock) { d.unlocked = true }

func TestSessionLockLocksImmediatelyAndStaysLockedOnAbnormalDestroy(t *testing.T) {
	d := &fakeSessionLockDelegate{}
	lock := NewSessionLock(500, 1, d)
	if !d.locked {
		t.Fatal("expected Lock to fire on construction")
	}

	s := surface.New(3)
	if err := lock.Dispatch(OpSessionLockGetLockSurface, GetLockSurfaceArgs{NewID: 501, Surface: s, Output: 1}); err != nil {
		t.Fatalf("get_lock_surface: %v", err)
	}
	if s.Role != surface.RoleSessionLock {
		t.Errorf("expected lock-surface role, got %v", s.Role)
	}

	// client dies without unlock_and_destroy: Destructor must not unlock.
	lock.Destructor()
	if d.unlocked {
		t.Error("expected no Unlock notification on abnormal destroy")
	}
	if !lock.Locked() {
		t.Error("expected the lock to remain held after an ungraceful destroy")
	}
}

func TestSessionLockUnlockAndDestroyNotifiesDelegate(t *testing.T) {
	d := &fakeSessionLockDelegate{}
	lock := NewSessionLock(500, 1, d)

	if err := lock.Dispatch(OpSessionLockUnlockAndDestroy, nil); err != nil {
		t.Fatalf("unlock_and_destroy: %v", err)
	}
	if !d.unlocked || lock.Locked() {
		t.Errorf("expected unlocked notification and Locked()==false, got unlocked=%v locked=%v", d.unlocked, lock.Locked())
	}
}

func TestIdleNotifierTracksNotifications(t *testing.T) {
	n := NewIdleNotifier(600, 1)
	if err := n.Dispatch(OpIdleNotifierGetIdleNotification, GetIdleNotificationArgs{NewID: 601, TimeoutMS: 5000}); err != nil {
		t.Fatalf("get_idle_notification: %v", err)
	}
	notifs := n.Notifications()
	if len(notifs) != 1 || notifs[0].TimeoutMS != 5000 {
		t.Fatalf("expected one tracked notification with timeout 5000, got %+v", notifs)
	}
	notifs[0].MarkIdle()
	if !notifs[0].Idle() {
		t.Error("expected MarkIdle to set Idle()")
	}
}

func TestForeignToplevelHandleForwardsToTarget(t *testing.T) {
	s := surface.New(1)
	d := &fakeToplevelDelegate{}
	top := NewXdgToplevel(100, 1, s, d)
	handle := NewForeignToplevelHandle(700, 1, top)

	if err := handle.Dispatch(OpForeignToplevelHandleClose, nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !d.closed {
		t.Error("expected the handle's close request to forward to the toplevel's delegate")
	}
}
