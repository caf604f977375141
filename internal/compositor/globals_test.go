package compositor

import (
	"testing"

	"jaywl/internal/proto"
)

func TestRegisterCoreGlobalsAdvertisesExpectedInterfaces(t *testing.T) {
	c := newTestCoordinator(t)
	c.RegisterCoreGlobals()

	want := map[string]bool{
		"zwlr_layer_shell_v1":         false,
		"ext_session_lock_manager_v1": false,
		"ext_idle_notifier_v1":        false,
		"ext_foreign_toplevel_list_v1": false,
		"ext_tray_manager_v1":         false,
	}
	for _, g := range c.Globals().Snapshot() {
		if _, ok := want[g.InterfaceName]; ok {
			want[g.InterfaceName] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("expected %s to be advertised as a global", name)
		}
	}
}

func TestSessionLockGlobalBindLocksCoordinator(t *testing.T) {
	c := newTestCoordinator(t)
	c.RegisterCoreGlobals()

	var managerGlobal *proto.Global
	for _, g := range c.Globals().Snapshot() {
		if g.InterfaceName == "ext_session_lock_manager_v1" {
			managerGlobal = g
		}
	}
	if managerGlobal == nil {
		t.Fatal("expected the session-lock-manager global to be registered")
	}

	mgr, err := managerGlobal.Bind(0, 900, 1)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := mgr.Dispatch(proto.OpSessionLockManagerLock, proto.LockArgs{NewID: 901}); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !c.Locked() {
		t.Error("expected binding the session-lock manager and sending lock to lock the coordinator")
	}
	if c.ActiveLock() == nil {
		t.Error("expected ActiveLock to be set after a lock request")
	}
}

func TestIdleNotifierGlobalBindTracksNotifications(t *testing.T) {
	c := newTestCoordinator(t)
	c.RegisterCoreGlobals()

	var idleGlobal *proto.Global
	for _, g := range c.Globals().Snapshot() {
		if g.InterfaceName == "ext_idle_notifier_v1" {
			idleGlobal = g
		}
	}
	if idleGlobal == nil {
		t.Fatal("expected the idle-notifier global to be registered")
	}

	obj, err := idleGlobal.Bind(0, 910, 1)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := obj.Dispatch(proto.OpIdleNotifierGetIdleNotification, proto.GetIdleNotificationArgs{NewID: 911, TimeoutMS: 1000}); err != nil {
		t.Fatalf("get_idle_notification: %v", err)
	}

	c.MarkIdle()
	notifier := obj.(*proto.IdleNotifier)
	notifs := notifier.Notifications()
	if len(notifs) != 1 || !notifs[0].Idle() {
		t.Fatalf("expected MarkIdle to mark the bound notification idle, got %+v", notifs)
	}

	c.MarkResumed()
	if notifs[0].Idle() {
		t.Error("expected MarkResumed to clear the idle flag")
	}
}
