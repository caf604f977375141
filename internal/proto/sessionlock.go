package proto

import "jaywl/internal/surface"

// ext_session_lock_v1 request opcodes.
const (
	OpSessionLockDestroy uint16 = iota
	OpSessionLockGetLockSurface
	OpSessionLockUnlockAndDestroy
)

type GetLockSurfaceArgs struct {
	NewID   ID
	Surface *surface.Surface
	Output  ID
}

// SessionLockDelegate lets the compositor coordinator enforce that
// input/damage only reaches lock surfaces while locked, and restore
// normal operation on unlock (spec.md §4.9, supplemented from
// ext_session_lock_v1.rs per SPEC_FULL.md).
type SessionLockDelegate interface {
	Lock(l *SessionLock)
	Unlock(l *SessionLock)
}

// SessionLock is the object bound from the ext_session_lock_manager_v1
// global's lock request. Binding one immediately locks the session;
// per the real protocol the compositor would additionally wait for a
// lock surface per output before blanking, but that per-output
// handshake lives in the opaque wire-event layer (spec.md §1) and is
// not modeled here.
type SessionLock struct {
	objBase

	locked   bool
	surfaces map[ID]*LockSurface
	delegate SessionLockDelegate
}

// LockSurface is the role object bound to a surface with
// surface.RoleSessionLock.
type LockSurface struct {
	objBase

	Surface *surface.Surface
	Output  ID
}

func NewSessionLock(id ID, version uint32, delegate SessionLockDelegate) *SessionLock {
	l := &SessionLock{
		objBase:  objBase{id: id, iface: "ext_session_lock_v1", version: version},
		locked:   true,
		surfaces: map[ID]*LockSurface{},
		delegate: delegate,
	}
	l.table = map[uint16]func(RequestArgs) error{
		OpSessionLockDestroy:          noop,
		OpSessionLockGetLockSurface:   l.handleGetLockSurface,
		OpSessionLockUnlockAndDestroy: l.handleUnlockAndDestroy,
	}
	if delegate != nil {
		delegate.Lock(l)
	}
	return l
}

func (l *SessionLock) Dispatch(opcode uint16, args RequestArgs) error { return l.dispatch(opcode, args) }

func (l *SessionLock) Locked() bool { return l.locked }

func (l *SessionLock) handleGetLockSurface(args RequestArgs) error {
	a, ok := args.(GetLockSurfaceArgs)
	if !ok {
		return badArgs(l.id, "get_lock_surface")
	}
	ls := &LockSurface{
		objBase: objBase{id: a.NewID, iface: "ext_session_lock_surface_v1", version: l.version},
		Surface: a.Surface,
		Output:  a.Output,
	}
	ls.table = map[uint16]func(RequestArgs) error{0: noop} // ack_configure: opaque per spec.md §1
	_ = a.Surface.SetRole(surface.RoleSessionLock, ls)
	l.surfaces[a.Output] = ls
	return nil
}

func (ls *LockSurface) Dispatch(opcode uint16, args RequestArgs) error { return ls.dispatch(opcode, args) }
func (ls *LockSurface) BreakLoops()                                    {}
func (ls *LockSurface) Destructor()                                    { ls.Surface.ClearRole() }

func (l *SessionLock) handleUnlockAndDestroy(RequestArgs) error {
	l.locked = false
	if l.delegate != nil {
		l.delegate.Unlock(l)
	}
	return nil
}

func (l *SessionLock) BreakLoops() {}

// Destructor intentionally does not unlock on an ungraceful client
// exit: a dead lock client must leave the session locked, never
// visible, matching ext_session_lock_v1's fail-closed semantics.
func (l *SessionLock) Destructor() {
	for _, ls := range l.surfaces {
		ls.Surface.ClearRole()
	}
}

// ext_session_lock_manager_v1 — the global clients bind to request a
// session lock.
const (
	OpSessionLockManagerLock uint16 = iota
)

type LockArgs struct{ NewID ID }

// SessionLockManager is the ext_session_lock_manager_v1 global object.
type SessionLockManager struct {
	objBase
	delegate SessionLockDelegate
}

func NewSessionLockManager(id ID, version uint32, delegate SessionLockDelegate) *SessionLockManager {
	m := &SessionLockManager{
		objBase:  objBase{id: id, iface: "ext_session_lock_manager_v1", version: version},
		delegate: delegate,
	}
	m.table = map[uint16]func(RequestArgs) error{OpSessionLockManagerLock: m.handleLock}
	return m
}

func (m *SessionLockManager) Dispatch(opcode uint16, args RequestArgs) error { return m.dispatch(opcode, args) }
func (m *SessionLockManager) BreakLoops()                                    {}
func (m *SessionLockManager) Destructor()                                    {}

func (m *SessionLockManager) handleLock(args RequestArgs) error {
	a, ok := args.(LockArgs)
	if !ok {
		return badArgs(m.id, "lock")
	}
	NewSessionLock(a.NewID, m.version, m.delegate)
	return nil
}
