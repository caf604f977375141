package compositor

import (
	"jaywl/internal/proto"
	"jaywl/internal/seat"
)

// RegisterCoreGlobals advertises the layer-shell, session-lock,
// idle-notifier, foreign-toplevel-list, tray, and data-control globals this core
// supports (SPEC_FULL.md "Supplemented features"), each Bind wiring a
// freshly constructed proto object back through the Coordinator as
// its delegate. wl_compositor/wl_surface/xdg_wm_base themselves are
// assumed already bound by the time any of these requests arrive,
// since surface creation is driven directly through internal/surface
// rather than through a modeled wl_surface object (spec.md §1: wire
// field layouts for the base protocol are out of scope).
func (c *Coordinator) RegisterCoreGlobals() {
	c.AddGlobal(proto.Global{
		InterfaceName: "zwlr_layer_shell_v1",
		MaxVersion:    4,
		Bind: func(clientID, id proto.ID, version uint32) (proto.Object, error) {
			return proto.NewLayerShellManager(id, version, &layerSurfaceDelegate{c: c}), nil
		},
	})
	c.AddGlobal(proto.Global{
		InterfaceName: "ext_session_lock_manager_v1",
		MaxVersion:    1,
		Bind: func(clientID, id proto.ID, version uint32) (proto.Object, error) {
			return proto.NewSessionLockManager(id, version, &sessionLockDelegate{c: c}), nil
		},
	})
	c.AddGlobal(proto.Global{
		InterfaceName: "ext_idle_notifier_v1",
		MaxVersion:    1,
		Bind: func(clientID, id proto.ID, version uint32) (proto.Object, error) {
			n := proto.NewIdleNotifier(id, version)
			c.idleNotifiers = append(c.idleNotifiers, n)
			return n, nil
		},
	})
	c.AddGlobal(proto.Global{
		InterfaceName: "ext_foreign_toplevel_list_v1",
		MaxVersion:    1,
		Bind: func(clientID, id proto.ID, version uint32) (proto.Object, error) {
			return proto.NewForeignToplevelList(id, version), nil
		},
	})
	c.AddGlobal(proto.Global{
		InterfaceName: "ext_tray_manager_v1",
		MaxVersion:    1,
		Bind: func(clientID, id proto.ID, version uint32) (proto.Object, error) {
			return proto.NewTrayManager(id, version), nil
		},
	})
	c.AddGlobal(proto.Global{
		InterfaceName: "ext_data_control_manager_v1",
		MaxVersion:    1,
		Bind: func(clientID, id proto.ID, version uint32) (proto.Object, error) {
			return proto.NewDataControlManager(id, version, &dataControlManagerDelegate{c: c}, &dataControlSourceDelegate{c: c}), nil
		},
	})
}

// layerSurfaceDelegate adapts the Coordinator to proto.LayerSurfaceDelegate:
// an anchor/margin/exclusive-zone change and a destroyed layer surface
// both damage every output. Neither recomputes a usable area, and Close
// does not remove anything from an output's z-band layers.
type layerSurfaceDelegate struct{ c *Coordinator }

// Reflow damages every output rather than just the one named by
// l.Output: resolving a client-bound wl_output protocol id back to a
// backend.ConnectorID needs the wl_output object table, which this
// core doesn't model (spec.md §1 scopes wire field layouts for the
// base protocol out). Damaging every output is the conservative,
// always-correct fallback.
func (d *layerSurfaceDelegate) Reflow(l *proto.LayerSurface) {
	d.c.Damage()
}

func (d *layerSurfaceDelegate) Close(l *proto.LayerSurface) {
	d.c.Damage()
}

// sessionLockDelegate adapts the Coordinator to proto.SessionLockDelegate,
// driving the coordinator-wide Lock/Unlock flag (spec.md §4.9).
type sessionLockDelegate struct{ c *Coordinator }

func (d *sessionLockDelegate) Lock(l *proto.SessionLock) {
	d.c.Lock()
	d.c.activeLock = l
}

func (d *sessionLockDelegate) Unlock(l *proto.SessionLock) {
	if d.c.activeLock == l {
		d.c.activeLock = nil
		d.c.Unlock()
	}
}

// dataControlManagerDelegate adapts the Coordinator to
// proto.DataControlManagerDelegate. Resolving a bound wl_seat object id
// to the seat.ID the Coordinator's seat table is keyed by would need a
// wl_seat object table this core doesn't model (spec.md §1 scopes base
// protocol wire field layouts out); since both ids are just opaque
// integers handed out at bind time, treating them as numerically equal
// is a conservative stand-in, same as layerSurfaceDelegate.Reflow's
// wl_output fallback above.
type dataControlManagerDelegate struct{ c *Coordinator }

func (d *dataControlManagerDelegate) ResolveSeat(id proto.ID) (*seat.Seat, bool) {
	return d.c.Seat(seat.ID(id))
}

// dataControlSourceDelegate adapts the Coordinator to
// proto.DataControlSourceDelegate. Forwarding the actual MIME bytes
// over fd is transport-level work (internal/transport owns the
// SCM_RIGHTS fd queue); this delegate only marks the output damaged so
// a clipboard-aware status surface can repaint, mirroring how the
// other delegates above react to protocol-level events they don't
// otherwise need to act on.
type dataControlSourceDelegate struct{ c *Coordinator }

func (d *dataControlSourceDelegate) Send(src *proto.DataControlSource, mime string, fd int) {
	d.c.Damage()
}

func (d *dataControlSourceDelegate) Cancelled(src *proto.DataControlSource) {
	d.c.Damage()
}
