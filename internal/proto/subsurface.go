package proto

import "jaywl/internal/surface"

// wl_subsurface request opcodes.
const (
	OpSubsurfaceDestroy uint16 = iota
	OpSubsurfaceSetPosition
	OpSubsurfacePlaceAbove
	OpSubsurfacePlaceBelow
	OpSubsurfaceSetSync
	OpSubsurfaceSetDesync
)

type SetPositionArgs struct{ X, Y int32 }
type PlaceAboveArgs struct{ Sibling *surface.Surface }
type PlaceBelowArgs struct{ Sibling *surface.Surface }

// Subsurface is the role object bound to a surface with
// surface.RoleSubsurface (spec.md §3). It links Surface into Parent's
// subsurface list on creation and unlinks it on destruction, and
// writes position/sync requests into Surface.Pending so the commit
// engine (internal/surface) applies them with the same barrier
// semantics as any other pending field. place_above/place_below
// reorder Parent's subsurface list immediately, whatever the sync
// mode, rather than at the next commit.
type Subsurface struct {
	objBase

	Surface *surface.Surface
	Parent  *surface.Surface
}

func NewSubsurface(id ID, version uint32, child, parent *surface.Surface) *Subsurface {
	parent.AddSubsurface(child)
	ss := &Subsurface{
		objBase: objBase{id: id, iface: "wl_subsurface", version: version},
		Surface: child,
		Parent:  parent,
	}
	ss.table = map[uint16]func(RequestArgs) error{
		OpSubsurfaceDestroy:     noop,
		OpSubsurfaceSetPosition: ss.handleSetPosition,
		OpSubsurfacePlaceAbove:  ss.handlePlaceAbove,
		OpSubsurfacePlaceBelow:  ss.handlePlaceBelow,
		OpSubsurfaceSetSync:     func(RequestArgs) error { ss.Surface.Pending.SubSync = true; return nil },
		OpSubsurfaceSetDesync:   func(RequestArgs) error { ss.Surface.Pending.SubSync = false; return nil },
	}
	_ = child.SetRole(surface.RoleSubsurface, ss)
	return ss
}

func (ss *Subsurface) Dispatch(opcode uint16, args RequestArgs) error { return ss.dispatch(opcode, args) }

func (ss *Subsurface) handleSetPosition(args RequestArgs) error {
	a, ok := args.(SetPositionArgs)
	if !ok {
		return badArgs(ss.id, "set_position")
	}
	ss.Surface.Pending.SubX, ss.Surface.Pending.SubY = a.X, a.Y
	return nil
}

func (ss *Subsurface) handlePlaceAbove(args RequestArgs) error {
	a, ok := args.(PlaceAboveArgs)
	if !ok {
		return badArgs(ss.id, "place_above")
	}
	ss.Parent.PlaceAbove(ss.Surface, a.Sibling)
	return nil
}

func (ss *Subsurface) handlePlaceBelow(args RequestArgs) error {
	a, ok := args.(PlaceBelowArgs)
	if !ok {
		return badArgs(ss.id, "place_below")
	}
	ss.Parent.PlaceBelow(ss.Surface, a.Sibling)
	return nil
}

func (ss *Subsurface) BreakLoops() {}

func (ss *Subsurface) Destructor() {
	ss.Parent.RemoveSubsurface(ss.Surface)
	ss.Surface.ClearRole()
}
