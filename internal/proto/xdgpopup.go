package proto

import "jaywl/internal/surface"

// xdg_popup request opcodes.
const (
	OpPopupDestroy uint16 = iota
	OpPopupGrab
	OpPopupReposition
)

// PositionerState is the constraint-solving input a positioner object
// accumulates before being consumed by get_popup/reposition (spec.md
// §3 GLOSSARY "positioner"); the constraint solve itself is scene-tree
// policy, not this package's concern.
type PositionerState struct {
	AnchorRect                    surface.Rect
	Width, Height                 int32
	Anchor, Gravity               uint32
	ConstraintAdjustment          uint32
	OffsetX, OffsetY              int32
}

type GrabArgs struct {
	SeatID ID
	Serial uint32
}
type RepositionArgs struct {
	Positioner PositionerState
	Token      uint32
}

// PopupDelegate lets seat/grab-stack and scene-tree code react to a
// popup's lifecycle without this package depending on either.
type PopupDelegate interface {
	// Dismiss runs once, when the popup's role object is destroyed;
	// the delegate is expected to pop this popup off any active grab
	// stack and unmap its scene node.
	Dismiss(p *XdgPopup)
	// Grab is called for xdg_popup.grab, asking the delegate to place
	// this popup atop the named seat's grab stack (spec.md §4.7,
	// GLOSSARY "Grab stack").
	Grab(p *XdgPopup, seat ID, serial uint32)
}

// XdgPopup is the role object bound to a surface with
// surface.RoleXdgPopup (spec.md §3).
type XdgPopup struct {
	objBase

	Surface    *surface.Surface
	Parent     *surface.Surface
	Positioner PositionerState

	delegate PopupDelegate
}

func NewXdgPopup(id ID, version uint32, s, parent *surface.Surface, pos PositionerState, delegate PopupDelegate) *XdgPopup {
	p := &XdgPopup{
		objBase:    objBase{id: id, iface: "xdg_popup", version: version},
		Surface:    s,
		Parent:     parent,
		Positioner: pos,
		delegate:   delegate,
	}
	p.table = map[uint16]func(RequestArgs) error{
		OpPopupDestroy:    noop,
		OpPopupGrab:       p.handleGrab,
		OpPopupReposition: p.handleReposition,
	}
	_ = s.SetRole(surface.RoleXdgPopup, p)
	return p
}

func (p *XdgPopup) Dispatch(opcode uint16, args RequestArgs) error { return p.dispatch(opcode, args) }

func (p *XdgPopup) handleGrab(args RequestArgs) error {
	a, ok := args.(GrabArgs)
	if !ok {
		return badArgs(p.id, "grab")
	}
	if p.delegate != nil {
		p.delegate.Grab(p, a.SeatID, a.Serial)
	}
	return nil
}

func (p *XdgPopup) handleReposition(args RequestArgs) error {
	a, ok := args.(RepositionArgs)
	if !ok {
		return badArgs(p.id, "reposition")
	}
	p.Positioner = a.Positioner
	return nil
}

func (p *XdgPopup) BreakLoops() {
	if p.delegate != nil {
		p.delegate.Dismiss(p)
		p.delegate = nil
	}
}

func (p *XdgPopup) Destructor() {
	p.Surface.ClearRole()
}
