package proto

import (
	"jaywl/internal/scene"
	"jaywl/internal/surface"
)

// xdg_toplevel request opcodes. Numbered to match the upstream
// protocol's request order so a future wire decoder slots straight in
// without renumbering; payload decoding itself stays in
// internal/wire, out of scope here (spec.md §1).
const (
	OpToplevelDestroy uint16 = iota
	OpToplevelSetParent
	OpToplevelSetTitle
	OpToplevelSetAppID
	OpToplevelShowWindowMenu
	OpToplevelMove
	OpToplevelResize
	OpToplevelSetMaxSize
	OpToplevelSetMinSize
	OpToplevelSetMaximized
	OpToplevelUnsetMaximized
	OpToplevelSetFullscreen
	OpToplevelUnsetFullscreen
	OpToplevelSetMinimized
)

type SetParentArgs struct{ Parent *XdgToplevel }
type SetTitleArgs struct{ Title string }
type SetAppIDArgs struct{ AppID string }
type MoveArgs struct{ Serial uint32 }
type ResizeArgs struct {
	Serial uint32
	Edges  uint32
}
type SetMaxSizeArgs struct{ W, H int32 }
type SetMinSizeArgs struct{ W, H int32 }

// ToplevelDelegate lets window-manager policy (move/resize grabs,
// tiling reflow, criteria-based placement) hook a toplevel's requests
// without this package importing internal/seat or internal/compositor
// — the same narrow-interface-at-the-boundary shape spec.md §6 uses
// for the backend contracts.
type ToplevelDelegate interface {
	// Close is called once, when the toplevel's role object is
	// destroyed (client-initiated or connection teardown).
	Close(t *XdgToplevel)
	// Remapped is called whenever the title or app id changes, since
	// either might affect criteria matching or a foreign toplevel
	// list's state.
	Remapped(t *XdgToplevel)
	BeginMove(t *XdgToplevel, serial uint32)
	BeginResize(t *XdgToplevel, serial uint32, edges uint32)
}

// XdgToplevel is the role object bound to a surface with
// surface.RoleXdgToplevel (spec.md §3).
type XdgToplevel struct {
	objBase

	Surface *surface.Surface
	Node    *scene.Toplevel

	Title, AppID           string
	MaxW, MaxH, MinW, MinH int32
	Maximized, Fullscreen  bool
	Minimized, Activated   bool

	delegate ToplevelDelegate
}

// NewXdgToplevel assigns the toplevel role to s and returns the new
// role object. The caller (the xdg_surface/get_toplevel request
// handler, at the client layer) is responsible for surfacing a
// surface.SetRole conflict as a protocol error before this is
// reachable; NewXdgToplevel itself never fails.
func NewXdgToplevel(id ID, version uint32, s *surface.Surface, delegate ToplevelDelegate) *XdgToplevel {
	t := &XdgToplevel{
		objBase:  objBase{id: id, iface: "xdg_toplevel", version: version},
		Surface:  s,
		delegate: delegate,
	}
	t.table = map[uint16]func(RequestArgs) error{
		OpToplevelDestroy:         noop,
		OpToplevelSetParent:       t.handleSetParent,
		OpToplevelSetTitle:        t.handleSetTitle,
		OpToplevelSetAppID:        t.handleSetAppID,
		OpToplevelMove:            t.handleMove,
		OpToplevelResize:          t.handleResize,
		OpToplevelSetMaxSize:      t.handleSetMaxSize,
		OpToplevelSetMinSize:      t.handleSetMinSize,
		OpToplevelSetMaximized:    t.handleSetMaximized(true),
		OpToplevelUnsetMaximized:  t.handleSetMaximized(false),
		OpToplevelSetFullscreen:   t.handleSetFullscreen(true),
		OpToplevelUnsetFullscreen: t.handleSetFullscreen(false),
		OpToplevelSetMinimized:    func(RequestArgs) error { t.Minimized = true; return nil },
	}
	_ = s.SetRole(surface.RoleXdgToplevel, t)
	return t
}

func (t *XdgToplevel) Dispatch(opcode uint16, args RequestArgs) error { return t.dispatch(opcode, args) }

func (t *XdgToplevel) handleSetParent(args RequestArgs) error {
	if _, ok := args.(SetParentArgs); !ok {
		return badArgs(t.id, "set_parent")
	}
	return nil
}

func (t *XdgToplevel) handleSetTitle(args RequestArgs) error {
	a, ok := args.(SetTitleArgs)
	if !ok {
		return badArgs(t.id, "set_title")
	}
	t.Title = a.Title
	if t.delegate != nil {
		t.delegate.Remapped(t)
	}
	return nil
}

func (t *XdgToplevel) handleSetAppID(args RequestArgs) error {
	a, ok := args.(SetAppIDArgs)
	if !ok {
		return badArgs(t.id, "set_app_id")
	}
	t.AppID = a.AppID
	if t.delegate != nil {
		t.delegate.Remapped(t)
	}
	return nil
}

func (t *XdgToplevel) handleMove(args RequestArgs) error {
	a, ok := args.(MoveArgs)
	if !ok {
		return badArgs(t.id, "move")
	}
	if t.delegate != nil {
		t.delegate.BeginMove(t, a.Serial)
	}
	return nil
}

func (t *XdgToplevel) handleResize(args RequestArgs) error {
	a, ok := args.(ResizeArgs)
	if !ok {
		return badArgs(t.id, "resize")
	}
	if t.delegate != nil {
		t.delegate.BeginResize(t, a.Serial, a.Edges)
	}
	return nil
}

func (t *XdgToplevel) handleSetMaxSize(args RequestArgs) error {
	a, ok := args.(SetMaxSizeArgs)
	if !ok {
		return badArgs(t.id, "set_max_size")
	}
	t.MaxW, t.MaxH = a.W, a.H
	return nil
}

func (t *XdgToplevel) handleSetMinSize(args RequestArgs) error {
	a, ok := args.(SetMinSizeArgs)
	if !ok {
		return badArgs(t.id, "set_min_size")
	}
	t.MinW, t.MinH = a.W, a.H
	return nil
}

func (t *XdgToplevel) handleSetMaximized(v bool) func(RequestArgs) error {
	return func(RequestArgs) error { t.Maximized = v; return nil }
}

func (t *XdgToplevel) handleSetFullscreen(v bool) func(RequestArgs) error {
	return func(RequestArgs) error { t.Fullscreen = v; return nil }
}

// RequestClose asks the client to close this toplevel, driven by a
// foreign-toplevel-list handle or compositor keybind rather than a
// request the toplevel's own client sent.
func (t *XdgToplevel) RequestClose() {
	if t.delegate != nil {
		t.delegate.Close(t)
	}
}

func (t *XdgToplevel) BreakLoops() {
	if t.delegate != nil {
		t.delegate.Close(t)
		t.delegate = nil
	}
}

func (t *XdgToplevel) Destructor() {
	t.Surface.ClearRole()
}
