package proto

import "jaywl/internal/surface"

// Anchor is a bitmask of zwlr_layer_surface_v1 anchor edges.
type Anchor uint32

const (
	AnchorTop Anchor = 1 << iota
	AnchorBottom
	AnchorLeft
	AnchorRight
)

// Layer selects which z-band a layer-shell surface paints in, below
// or above the tiling tree (spec.md §3 role list: "layer-shell").
type Layer uint32

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

const (
	OpLayerSurfaceSetSize uint16 = iota
	OpLayerSurfaceSetAnchor
	OpLayerSurfaceSetExclusiveZone
	OpLayerSurfaceSetMargin
	OpLayerSurfaceSetKeyboardInteractivity
	OpLayerSurfaceGetPopup
	OpLayerSurfaceAckConfigure
	OpLayerSurfaceDestroy
	OpLayerSurfaceSetLayer
)

type SetSizeArgs struct{ W, H uint32 }
type SetAnchorArgs struct{ Anchor Anchor }
type SetExclusiveZoneArgs struct{ Zone int32 }
type SetMarginArgs struct{ Top, Right, Bottom, Left int32 }
type SetKeyboardInteractivityArgs struct{ Mode uint32 }
type SetLayerArgs struct{ Layer Layer }
type AckConfigureArgs struct{ Serial uint32 }
type LayerGetPopupArgs struct{ Popup *XdgPopup }

// LayerSurfaceDelegate lets the output/workspace that owns this
// surface's usable-area calculation react to anchor/margin/exclusive
// zone changes without this package depending on internal/scene.
type LayerSurfaceDelegate interface {
	Reflow(l *LayerSurface)
	Close(l *LayerSurface)
}

// LayerSurface is the role object bound to a surface with
// surface.RoleLayerShell (spec.md §3).
type LayerSurface struct {
	objBase

	Surface   *surface.Surface
	Namespace string
	Output    ID

	Anchor                Anchor
	Layer                 Layer
	ExclusiveZone         int32
	MarginTop             int32
	MarginRight           int32
	MarginBottom          int32
	MarginLeft            int32
	KeyboardInteractivity uint32
	Width, Height         uint32

	delegate LayerSurfaceDelegate
}

func NewLayerSurface(id ID, version uint32, s *surface.Surface, namespace string, output ID, layer Layer, delegate LayerSurfaceDelegate) *LayerSurface {
	l := &LayerSurface{
		objBase:   objBase{id: id, iface: "zwlr_layer_surface_v1", version: version},
		Surface:   s,
		Namespace: namespace,
		Output:    output,
		Layer:     layer,
		delegate:  delegate,
	}
	l.table = map[uint16]func(RequestArgs) error{
		OpLayerSurfaceSetSize:                  l.handleSetSize,
		OpLayerSurfaceSetAnchor:                 l.handleSetAnchor,
		OpLayerSurfaceSetExclusiveZone:          l.handleSetExclusiveZone,
		OpLayerSurfaceSetMargin:                 l.handleSetMargin,
		OpLayerSurfaceSetKeyboardInteractivity:  l.handleSetKeyboardInteractivity,
		OpLayerSurfaceGetPopup:                  noop,
		OpLayerSurfaceAckConfigure:              noop,
		OpLayerSurfaceDestroy:                   noop,
		OpLayerSurfaceSetLayer:                  l.handleSetLayer,
	}
	_ = s.SetRole(surface.RoleLayerShell, l)
	return l
}

func (l *LayerSurface) Dispatch(opcode uint16, args RequestArgs) error { return l.dispatch(opcode, args) }

func (l *LayerSurface) handleSetSize(args RequestArgs) error {
	a, ok := args.(SetSizeArgs)
	if !ok {
		return badArgs(l.id, "set_size")
	}
	l.Width, l.Height = a.W, a.H
	l.reflow()
	return nil
}

func (l *LayerSurface) handleSetAnchor(args RequestArgs) error {
	a, ok := args.(SetAnchorArgs)
	if !ok {
		return badArgs(l.id, "set_anchor")
	}
	l.Anchor = a.Anchor
	l.reflow()
	return nil
}

func (l *LayerSurface) handleSetExclusiveZone(args RequestArgs) error {
	a, ok := args.(SetExclusiveZoneArgs)
	if !ok {
		return badArgs(l.id, "set_exclusive_zone")
	}
	l.ExclusiveZone = a.Zone
	l.reflow()
	return nil
}

func (l *LayerSurface) handleSetMargin(args RequestArgs) error {
	a, ok := args.(SetMarginArgs)
	if !ok {
		return badArgs(l.id, "set_margin")
	}
	l.MarginTop, l.MarginRight, l.MarginBottom, l.MarginLeft = a.Top, a.Right, a.Bottom, a.Left
	l.reflow()
	return nil
}

func (l *LayerSurface) handleSetKeyboardInteractivity(args RequestArgs) error {
	a, ok := args.(SetKeyboardInteractivityArgs)
	if !ok {
		return badArgs(l.id, "set_keyboard_interactivity")
	}
	l.KeyboardInteractivity = a.Mode
	return nil
}

func (l *LayerSurface) handleSetLayer(args RequestArgs) error {
	a, ok := args.(SetLayerArgs)
	if !ok {
		return badArgs(l.id, "set_layer")
	}
	l.Layer = a.Layer
	l.reflow()
	return nil
}

func (l *LayerSurface) reflow() {
	if l.delegate != nil {
		l.delegate.Reflow(l)
	}
}

func (l *LayerSurface) BreakLoops() {
	if l.delegate != nil {
		l.delegate.Close(l)
		l.delegate = nil
	}
}

func (l *LayerSurface) Destructor() {
	l.Surface.ClearRole()
}

// zwlr_layer_shell_v1 — the global clients bind to create layer
// surfaces.
const (
	OpLayerShellGetLayerSurface uint16 = iota
)

type GetLayerSurfaceArgs struct {
	NewID     ID
	Surface   *surface.Surface
	Output    ID
	Layer     Layer
	Namespace string
}

// LayerShellManager is the zwlr_layer_shell_v1 global object.
type LayerShellManager struct {
	objBase
	surfaces map[ID]*LayerSurface
	delegate LayerSurfaceDelegate
}

func NewLayerShellManager(id ID, version uint32, delegate LayerSurfaceDelegate) *LayerShellManager {
	m := &LayerShellManager{
		objBase:  objBase{id: id, iface: "zwlr_layer_shell_v1", version: version},
		surfaces: map[ID]*LayerSurface{},
		delegate: delegate,
	}
	m.table = map[uint16]func(RequestArgs) error{OpLayerShellGetLayerSurface: m.handleGetLayerSurface}
	return m
}

func (m *LayerShellManager) Dispatch(opcode uint16, args RequestArgs) error { return m.dispatch(opcode, args) }
func (m *LayerShellManager) BreakLoops()                                    {}
func (m *LayerShellManager) Destructor()                                    {}

func (m *LayerShellManager) Surfaces() []*LayerSurface {
	out := make([]*LayerSurface, 0, len(m.surfaces))
	for _, v := range m.surfaces {
		out = append(out, v)
	}
	return out
}

func (m *LayerShellManager) handleGetLayerSurface(args RequestArgs) error {
	a, ok := args.(GetLayerSurfaceArgs)
	if !ok {
		return badArgs(m.id, "get_layer_surface")
	}
	ls := NewLayerSurface(a.NewID, m.version, a.Surface, a.Namespace, a.Output, a.Layer, m.delegate)
	m.surfaces[a.NewID] = ls
	return nil
}
