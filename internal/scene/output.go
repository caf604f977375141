package scene

import "jaywl/internal/surface"

// Output is one connector's node: it owns a stack of workspaces (only
// one of which is active at a time) plus the layer-shell layers that
// sit above and below ordinary window content (spec.md §4.6 rendering
// order: "background -> bottom layer -> workspace content -> top layer
// -> overlay layer").
type Output struct {
	base

	ID     uint64
	Width, Height int32

	workspaces []*Workspace
	active     *Workspace

	background, bottom, top, overlay []Node

	lockSurface Node // set while the session is locked (spec.md §4.6)
	cursor      Node
	dragIcon    Node

	damage []surface.Rect
}

func NewOutput(id uint64, w, h int32) *Output {
	return &Output{base: base{kind: KindOutput, visible: true}, ID: id, Width: w, Height: h}
}

func (o *Output) AddWorkspace(w *Workspace) {
	w.parent = o
	o.workspaces = append(o.workspaces, w)
	if o.active == nil {
		o.active = w
	}
}

func (o *Output) RemoveWorkspace(w *Workspace) {
	for i, ws := range o.workspaces {
		if ws == w {
			o.workspaces = append(o.workspaces[:i], o.workspaces[i+1:]...)
			break
		}
	}
	if o.active == w {
		if len(o.workspaces) > 0 {
			o.active = o.workspaces[0]
		} else {
			o.active = nil
		}
	}
}

func (o *Output) SetActive(w *Workspace) { o.active = w }
func (o *Output) Active() *Workspace     { return o.active }
func (o *Output) Workspaces() []*Workspace { return o.workspaces }

func (o *Output) SetLockSurface(n Node) { o.lockSurface = n }
func (o *Output) Locked() bool          { return o.lockSurface != nil }
func (o *Output) SetCursor(n Node)      { o.cursor = n }
func (o *Output) SetDragIcon(n Node)    { o.dragIcon = n }

// MarkDamaged implements surface.OutputDamager, forwarding a surface
// commit's damage into this output's accumulated damage region
// (spec.md §4.8).
func (o *Output) MarkDamaged(r surface.Rect) {
	o.damage = append(o.damage, r)
}

// TakeDamage returns and clears the accumulated damage region.
func (o *Output) TakeDamage() []surface.Rect {
	d := o.damage
	o.damage = nil
	return d
}

// MarkFullDamage adds a full-output damage rect, used for mode
// changes, workspace switches, and lock transitions (spec.md §4.6).
func (o *Output) MarkFullDamage() {
	o.damage = append(o.damage, surface.Rect{X: 0, Y: 0, W: o.Width, H: o.Height})
}

func (o *Output) FindAt(x, y int32, path *[]Point) bool {
	if o.Locked() {
		if o.lockSurface.FindAt(x, y, path) {
			*path = append(*path, Point{Node: o, LocalX: x, LocalY: y})
			return true
		}
		return false
	}
	// top-to-bottom: overlay, top layer, active workspace, bottom layer, background
	for _, layers := range [][]Node{o.overlay, o.top} {
		for i := len(layers) - 1; i >= 0; i-- {
			if layers[i].FindAt(x, y, path) {
				*path = append(*path, Point{Node: o, LocalX: x, LocalY: y})
				return true
			}
		}
	}
	if o.active != nil && o.active.FindAt(x, y, path) {
		*path = append(*path, Point{Node: o, LocalX: x, LocalY: y})
		return true
	}
	for _, layers := range [][]Node{o.bottom, o.background} {
		for i := len(layers) - 1; i >= 0; i-- {
			if layers[i].FindAt(x, y, path) {
				*path = append(*path, Point{Node: o, LocalX: x, LocalY: y})
				return true
			}
		}
	}
	return false
}

// Render implements spec.md §4.6's fixed paint order, finishing with
// the cursor (whenever one is set, see cursorIntersectsDamage) and any
// drag icon.
func (o *Output) Render(fb FrameBuilder, xOffset, yOffset int32) {
	for _, n := range o.background {
		n.Render(fb, xOffset, yOffset)
	}
	for _, n := range o.bottom {
		n.Render(fb, xOffset, yOffset)
	}
	if o.active != nil {
		o.active.Render(fb, xOffset, yOffset)
	}
	for _, n := range o.top {
		n.Render(fb, xOffset, yOffset)
	}
	for _, n := range o.overlay {
		n.Render(fb, xOffset, yOffset)
	}
	if o.Locked() {
		o.lockSurface.Render(fb, xOffset, yOffset)
	}
	if o.cursor != nil && o.cursorIntersectsDamage() {
		o.cursor.Render(fb, xOffset, yOffset)
	}
	if o.dragIcon != nil {
		o.dragIcon.Render(fb, xOffset, yOffset)
	}
}

// cursorIntersectsDamage gates cursor repaint. It only checks that a
// cursor node is set: the cursor's extents are not compared with the
// accumulated damage region, so a set cursor is drawn on every frame.
func (o *Output) cursorIntersectsDamage() bool {
	return o.cursor != nil
}

// AddLayer appends n to one of the output's four layer-shell layers
// (background, bottom, top, overlay), selected by the caller passing
// the address of the corresponding field.
func (o *Output) AddLayer(which *[]Node, n Node) {
	*which = append(*which, n)
}

func (o *Output) Background() *[]Node { return &o.background }
func (o *Output) Bottom() *[]Node     { return &o.bottom }
func (o *Output) Top() *[]Node        { return &o.top }
func (o *Output) Overlay() *[]Node    { return &o.overlay }

func (o *Output) Destroy(detach bool) {
	o.clearFocus()
	for _, w := range o.workspaces {
		w.Destroy(false)
	}
	o.workspaces = nil
	o.active = nil
}
