package scene

// Workspace holds one output's tiling content root plus its floating
// and popup layer (spec.md §4.6: "workspace content (tiling + floats
// interleaved by z)").
type Workspace struct {
	base

	Name string

	tiling *Container  // root of the tiling tree, nil if empty
	stacked []*Stacked // floats/popups/drag icons, in z-order
}

func NewWorkspace(name string) *Workspace {
	return &Workspace{base: base{kind: KindWorkspace, visible: true}, Name: name}
}

func (w *Workspace) SetTiling(c *Container) {
	if c != nil {
		c.parent = w
	}
	w.tiling = c
}

func (w *Workspace) Tiling() *Container { return w.tiling }

func (w *Workspace) AddStacked(s *Stacked) {
	s.parent = w
	w.stacked = append(w.stacked, s)
}

func (w *Workspace) RemoveStacked(s *Stacked) {
	for i, c := range w.stacked {
		if c == s {
			w.stacked = append(w.stacked[:i], w.stacked[i+1:]...)
			return
		}
	}
}

func (w *Workspace) RaiseStacked(s *Stacked) {
	w.RemoveStacked(s)
	w.stacked = append(w.stacked, s)
}

func (w *Workspace) FindAt(x, y int32, path *[]Point) bool {
	for i := len(w.stacked) - 1; i >= 0; i-- {
		if w.stacked[i].FindAt(x, y, path) {
			*path = append(*path, Point{Node: w, LocalX: x, LocalY: y})
			return true
		}
	}
	if w.tiling != nil && w.tiling.FindAt(x, y, path) {
		*path = append(*path, Point{Node: w, LocalX: x, LocalY: y})
		return true
	}
	return false
}

func (w *Workspace) Render(fb FrameBuilder, xOffset, yOffset int32) {
	if w.tiling != nil {
		w.tiling.Render(fb, xOffset, yOffset)
	}
	for _, s := range w.stacked {
		s.Render(fb, xOffset, yOffset)
	}
}

func (w *Workspace) Destroy(detach bool) {
	w.clearFocus()
	if w.tiling != nil {
		w.tiling.Destroy(false)
		w.tiling = nil
	}
	for _, s := range w.stacked {
		s.Destroy(false)
	}
	w.stacked = nil
}
