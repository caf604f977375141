package scene

import "jaywl/internal/surface"

// Placeholder occupies a tiling slot with no mapped client surface
// (spec.md §3, §8 "workspace restoration across connector churn": a
// workspace that outlives its output keeps placeholders for windows
// that have not yet reconnected).
type Placeholder struct {
	base
	W, H int32
}

func NewPlaceholder(w, h int32) *Placeholder {
	return &Placeholder{base: base{kind: KindPlaceholder, visible: true}, W: w, H: h}
}

func (p *Placeholder) FindAt(x, y int32, path *[]Point) bool {
	if !contains(x, y, p.W, p.H) {
		return false
	}
	*path = append(*path, Point{Node: p, LocalX: x, LocalY: y})
	return true
}

func (p *Placeholder) Render(fb FrameBuilder, xOffset, yOffset int32) {
	fb.FillRect(surface.Rect{X: xOffset, Y: yOffset, W: p.W, H: p.H}, [4]float32{0, 0, 0, 0})
}

func (p *Placeholder) Destroy(detach bool) { p.clearFocus() }
