package scene

import "jaywl/internal/surface"

// Toplevel wraps one mapped xdg_toplevel (or layer-shell/X11) surface
// and its subsurface tree, sized to a tiling or floating slot (spec.md
// §3, §4.6).
type Toplevel struct {
	base

	Surface *surface.Surface
	W, H    int32

	subsurfaces []subsurfaceChild
}

type subsurfaceChild struct {
	s    *surface.Surface
	x, y int32
}

func NewToplevel(s *surface.Surface, w, h int32) *Toplevel {
	return &Toplevel{base: base{kind: KindToplevel, visible: true}, Surface: s, W: w, H: h}
}

// SyncSubsurfaces rebuilds the flattened child list from the live
// surface tree's current positions, called after every commit that
// touches subsurface order or position (spec.md §3).
func (t *Toplevel) SyncSubsurfaces() {
	t.subsurfaces = t.subsurfaces[:0]
	for _, child := range t.Surface.Subsurfaces() {
		t.subsurfaces = append(t.subsurfaces, subsurfaceChild{s: child, x: child.Current.SubX, y: child.Current.SubY})
	}
}

func (t *Toplevel) FindAt(x, y int32, path *[]Point) bool {
	for i := len(t.subsurfaces) - 1; i >= 0; i-- {
		c := t.subsurfaces[i]
		if c.s.Current.HasInput {
			for _, r := range c.s.Current.InputRegion {
				if contains(x-c.x-r.X, y-c.y-r.Y, r.W, r.H) {
					*path = append(*path, Point{Node: t, LocalX: x, LocalY: y})
					return true
				}
			}
			continue
		}
		if c.s.Current.Buffer != nil && contains(x-c.x, y-c.y, c.s.Current.Buffer.Width, c.s.Current.Buffer.Height) {
			*path = append(*path, Point{Node: t, LocalX: x, LocalY: y})
			return true
		}
	}
	if !contains(x, y, t.W, t.H) {
		return false
	}
	*path = append(*path, Point{Node: t, LocalX: x, LocalY: y})
	return true
}

func (t *Toplevel) Render(fb FrameBuilder, xOffset, yOffset int32) {
	if t.Surface.Current.Mapped {
		fb.DrawSurface(t.Surface, xOffset, yOffset)
	}
	for _, c := range t.subsurfaces {
		if c.s.Current.Mapped {
			fb.DrawSurface(c.s, xOffset+c.x, yOffset+c.y)
		}
	}
}

func (t *Toplevel) Destroy(detach bool) {
	t.clearFocus()
	t.Surface.Destroy()
}
