package scene

// Stacked is a floating window, popup, drag icon, or anything else
// that lives outside the tiling tree at an absolute workspace-local
// position, raised/lowered independently of tiling z-order (spec.md
// §4.6: "Stacked floating/popup/drag layer").
type Stacked struct {
	base

	Content Node // usually a *Toplevel, but a bare surface node for drag icons
	X, Y    int32

	titleMode ShowTitlesMode
}

func NewStacked(content Node, x, y int32) *Stacked {
	s := &Stacked{base: base{kind: KindStacked, visible: true}, Content: content, X: x, Y: y}
	return s
}

func (s *Stacked) Move(x, y int32) { s.X, s.Y = x, y }

// SetShowTitles changes this floating window's title-bar mode; the
// zero value is ShowTitlesAuto.
func (s *Stacked) SetShowTitles(mode ShowTitlesMode) { s.titleMode = mode }

// TitleBarHeight applies the floating half of spec.md §8
// "Show-titles tri-state": unlike a tiling Container, a floating
// window has no sibling count to key auto mode off, so it always
// shows a title bar in auto mode ("floating toplevels always show
// titles in auto mode").
func (s *Stacked) TitleBarHeight(themeHeight int32) int32 {
	if s.titleMode == ShowTitlesFalse {
		return 0
	}
	return themeHeight
}

func (s *Stacked) FindAt(x, y int32, path *[]Point) bool {
	if s.Content == nil {
		return false
	}
	if s.Content.FindAt(x-s.X, y-s.Y, path) {
		*path = append(*path, Point{Node: s, LocalX: x, LocalY: y})
		return true
	}
	return false
}

func (s *Stacked) Render(fb FrameBuilder, xOffset, yOffset int32) {
	if s.Content != nil {
		s.Content.Render(fb, xOffset+s.X, yOffset+s.Y)
	}
}

func (s *Stacked) Destroy(detach bool) {
	s.clearFocus()
	if s.Content != nil {
		s.Content.Destroy(false)
		s.Content = nil
	}
}
