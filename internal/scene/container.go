package scene

// Container is an interior tiling node: it lays out its children
// (other Containers, Placeholders, or Toplevels) along one axis
// (spec.md §4.6's "tiling" content, §3's node kinds). Layout geometry
// itself (split ratios, orientation) is policy the window manager
// layer owns; this node only stores the resulting child rects so the
// walker has something to recurse through.
type Container struct {
	base

	childRects []rect // parallel to base.children

	titleMode ShowTitlesMode
}

type rect struct{ x, y, w, h int32 }

func NewContainer() *Container {
	return &Container{base: base{kind: KindContainer, visible: true}}
}

// ShowTitlesMode is the tri-state title-bar policy of spec.md §8
// "Show-titles tri-state".
type ShowTitlesMode uint8

const (
	ShowTitlesAuto ShowTitlesMode = iota
	ShowTitlesTrue
	ShowTitlesFalse
)

// SetShowTitles changes this container's title-bar mode; the zero
// value is ShowTitlesAuto.
func (c *Container) SetShowTitles(mode ShowTitlesMode) { c.titleMode = mode }

// ShowTitles returns this container's title-bar mode.
func (c *Container) ShowTitles() ShowTitlesMode { return c.titleMode }

// TitleBarHeight returns the title bar height a layout policy should
// reserve above each of this container's children, given the theme's
// configured title bar height (spec.md §8: "true mode the title bar
// height equals the theme height; in false mode it is zero; in auto
// mode it is zero for one child, theme height for two children"). Like
// childRects, the actual reservation is applied by whatever computes
// layout; this node only reports the rule's result.
func (c *Container) TitleBarHeight(themeHeight int32) int32 {
	switch c.titleMode {
	case ShowTitlesTrue:
		return themeHeight
	case ShowTitlesFalse:
		return 0
	default:
		if len(c.children) > 1 {
			return themeHeight
		}
		return 0
	}
}

// AddChild appends a child at the given local rect.
func (c *Container) AddChild(n Node, x, y, w, h int32) {
	c.addChild(n, c)
	c.childRects = append(c.childRects, rect{x, y, w, h})
}

func (c *Container) RemoveChild(n Node) {
	for i, ch := range c.children {
		if ch == n {
			c.children = append(c.children[:i], c.children[i+1:]...)
			c.childRects = append(c.childRects[:i], c.childRects[i+1:]...)
			return
		}
	}
}

// SetChildRect updates a previously added child's local geometry,
// called whenever the layout policy recomputes a split.
func (c *Container) SetChildRect(n Node, x, y, w, h int32) {
	for i, ch := range c.children {
		if ch == n {
			c.childRects[i] = rect{x, y, w, h}
			return
		}
	}
}

func (c *Container) FindAt(x, y int32, path *[]Point) bool {
	for i := len(c.children) - 1; i >= 0; i-- {
		r := c.childRects[i]
		if !contains(x-r.x, y-r.y, r.w, r.h) {
			continue
		}
		if c.children[i].FindAt(x-r.x, y-r.y, path) {
			*path = append(*path, Point{Node: c, LocalX: x, LocalY: y})
			return true
		}
	}
	return false
}

func (c *Container) Render(fb FrameBuilder, xOffset, yOffset int32) {
	for i, ch := range c.children {
		r := c.childRects[i]
		ch.Render(fb, xOffset+r.x, yOffset+r.y)
	}
}

func (c *Container) Destroy(detach bool) {
	c.clearFocus()
	c.destroyChildren()
	c.childRects = nil
}
