package scene

// Display is the tree root: the single node owning every Output
// (spec.md §4.6: "display → outputs → ...").
type Display struct {
	base
}

func NewDisplay() *Display {
	d := &Display{base: base{kind: KindDisplay, visible: true}}
	return d
}

func (d *Display) AddOutput(o *Output) {
	o.parent = d
	d.addChild(o, d)
}

func (d *Display) RemoveOutput(o *Output) {
	d.removeChild(o)
}

func (d *Display) Outputs() []Node { return d.children }

func (d *Display) FindAt(x, y int32, path *[]Point) bool {
	hit := d.findAtChildren(x, y, path)
	if hit {
		*path = append(*path, Point{Node: d, LocalX: x, LocalY: y})
	}
	return hit
}

func (d *Display) Render(fb FrameBuilder, xOffset, yOffset int32) {
	d.renderChildren(fb, xOffset, yOffset)
}

func (d *Display) Destroy(detach bool) {
	d.clearFocus()
	d.destroyChildren()
}
