// Package soft implements the headless software-compose FrameBuilder
// used by tests and by any backend that has no GPU plane to hand work
// to: it rasterizes scene.FrameBuilder draw ops into an *image.RGBA
// with image/draw, rather than assembling a KMS plane list.
//
// Grounded on friedelschoen-ctxmenu/menu.go and wayland.go, which
// render entirely into an *image.RGBA surface and composite child
// widgets onto it with draw.Draw/draw.DrawMask; the same "accumulate
// into one RGBA, composite with image/draw" shape backs this package,
// scaled down to flat-color fills and opaque surface blits since the
// core has no text/icon rendering of its own (spec.md §1 scopes
// shader/texture work out). Viewport src/dst scaling (spec.md §3's
// wp_viewporter state) goes through golang.org/x/image/draw's
// CatmullRom scaler instead of stdlib image/draw, which has no scaling
// transform of its own — the same library the corpus's image-heavy
// tooling reaches for whenever a resize needs to look better than
// nearest-neighbor.
package soft

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"jaywl/internal/surface"
)

// Frame accumulates draw ops for one output's presentation into a
// single *image.RGBA, implementing scene.FrameBuilder.
type Frame struct {
	Img *image.RGBA

	// sampleAt provides pixel data for a surface's current buffer;
	// tests and the headless backend both stub this rather than
	// decoding real shm/dma-buf contents (spec.md §1 scopes buffer
	// format decode to the GPU backend, out of core).
	sampleAt func(s *surface.Surface) image.Image
}

// NewFrame allocates a Frame sized to one output's presentation.
func NewFrame(w, h int, sampleAt func(s *surface.Surface) image.Image) *Frame {
	return &Frame{
		Img:      image.NewRGBA(image.Rect(0, 0, w, h)),
		sampleAt: sampleAt,
	}
}

// FillRect implements scene.FrameBuilder by Over-compositing a flat
// color into the rectangle r.
func (f *Frame) FillRect(r surface.Rect, rgba [4]float32) {
	dst := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H)).Add(image.Pt(0, 0))
	c := color.NRGBA64{
		R: uint16(clamp01(rgba[0]) * 0xffff),
		G: uint16(clamp01(rgba[1]) * 0xffff),
		B: uint16(clamp01(rgba[2]) * 0xffff),
		A: uint16(clamp01(rgba[3]) * 0xffff),
	}
	draw.Draw(f.Img, dst, image.NewUniform(c), image.Point{}, draw.Over)
}

// DrawSurface implements scene.FrameBuilder by compositing s's sampled
// buffer contents at (x,y), Over-blending against whatever is already
// in the frame (matching the teacher's "Over" compositing throughout
// menu.go).
func (f *Frame) DrawSurface(s *surface.Surface, x, y int32) {
	if f.sampleAt == nil || !s.Current.Mapped {
		return
	}
	img := f.sampleAt(s)
	if img == nil {
		return
	}

	if s.Current.HasViewportSrc || s.Current.HasViewportDst {
		f.drawScaled(s, img, x, y)
		return
	}

	b := img.Bounds()
	dst := b.Add(image.Pt(int(x), int(y)))
	draw.Draw(f.Img, dst, img, b.Min, draw.Over)
}

// drawScaled implements the wp_viewporter crop/scale path: src, if
// set, crops img before scaling; dst, if set, is the destination size
// in surface-local coordinates. CatmullRom matches the teacher's
// general preference for quality over speed at this scale (a handful
// of surfaces per frame, not a compositor processing video).
func (f *Frame) drawScaled(s *surface.Surface, img image.Image, x, y int32) {
	src := img.Bounds()
	if s.Current.HasViewportSrc {
		vs := s.Current.ViewportSrc
		src = image.Rect(int(vs.X), int(vs.Y), int(vs.X+vs.W), int(vs.Y+vs.H)).Intersect(img.Bounds())
	}

	dstW, dstH := src.Dx(), src.Dy()
	if s.Current.HasViewportDst {
		dstW, dstH = int(s.Current.ViewportDstW), int(s.Current.ViewportDstH)
	}
	if dstW <= 0 || dstH <= 0 {
		return
	}

	dst := image.Rect(int(x), int(y), int(x)+dstW, int(y)+dstH)
	xdraw.CatmullRom.Scale(f.Img, dst, img, src, xdraw.Over, nil)
}

// Damage clips a clear-and-refill to the accumulated damage region
// before a caller replays DrawSurface/FillRect for the nodes that
// intersect it, matching spec.md §4.6 step 4's scissor-when-supported
// rule. The software path has no hardware scissor, so this only
// limits which pixels get zeroed, not which draw calls run.
func (f *Frame) Damage(rects []surface.Rect) {
	for _, r := range rects {
		draw.Draw(f.Img, image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H)), image.Transparent, image.Point{}, draw.Src)
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
