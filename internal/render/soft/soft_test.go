package soft

import (
	"image"
	"image/color"
	"testing"

	"jaywl/internal/surface"
)

func solidSampler(img image.Image) func(*surface.Surface) image.Image {
	return func(*surface.Surface) image.Image { return img }
}

func TestFillRectOpaque(t *testing.T) {
	f := NewFrame(10, 10, nil)
	f.FillRect(surface.Rect{X: 2, Y: 2, W: 4, H: 4}, [4]float32{1, 0, 0, 1})

	r, g, b, a := f.Img.At(3, 3).RGBA()
	if r>>8 != 0xff || g>>8 != 0 || b>>8 != 0 || a>>8 != 0xff {
		t.Errorf("expected opaque red at (3,3), got r=%d g=%d b=%d a=%d", r>>8, g>>8, b>>8, a>>8)
	}

	// outside the rect must be untouched (transparent black, the
	// zero value of a freshly allocated image.RGBA).
	_, _, _, outA := f.Img.At(8, 8).RGBA()
	if outA != 0 {
		t.Errorf("expected untouched pixel outside the rect to stay transparent, got a=%d", outA)
	}
}

func TestFillRectClampsOutOfRangeChannels(t *testing.T) {
	f := NewFrame(4, 4, nil)
	f.FillRect(surface.Rect{X: 0, Y: 0, W: 4, H: 4}, [4]float32{2, -1, 0.5, 1})
	r, g, _, _ := f.Img.At(0, 0).RGBA()
	if r>>8 != 0xff {
		t.Errorf("expected channel > 1 to clamp to 0xff, got %d", r>>8)
	}
	if g>>8 != 0 {
		t.Errorf("expected channel < 0 to clamp to 0, got %d", g>>8)
	}
}

func TestDrawSurfaceSkipsUnmapped(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	s := surface.New(1)
	// s.Current.Mapped defaults to false

	f := NewFrame(10, 10, solidSampler(src))
	f.DrawSurface(s, 0, 0)

	_, _, _, a := f.Img.At(1, 1).RGBA()
	if a != 0 {
		t.Error("expected an unmapped surface not to be drawn")
	}
}

func TestDrawSurfaceBlitsAtOffset(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{0, 0xff, 0, 0xff})
		}
	}
	s := surface.New(1)
	s.Current.Mapped = true

	f := NewFrame(10, 10, solidSampler(src))
	f.DrawSurface(s, 3, 3)

	_, g, _, a := f.Img.At(4, 4).RGBA()
	if g>>8 != 0xff || a>>8 != 0xff {
		t.Errorf("expected opaque green blitted at offset (3,3), got g=%d a=%d", g>>8, a>>8)
	}
	_, _, _, outA := f.Img.At(0, 0).RGBA()
	if outA != 0 {
		t.Error("expected pixels outside the blit target to be untouched")
	}
}

func TestDrawSurfaceScalesToViewportDst(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{0xff, 0, 0, 0xff})
		}
	}
	s := surface.New(1)
	s.Current.Mapped = true
	s.Current.HasViewportDst = true
	s.Current.ViewportDstW, s.Current.ViewportDstH = 8, 8

	f := NewFrame(20, 20, solidSampler(src))
	f.DrawSurface(s, 0, 0)

	r, _, _, a := f.Img.At(4, 4).RGBA()
	if a>>8 != 0xff {
		t.Errorf("expected scaled output to remain opaque, got a=%d", a>>8)
	}
	if r>>8 == 0 {
		t.Errorf("expected scaled output to keep the red channel, got r=%d", r>>8)
	}
}

func TestDamageClipsToRects(t *testing.T) {
	f := NewFrame(10, 10, nil)
	f.FillRect(surface.Rect{X: 0, Y: 0, W: 10, H: 10}, [4]float32{1, 1, 1, 1})
	f.Damage([]surface.Rect{{X: 0, Y: 0, W: 5, H: 10}})

	_, _, _, clearedA := f.Img.At(2, 2).RGBA()
	if clearedA != 0 {
		t.Errorf("expected damaged region to be cleared, got a=%d", clearedA>>8)
	}
	_, _, _, keptA := f.Img.At(8, 2).RGBA()
	if keptA>>8 != 0xff {
		t.Errorf("expected undamaged region to remain, got a=%d", keptA>>8)
	}
}
