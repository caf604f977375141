package scene

import "testing"

func TestFocusClearFiresOnceOnDestroy(t *testing.T) {
	p := NewPlaceholder(10, 10)

	var fired int
	p.AddFocusClear(func() { fired++ })

	p.Destroy(true)
	if fired != 1 {
		t.Fatalf("expected focus-clear callback to fire exactly once, got %d", fired)
	}

	// a second Destroy (idempotent teardown paths sometimes call it
	// twice) must not re-fire an already-cleared callback.
	p.Destroy(true)
	if fired != 1 {
		t.Errorf("expected no re-fire on a second Destroy, got %d", fired)
	}
}

func TestRemoveFocusClearCancelsRegistration(t *testing.T) {
	p := NewPlaceholder(10, 10)

	var fired bool
	id := p.AddFocusClear(func() { fired = true })
	p.RemoveFocusClear(id)

	p.Destroy(true)
	if fired {
		t.Error("expected a removed focus-clear registration not to fire")
	}
}

func TestFocusClearMultipleRegistrationsAllFire(t *testing.T) {
	p := NewPlaceholder(10, 10)

	var a, b bool
	p.AddFocusClear(func() { a = true })
	p.AddFocusClear(func() { b = true })

	p.Destroy(true)
	if !a || !b {
		t.Errorf("expected both registrations to fire, got a=%v b=%v", a, b)
	}
}

func TestContainerDestroyClearsFocusAndChildren(t *testing.T) {
	c := NewContainer()
	child := NewPlaceholder(10, 10)
	c.AddChild(child, 0, 0, 10, 10)

	var fired bool
	c.AddFocusClear(func() { fired = true })

	c.Destroy(true)
	if !fired {
		t.Error("expected container's own focus-clear to fire on destroy")
	}
}

func TestContainerTitleBarHeightTriState(t *testing.T) {
	const theme = int32(24)

	tests := []struct {
		name     string
		mode     ShowTitlesMode
		children int
		want     int32
	}{
		{"true mode always shows regardless of child count", ShowTitlesTrue, 1, theme},
		{"false mode never shows regardless of child count", ShowTitlesFalse, 2, 0},
		{"auto mode hides with one child", ShowTitlesAuto, 1, 0},
		{"auto mode shows with two children", ShowTitlesAuto, 2, theme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer()
			c.SetShowTitles(tt.mode)
			for i := 0; i < tt.children; i++ {
				c.AddChild(NewPlaceholder(10, 10), 0, 0, 10, 10)
			}
			if got := c.TitleBarHeight(theme); got != tt.want {
				t.Errorf("TitleBarHeight() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStackedTitleBarHeightAlwaysShowsInAutoMode(t *testing.T) {
	const theme = int32(24)

	s := NewStacked(NewPlaceholder(10, 10), 0, 0)
	if got := s.TitleBarHeight(theme); got != theme {
		t.Errorf("floating window in auto mode: TitleBarHeight() = %d, want %d", got, theme)
	}

	s.SetShowTitles(ShowTitlesFalse)
	if got := s.TitleBarHeight(theme); got != 0 {
		t.Errorf("floating window in false mode: TitleBarHeight() = %d, want 0", got)
	}

	s.SetShowTitles(ShowTitlesTrue)
	if got := s.TitleBarHeight(theme); got != theme {
		t.Errorf("floating window in true mode: TitleBarHeight() = %d, want %d", got, theme)
	}
}
