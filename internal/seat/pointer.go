package seat

import (
	"time"

	"jaywl/internal/scene"
)

// Calibration is the device-relative-to-global transform spec.md
// §4.7 step 1 names ("transform via the device calibration matrix;
// translate to global coordinates; apply per-connector position"): a
// 2x3 affine matrix plus the connector's origin in the global
// coordinate space.
type Calibration struct {
	Matrix           [6]float64 // row-major 2x3 affine, device-local -> connector-local
	ConnectorOriginX float64
	ConnectorOriginY float64
}

// Apply transforms a device-relative point into global coordinates.
func (c Calibration) Apply(x, y float64) (gx, gy float64) {
	m := c.Matrix
	lx := m[0]*x + m[1]*y + m[2]
	ly := m[3]*x + m[4]*y + m[5]
	return lx + c.ConnectorOriginX, ly + c.ConnectorOriginY
}

// MotionAbsolute implements spec.md §4.7 pointer path steps 1-3 for
// absolute device motion: transform to global coordinates, resolve the
// active grab or hit-test, and fire leave/enter on focus change.
func (s *Seat) MotionAbsolute(cal Calibration, devX, devY float64, timeMS uint32) {
	gx, gy := cal.Apply(devX, devY)
	s.PointerX, s.PointerY = gx, gy
	s.routeMotion(timeMS)
}

// MotionRelative implements the relative-motion variant of step 1.
func (s *Seat) MotionRelative(dx, dy float64, timeMS uint32) {
	s.PointerX += dx
	s.PointerY += dy
	s.routeMotion(timeMS)
}

// pointerTarget implements step 2: route to the grab holder if a drag
// or explicit grab is active, otherwise hit-test from the display
// root at the current global position.
func (s *Seat) pointerTarget() scene.Node {
	if g, ok := s.activeGrab(GrabDrag, GrabExplicit); ok {
		return g.Holder
	}
	return s.hitTest(int32(s.PointerX), int32(s.PointerY))
}

func (s *Seat) routeMotion(timeMS uint32) {
	s.lastInputTime = time.Now()
	s.updatePointerFocus()
	if s.pointerFocus == nil || s.pointerDelegate == nil {
		return
	}
	sfc, lx, ly, ok := s.resolve(s.pointerFocus)
	if !ok {
		return
	}
	s.pointerDelegate.Motion(sfc, timeMS, float64(lx), float64(ly))
}

// Button implements spec.md §4.7 step 4: button events are delivered
// to the focused node's surface, tagged with a fresh input serial
// recorded in the client's serial map for a bounded window.
func (s *Seat) Button(code uint32, pressed bool, timeMS uint32) {
	s.lastInputTime = time.Now()
	if s.pointerFocus == nil || s.pointerDelegate == nil {
		return
	}
	sfc, _, _, ok := s.resolve(s.pointerFocus)
	if !ok {
		return
	}
	serial := s.serials.NextSerial(buttonSerialCtx{surface: sfc, code: code})
	s.pointerDelegate.Button(sfc, serial, timeMS, code, pressed)
}

// buttonSerialCtx is what a recorded button serial authorizes: a
// move/resize/grab request quoting this serial must reference the
// same surface and the button that was actually pressed (spec.md §3:
// "a map from client-supplied input serials to server serials for
// validating input-gated requests").
type buttonSerialCtx struct {
	surface any
	code    uint32
}

// Axis implements the scroll half of spec.md §4.7 step 4.
func (s *Seat) Axis(source, axis uint32, discrete int32, value float64, timeMS uint32) {
	s.lastInputTime = time.Now()
	if s.pointerFocus == nil || s.pointerDelegate == nil {
		return
	}
	sfc, _, _, ok := s.resolve(s.pointerFocus)
	if !ok {
		return
	}
	s.pointerDelegate.Axis(sfc, timeMS, source, axis, discrete, value)
}

// updatePointerFocus implements spec.md §4.7 step 3: on node change,
// emit leave to the previous focus and enter to the new one with the
// configured cursor hotspot, tracking the focus pointer on the node
// itself for O(1) unfocus-on-destroy.
func (s *Seat) updatePointerFocus() {
	hit := s.pointerTarget()
	if hit == s.pointerFocus {
		return
	}
	if s.pointerFocus != nil {
		s.pointerFocus.RemoveFocusClear(s.pointerFocusClear)
		if sfc, _, _, ok := s.resolve(s.pointerFocus); ok && s.pointerDelegate != nil {
			serial := s.serials.NextSerial(nil)
			s.pointerDelegate.Leave(sfc, serial)
		}
	}
	s.pointerFocus = hit
	if hit != nil {
		seat := s
		s.pointerFocusClear = hit.AddFocusClear(func() {
			if seat.pointerFocus == hit {
				seat.pointerFocus = nil
			}
		})
		if sfc, lx, ly, ok := s.resolve(hit); ok && s.pointerDelegate != nil {
			serial := s.serials.NextSerial(nil)
			s.pointerDelegate.Enter(sfc, serial, float64(lx), float64(ly))
		}
	}
}

// PointerFocus reports the node currently under the pointer, or nil.
func (s *Seat) PointerFocus() scene.Node { return s.pointerFocus }

// SetCursor installs a client-provided (or built-in) cursor image and
// hotspot for the current pointer focus client (spec.md §4.7 step 3:
// "update the cursor image per node request").
func (s *Seat) SetCursor(img any, hotspotX, hotspotY int32) {
	s.cursorImage = img
	s.CursorHotspotX, s.CursorHotspotY = hotspotX, hotspotY
}

// CursorImage returns the currently installed cursor image, opaque to
// this package.
func (s *Seat) CursorImage() any { return s.cursorImage }

