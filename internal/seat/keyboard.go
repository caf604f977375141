package seat

import (
	"time"

	"jaywl/internal/scene"
)

// Keymap resolves raw evdev key codes into the modifier bits they
// affect, letting the state machine stay keymap-agnostic (spec.md §1
// scopes the concrete keymap parser out of core; only the shape of the
// state machine driven by it is specified).
type Keymap interface {
	// ModifierBit returns the modifier mask bit(s) that toggle when
	// code transitions, or 0 if code is not a modifier key.
	ModifierBit(code uint32) uint32
	// IsLockModifier reports whether the modifier bit returned for
	// code latches into Locked (e.g. caps lock) rather than Depressed.
	IsLockModifier(code uint32) bool
}

// Key implements spec.md §4.7 keyboard path: run the evdev key code
// through the keymap state machine, update depressed/latched/locked
// modifier masks, and deliver both modifier-changed and key events to
// the keyboard-focused node.
func (s *Seat) Key(km Keymap, code uint32, pressed bool, timeMS uint32) {
	s.lastInputTime = time.Now()

	if bit := km.ModifierBit(code); bit != 0 {
		s.applyModifier(km, bit, code, pressed)
	}

	target := s.keyboardTarget()
	if target == nil || s.keyboardDelegate == nil {
		return
	}
	sfc, _, _, ok := s.resolve(target)
	if !ok {
		return
	}
	serial := s.serials.NextSerial(nil)
	s.keyboardDelegate.Key(sfc, serial, timeMS, code, pressed)
}

func (s *Seat) applyModifier(km Keymap, bit, code uint32, pressed bool) {
	before := s.Mods
	if km.IsLockModifier(code) {
		if pressed {
			s.Mods.Locked ^= bit
		}
	} else if pressed {
		s.Mods.Depressed |= bit
	} else {
		s.Mods.Depressed &^= bit
	}
	if before == s.Mods {
		return
	}
	target := s.keyboardTarget()
	if target == nil || s.keyboardDelegate == nil {
		return
	}
	sfc, _, _, ok := s.resolve(target)
	if !ok {
		return
	}
	serial := s.serials.NextSerial(nil)
	s.keyboardDelegate.Modifiers(sfc, serial, s.Mods.Depressed, s.Mods.Latched, s.Mods.Locked, s.Mods.Group)
}

// keyboardTarget implements spec.md §4.7 step 3: an explicit
// input-method grab, if any, otherwise whatever window-manager policy
// last set as keyboard focus.
func (s *Seat) keyboardTarget() scene.Node {
	if g, ok := s.activeGrab(GrabExplicit); ok {
		return g.Holder
	}
	return s.keyboardFocus
}

// SetKeyboardFocus assigns keyboard focus to n (or clears it if nil),
// driven by window-manager policy (click-to-focus or follow-pointer),
// emitting leave/enter and tracking the focus pointer on the node
// itself for O(1) unfocus-on-destroy (spec.md §4.7 step 2, §3).
func (s *Seat) SetKeyboardFocus(n scene.Node) {
	if n == s.keyboardFocus {
		return
	}
	if s.keyboardFocus != nil {
		s.keyboardFocus.RemoveFocusClear(s.keyboardFocusTok)
		if sfc, _, _, ok := s.resolve(s.keyboardFocus); ok && s.keyboardDelegate != nil {
			serial := s.serials.NextSerial(nil)
			s.keyboardDelegate.Leave(sfc, serial)
		}
		s.keyboardFocus = nil
	}
	if n == nil {
		return
	}
	s.keyboardFocus = n
	seat := s
	s.keyboardFocusTok = n.AddFocusClear(func() {
		if seat.keyboardFocus == n {
			seat.keyboardFocus = nil
		}
	})
	if sfc, _, _, ok := s.resolve(n); ok && s.keyboardDelegate != nil {
		serial := s.serials.NextSerial(nil)
		s.keyboardDelegate.Enter(sfc, serial)
	}
}

// KeyboardFocus returns the node currently holding keyboard focus.
func (s *Seat) KeyboardFocus() scene.Node { return s.keyboardFocus }
