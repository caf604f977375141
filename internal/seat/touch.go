package seat

import "time"

// TouchDown implements spec.md §4.7 touch path: hit-test at the down
// point and capture the contact to that node until it lifts; motion
// for this id always routes to the captured node regardless of where
// it moves.
func (s *Seat) TouchDown(id int32, x, y float64, timeMS uint32) {
	s.lastInputTime = time.Now()
	hit := s.hitTest(int32(x), int32(y))
	if hit == nil {
		return
	}
	tp := touchPoint{id: id, captured: hit}
	seat := s
	tp.clearTok = hit.AddFocusClear(func() {
		seat.cancelTouch(id)
	})
	s.touches = append(s.touches, tp)

	if s.touchDelegate == nil {
		return
	}
	sfc, lx, ly, ok := s.resolve(hit)
	if !ok {
		return
	}
	serial := s.serials.NextSerial(nil)
	s.touchDelegate.Down(sfc, serial, timeMS, id, float64(lx), float64(ly))
}

// TouchMotion always routes to the node captured at TouchDown for this
// id, regardless of where the contact point has moved since (spec.md
// §4.7: "motion events always route to the captured node").
func (s *Seat) TouchMotion(id int32, x, y float64, timeMS uint32) {
	s.lastInputTime = time.Now()
	tp, ok := s.findTouch(id)
	if !ok || s.touchDelegate == nil {
		return
	}
	_, lx, ly, ok := s.resolve(tp.captured)
	if !ok {
		return
	}
	// lx/ly are the captured node's local origin; report the contact
	// relative to it using the same surface-local mapping the down
	// event used, so the absolute device coordinates are translated
	// through the node's fixed offset rather than re-hit-tested.
	s.touchDelegate.Motion(timeMS, id, x-float64(lx), y-float64(ly))
}

// TouchUp releases the captured contact (spec.md §4.7).
func (s *Seat) TouchUp(id int32, timeMS uint32) {
	s.lastInputTime = time.Now()
	tp, ok := s.findTouch(id)
	if !ok {
		return
	}
	tp.captured.RemoveFocusClear(tp.clearTok)
	s.removeTouch(id)
	if s.touchDelegate == nil {
		return
	}
	serial := s.serials.NextSerial(nil)
	s.touchDelegate.Up(serial, timeMS, id)
}

func (s *Seat) findTouch(id int32) (touchPoint, bool) {
	for _, tp := range s.touches {
		if tp.id == id {
			return tp, true
		}
	}
	return touchPoint{}, false
}

func (s *Seat) removeTouch(id int32) {
	for i, tp := range s.touches {
		if tp.id == id {
			s.touches = append(s.touches[:i], s.touches[i+1:]...)
			return
		}
	}
}

// cancelTouch drops a touch point whose captured node was destroyed
// mid-contact, e.g. a client closing while a finger is still down.
func (s *Seat) cancelTouch(id int32) {
	s.removeTouch(id)
}

// Touches returns the currently active contact ids, for diagnostics
// and tests.
func (s *Seat) Touches() []int32 {
	ids := make([]int32, len(s.touches))
	for i, tp := range s.touches {
		ids[i] = tp.id
	}
	return ids
}
