package seat

// SelectionSource is implemented by whatever protocol object currently
// owns a seat's clipboard selection. A core copy/paste source and a
// data-control source both satisfy it, so an observer never needs to
// know which protocol produced the data it reads (spec.md §8
// "Data-control selection handoff").
type SelectionSource interface {
	MimeTypes() []string
	// Send asks the source to write the requested MIME's bytes to fd,
	// mirroring the wl_data_source/ext_data_control_source_v1 `send`
	// event (spec.md §1 scopes the wire field layout out; this is the
	// resolved call that event would drive).
	Send(mime string, fd int)
	// Cancel notifies a superseded source that it no longer holds the
	// selection.
	Cancel()
}

// SelectionObserver is notified whenever a seat's selection changes.
// Every bound data-control (and core data-device) object registers
// one, so a set_selection on any client is broadcast to every other
// observer (spec.md §8 "B's offer is advertised to a third observer
// C").
type SelectionObserver interface {
	SelectionOffered(mimeTypes []string, source SelectionSource)
}

// SetSelection installs source as the seat's current clipboard
// selection, cancelling whatever source held it previously (a no-op
// if source is re-asserting its own existing selection) and notifying
// every registered observer with the new MIME list.
func (s *Seat) SetSelection(source SelectionSource, serial uint32) {
	if s.selection != nil && s.selection != source {
		s.selection.Cancel()
	}
	s.selection = source
	s.selectionSerial = serial
	for _, obs := range s.selectionObservers {
		obs.SelectionOffered(source.MimeTypes(), source)
	}
}

// Selection returns the seat's current clipboard source, if any.
func (s *Seat) Selection() SelectionSource { return s.selection }

// AddSelectionObserver registers obs for future SetSelection
// broadcasts.
func (s *Seat) AddSelectionObserver(obs SelectionObserver) {
	s.selectionObservers = append(s.selectionObservers, obs)
}

// RemoveSelectionObserver cancels a registration made by
// AddSelectionObserver, used when the owning client's data-control
// device is destroyed.
func (s *Seat) RemoveSelectionObserver(obs SelectionObserver) {
	for i, o := range s.selectionObservers {
		if o == obs {
			s.selectionObservers = append(s.selectionObservers[:i], s.selectionObservers[i+1:]...)
			return
		}
	}
}
