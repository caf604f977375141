package proto

import (
	"testing"

	"jaywl/internal/seat"
)

type recordedSend struct {
	mime string
	fd   int
}

// fakeDataControlSourceDelegate mimics the write-to-fd side of
// Send/Cancel a real client connection would perform, recording what
// was asked for instead of touching a real fd.
type fakeDataControlSourceDelegate struct {
	sends     []recordedSend
	cancelled bool
}

func (d *fakeDataControlSourceDelegate) Send(src *DataControlSource, mime string, fd int) {
	d.sends = append(d.sends, recordedSend{mime, fd})
}

func (d *fakeDataControlSourceDelegate) Cancelled(src *DataControlSource) { d.cancelled = true }

// TestDataControlSelectionHandoff reproduces spec.md §8's "Data-control
// selection handoff" scenario: an observer's recorded selection tracks
// whichever source most recently won the seat, the superseded source
// is cancelled exactly once, and reading an offer forwards to the
// current source's Send.
func TestDataControlSelectionHandoff(t *testing.T) {
	st := seat.New(1, nil, nil, nil, nil, nil, nil)

	dA := &fakeDataControlSourceDelegate{}
	sourceA := NewDataControlSource(10, 1, dA)
	if err := sourceA.Dispatch(OpDataControlSourceOffer, OfferArgs{MimeType: "image"}); err != nil {
		t.Fatalf("offer(image): %v", err)
	}

	dB := &fakeDataControlSourceDelegate{}
	sourceB := NewDataControlSource(20, 1, dB)
	if err := sourceB.Dispatch(OpDataControlSourceOffer, OfferArgs{MimeType: "text"}); err != nil {
		t.Fatalf("offer(text): %v", err)
	}

	deviceC := NewDataControlDevice(30, 1, st)

	// B sets the selection; C (a third observer) must see it.
	st.SetSelection(sourceB, 1)
	sel := deviceC.Selection()
	if sel == nil || len(sel.MimeTypes) != 1 || sel.MimeTypes[0] != "text" {
		t.Fatalf("expected C's recorded selection to contain MIME text, got %+v", sel)
	}

	sel.Receive("text", 99)
	if len(dB.sends) != 1 || dB.sends[0].mime != "text" || dB.sends[0].fd != 99 {
		t.Fatalf("expected B's delegate to receive a send(text, 99), got %+v", dB.sends)
	}
	if dA.cancelled {
		t.Error("A must not be cancelled by B taking the selection for the first time")
	}

	// A installs image with a fresh serial; B must be cancelled, and
	// C's recorded selection must flip to image.
	st.SetSelection(sourceA, 2)
	if !dB.cancelled {
		t.Error("expected B's source to be cancelled once A supersedes it")
	}
	sel = deviceC.Selection()
	if sel == nil || len(sel.MimeTypes) != 1 || sel.MimeTypes[0] != "image" {
		t.Fatalf("expected C's recorded selection to contain MIME image, got %+v", sel)
	}

	sel.Receive("image", 7)
	if len(dA.sends) != 1 || dA.sends[0].mime != "image" || dA.sends[0].fd != 7 {
		t.Fatalf("expected A's delegate to receive a send(image, 7), got %+v", dA.sends)
	}
}

// TestDataControlDeviceSeesExistingSelectionOnCreation reproduces
// ext_data_control_manager_v1.rs's get_data_device behavior: a device
// bound while a selection already exists must see it immediately,
// without waiting for the next set_selection.
func TestDataControlDeviceSeesExistingSelectionOnCreation(t *testing.T) {
	st := seat.New(1, nil, nil, nil, nil, nil, nil)

	d := &fakeDataControlSourceDelegate{}
	source := NewDataControlSource(10, 1, d)
	if err := source.Dispatch(OpDataControlSourceOffer, OfferArgs{MimeType: "text"}); err != nil {
		t.Fatalf("offer: %v", err)
	}
	st.SetSelection(source, 1)

	device := NewDataControlDevice(20, 1, st)
	sel := device.Selection()
	if sel == nil || len(sel.MimeTypes) != 1 || sel.MimeTypes[0] != "text" {
		t.Fatalf("expected a newly bound device to see the existing selection, got %+v", sel)
	}
}

func TestDataControlDeviceBreakLoopsStopsObserving(t *testing.T) {
	st := seat.New(1, nil, nil, nil, nil, nil, nil)
	device := NewDataControlDevice(30, 1, st)
	device.BreakLoops()

	d := &fakeDataControlSourceDelegate{}
	source := NewDataControlSource(10, 1, d)
	if err := source.Dispatch(OpDataControlSourceOffer, OfferArgs{MimeType: "text"}); err != nil {
		t.Fatalf("offer: %v", err)
	}
	st.SetSelection(source, 1)

	if device.Selection() != nil {
		t.Error("expected a device removed via BreakLoops to stop receiving selection updates")
	}
}

type fakeDataControlManagerDelegate struct{ seats map[ID]*seat.Seat }

func (d *fakeDataControlManagerDelegate) ResolveSeat(id ID) (*seat.Seat, bool) {
	st, ok := d.seats[id]
	return st, ok
}

func TestDataControlManagerCreatesDeviceAndSource(t *testing.T) {
	st := seat.New(1, nil, nil, nil, nil, nil, nil)
	delegate := &fakeDataControlManagerDelegate{seats: map[ID]*seat.Seat{5: st}}
	sourceDelegate := &fakeDataControlSourceDelegate{}
	mgr := NewDataControlManager(100, 1, delegate, sourceDelegate)

	if err := mgr.Dispatch(OpDataControlManagerGetDataDevice, GetDataControlDeviceArgs{NewID: 101, Seat: 5}); err != nil {
		t.Fatalf("get_data_device: %v", err)
	}
	if _, ok := mgr.Devices()[101]; !ok {
		t.Fatal("expected the new device to be tracked by id")
	}

	if err := mgr.Dispatch(OpDataControlManagerCreateDataSource, CreateDataSourceArgs{NewID: 102}); err != nil {
		t.Fatalf("create_data_source: %v", err)
	}
	if _, ok := mgr.Sources()[102]; !ok {
		t.Fatal("expected the new source to be tracked by id")
	}

	if err := mgr.Dispatch(OpDataControlManagerGetDataDevice, GetDataControlDeviceArgs{NewID: 103, Seat: 999}); err == nil {
		t.Error("expected an unknown seat to produce a protocol error")
	}
}
