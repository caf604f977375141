package proto

import "jaywl/internal/seat"

// ext_data_control_source_v1 request opcodes.
const (
	OpDataControlSourceOffer uint16 = iota
	OpDataControlSourceDestroy
)

// DataControlSourceDelegate receives the events a bound source's owner
// needs: a read request for one of its offered MIME types, and
// notification that a newer selection superseded it (spec.md §8
// "Data-control selection handoff", grounded on `mahkoh/jay`'s
// `src/ifs/ipc/data_control/ext_data_control_source_v1.rs`).
type DataControlSourceDelegate interface {
	Send(src *DataControlSource, mime string, fd int)
	Cancelled(src *DataControlSource)
}

// DataControlSource is the object a client creates to offer data for
// the clipboard; it implements seat.SelectionSource so
// seat.Seat.SetSelection doesn't care whether the current owner is a
// data-control client or a core copy/paste client.
type DataControlSource struct {
	objBase

	mimes     []string
	cancelled bool
	delegate  DataControlSourceDelegate
}

func NewDataControlSource(id ID, version uint32, delegate DataControlSourceDelegate) *DataControlSource {
	s := &DataControlSource{
		objBase:  objBase{id: id, iface: "ext_data_control_source_v1", version: version},
		delegate: delegate,
	}
	s.table = map[uint16]func(RequestArgs) error{
		OpDataControlSourceOffer:   s.handleOffer,
		OpDataControlSourceDestroy: noop,
	}
	return s
}

func (s *DataControlSource) Dispatch(opcode uint16, args RequestArgs) error { return s.dispatch(opcode, args) }
func (s *DataControlSource) BreakLoops()                                    {}
func (s *DataControlSource) Destructor()                                    {}

type OfferArgs struct{ MimeType string }

func (s *DataControlSource) handleOffer(args RequestArgs) error {
	a, ok := args.(OfferArgs)
	if !ok {
		return badArgs(s.id, "offer")
	}
	s.mimes = append(s.mimes, a.MimeType)
	return nil
}

// MimeTypes implements seat.SelectionSource.
func (s *DataControlSource) MimeTypes() []string { return s.mimes }

// Send implements seat.SelectionSource, forwarding a selection read to
// the client that owns this source.
func (s *DataControlSource) Send(mime string, fd int) {
	if s.delegate != nil {
		s.delegate.Send(s, mime, fd)
	}
}

// Cancel implements seat.SelectionSource: fired when a different
// source supersedes this one on the seat.
func (s *DataControlSource) Cancel() {
	if s.cancelled {
		return
	}
	s.cancelled = true
	if s.delegate != nil {
		s.delegate.Cancelled(s)
	}
}

func (s *DataControlSource) Cancelled() bool { return s.cancelled }

// DataControlOffer is the read-only snapshot a bound device records
// when the seat's selection changes (spec.md §8: "C's recorded
// selection contains MIME ...").
type DataControlOffer struct {
	MimeTypes []string
	source    seat.SelectionSource
}

// Receive requests mime's bytes be written to fd, forwarding to
// whichever source currently backs this offer.
func (o *DataControlOffer) Receive(mime string, fd int) {
	if o.source != nil {
		o.source.Send(mime, fd)
	}
}

// ext_data_control_device_v1 request opcodes.
const (
	OpDataControlDeviceSetSelection uint16 = iota
	OpDataControlDeviceDestroy
)

// DataControlDevice is the per-client, per-seat object that both sets
// and observes the clipboard selection (spec.md §8 "data-control
// observer").
type DataControlDevice struct {
	objBase

	st        *seat.Seat
	lastOffer *DataControlOffer
}

func NewDataControlDevice(id ID, version uint32, st *seat.Seat) *DataControlDevice {
	d := &DataControlDevice{
		objBase: objBase{id: id, iface: "ext_data_control_device_v1", version: version},
		st:      st,
	}
	d.table = map[uint16]func(RequestArgs) error{
		OpDataControlDeviceSetSelection: d.handleSetSelection,
		OpDataControlDeviceDestroy:      noop,
	}
	st.AddSelectionObserver(d)
	// A device bound while a selection already exists must see it
	// immediately, not just on the next set_selection (mirrors
	// get_data_device's get_selection lookup ext_data_control_manager_v1.rs
	// does against the seat before handing the new device back).
	if src := st.Selection(); src != nil {
		d.SelectionOffered(src.MimeTypes(), src)
	}
	return d
}

func (d *DataControlDevice) Dispatch(opcode uint16, args RequestArgs) error { return d.dispatch(opcode, args) }

func (d *DataControlDevice) BreakLoops() { d.st.RemoveSelectionObserver(d) }
func (d *DataControlDevice) Destructor() {}

type SetSelectionArgs struct {
	Source seat.SelectionSource
	Serial uint32
}

func (d *DataControlDevice) handleSetSelection(args RequestArgs) error {
	a, ok := args.(SetSelectionArgs)
	if !ok {
		return badArgs(d.id, "set_selection")
	}
	d.st.SetSelection(a.Source, a.Serial)
	return nil
}

// SelectionOffered implements seat.SelectionObserver: records the new
// offer so the owning client can later read it back (the real
// protocol would instead emit data_offer + offer + selection events;
// that wire encoding is opaque here per spec.md §1).
func (d *DataControlDevice) SelectionOffered(mimeTypes []string, source seat.SelectionSource) {
	d.lastOffer = &DataControlOffer{MimeTypes: append([]string(nil), mimeTypes...), source: source}
}

// Selection returns the most recently offered selection snapshot, or
// nil if none has been offered yet.
func (d *DataControlDevice) Selection() *DataControlOffer { return d.lastOffer }

// ext_data_control_manager_v1 request opcodes.
const (
	OpDataControlManagerGetDataDevice uint16 = iota
	OpDataControlManagerCreateDataSource
)

// DataControlManagerDelegate resolves a bound wl_seat object to the
// seat it represents, letting internal/proto stay free of
// internal/compositor's client/seat-table bookkeeping.
type DataControlManagerDelegate interface {
	ResolveSeat(id ID) (*seat.Seat, bool)
}

// DataControlManager is the ext_data_control_manager_v1 global.
type DataControlManager struct {
	objBase

	delegate       DataControlManagerDelegate
	sourceDelegate DataControlSourceDelegate

	devices map[ID]*DataControlDevice
	sources map[ID]*DataControlSource
}

func NewDataControlManager(id ID, version uint32, delegate DataControlManagerDelegate, sourceDelegate DataControlSourceDelegate) *DataControlManager {
	m := &DataControlManager{
		objBase:        objBase{id: id, iface: "ext_data_control_manager_v1", version: version},
		delegate:       delegate,
		sourceDelegate: sourceDelegate,
		devices:        map[ID]*DataControlDevice{},
		sources:        map[ID]*DataControlSource{},
	}
	m.table = map[uint16]func(RequestArgs) error{
		OpDataControlManagerGetDataDevice:    m.handleGetDataDevice,
		OpDataControlManagerCreateDataSource: m.handleCreateDataSource,
	}
	return m
}

func (m *DataControlManager) Dispatch(opcode uint16, args RequestArgs) error { return m.dispatch(opcode, args) }
func (m *DataControlManager) BreakLoops()                                    {}
func (m *DataControlManager) Destructor()                                    {}

type GetDataControlDeviceArgs struct {
	NewID ID
	Seat  ID
}

func (m *DataControlManager) handleGetDataDevice(args RequestArgs) error {
	a, ok := args.(GetDataControlDeviceArgs)
	if !ok {
		return badArgs(m.id, "get_data_device")
	}
	st, ok := m.delegate.ResolveSeat(a.Seat)
	if !ok {
		return &ProtocolError{Object: m.id, Code: ErrorInvalidObject, Msg: "get_data_device: unknown seat"}
	}
	d := NewDataControlDevice(a.NewID, m.version, st)
	m.devices[a.NewID] = d
	return nil
}

type CreateDataSourceArgs struct{ NewID ID }

func (m *DataControlManager) handleCreateDataSource(args RequestArgs) error {
	a, ok := args.(CreateDataSourceArgs)
	if !ok {
		return badArgs(m.id, "create_data_source")
	}
	m.sources[a.NewID] = NewDataControlSource(a.NewID, m.version, m.sourceDelegate)
	return nil
}

// Devices returns every data-control device this manager has created,
// for tests and for teardown bookkeeping.
func (m *DataControlManager) Devices() map[ID]*DataControlDevice { return m.devices }

// Sources returns every data-control source this manager has created.
func (m *DataControlManager) Sources() map[ID]*DataControlSource { return m.sources }
