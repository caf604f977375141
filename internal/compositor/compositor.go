// Package compositor implements the Compositor Coordinator of spec.md
// §4.9: the single struct that owns every process-wide table (clients,
// globals, outputs, seats, DRM devices) and the handful of operations
// that cut across them (spawning a client, two-phase global removal,
// full-output damage, session lock, and config reload).
//
// Design Notes §9 frames this state as "reachable process-wide via a
// thread-local" in the source; Go has no language-level thread-local,
// and a package-level `var current *Coordinator` would defeat a test
// harness that wants multiple independent compositors in one process
// (spec.md §9 Open Question: "every test replaces the thread-local").
// So, grounded on gogpu-gogpu/internal/platform's Platform struct
// (every subsystem handle threaded through one value passed to
// constructors rather than reached for globally), the Coordinator is
// an ordinary struct: callers hold a *Coordinator and pass it to
// whatever needs process-wide state, rather than it reaching out to
// them.
package compositor

import (
	"time"

	"golang.org/x/sys/unix"

	"jaywl/internal/backend"
	"jaywl/internal/client"
	"jaywl/internal/loop"
	"jaywl/internal/outputloop"
	"jaywl/internal/proto"
	"jaywl/internal/scene"
	"jaywl/internal/seat"
	"jaywl/internal/transport"
	"jaywl/internal/wlog"
)

// DeviceID identifies a DRM/KMS device distinctly from backend.ConnectorID,
// since one device can expose several connectors (spec.md §4.9 "DRM-device
// table").
type DeviceID uint64

// Device is one DRM device's KMS handle plus the connectors currently
// known to be attached to it.
type Device struct {
	ID         DeviceID
	KMS        backend.KMS
	Connectors map[backend.ConnectorID]*outputloop.Output
}

// Coordinator is the process-wide compositor state of spec.md §4.9.
type Coordinator struct {
	loop *loop.Loop

	clients map[client.ID]*client.Client
	nextClientID client.ID

	globals *proto.Globals

	outputs map[backend.ConnectorID]*scene.Output
	seats   map[seat.ID]*seat.Seat
	devices map[DeviceID]*Device

	// workspaceHome and dummyOutput implement spec.md §8 "Workspace
	// restoration across connector churn": a workspace's recorded home
	// connector is where RemoveOutput/AddOutput always try to return it,
	// and dummyOutput is the last resort once every real connector has
	// disconnected (grounded on
	// it/tests/t0034_workspace_restoration.rs's run.state.dummy_output).
	workspaceHome map[*scene.Workspace]backend.ConnectorID
	dummyOutput   *scene.Output

	locked     bool
	activeLock *proto.SessionLock

	idleNotifiers []*proto.IdleNotifier

	acceptors []*acceptor
	reload    reloadState

	log *wlog.Logger
}

// New creates an empty Coordinator bound to the given event loop.
func New(l *loop.Loop) *Coordinator {
	return &Coordinator{
		loop:    l,
		clients: map[client.ID]*client.Client{},
		globals: proto.NewGlobals(),
		outputs: map[backend.ConnectorID]*scene.Output{},
		seats:   map[seat.ID]*seat.Seat{},
		devices: map[DeviceID]*Device{},
		log:     wlog.Compositor,
	}
}

// acceptor is one listening socket (the main socket, or a
// security-context-restricted one) and the clients it has admitted
// (spec.md §6: "Capability-restricted acceptors ... carry a close-fd:
// when it closes, the acceptor stops accepting and all clients that
// arrived through it are terminated").
type acceptor struct {
	fd           int
	loopID       loop.ID
	closeLoopID  loop.ID
	boundingCaps proto.Caps
	hasCloseFD   bool
	clientsHere  []client.ID
}

// Listen opens a new acceptor on an already-bound, already-listening
// socket fd, restricted to boundingCaps for every client it admits
// (spec.md §3 Client: "a bounding set of capabilities"). closeFD, if
// >= 0, is watched for HUP/closure to implement security-context
// teardown (spec.md §6).
func (c *Coordinator) Listen(fd int, boundingCaps proto.Caps, closeFD int) error {
	a := &acceptor{fd: fd, boundingCaps: boundingCaps, loopID: loop.ID(fd)}
	if err := c.loop.Insert(a.loopID, fd, loop.Readable, func(now time.Time) error {
		return c.acceptOne(a)
	}); err != nil {
		return err
	}
	if closeFD >= 0 {
		a.hasCloseFD = true
		a.closeLoopID = loop.ID(closeFD)
		if err := c.loop.Insert(a.closeLoopID, closeFD, loop.Readable, func(now time.Time) error {
			c.closeAcceptor(a)
			return nil
		}); err != nil {
			c.loop.Remove(a.loopID)
			return err
		}
	}
	c.acceptors = append(c.acceptors, a)
	return nil
}

// acceptOne accepts a single pending connection on a, authenticates it
// by Unix credentials (spec.md §6: "new connections authenticate
// solely by Unix credentials"), and spawns a Client for it. Credential
// verification itself (matching uid against the compositor's expected
// user) is left to the caller-supplied policy hook in a fuller
// deployment; here every connecting peer with a valid SO_PEERCRED is
// admitted, matching the baseline "no further authorization" spec.md
// describes.
func (c *Coordinator) acceptOne(a *acceptor) error {
	connFD, _, err := unix.Accept4(a.fd, unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK)
	if err != nil {
		if err == unix.EAGAIN {
			return nil
		}
		return err
	}
	if _, err := unix.GetsockoptUcred(connFD, unix.SOL_SOCKET, unix.SO_PEERCRED); err != nil {
		unix.Close(connFD)
		return nil
	}
	cl := c.SpawnClient(connFD, a.boundingCaps, !a.hasCloseFD)
	a.clientsHere = append(a.clientsHere, cl.ID)
	return nil
}

// closeAcceptor implements the security-context teardown half of
// spec.md §6: once closeFD reads closed, the acceptor stops accepting
// and every client that arrived through it is disconnected.
func (c *Coordinator) closeAcceptor(a *acceptor) {
	c.loop.Remove(a.loopID)
	if a.hasCloseFD {
		c.loop.Remove(a.closeLoopID)
	}
	unix.Close(a.fd)
	for _, id := range a.clientsHere {
		c.DisconnectClient(id)
	}
	for i, other := range c.acceptors {
		if other == a {
			c.acceptors = append(c.acceptors[:i], c.acceptors[i+1:]...)
			break
		}
	}
}

// SpawnClient implements spec.md §4.9 spawn_client(fd, caps): wraps an
// already-accepted connection fd into a Client, registers it in the
// client table, and returns it ready for the transport layer to drive.
func (c *Coordinator) SpawnClient(fd int, boundingCaps proto.Caps, primaryTransport bool) *client.Client {
	c.nextClientID++
	id := c.nextClientID
	conn := transport.New(fd)
	cl := client.New(id, conn, boundingCaps, primaryTransport)
	c.clients[id] = cl
	c.log.Printf("client %d connected (caps=%#x primary=%v)", id, boundingCaps, primaryTransport)
	return cl
}

// DisconnectClient tears down and forgets a client (spec.md §8
// property 1).
func (c *Coordinator) DisconnectClient(id client.ID) {
	cl, ok := c.clients[id]
	if !ok {
		return
	}
	cl.Disconnect()
	delete(c.clients, id)
	c.log.Printf("client %d disconnected", id)
}

// Client looks up a client by id.
func (c *Coordinator) Client(id client.ID) (*client.Client, bool) {
	cl, ok := c.clients[id]
	return cl, ok
}

// AddGlobal implements spec.md §4.9 add_global(g): registers a new
// singleton, broadcast to every currently-connected client via
// Globals' own onAdd callback (internal/proto/global.go).
func (c *Coordinator) AddGlobal(g proto.Global) *proto.Global {
	return c.globals.Add(g)
}

// RemoveGlobal starts the two-phase removal of a global: it marks the
// global removing and notifies Globals' onRemove subscribers
// (internal/proto/global.go Remove). The global stays in the table,
// and stays bindable, until Globals.DeleteAnnounced runs; RemoveGlobal
// does not call or schedule DeleteAnnounced, and the Coordinator has
// no grace-period timer that does.
func (c *Coordinator) RemoveGlobal(name uint32) {
	c.globals.Remove(name)
}

// Globals returns the global table for binding during client request
// dispatch.
func (c *Coordinator) Globals() *proto.Globals { return c.globals }

// AddOutput registers a newly connected output under the Coordinator's
// output table (spec.md §4.9 "Output table (keyed by connector ID)"),
// then implements the reconnection half of spec.md §8 "Workspace
// restoration across connector churn": any workspace homed to conn is
// reclaimed from wherever it currently lives, and anything stranded on
// the dummy output is given a chance to move onto a real connector
// again.
func (c *Coordinator) AddOutput(conn backend.ConnectorID, o *scene.Output) {
	c.outputs[conn] = o

	for ws, home := range c.workspaceHome {
		if home != conn {
			continue
		}
		if cur, ok := ws.Parent().(*scene.Output); ok && cur != o {
			cur.RemoveWorkspace(ws)
			o.AddWorkspace(ws)
		}
	}
	if c.dummyOutput != nil {
		c.retarget(c.dummyOutput)
	}
}

// RemoveOutput drops a disconnected output and implements the
// disconnection half of spec.md §8 "Workspace restoration across
// connector churn": every workspace it hosted moves to its home
// connector if that's still connected elsewhere, otherwise to any
// other connected output, otherwise to the implicit dummy output.
func (c *Coordinator) RemoveOutput(conn backend.ConnectorID) {
	o, ok := c.outputs[conn]
	if !ok {
		return
	}
	delete(c.outputs, conn)
	c.retarget(o)
}

// HomeWorkspace records conn as ws's preferred connector: from then
// on, RemoveOutput/AddOutput always try to return ws to conn first,
// even after connector churn has relocated it onto another output or
// the dummy output (spec.md §8: "reconnecting either returns the
// toplevel to its prior home").
func (c *Coordinator) HomeWorkspace(ws *scene.Workspace, conn backend.ConnectorID) {
	if c.workspaceHome == nil {
		c.workspaceHome = map[*scene.Workspace]backend.ConnectorID{}
	}
	c.workspaceHome[ws] = conn
}

// retarget moves every workspace currently hosted by from onto
// bestOutputFor's choice, used by both AddOutput (draining the dummy
// output) and RemoveOutput (evacuating a disconnecting output).
func (c *Coordinator) retarget(from *scene.Output) {
	for _, ws := range append([]*scene.Workspace(nil), from.Workspaces()...) {
		from.RemoveWorkspace(ws)
		c.bestOutputFor(ws).AddWorkspace(ws)
	}
}

// bestOutputFor picks ws's destination: its recorded home if that
// connector is currently connected, otherwise any other connected
// output, otherwise the dummy output.
func (c *Coordinator) bestOutputFor(ws *scene.Workspace) *scene.Output {
	if home, ok := c.workspaceHome[ws]; ok {
		if o, ok := c.outputs[home]; ok {
			return o
		}
	}
	for _, o := range c.outputs {
		return o
	}
	return c.dummyOutputFallback()
}

// dummyOutputFallback returns the coordinator's implicit placeholder
// output, creating it on first use. It is never added to the
// Coordinator's output table, so Outputs()/Damage() and ordinary
// connector lookups never see it (spec.md §8: "the toplevel's output
// is now the implicit dummy output").
func (c *Coordinator) dummyOutputFallback() *scene.Output {
	if c.dummyOutput == nil {
		c.dummyOutput = scene.NewOutput(0, 0, 0)
	}
	return c.dummyOutput
}

// Output looks up an output by connector id.
func (c *Coordinator) Output(conn backend.ConnectorID) (*scene.Output, bool) {
	o, ok := c.outputs[conn]
	return o, ok
}

// Outputs returns every currently known output, for operations (like
// Damage) that apply across all of them.
func (c *Coordinator) Outputs() map[backend.ConnectorID]*scene.Output { return c.outputs }

// AddSeat registers a seat under the Coordinator's seat table.
func (c *Coordinator) AddSeat(s *seat.Seat) { c.seats[s.ID] = s }

// Seat looks up a seat by id.
func (c *Coordinator) Seat(id seat.ID) (*seat.Seat, bool) {
	s, ok := c.seats[id]
	return s, ok
}

// Seats returns every registered seat.
func (c *Coordinator) Seats() map[seat.ID]*seat.Seat { return c.seats }

// AddDevice registers a DRM device and its KMS handle.
func (c *Coordinator) AddDevice(d *Device) { c.devices[d.ID] = d }

// Device looks up a DRM device by id.
func (c *Coordinator) Device(id DeviceID) (*Device, bool) {
	d, ok := c.devices[id]
	return d, ok
}

// Damage implements spec.md §4.9 damage(rect): marks every output
// fully damaged, used for compositor-driven redraws that don't
// originate from a single surface commit (e.g. cursor theme reload, a
// config-driven workspace switch).
func (c *Coordinator) Damage() {
	for _, o := range c.outputs {
		o.MarkFullDamage()
	}
}

// Lock implements spec.md §4.9 lock(): every output's lock surface
// gating (internal/scene's Output.SetLockSurface) is the per-output
// mechanism; Lock here just flips the coordinator-wide flag other
// subsystems (idle-notify, the session-lock protocol object) consult.
func (c *Coordinator) Lock() { c.locked = true }

// Unlock implements spec.md §4.9 unlock(). It is the caller's
// responsibility to have already cleared every output's lock surface
// via scene.Output.SetLockSurface(nil); Unlock only clears the
// coordinator-wide flag.
func (c *Coordinator) Unlock() { c.locked = false }

// Locked reports the session-lock state.
func (c *Coordinator) Locked() bool { return c.locked }

// ActiveLock returns the currently held session lock, or nil.
func (c *Coordinator) ActiveLock() *proto.SessionLock { return c.activeLock }

// MarkIdle notifies every bound ext_idle_notifier_v1 instance's
// idle-notification objects that the input-idle timeout has elapsed.
func (c *Coordinator) MarkIdle() {
	for _, n := range c.idleNotifiers {
		for _, notif := range n.Notifications() {
			notif.MarkIdle()
		}
	}
}

// MarkResumed notifies every idle-notification object that input
// activity has resumed.
func (c *Coordinator) MarkResumed() {
	for _, n := range c.idleNotifiers {
		for _, notif := range n.Notifications() {
			notif.MarkResumed()
		}
	}
}

// ReloadFunc produces the set of config-driven globals that should
// exist after a reload; the Coordinator diffs this against what it
// currently has and adds/removes the difference (spec.md §4.9
// reload(): "drains config-driven globals and re-creates them").
type ReloadFunc func() []proto.Global

// reloadState tracks which currently-live globals came from the
// last Reload call, so a subsequent Reload knows what to drain without
// touching globals some other subsystem (e.g. wl_compositor itself)
// added directly.
type reloadState struct {
	names map[uint32]bool
}

// Reload implements spec.md §4.9 reload(): removes every global this
// Coordinator previously created via Reload, then re-creates the set
// produced by fn. Globals added outside of Reload are left untouched.
func (c *Coordinator) Reload(fn ReloadFunc) {
	if c.reload.names != nil {
		for name := range c.reload.names {
			c.RemoveGlobal(name)
		}
	}
	fresh := map[uint32]bool{}
	for _, tmpl := range fn() {
		g := c.AddGlobal(tmpl)
		fresh[g.Name] = true
	}
	c.reload.names = fresh
}
