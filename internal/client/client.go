// Package client implements the per-connection Client of spec.md §3/§4:
// owner of a transport, an object registry, capability sets, the
// serial machinery, and a bounded list of activation tokens.
//
// Grounded on the teacher's Display struct, which bundles exactly this
// kind of per-connection state (proxies map, methods cache, reused
// scratch slices) — generalized from "the one connection this process
// has" to "one of N connections the server accepted."
package client

import (
	"fmt"

	"jaywl/internal/collections"
	"jaywl/internal/proto"
	"jaywl/internal/transport"
	"jaywl/internal/wlog"
)

// ID identifies a client for the lifetime of its connection.
type ID uint64

// SerialRetention bounds how many client-supplied input serials are
// kept in the serial map (spec.md §9 Open Question: "specify a bound
// or document indefinite retention" — we specify 1024, the figure the
// spec itself suggests).
const SerialRetention = 1024

// Client owns everything scoped to one Wayland connection.
type Client struct {
	ID   ID
	Conn *transport.Conn

	Registry *proto.Registry

	boundingCaps  proto.Caps
	effectiveCaps proto.Caps

	objIDs collections.BitmapAllocator // client-assignable id reuse, low range

	serial uint32
	// serialMap maps a server-emitted serial to whatever gated-request
	// context it authorizes (move/resize/grab), in a fixed-size ring
	// so only the most recent SerialRetention serials are queryable
	// (spec.md §5, §9 Open Question 3).
	serialRing [SerialRetention]serialEntry
	serialNext int

	activationTokens []string // bounded list (spec.md §3)
	maxTokens        int

	primaryTransport bool

	log *wlog.Logger
}

type serialEntry struct {
	serial uint32
	valid  bool
	ctx    any
}

// New wires up a Client around an already-accepted transport.Conn.
func New(id ID, conn *transport.Conn, boundingCaps proto.Caps, primaryTransport bool) *Client {
	return &Client{
		ID:               id,
		Conn:             conn,
		Registry:         proto.NewRegistry(false),
		boundingCaps:     boundingCaps,
		effectiveCaps:    boundingCaps,
		maxTokens:        16,
		primaryTransport: primaryTransport,
		log:              wlog.Client.Sub(fmt.Sprint(id)),
	}
}

// BoundingCaps returns the client's maximum possible capability set.
func (c *Client) BoundingCaps() proto.Caps { return c.boundingCaps }

// EffectiveCaps returns the client's currently granted capability set,
// a subset of BoundingCaps.
func (c *Client) EffectiveCaps() proto.Caps { return c.effectiveCaps }

// Restrict narrows the effective capability set; it can never grow
// effective beyond bounding.
func (c *Client) Restrict(caps proto.Caps) {
	c.effectiveCaps = caps & c.boundingCaps
}

// PrimaryTransport reports whether this client connected over the
// main (non-security-context-restricted) socket; used to gate
// SecureOnly globals (spec.md §3, §6).
func (c *Client) PrimaryTransport() bool { return c.primaryTransport }

// NextClientID allocates a fresh id in the client-assignable range for
// a new client-created object.
func (c *Client) NextClientID() proto.ID {
	return proto.ID(c.objIDs.Alloc() + 1)
}

// ReleaseClientID returns a client-range id to the pool after its
// object is destroyed.
func (c *Client) ReleaseClientID(id proto.ID) {
	if id >= 1 {
		c.objIDs.Free(uint32(id) - 1)
	}
}

// NextSerial allocates a fresh, strictly increasing serial (spec.md §5,
// §8 property 5) and records ctx for later lookup via the serial map,
// authorizing gated requests such as move/resize that must quote a
// recent input serial.
func (c *Client) NextSerial(ctx any) uint32 {
	c.serial++
	s := c.serial
	c.serialRing[c.serialNext] = serialEntry{serial: s, valid: true, ctx: ctx}
	c.serialNext = (c.serialNext + 1) % SerialRetention
	return s
}

// LookupSerial returns the context associated with serial if it is
// still within the retention window, by scanning the ring for an
// exact match. The ring holds only the most recent SerialRetention
// serials, so an entry from before a counter wraparound (spec.md §5)
// has long been overwritten by the time the same value comes round.
func (c *Client) LookupSerial(serial uint32) (any, bool) {
	for _, e := range c.serialRing {
		if e.valid && e.serial == serial {
			return e.ctx, true
		}
	}
	return nil, false
}

// SerialBefore reports whether a precedes b using modular-difference
// semantics, correct across the 32-bit wraparound spec.md §5 calls out
// as "impossible in practice but must be handled."
func SerialBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// AddActivationToken records a freshly issued activation token,
// evicting the oldest if the bounded list is full.
func (c *Client) AddActivationToken(token string) {
	if len(c.activationTokens) >= c.maxTokens {
		c.activationTokens = c.activationTokens[1:]
	}
	c.activationTokens = append(c.activationTokens, token)
}

// ConsumeActivationToken removes and reports whether token was
// outstanding for this client.
func (c *Client) ConsumeActivationToken(token string) bool {
	for i, t := range c.activationTokens {
		if t == token {
			c.activationTokens = append(c.activationTokens[:i], c.activationTokens[i+1:]...)
			return true
		}
	}
	return false
}

// Disconnect tears the client down per spec.md §8 property 1: every
// live object's BreakLoops runs, then every Destructor, then the
// transport is closed. After Disconnect returns, the client holds no
// references into the rest of the compositor.
func (c *Client) Disconnect() {
	c.Registry.TeardownAll()
	if c.Conn != nil {
		c.Conn.Close()
	}
}
