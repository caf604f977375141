// Package proto implements the Object Registry and Global machinery of
// spec.md §4.4 and §3: per-client protocol-object tables, versioned
// interface dispatch, reserved id ranges, and destructor/break_loops
// ordering.
//
// Design Notes §9 prescribes a single Object interface with a
// generated per-opcode dispatch table, replacing the source's
// trait-based polymorphism; this mirrors the teacher's own dispatcher,
// which resolves a wire opcode to a Go method, but swaps reflection
// (needed there to bridge a C callback signature) for a plain
// map[uint16]func table built once per concrete type, matching how
// gogpu-gogpu/internal/platform/x11/events.go maps request codes with
// an ordinary switch rather than reflection.
package proto

import "fmt"

// ID is a 32-bit protocol object id. Per spec.md §3, ids are
// partitioned into a client-assignable low range and a
// server-assignable high range.
type ID uint32

// ServerIDBase is the first id in the server-assignable range
// [2^31, 2^32) (spec.md §3).
const ServerIDBase ID = 1 << 31

// InClientRange reports whether id falls in [1, 2^31).
func (id ID) InClientRange() bool { return id >= 1 && id < ServerIDBase }

// InServerRange reports whether id falls in [2^31, 2^32).
func (id ID) InServerRange() bool { return id >= ServerIDBase }

// RequestArgs is the decoded argument bundle handed to a request
// handler. Concrete per-opcode argument structs implement this purely
// as a marker; payload decoding happens before dispatch, and each
// dispatch table entry only type-asserts the struct it expects.
type RequestArgs interface{}

// HandlerFunc dispatches one parsed request to its typed handler and
// reports a protocol error, if any.
type HandlerFunc func(args RequestArgs) error

// Object is the single polymorphic interface every protocol object
// implements (Design Notes §9): a concrete type's own id/interface
// name, a versioned request dispatch table, a destructor that detaches
// it from its owning Client, and a break_loops hook run before the
// destructor on client teardown to sever any reference cycle the
// object participates in (closures that capture other objects).
type Object interface {
	ID() ID
	InterfaceName() string
	Version() uint32
	// Dispatch invokes the handler for opcode with pre-decoded args.
	// It returns a protocol error (see errors.go) for unknown opcodes
	// or argument mismatches; the caller (Client) turns that into a
	// display.error event and connection teardown.
	Dispatch(opcode uint16, args RequestArgs) error
	// Destructor runs once, when the object is removed from its
	// client's registry (explicit destroy request or client teardown).
	Destructor()
	// BreakLoops is called once, before Destructor, to drop any
	// strong reference this object holds that would otherwise form a
	// cycle (e.g. an event listener closure capturing another object).
	// It must be idempotent and must not itself call Destructor.
	BreakLoops()
}

// Kind distinguishes "dedicated" objects, whose canonical reference is
// held by the client that created them, from "simple" objects, whose
// canonical reference is held by the compositor (spec.md §3).
type Kind uint8

const (
	KindDedicated Kind = iota
	KindSimple
)

// ProtocolError is returned by a dispatch handler (or by the registry
// itself) to signal a client-visible fault; the Client layer turns
// this into a terminal display.error event citing Object (spec.md §7).
type ProtocolError struct {
	Object ID
	Code   uint32
	Msg    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on object %d (code %d): %s", e.Object, e.Code, e.Msg)
}

// Well-known display error codes, matching wl_display.error's
// conventional first few values.
const (
	ErrorInvalidObject = 0
	ErrorInvalidMethod = 1
	ErrorNoMemory       = 2
	ErrorImplementation = 3
)
