// Package backend declares the narrow contracts spec.md §6 states for
// the compositor's external collaborators: DRM/KMS mode-setting and
// page-flipping, the input device stream, and the render-node/format
// surface the GPU backend exposes. spec.md §1 explicitly scopes the
// concrete GPU backend, the DRM ioctl layer, and libinput integration
// out of core; this package holds only the interfaces the core calls
// through, never an implementation.
//
// Grounded on the teacher's own posture toward libwayland itself: the
// generated C interface globals (CompositorInterface, ShmInterface,
// ...) in wayland.go are opaque handles to a library the teacher never
// reimplements. The same "narrow interface, don't reimplement the
// other side" idiom grounds every interface below.
package backend

import "time"

// ConnectorID identifies a physical display connector (spec.md §3:
// "linear monotonic IDs for ... connectors").
type ConnectorID uint64

// Mode is one timing mode a connector can be driven at.
type Mode struct {
	Width, Height int32
	RefreshMHz    int32 // refresh rate in millihertz, avoiding float drift
}

// ConnectorEvent is one item in the stream a KMS backend delivers
// (spec.md §6: "receive connect/disconnect/mode-change events").
type ConnectorEvent struct {
	Connector ConnectorID
	Kind      ConnectorEventKind
	Mode      Mode // valid for Connect and ModeChange
}

type ConnectorEventKind uint8

const (
	ConnectorConnect ConnectorEventKind = iota
	ConnectorDisconnect
	ConnectorModeChange
)

// PlaneAssignment describes one overlay or primary plane in an atomic
// commit: which buffer (opaque fb handle to the backend) goes where.
type PlaneAssignment struct {
	FBHandle  uint32
	X, Y      int32
	W, H      int32
	ZPos      int32
}

// CommitRequest is what the output loop hands the KMS backend for one
// atomic page flip (spec.md §4.8).
type CommitRequest struct {
	Connector ConnectorID
	Planes    []PlaneAssignment
	Tearing   bool // request an immediate/async flip rather than vsynced
}

// KMS is the contract spec.md §6 states for the DRM/KMS backend:
// enumerate connectors, submit atomic commits, and report vblank.
type KMS interface {
	// Connectors returns the currently known connector set.
	Connectors() []ConnectorID
	// Events returns a channel of connector hotplug/mode-change
	// notifications; closed when the backend is torn down.
	Events() <-chan ConnectorEvent
	// Commit submits an atomic commit; the returned channel yields
	// exactly one CommitResult once the kernel acknowledges the flip
	// (AwaitingFlip -> AwaitingVblank in spec.md §4.8) or reports an
	// error.
	Commit(req CommitRequest) <-chan CommitResult
	// RenderNodeFD returns the render-node fd for GPU buffer import
	// (spec.md §6: "expose a render-node fd ... per device").
	RenderNodeFD(connector ConnectorID) int
	// Formats returns the supported format/modifier pairs for a
	// connector's primary plane, used to populate the dma-buf feedback
	// object (spec.md §6).
	Formats(connector ConnectorID) []FormatModifier
}

// FormatModifier is one supported (format, modifier) pair.
type FormatModifier struct {
	Format   uint32
	Modifier uint64
}

// CommitResult reports the outcome of one atomic commit submission.
type CommitResult struct {
	VblankTime time.Time // zero if Err != nil
	Err        error     // EBUSY-class transient errors distinguished via IsTransient
}

// IsTransient reports whether err represents a recoverable backend
// transient error (spec.md §7: "a DRM flip returned EBUSY") as opposed
// to a fatal one (device removed).
func IsTransient(err error) bool {
	te, ok := err.(interface{ Transient() bool })
	return ok && te.Transient()
}

// DeviceID identifies an input device (spec.md §3).
type DeviceID uint64

// InputEventKind distinguishes the per-device event shapes spec.md §6
// names (key, pointer motion, button, scroll, touch, switch, tablet).
type InputEventKind uint8

const (
	EventDeviceAdded InputEventKind = iota
	EventDeviceRemoved
	EventKey
	EventPointerMotion
	EventPointerMotionAbsolute
	EventButton
	EventScroll
	EventTouchDown
	EventTouchMotion
	EventTouchUp
	EventSwitchToggled
	EventTabletTool
)

// InputEvent is one item in the backend's device event stream
// (spec.md §6). Only the fields relevant to Kind are populated; the
// compositor does not require the backend to debounce or normalize
// beyond what evdev/libinput already provides.
type InputEvent struct {
	Device DeviceID
	Kind   InputEventKind
	Time   time.Time

	Code  uint32 // key code / button code
	State uint32 // 0 = released, 1 = pressed

	DX, DY     float64 // relative motion
	X, Y       float64 // absolute position, normalized [0,1] against device bounds
	TouchID    int32

	AxisSource   uint32
	AxisDiscrete int32
	AxisValue    float64

	SwitchState uint32
}

// Input is the contract spec.md §6 states for the input backend.
type Input interface {
	// Events returns the device event stream; closed on fatal backend
	// failure.
	Events() <-chan InputEvent
	// CalibrationMatrix returns the device's 3x2 affine calibration
	// (spec.md §4.7 step 1), identity if the device has none.
	CalibrationMatrix(dev DeviceID) [6]float64
}
