package surface

import (
	"fmt"

	"jaywl/internal/collections"
	"jaywl/internal/wlog"
)

// ID identifies a surface for the compositor's lifetime (spec.md §3:
// "linear monotonic IDs ... for ... surfaces").
type ID uint64

// OutputDamager receives damage notifications in output-local
// coordinates; implemented by internal/outputloop's per-output state.
type OutputDamager interface {
	MarkDamaged(rect Rect)
}

// Surface is the central entity of spec.md §3.
type Surface struct {
	ID   ID
	log  *wlog.Logger

	Role       Role
	roleObject any // the concrete role object (toplevel, popup, ...), opaque to this package

	Pending *PendingState
	Current CurrentState

	parent        *Surface // subsurface parent, if any; weak in spirit, not enforced by GC here
	subsurfaces   collections.List[*Surface]
	subsurfaceNode collections.Node[*Surface]

	// shadow holds a synchronized subsurface's state between its own
	// commit and the moment its root ancestor commits (spec.md §4.5
	// step 3).
	shadow *PendingState

	queuedCommits []*queuedCommit // keyed conceptually by timer/fence, kept as a slice for simplicity

	// pendingFrameCallbacks holds callbacks from commits already
	// applied to Current, waiting for outputloop to fire them on the
	// next vblank that presents this surface's content (spec.md §4.8).
	pendingFrameCallbacks []*FrameCallback

	outputs map[OutputID]OutputDamager // outputs this surface currently intersects

	destroyed bool
}

// OutputID identifies an output for damage routing purposes.
type OutputID uint64

type queuedCommit struct {
	readyAt int64 // unix nanos; fires when now >= readyAt, 0 = wait-for-fence instead
	fenceFd int   // -1 if none
	state   *PendingState
}

// New creates a surface with empty pending/current state.
func New(id ID) *Surface {
	return &Surface{
		ID:      id,
		log:     wlog.Surface.Sub(fmt.Sprint(id)),
		Pending: newPending(),
		outputs: map[OutputID]OutputDamager{},
	}
}

// SetRole assigns a one-shot role (spec.md §3: "A role is one-shot:
// once set it cannot be changed"). It is a protocol error to call this
// twice with a different role; re-setting the same role after its
// object was destroyed and the surface returned to unassigned is
// permitted by the caller re-creating the Surface's role state first.
func (s *Surface) SetRole(role Role, obj any) error {
	if s.Role != RoleNone && s.Role != role {
		return fmt.Errorf("surface %d: role conflict: already has role %d, cannot assign %d", s.ID, s.Role, role)
	}
	s.Role = role
	s.roleObject = obj
	return nil
}

// ClearRole returns the surface to the unassigned state, which the
// protocol permits only for certain roles (spec.md §3); callers at the
// proto layer are responsible for checking that permission before
// calling this.
func (s *Surface) ClearRole() {
	s.Role = RoleNone
	s.roleObject = nil
}

// RoleObject returns the concrete role object, or nil if unassigned.
func (s *Surface) RoleObject() any { return s.roleObject }

// AddSubsurface links child as a subsurface of s, appended to the end
// of the ordered child list (spec.md §3 invariants).
func (s *Surface) AddSubsurface(child *Surface) {
	child.parent = s
	child.subsurfaceNode.Value = child
	s.subsurfaces.PushBack(&child.subsurfaceNode)
}

// RemoveSubsurface unlinks child.
func (s *Surface) RemoveSubsurface(child *Surface) {
	child.subsurfaceNode.Remove()
	child.parent = nil
}

// PlaceAbove reorders child to be immediately above sibling in s's
// child list. The move takes effect at once; it is not deferred to a
// commit in either synchronized or desynchronized mode.
func (s *Surface) PlaceAbove(child, sibling *Surface) {
	if sibling == nil {
		child.subsurfaceNode.Remove()
		s.subsurfaces.PushFront(&child.subsurfaceNode)
		return
	}
	child.subsurfaceNode.InsertAfter(&sibling.subsurfaceNode)
}

// PlaceBelow reorders child to be immediately below sibling.
func (s *Surface) PlaceBelow(child, sibling *Surface) {
	if sibling == nil {
		child.subsurfaceNode.Remove()
		s.subsurfaces.PushBack(&child.subsurfaceNode)
		return
	}
	child.subsurfaceNode.InsertBefore(&sibling.subsurfaceNode)
}

// Subsurfaces returns the ordered list of direct subsurfaces, bottom to top.
func (s *Surface) Subsurfaces() []*Surface {
	var out []*Surface
	s.subsurfaces.Each(func(n *collections.Node[*Surface]) {
		out = append(out, n.Value)
	})
	return out
}

// Parent returns the subsurface parent, or nil for a root surface.
func (s *Surface) Parent() *Surface { return s.parent }

// Root walks up through subsurface parents to the root surface.
func (s *Surface) Root() *Surface {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Destroy tears down the surface: any buffer referenced by Current is
// unreferenced, subsurfaces are unlinked from their parent, and (per
// spec.md §9 Open Question 1) a synchronized subsurface with an
// uncommitted shadow buffer has that buffer released rather than
// promoted.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.Current.Buffer != nil {
		s.Current.Buffer.Unref()
		s.Current.Buffer = nil
	}
	if s.shadow != nil && s.shadow.Buffer != nil {
		s.shadow.Buffer.Unref()
		s.shadow = nil
	}
	if s.Pending.Buffer != nil && s.Pending.BufferSet {
		s.Pending.Buffer.Unref()
	}
	if s.parent != nil {
		s.parent.RemoveSubsurface(s)
	}
	s.subsurfaces.Each(func(n *collections.Node[*Surface]) {
		n.Value.parent = nil
	})
}
