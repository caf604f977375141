package proto

import "jaywl/internal/collections"

// Caps is a bitmask of client capabilities (spec.md §3 Client: "a
// bounding set of capabilities and an effective set").
type Caps uint32

// Global is a singleton advertised to clients on bind (spec.md §3).
type Global struct {
	Name           uint32
	InterfaceName  string
	MaxVersion     uint32
	MinCaps        Caps // a client must possess all of these bits to bind
	SecureOnly     bool // restrict to the primary transport
	Bind           func(client ID, id ID, version uint32) (Object, error)

	removing bool
}

// GlobalState tracks the removal lifecycle of a Global: announced,
// grace period, then deleted (spec.md §3).
type GlobalState uint8

const (
	GlobalLive GlobalState = iota
	GlobalRemoving
	GlobalDeleted
)

// Globals is the compositor-wide table of advertised singletons,
// broadcast to clients via a copy-on-write snapshot so iteration never
// blocks on concurrent bind/remove (internal/collections.COWMap).
type Globals struct {
	byName *collections.COWMap[uint32, *Global]
	nextName uint32

	onAdd    []func(*Global)
	onRemove []func(*Global)
}

// NewGlobals returns an empty Globals table.
func NewGlobals() *Globals {
	return &Globals{byName: collections.NewCOWMap[uint32, *Global]()}
}

// Add registers g under a freshly allocated numeric name and notifies
// subscribers (e.g. every connected client's wl_registry) of the new
// global.
func (g *Globals) Add(tmpl Global) *Global {
	g.nextName++
	tmpl.Name = g.nextName
	stored := tmpl
	global := &stored
	g.byName.Set(global.Name, global)
	for _, fn := range g.onAdd {
		fn(global)
	}
	return global
}

// Remove begins the two-phase removal protocol (spec.md §3, §4.9):
// mark the global as removing (it is still bindable during the grace
// period, matching real compositors' tolerance for in-flight binds),
// notify subscribers of the removal announcement, and leave final
// deletion to DeleteAnnounced once the grace period has elapsed.
func (g *Globals) Remove(name uint32) {
	global, ok := g.byName.Get(name)
	if !ok || global.removing {
		return
	}
	global.removing = true
	for _, fn := range g.onRemove {
		fn(global)
	}
}

// DeleteAnnounced finalizes removal of every global currently in the
// "removing" state, dropping it from the table. The caller decides
// when the grace period is over; nothing in this module calls it on a
// timer.
func (g *Globals) DeleteAnnounced() {
	for _, global := range g.byName.Snapshot() {
		if global.removing {
			g.byName.Delete(global.Name)
		}
	}
}

// Snapshot returns the current set of globals for advertising to a
// newly bound registry. Includes globals in the "removing" state,
// since they remain bindable during the grace period.
func (g *Globals) Snapshot() map[uint32]*Global {
	return g.byName.Snapshot()
}

// OnAdd subscribes fn to be called whenever a new global is added.
func (g *Globals) OnAdd(fn func(*Global)) { g.onAdd = append(g.onAdd, fn) }

// OnRemove subscribes fn to be called when a global begins removal.
func (g *Globals) OnRemove(fn func(*Global)) { g.onRemove = append(g.onRemove, fn) }

// CanBind reports whether a client with the given effective
// capabilities, connecting over the primary transport or not, may
// bind g.
func (g *Global) CanBind(effective Caps, primaryTransport bool) bool {
	if g.SecureOnly && !primaryTransport {
		return false
	}
	return effective&g.MinCaps == g.MinCaps
}
