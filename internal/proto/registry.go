package proto

import "fmt"

// Registry is the per-client table of live protocol objects, keyed by
// id, with destruction run in reverse-id order by default (spec.md
// §4.4).
type Registry struct {
	objects map[ID]Object
	// insertion order is not what matters for teardown; reverse *id*
	// order is, so TeardownAll collects and sorts the ids when it runs
	// instead of maintaining a sort incrementally for every add/remove.
	symmetricDelete bool
	onRemoved       map[ID][]func(Object)
}

// NewRegistry returns an empty Registry. symmetricDelete enables the
// opt-in behavior of spec.md §4.4: additionally notifying peer objects
// that co-reference a destroyed one.
func NewRegistry(symmetricDelete bool) *Registry {
	return &Registry{
		objects:         map[ID]Object{},
		symmetricDelete: symmetricDelete,
		onRemoved:       map[ID][]func(Object){},
	}
}

// AddClientObj registers obj under an id in the client-assignable
// range. It rejects out-of-range ids and duplicates.
func (r *Registry) AddClientObj(obj Object) error {
	id := obj.ID()
	if !id.InClientRange() {
		return &ProtocolError{Object: id, Code: ErrorInvalidObject, Msg: "id not in client range"}
	}
	if _, exists := r.objects[id]; exists {
		return &ProtocolError{Object: id, Code: ErrorInvalidObject, Msg: "duplicate object id"}
	}
	r.objects[id] = obj
	return nil
}

// AddServerObj registers a compositor-assigned object in the server
// range.
func (r *Registry) AddServerObj(obj Object) error {
	id := obj.ID()
	if !id.InServerRange() {
		return &ProtocolError{Object: id, Code: ErrorInvalidObject, Msg: "id not in server range"}
	}
	if _, exists := r.objects[id]; exists {
		return &ProtocolError{Object: id, Code: ErrorInvalidObject, Msg: "duplicate object id"}
	}
	r.objects[id] = obj
	return nil
}

// Lookup returns the object for id, or a protocol error if none exists.
func (r *Registry) Lookup(id ID) (Object, error) {
	obj, ok := r.objects[id]
	if !ok {
		return nil, &ProtocolError{Object: id, Code: ErrorInvalidObject, Msg: fmt.Sprintf("no such object %d", id)}
	}
	return obj, nil
}

// OnRemove registers fn to be called (with the object being removed)
// when target is removed from the registry. Used to implement
// symmetric-delete notification for co-referencing peer objects
// (spec.md §4.4).
func (r *Registry) OnRemove(target ID, fn func(Object)) {
	r.onRemoved[target] = append(r.onRemoved[target], fn)
}

// Remove runs obj's destructor and detaches it. If symmetric delete is
// enabled, registered peer callbacks are invoked first.
func (r *Registry) Remove(id ID) error {
	obj, ok := r.objects[id]
	if !ok {
		return &ProtocolError{Object: id, Code: ErrorInvalidObject, Msg: "destroy of non-existent object"}
	}
	if r.symmetricDelete {
		for _, fn := range r.onRemoved[id] {
			fn(obj)
		}
	}
	delete(r.onRemoved, id)
	obj.BreakLoops()
	obj.Destructor()
	delete(r.objects, id)
	return nil
}

// Dispatch looks up id, validates opcode range against the
// implementation (left to Object.Dispatch itself, which knows its own
// opcode table size), and invokes the handler.
func (r *Registry) Dispatch(id ID, opcode uint16, args RequestArgs) error {
	obj, err := r.Lookup(id)
	if err != nil {
		return err
	}
	return obj.Dispatch(opcode, args)
}

// Len returns the number of live objects.
func (r *Registry) Len() int { return len(r.objects) }

// TeardownAll destroys every live object in reverse-id order: for each
// object, BreakLoops runs before any Destructor, guaranteeing
// reclamation completes even in the presence of object-to-object
// reference cycles (Design Notes §9, spec.md §8 property 1).
//
// The two-pass shape (all BreakLoops, then all Destructors) is what
// makes this safe: a half-destroyed object's BreakLoops must never
// observe another object that has already run its Destructor.
func (r *Registry) TeardownAll() {
	ids := make([]ID, 0, len(r.objects))
	for id := range r.objects {
		ids = append(ids, id)
	}
	sortIDsDescending(ids)

	for _, id := range ids {
		if obj, ok := r.objects[id]; ok {
			obj.BreakLoops()
		}
	}
	for _, id := range ids {
		if obj, ok := r.objects[id]; ok {
			obj.Destructor()
			delete(r.objects, id)
		}
	}
	r.onRemoved = map[ID][]func(Object){}
}

func sortIDsDescending(ids []ID) {
	// insertion sort: registries are small (hundreds of objects at
	// most per client), and this runs once per client teardown.
	for i := 1; i < len(ids); i++ {
		v := ids[i]
		j := i - 1
		for j >= 0 && ids[j] < v {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = v
	}
}
