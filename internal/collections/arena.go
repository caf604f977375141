package collections

// Arena is a slot table with stable indices (Ref) that survive
// insertion and removal of unrelated entries. It plays the role the
// teacher's proxy map (keyed by a stable *C.struct_wl_proxy identity)
// plays for cgo objects, without requiring pointer stability.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32 // free-list of slot indices, LIFO reuse
}

type slot[T any] struct {
	value    T
	occupied bool
	gen      uint32
}

// Ref is a stable, generation-checked reference into an Arena.
type Ref struct {
	idx uint32
	gen uint32
}

// Valid reports whether r could plausibly refer to a live entry (it
// does not by itself prove liveness in the current arena generation;
// use Arena.Get's ok return for that).
func (r Ref) Valid() bool { return r.gen != 0 }

// Insert stores v and returns a stable reference to it.
func (a *Arena[T]) Insert(v T) Ref {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.occupied = true
		return Ref{idx: idx, gen: s.gen}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot[T]{value: v, occupied: true, gen: 1})
	return Ref{idx: idx, gen: 1}
}

// Get returns the value for r and whether it is still live.
func (a *Arena[T]) Get(r Ref) (T, bool) {
	var zero T
	if int(r.idx) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[r.idx]
	if !s.occupied || s.gen != r.gen {
		return zero, false
	}
	return s.value, true
}

// Set overwrites the value for r if it is still live.
func (a *Arena[T]) Set(r Ref, v T) bool {
	if int(r.idx) >= len(a.slots) {
		return false
	}
	s := &a.slots[r.idx]
	if !s.occupied || s.gen != r.gen {
		return false
	}
	s.value = v
	return true
}

// Remove frees r's slot for reuse, bumping its generation so stale
// Refs reliably miss.
func (a *Arena[T]) Remove(r Ref) bool {
	if int(r.idx) >= len(a.slots) {
		return false
	}
	s := &a.slots[r.idx]
	if !s.occupied || s.gen != r.gen {
		return false
	}
	var zero T
	s.value = zero
	s.occupied = false
	s.gen++
	a.free = append(a.free, r.idx)
	return true
}

// Len returns the number of live entries.
func (a *Arena[T]) Len() int {
	n := len(a.slots) - len(a.free)
	if n < 0 {
		return 0
	}
	return n
}
