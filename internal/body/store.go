package body

// Handle is a stable reference to a body in a Store. A handle keeps
// resolving to the same logical body across removals of other bodies and
// stops resolving once its own body is removed.
type Handle struct {
	slot uint32
	gen  uint32
}

// Nil is the zero handle. It never resolves.
var Nil Handle

func (h Handle) IsNil() bool { return h.gen == 0 }

type slot struct {
	body Body
	gen  uint32
	live bool
}

// Store is an ordered collection of bodies backed by a slot arena.
// Index addressing follows insertion order and is only valid between
// mutations; handles survive them.
//
// Store is not safe for concurrent use.
type Store struct {
	slots []slot
	free  []uint32
	order []uint32
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Len() int { return len(s.order) }

// Append adds b at the end and returns its handle and index.
func (s *Store) Append(b Body) (Handle, int) {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}

	sl := &s.slots[idx]
	sl.gen++
	if sl.gen == 0 {
		sl.gen = 1
	}
	sl.body = b
	sl.live = true

	s.order = append(s.order, idx)
	return Handle{slot: idx, gen: sl.gen}, len(s.order) - 1
}

// Remove deletes the body at index i. Bodies after i shift down by one.
func (s *Store) Remove(i int) error {
	if i < 0 || i >= len(s.order) {
		return &IndexError{Index: i, Len: len(s.order)}
	}
	s.release(s.order[i])
	s.order = append(s.order[:i], s.order[i+1:]...)
	return nil
}

// RemoveHandle deletes the body referenced by h and reports whether it was live.
func (s *Store) RemoveHandle(h Handle) bool {
	i, ok := s.IndexOf(h)
	if !ok {
		return false
	}
	return s.Remove(i) == nil
}

func (s *Store) Clear() {
	for _, idx := range s.order {
		s.release(idx)
	}
	s.order = s.order[:0]
}

func (s *Store) release(idx uint32) {
	sl := &s.slots[idx]
	sl.live = false
	sl.body = Body{}
	// bump so outstanding handles stop resolving even before the slot is reused
	sl.gen++
	if sl.gen == 0 {
		sl.gen = 1
	}
	s.free = append(s.free, idx)
}

// At returns a copy of the body at index i.
func (s *Store) At(i int) (Body, error) {
	if i < 0 || i >= len(s.order) {
		return Body{}, &IndexError{Index: i, Len: len(s.order)}
	}
	return s.slots[s.order[i]].body, nil
}

// Ref returns a pointer to the body at index i. The pointer is invalidated
// by the next Append.
func (s *Store) Ref(i int) *Body {
	return &s.slots[s.order[i]].body
}

func (s *Store) HandleAt(i int) (Handle, bool) {
	if i < 0 || i >= len(s.order) {
		return Nil, false
	}
	idx := s.order[i]
	return Handle{slot: idx, gen: s.slots[idx].gen}, true
}

// IndexOf returns the current index of the body referenced by h.
func (s *Store) IndexOf(h Handle) (int, bool) {
	if !s.valid(h) {
		return -1, false
	}
	for i, idx := range s.order {
		if idx == h.slot {
			return i, true
		}
	}
	return -1, false
}

// Resolve returns the body referenced by h, or false if it no longer exists.
func (s *Store) Resolve(h Handle) (*Body, bool) {
	if !s.valid(h) {
		return nil, false
	}
	return &s.slots[h.slot].body, true
}

func (s *Store) valid(h Handle) bool {
	if h.IsNil() || int(h.slot) >= len(s.slots) {
		return false
	}
	sl := &s.slots[h.slot]
	return sl.live && sl.gen == h.gen
}

// Each calls fn for every body in index order.
func (s *Store) Each(fn func(i int, b *Body)) {
	for i, idx := range s.order {
		fn(i, &s.slots[idx].body)
	}
}

// Snapshot returns copies of all bodies in index order.
func (s *Store) Snapshot() []Body {
	out := make([]Body, len(s.order))
	for i, idx := range s.order {
		out[i] = s.slots[idx].body
	}
	return out
}
