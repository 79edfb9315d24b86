package param

import (
	"math"
	"sync/atomic"
)

// Store holds the last normalized value of every slot. Each cell is an
// independent atomic; there is no ordering between slots.
type Store struct {
	cells [NumSlots]atomic.Uint64
}

// NewStore returns a store initialized to the normalized slot defaults.
func NewStore() *Store {
	s := &Store{}
	for _, slot := range Slots() {
		s.Store(slot, slot.Uncook(slot.Default()))
	}
	return s
}

// Load returns the normalized value of slot. It panics for an invalid slot.
func (s *Store) Load(slot Slot) float64 {
	slot.mustBeValid()
	return math.Float64frombits(s.cells[slot].Load())
}

// Store sets the normalized value of slot. It panics for an invalid slot.
func (s *Store) Store(slot Slot, normalized float64) {
	slot.mustBeValid()
	s.cells[slot].Store(math.Float64bits(normalized))
}

// Snapshot returns all normalized values. Cells are read one by one, so a
// concurrent writer may be observed for some slots and not others.
func (s *Store) Snapshot() [NumSlots]float64 {
	var out [NumSlots]float64
	for i := range s.cells {
		out[i] = math.Float64frombits(s.cells[i].Load())
	}
	return out
}
