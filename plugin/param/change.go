package param

import "fmt"

// Change is one parameter update in engineering units, produced on the
// control side and applied exactly once by the audio side.
type Change struct {
	Slot  Slot
	Value float64
}

func (c Change) String() string {
	return fmt.Sprintf("%s(%g)", c.Slot, c.Value)
}
