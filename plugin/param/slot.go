package param

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownParameter is returned when a parameter name does not match any slot.
var ErrUnknownParameter = errors.New("param: unknown parameter")

// Slot identifies one of the compressor parameters.
type Slot int

const (
	Threshold Slot = iota
	Ratio
	Attack
	Release
	Makeup

	// NumSlots is the number of parameter slots.
	NumSlots = 5
)

// mapping is the affine cook law: value = offset + scale*normalized.
type mapping struct {
	name   string
	label  string
	offset float64
	scale  float64
	def    float64
}

var mappings = [NumSlots]mapping{
	Threshold: {name: "Threshold", label: "dB", offset: -96, scale: 108, def: 0},
	Ratio:     {name: "Ratio", label: "", offset: 1, scale: 9, def: 2},
	Attack:    {name: "Attack", label: "ms", offset: 0.1, scale: 1000.1, def: 25},
	Release:   {name: "Release", label: "ms", offset: 0.1, scale: 1000.1, def: 50},
	Makeup:    {name: "Makeup", label: "dB", offset: 0, scale: 40, def: 0},
}

// Slots returns all slots in index order.
func Slots() [NumSlots]Slot {
	return [NumSlots]Slot{Threshold, Ratio, Attack, Release, Makeup}
}

// Valid reports whether s names a parameter.
func (s Slot) Valid() bool {
	return s >= 0 && s < NumSlots
}

// mustBeValid panics for an out-of-range slot; callers passing one have a bug.
func (s Slot) mustBeValid() {
	if !s.Valid() {
		panic(fmt.Sprintf("param: slot %d out of range", int(s)))
	}
}

func (s Slot) mapping() *mapping {
	s.mustBeValid()
	return &mappings[s]
}

// String returns the display name, e.g. "Threshold".
func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return mappings[s].name
}

// Name returns the display name. It panics for an invalid slot.
func (s Slot) Name() string { return s.mapping().name }

// Label returns the unit label ("dB", "ms" or "").
func (s Slot) Label() string { return s.mapping().label }

// Default returns the default value in engineering units.
func (s Slot) Default() float64 { return s.mapping().def }

// Min returns the engineering value at normalized 0.
func (s Slot) Min() float64 { return s.mapping().offset }

// Max returns the engineering value at normalized 1.
func (s Slot) Max() float64 {
	m := s.mapping()
	return m.offset + m.scale
}

// Cook maps a normalized value to engineering units.
//
//	Threshold  -96 + 108*v   dB
//	Ratio        1 +   9*v
//	Attack     0.1 + 1000.1*v ms
//	Release    0.1 + 1000.1*v ms
//	Makeup            40*v   dB
func (s Slot) Cook(normalized float64) float64 {
	m := s.mapping()
	return m.offset + m.scale*normalized
}

// Uncook is the exact inverse of Cook.
func (s Slot) Uncook(value float64) float64 {
	m := s.mapping()
	return (value - m.offset) / m.scale
}

// Text formats a normalized value in engineering units.
func (s Slot) Text(normalized float64) string {
	return strconv.FormatFloat(s.Cook(normalized), 'f', 2, 64)
}

// ParseText parses an engineering value, optionally followed by the slot's
// label ("-12", "-12 dB", "25ms"), and returns it normalized. The result is
// not clamped.
func (s Slot) ParseText(text string) (float64, error) {
	m := s.mapping()

	str := strings.TrimSpace(text)
	if m.label != "" && len(str) >= len(m.label) &&
		strings.EqualFold(str[len(str)-len(m.label):], m.label) {
		str = strings.TrimSpace(str[:len(str)-len(m.label)])
	}

	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("param: parse %s %q: %w", m.name, text, err)
	}

	return s.Uncook(value), nil
}

// SlotByName finds a slot by its case-insensitive name.
func SlotByName(name string) (Slot, error) {
	for i := range mappings {
		if strings.EqualFold(mappings[i].name, strings.TrimSpace(name)) {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}
