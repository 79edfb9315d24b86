package remote

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-comp/plugin"
	"github.com/cwbudde/algo-comp/plugin/param"
)

var (
	// ErrNoTarget is returned for a command that names neither a slot nor a
	// parameter name.
	ErrNoTarget = errors.New("remote: command names no parameter")
	// ErrNoValue is returned for a command that carries neither a value nor
	// a text.
	ErrNoValue = errors.New("remote: command carries no value")
)

// gainReductionFloorDB bounds the reported meter so it always encodes as
// JSON.
const gainReductionFloorDB = -200

// Command is a parameter change sent by a client. Either Slot or Name
// selects the parameter; Value sets it normalized, Text in engineering units.
type Command struct {
	Slot  *int     `json:"slot,omitempty"`
	Name  string   `json:"name,omitempty"`
	Value *float64 `json:"value,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// ParamState describes one parameter in a snapshot.
type ParamState struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Label string  `json:"label"`
}

// Snapshot is the full state pushed to clients.
type Snapshot struct {
	Params          []ParamState `json:"params"`
	GainReductionDB float64      `json:"gainReductionDB"`
}

// ErrorMessage reports a rejected command.
type ErrorMessage struct {
	Error string `json:"error"`
}

func (c Command) target() (param.Slot, error) {
	switch {
	case c.Slot != nil:
		slot := param.Slot(*c.Slot)
		if !slot.Valid() {
			return 0, fmt.Errorf("%w: slot %d", param.ErrUnknownParameter, *c.Slot)
		}
		return slot, nil
	case c.Name != "":
		return param.SlotByName(c.Name)
	default:
		return 0, ErrNoTarget
	}
}

// apply forwards the command to the controller.
func (c Command) apply(ctrl *plugin.Controller) error {
	slot, err := c.target()
	if err != nil {
		return err
	}

	switch {
	case c.Value != nil:
		ctrl.SetParameter(slot, *c.Value)
		return nil
	case c.Text != "":
		return ctrl.SetParameterText(slot, c.Text)
	default:
		return fmt.Errorf("%w: %s", ErrNoValue, slot)
	}
}

func snapshot(ctrl *plugin.Controller, meter Meter) Snapshot {
	values := ctrl.Snapshot()

	snap := Snapshot{Params: make([]ParamState, 0, len(values))}
	for _, slot := range param.Slots() {
		snap.Params = append(snap.Params, ParamState{
			Name:  slot.Name(),
			Value: values[slot],
			Text:  slot.Text(values[slot]),
			Label: slot.Label(),
		})
	}

	if meter != nil {
		gr := meter.GainReductionDB()
		if gr < gainReductionFloorDB || math.IsNaN(gr) {
			gr = gainReductionFloorDB
		}
		snap.GainReductionDB = gr
	}

	return snap
}
