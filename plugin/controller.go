package plugin

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/plugin/param"
)

// Controller is the control-side half of the plugin. It is safe for
// concurrent use by several control goroutines.
type Controller struct {
	store   *param.Store
	changes *param.Queue
	log     logrus.FieldLogger
}

// NewController creates a controller that feeds the given queue. A nil
// queue only updates the store. A nil logger selects the logrus standard
// logger.
func NewController(changes *param.Queue, logger logrus.FieldLogger) *Controller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Controller{
		store:   param.NewStore(),
		changes: changes,
		log:     logger,
	}
}

// SetParameter records a new normalized value for slot and forwards the
// cooked value to the audio side. Values are clamped to [0, 1]; non-finite
// values are ignored. The store is written before the change is queued.
//
// A full queue or a consumer that has gone away is not reported to the
// caller: the change is dropped and logged.
func (c *Controller) SetParameter(slot param.Slot, normalized float64) {
	name := slot.Name() // panics for an invalid slot before anything is written

	if !core.IsFinite(normalized) {
		c.log.WithFields(logrus.Fields{
			"param": name,
			"value": normalized,
		}).Warn("ignoring non-finite parameter value")
		return
	}

	normalized = core.Clamp(normalized, 0, 1)
	value := slot.Cook(normalized)

	c.store.Store(slot, normalized)

	fields := logrus.Fields{
		"param":      name,
		"normalized": normalized,
		"value":      value,
	}

	if c.changes == nil {
		c.log.WithFields(fields).Debug("parameter stored, no audio side attached")
		return
	}

	err := c.changes.Send(param.Change{Slot: slot, Value: value})
	switch {
	case err == nil:
		c.log.WithFields(fields).Debug("parameter changed")
	case errors.Is(err, param.ErrQueueClosed):
		c.log.WithFields(fields).Debug("audio side gone, change abandoned")
	default:
		c.log.WithFields(fields).WithError(err).Warn("parameter change dropped")
	}
}

// SetParameterText parses an engineering value such as "-12 dB" and sets it.
func (c *Controller) SetParameterText(slot param.Slot, text string) error {
	normalized, err := slot.ParseText(text)
	if err != nil {
		return err
	}

	c.SetParameter(slot, normalized)

	return nil
}

// Parameter returns the last normalized value set for slot.
func (c *Controller) Parameter(slot param.Slot) float64 {
	return c.store.Load(slot)
}

// ParameterValue returns the last value set for slot in engineering units.
func (c *Controller) ParameterValue(slot param.Slot) float64 {
	return slot.Cook(c.store.Load(slot))
}

// ParameterText returns the formatted engineering value of slot.
func (c *Controller) ParameterText(slot param.Slot) string {
	return slot.Text(c.store.Load(slot))
}

// ParameterName returns the display name of slot.
func (c *Controller) ParameterName(slot param.Slot) string { return slot.Name() }

// ParameterLabel returns the unit label of slot.
func (c *Controller) ParameterLabel(slot param.Slot) string { return slot.Label() }

// CanBeAutomated reports whether the host may automate slot. All slots can.
func (c *Controller) CanBeAutomated(slot param.Slot) bool {
	return slot.Valid()
}

// Snapshot returns the normalized value of every slot.
func (c *Controller) Snapshot() [param.NumSlots]float64 {
	return c.store.Snapshot()
}
