package dynamics

import "math"

// tauScale calibrates TimeConstant so that a step settles to a fixed
// fraction of its target within the nominal time window.
const tauScale = 2200.0

// TimeConstant returns the one-pole smoothing coefficient for a time in
// milliseconds at the given sample rate: 1 - exp(-2200 / (ms * fs)).
// The result is in (0, 1) for positive finite inputs.
func TimeConstant(ms, sampleRate float64) float64 {
	return 1.0 - math.Exp(-tauScale/(ms*sampleRate))
}

// Envelope is an asymmetric one-pole low-pass. The coefficient switches on
// whether the input is above (attack) or at/below (release) the running value.
//
// The zero value starts at 0.
type Envelope struct {
	value float64
}

// NewEnvelope returns an envelope starting at initial.
func NewEnvelope(initial float64) Envelope {
	return Envelope{value: initial}
}

// Process advances the envelope by one sample and returns the new value:
//
//	coef = input > avg ? attack : release
//	avg  = (1 - coef) * avg + coef * input
func (e *Envelope) Process(attack, release, input float64) float64 {
	coef := release
	if input > e.value {
		coef = attack
	}

	e.value = (1.0-coef)*e.value + coef*input

	return e.value
}

// Value returns the current envelope value.
func (e *Envelope) Value() float64 { return e.value }

// Reset sets the envelope to v.
func (e *Envelope) Reset(v float64) { e.value = v }
