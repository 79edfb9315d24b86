package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Burst generates a sine that is loud between start and end and quiet
// elsewhere, the usual stimulus for attack/release checks.
func Burst(freqHz, sampleRate, quiet, loud float64, start, end, length int) []float64 {
	out := DeterministicSine(freqHz, sampleRate, 1, length)
	for i := range out {
		if i >= start && i < end {
			out[i] *= loud
		} else {
			out[i] *= quiet
		}
	}
	return out
}
