// Package window generates the cosine-sum analysis windows used by the
// spectrum measurements.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function. The zero value is Hann.
type Type int

const (
	TypeHann Type = iota
	TypeRectangular
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeFlatTop
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name string
	// FirstMinimumBins is the distance from the main-lobe peak to its first
	// zero, in FFT bins.
	FirstMinimumBins int
	// CoherentGain is the mean coefficient value.
	CoherentGain float64
}

type definition struct {
	meta   Metadata
	coeffs []float64
}

var definitions = map[Type]definition{
	TypeRectangular: {
		meta:   Metadata{Name: "Rectangular", FirstMinimumBins: 1, CoherentGain: 1},
		coeffs: []float64{1},
	},
	TypeHann: {
		meta:   Metadata{Name: "Hann", FirstMinimumBins: 2, CoherentGain: 0.5},
		coeffs: []float64{0.5, -0.5},
	},
	TypeHamming: {
		meta:   Metadata{Name: "Hamming", FirstMinimumBins: 2, CoherentGain: 0.54},
		coeffs: []float64{0.54, -0.46},
	},
	TypeBlackman: {
		meta:   Metadata{Name: "Blackman", FirstMinimumBins: 3, CoherentGain: 0.42},
		coeffs: []float64{0.42, -0.5, 0.08},
	},
	TypeBlackmanHarris4Term: {
		meta:   Metadata{Name: "Blackman-Harris", FirstMinimumBins: 4, CoherentGain: 0.35875},
		coeffs: []float64{0.35875, -0.48829, 0.14128, -0.01168},
	},
	TypeFlatTop: {
		meta:   Metadata{Name: "Flat top", FirstMinimumBins: 5, CoherentGain: 0.21557895},
		coeffs: []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368},
	},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form (FFT framing) instead of the
// symmetric one.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length. Unknown types
// yield a rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	def, ok := definitions[t]
	if !ok {
		def = definitions[TypeRectangular]
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = cosineSum(samplePosition(i, length, cfg.periodic), def.coeffs)
	}

	return out
}

// Apply multiplies buf in place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	vecmath.MulBlockInPlace(buf, Generate(t, len(buf), opts...))
}

// Info returns static metadata for a window type, or the zero Metadata for
// an unknown type.
func Info(t Type) Metadata {
	return definitions[t].meta
}

// String returns the window name.
func (t Type) String() string {
	if def, ok := definitions[t]; ok {
		return def.meta.Name
	}
	return "Unknown"
}

// EquivalentNoiseBandwidth returns the ENBW of coeffs in bins.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	sumSquares := 0.0
	for _, c := range coeffs {
		sum += c
		sumSquares += c * c
	}

	if sum == 0 {
		return 0, errZeroCoherentGain
	}

	return float64(len(coeffs)) * sumSquares / (sum * sum), nil
}

// ApplyCoefficients multiplies samples with coefficients into a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}

	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)

	return out, nil
}

func cosineSum(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
