package window

import (
	"math"
	"testing"
)

var allTypes = []Type{
	TypeHann,
	TypeRectangular,
	TypeHamming,
	TypeBlackman,
	TypeBlackmanHarris4Term,
	TypeFlatTop,
}

func TestGenerate(t *testing.T) {
	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 65)
			if len(w) != 65 {
				t.Fatalf("len=%d, want 65", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
				if !almostEqual(v, w[len(w)-1-i], 1e-12) {
					t.Fatalf("symmetric window not symmetric at %d", i)
				}
			}

			if peak := w[32]; !almostEqual(peak, 1, 1e-6) {
				t.Fatalf("center coefficient=%v, want 1", peak)
			}
		})
	}
}

func TestGenerateEdgeCases(t *testing.T) {
	if w := Generate(TypeHann, 0); w != nil {
		t.Fatalf("Generate(0)=%v, want nil", w)
	}
	if w := Generate(TypeHann, -4); w != nil {
		t.Fatalf("Generate(-4)=%v, want nil", w)
	}
	if w := Generate(TypeHann, 1); len(w) != 1 || w[0] != 0 {
		t.Fatalf("Generate(1)=%v", w)
	}

	unknown := Generate(Type(99), 8)
	for i, v := range unknown {
		if v != 1 {
			t.Fatalf("unknown type coefficient[%d]=%v, want 1", i, v)
		}
	}
	if Type(99).String() != "Unknown" || Info(Type(99)).Name != "" {
		t.Fatal("unknown type should have no metadata")
	}

	Apply(TypeHann, nil)
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)
	b := Generate(TypeHann, 16, WithPeriodic())

	if almostEqual(a[15], b[15], 1e-12) {
		t.Fatal("expected different end coefficient for periodic form")
	}
	if !almostEqual(b[8], 1, 1e-12) {
		t.Fatalf("periodic hann center=%v, want 1", b[8])
	}
}

func TestApplyInPlaceByType(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	Apply(TypeRectangular, buf)

	for i, v := range buf {
		if v != float64(i+1) {
			t.Fatalf("rectangular should be passthrough at %d: %v", i, v)
		}
	}

	Apply(TypeHann, buf)

	if buf[0] != 0 || buf[7] != 0 {
		t.Fatalf("hann edges should be 0, got %v %v", buf[0], buf[7])
	}
}

// TestCoherentGainMatchesMetadata checks the averaged periodic window
// against the documented coherent gain.
func TestCoherentGainMatchesMetadata(t *testing.T) {
	for _, typ := range allTypes {
		w := Generate(typ, 4096, WithPeriodic())

		sum := 0.0
		for _, v := range w {
			sum += v
		}

		if got, want := sum/float64(len(w)), Info(typ).CoherentGain; !almostEqual(got, want, 1e-9) {
			t.Errorf("%s coherent gain=%v, want %v", typ, got, want)
		}
	}
}

func TestEquivalentNoiseBandwidth(t *testing.T) {
	tests := []struct {
		typ  Type
		want float64
	}{
		{TypeRectangular, 1},
		{TypeHann, 1.5},
		{TypeBlackman, 1.7268},
	}

	for _, tt := range tests {
		got, err := EquivalentNoiseBandwidth(Generate(tt.typ, 4096, WithPeriodic()))
		if err != nil {
			t.Fatalf("%s: %v", tt.typ, err)
		}
		if !almostEqual(got, tt.want, 1e-3) {
			t.Errorf("%s ENBW=%v, want %v", tt.typ, got, tt.want)
		}
	}

	if _, err := EquivalentNoiseBandwidth(nil); err == nil {
		t.Fatal("expected error for empty coefficients")
	}
	if _, err := EquivalentNoiseBandwidth([]float64{1, -1}); err == nil {
		t.Fatal("expected error for zero coherent gain")
	}
}

func TestApplyCoefficients(t *testing.T) {
	out, err := ApplyCoefficients([]float64{1, 2, 3}, []float64{0.5, 0.5, 2})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.5, 1, 6}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d]=%v, want %v", i, out[i], want[i])
		}
	}

	if _, err := ApplyCoefficients([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
