package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lo       float64
		hi       float64
		expected float64
	}{
		{name: "inside", value: 0.5, lo: 0, hi: 1, expected: 0.5},
		{name: "below", value: -1, lo: 0, hi: 1, expected: 0},
		{name: "above", value: 2, lo: 0, hi: 1, expected: 1},
		{name: "swapped", value: 2, lo: 1, hi: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.lo, tt.hi)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	for _, v := range []float64{0, -1, 1e308, math.SmallestNonzeroFloat64} {
		if !IsFinite(v) {
			t.Fatalf("IsFinite(%v) = false", v)
		}
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if IsFinite(v) {
			t.Fatalf("IsFinite(%v) = true", v)
		}
	}
}

func TestDBConversions(t *testing.T) {
	linear := DBToLinear(-6)
	db := LinearToDB(linear)
	if math.Abs(db+6) > 1e-10 {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-35); got != 0 {
		t.Fatalf("FlushDenormals(1e-35) = %v, want 0", got)
	}
	if got := FlushDenormals(-1e-35); got != 0 {
		t.Fatalf("FlushDenormals(-1e-35) = %v, want 0", got)
	}
	if got := FlushDenormals(1e-3); got != 1e-3 {
		t.Fatalf("FlushDenormals(1e-3) = %v, want 1e-3", got)
	}
}
