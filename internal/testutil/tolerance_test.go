package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	a := []float64{1.0, 2.0, 3.0}
	b := []float64{1.0, 2.1, 3.0}

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}

	if math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	_, err := MaxAbsDiff([]float64{1}, []float64{1, 2})
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestMeanAbsDiff(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{1, 2.5, 2, 4}

	d, err := MeanAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MeanAbsDiff error: %v", err)
	}

	if math.Abs(d-0.375) > 1e-15 {
		t.Fatalf("MeanAbsDiff = %v, want 0.375", d)
	}
}

func TestMeanAbsDiffErrors(t *testing.T) {
	if _, err := MeanAbsDiff([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if _, err := MeanAbsDiff(nil, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
