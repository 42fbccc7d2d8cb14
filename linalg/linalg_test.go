package linalg

import (
	"math"
	"testing"
)

func TestFracToBoundaryLower(t *testing.T) {
	x := []float64{1.0}
	dx := []float64{-2.0}
	lower := []float64{0.0}
	upper := []float64{math.NaN()}
	alpha := FracToBoundary(x, dx, lower, upper, 0.99)
	// tau*(x-lower)/(-dx) = 0.99*1/2 = 0.495
	if math.Abs(alpha-0.495) > 1e-12 {
		t.Fatalf("alpha = %v, want 0.495", alpha)
	}
}

func TestFracToBoundaryNoActiveBound(t *testing.T) {
	x := []float64{1.0}
	dx := []float64{1.0}
	lower := []float64{0.0}
	upper := []float64{math.NaN()}
	alpha := FracToBoundary(x, dx, lower, upper, 0.99)
	if alpha != 1.0 {
		t.Fatalf("alpha = %v, want 1.0", alpha)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	bound := []float64{0, math.NaN(), 1, math.NaN(), 2}
	p := NewProjection(bound)
	if p.Dim() != 3 {
		t.Fatalf("dim = %d, want 3", p.Dim())
	}
	full := []float64{10, 20, 30, 40, 50}
	reduced := make([]float64, p.Dim())
	p.Restrict(full, reduced)
	if reduced[0] != 10 || reduced[1] != 30 || reduced[2] != 50 {
		t.Fatalf("restrict = %v", reduced)
	}
	expanded := make([]float64, 5)
	p.Expand(reduced, expanded, 0)
	want := []float64{10, 0, 30, 0, 50}
	for i := range want {
		if expanded[i] != want[i] {
			t.Fatalf("expand = %v, want %v", expanded, want)
		}
	}
}

func TestTripletMultVector(t *testing.T) {
	tr := NewTriplet(2, 2, 3)
	tr.RowIdx = []int{0, 0, 1}
	tr.ColIdx = []int{0, 1, 1}
	tr.Values = []float64{2, 3, 4}
	x := []float64{1, 1}
	y := []float64{0, 0}
	tr.MultVector(1, x, 0, y)
	if y[0] != 5 || y[1] != 4 {
		t.Fatalf("y = %v, want [5 4]", y)
	}
	yt := []float64{0, 0}
	tr.TransMultVector(1, x, 0, yt)
	if yt[0] != 2 || yt[1] != 7 {
		t.Fatalf("yt = %v, want [2 7]", yt)
	}
}

func TestAmaxNorm(t *testing.T) {
	x := []float64{-3, 2, 1}
	if AmaxNorm(x) != 3 {
		t.Fatalf("AmaxNorm = %v, want 3", AmaxNorm(x))
	}
}
