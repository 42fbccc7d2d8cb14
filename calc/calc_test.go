// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package calc

import (
	"math"
	"testing"

	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/nlp"
)

func newTestQuantities(t *testing.T) (*Quantities, *iterate.Data) {
	t.Helper()
	a := nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{2, 3},
		Bounds: []nlp.Bound{
			{Lower: 0, Upper: math.NaN()},
			{Lower: math.NaN(), Upper: math.NaN()},
		},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 1, 1
			}
			return x[0] + x[1]
		},
	})
	data := iterate.NewData(a, 0.99)
	if err := data.InitializeStructures([]float64{}); err != nil {
		t.Fatalf("InitializeStructures: %v", err)
	}
	data.Mu = 0.5
	return New(data, a), data
}

func TestBarrierObjIncludesLogBarrierOnBoundedVariable(t *testing.T) {
	q, _ := newTestQuantities(t)
	got, err := q.CurrBarrierObj()
	if err != nil {
		t.Fatalf("CurrBarrierObj: %v", err)
	}
	want := 5.0 - 0.5*math.Log(2)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("CurrBarrierObj = %v, want %v", got, want)
	}
}

func TestBarrierObjMemoizesAgainstTag(t *testing.T) {
	q, data := newTestQuantities(t)
	first, _ := q.CurrBarrierObj()
	data.Mu = 10 // mutate without bumping the iterate tag
	second, _ := q.CurrBarrierObj()
	if first != second {
		t.Fatal("expected the cached value to be served without InvalidateMuDependent")
	}
	q.InvalidateMuDependent()
	third, _ := q.CurrBarrierObj()
	if third == first {
		t.Fatal("expected InvalidateMuDependent to force a recompute reflecting the new Mu")
	}
}

func TestConstraintViolationIsZeroForUnconstrainedProblem(t *testing.T) {
	q, _ := newTestQuantities(t)
	got, err := q.CurrConstraintViolation()
	if err != nil {
		t.Fatalf("CurrConstraintViolation: %v", err)
	}
	if got != 0 {
		t.Fatalf("CurrConstraintViolation = %v, want 0", got)
	}
}

func TestGradLagrangianSubtractsBoundMultiplier(t *testing.T) {
	q, _ := newTestQuantities(t)
	gx, gs, err := q.GradLagrangian()
	if err != nil {
		t.Fatalf("GradLagrangian: %v", err)
	}
	if len(gs) != 0 {
		t.Fatalf("expected an empty gs for a problem with no inequality constraints, got %v", gs)
	}
	want := []float64{0, 1}
	for i, w := range want {
		if math.Abs(gx[i]-w) > 1e-12 {
			t.Fatalf("gx[%d] = %v, want %v", i, gx[i], w)
		}
	}
}

func TestComplementarityResidual(t *testing.T) {
	q, _ := newTestQuantities(t)
	xL, xU, sL, sU, err := q.Complementarity()
	if err != nil {
		t.Fatalf("Complementarity: %v", err)
	}
	if len(xU) != 0 || len(sL) != 0 || len(sU) != 0 {
		t.Fatalf("expected only the lower-bounded x residual to be nonempty, got xU=%v sL=%v sU=%v", xU, sL, sU)
	}
	if len(xL) != 1 || math.Abs(xL[0]-1.5) > 1e-12 {
		t.Fatalf("xL = %v, want [1.5]", xL)
	}
}

func TestBarrierGradXAppliesBoundTerm(t *testing.T) {
	q, _ := newTestQuantities(t)
	g, err := q.BarrierGradX()
	if err != nil {
		t.Fatalf("BarrierGradX: %v", err)
	}
	want := []float64{0.75, 1}
	for i, w := range want {
		if math.Abs(g[i]-w) > 1e-12 {
			t.Fatalf("g[%d] = %v, want %v", i, g[i], w)
		}
	}
}
