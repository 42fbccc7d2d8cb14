// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterate

import (
	"math"
	"testing"

	"github.com/curioloop/barrier/nlp"
)

func newTestAdapter() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{1, 2},
		Bounds: []nlp.Bound{
			{Lower: math.NaN(), Upper: math.NaN()},
			{Lower: math.NaN(), Upper: math.NaN()},
		},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 1, 1
			}
			return x[0] + x[1]
		},
		IneqCons: []nlp.Cons{
			{Eval: func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 1, 0
				}
				return x[0]
			}, Lower: -1, Upper: 10},
		},
	})
}

func TestInitializeStructuresSetsCurrAndTrial(t *testing.T) {
	a := newTestAdapter()
	d := NewData(a, 0.99)
	if err := d.InitializeStructures([]float64{5}); err != nil {
		t.Fatalf("InitializeStructures: %v", err)
	}
	if d.Curr.X[0] != 1 || d.Curr.X[1] != 2 {
		t.Fatalf("Curr.X = %v, want [1 2]", d.Curr.X)
	}
	if d.Curr.S[0] != 5 {
		t.Fatalf("Curr.S[0] = %v, want 5", d.Curr.S[0])
	}
	if d.Trial.X[0] != d.Curr.X[0] {
		t.Fatal("expected Trial to start as a copy of Curr")
	}
	if d.CurrTag() == d.TrialTag() {
		t.Fatal("expected distinct tags for curr and trial even right after initialization")
	}
}

func TestSetTrialPrimalVariablesFromStepBumpsTag(t *testing.T) {
	a := newTestAdapter()
	d := NewData(a, 0.99)
	_ = d.InitializeStructures([]float64{5})
	before := d.TrialTag()
	d.SetTrialPrimalVariablesFromStep(0.5, []float64{2, 2}, []float64{1})
	if d.TrialTag() == before {
		t.Fatal("expected the trial tag to change")
	}
	if d.Trial.X[0] != 2 || d.Trial.X[1] != 3 {
		t.Fatalf("Trial.X = %v, want [2 3]", d.Trial.X)
	}
	if d.Trial.S[0] != 5.5 {
		t.Fatalf("Trial.S[0] = %v, want 5.5", d.Trial.S[0])
	}
}

func TestAddToTrialLayersOnTopOfExistingTrial(t *testing.T) {
	a := newTestAdapter()
	d := NewData(a, 0.99)
	_ = d.InitializeStructures([]float64{5})
	d.SetTrialPrimalVariablesFromStep(1, []float64{1, 1}, []float64{0})
	d.AddToTrial([]float64{0.5, 0.5}, []float64{0.5})
	if d.Trial.X[0] != 2.5 || d.Trial.X[1] != 3.5 {
		t.Fatalf("Trial.X = %v, want [2.5 3.5]", d.Trial.X)
	}
	if d.Trial.S[0] != 5.5 {
		t.Fatalf("Trial.S[0] = %v, want 5.5", d.Trial.S[0])
	}
}

func TestAcceptTrialPointCommitsAndIncrementsIterCount(t *testing.T) {
	a := newTestAdapter()
	d := NewData(a, 0.99)
	_ = d.InitializeStructures([]float64{5})
	d.SetTrialPrimalVariablesFromStep(1, []float64{3, 3}, []float64{0})
	d.AcceptTrialPoint()
	if d.IterCount != 1 {
		t.Fatalf("IterCount = %d, want 1", d.IterCount)
	}
	if d.Curr.X[0] != 4 || d.Curr.X[1] != 5 {
		t.Fatalf("Curr.X = %v, want [4 5]", d.Curr.X)
	}
}

func TestCurrTauClampedToTauMin(t *testing.T) {
	a := newTestAdapter()
	d := NewData(a, 0.9)
	d.Mu = 0.5
	if got := d.CurrTau(); got != 0.9 {
		t.Fatalf("CurrTau = %v, want TauMin 0.9 since 1-mu=0.5 < TauMin", got)
	}
	d.Mu = 0.01
	if got := d.CurrTau(); math.Abs(got-0.99) > 1e-12 {
		t.Fatalf("CurrTau = %v, want 0.99", got)
	}
}
