// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipopt

import (
	"math"
	"testing"

	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/nlp"
)

func TestFitSolvesUnconstrainedQuadratic(t *testing.T) {
	a := nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{0, 0},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0] = 2 * (x[0] - 3)
				g[1] = 2 * (x[1] + 1)
			}
			return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			t := linalg.NewTriplet(2, 2, 2)
			t.RowIdx[0], t.ColIdx[0], t.Values[0] = 0, 0, 2 * sigma
			t.RowIdx[1], t.ColIdx[1], t.Values[1] = 1, 1, 2 * sigma
			return t
		},
	})

	p := &Problem{Adapter: a, Opts: DefaultOptions()}
	opt, err := p.New()
	if err != nil {
		t.Fatalf("Problem.New: %v", err)
	}
	w := opt.Init()
	res := opt.Fit(w, nil)

	if !res.OK {
		t.Fatalf("expected success, got status %s", res.Status)
	}
	if math.Abs(res.X[0]-3) > 1e-4 || math.Abs(res.X[1]+1) > 1e-4 {
		t.Fatalf("X = %v, want approximately [3 -1]", res.X)
	}
}

func TestFitSolvesEqualityConstrainedQP(t *testing.T) {
	a := nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{2, -1},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 2*x[0], 2*x[1]
			}
			return x[0]*x[0] + x[1]*x[1]
		},
		EqCons: []nlp.Evaluation{
			func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 1, 1
				}
				return x[0] + x[1] - 1
			},
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			t := linalg.NewTriplet(2, 2, 2)
			t.RowIdx[0], t.ColIdx[0], t.Values[0] = 0, 0, 2 * sigma
			t.RowIdx[1], t.ColIdx[1], t.Values[1] = 1, 1, 2 * sigma
			return t
		},
	})

	p := &Problem{Adapter: a, Opts: DefaultOptions()}
	opt, err := p.New()
	if err != nil {
		t.Fatalf("Problem.New: %v", err)
	}
	w := opt.Init()
	res := opt.Fit(w, nil)

	if !res.OK {
		t.Fatalf("expected success, got status %s", res.Status)
	}
	if math.Abs(res.X[0]-0.5) > 1e-3 || math.Abs(res.X[1]-0.5) > 1e-3 {
		t.Fatalf("X = %v, want approximately [0.5 0.5]", res.X)
	}
}

func TestProblemNewRejectsMissingAdapter(t *testing.T) {
	p := &Problem{Opts: DefaultOptions()}
	if _, err := p.New(); err == nil {
		t.Fatal("expected an error for a nil adapter")
	}
}
