// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/numdiff"
)

// NewFiniteDifferenceHessian builds a HessianFunc that approximates the
// Hessian of the Lagrangian sigma*f(x) + yC^T c(x) + yD^T d(x) by
// central-differencing its analytic gradient column by column, for
// problems that cannot supply an exact second derivative (spec.md §1
// assumes twice-differentiability but the interface never requires the
// caller to hand-derive it). This is the fallback FuncAdapter installs
// automatically when a FuncAdapterSpec omits Hessian.
func NewFiniteDifferenceHessian(n int, obj Evaluation, eqCons []Evaluation, ineqCons []Cons) HessianFunc {
	return func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
		return finiteDifferenceLagrangianHessian(n, x, sigma, yC, yD, obj, eqCons, ineqCons)
	}
}

func finiteDifferenceLagrangianHessian(n int, x []float64, sigma float64, yC, yD []float64, obj Evaluation, eqCons []Evaluation, ineqCons []Cons) *linalg.Triplet {
	gf := make([]float64, n)
	gc := make([]float64, n)

	gradLagrangian := func(xx, g []float64) {
		obj(xx, gf)
		for i := range g {
			g[i] = sigma * gf[i]
		}
		for j, c := range eqCons {
			c(xx, gc)
			lam := yC[j]
			for i := range g {
				g[i] += lam * gc[i]
			}
		}
		for j, c := range ineqCons {
			c.Eval(xx, gc)
			lam := yD[j]
			for i := range g {
				g[i] += lam * gc[i]
			}
		}
	}

	spec := &numdiff.ApproxSpec{
		N:      n,
		M:      n,
		Object: gradLagrangian,
	}
	flat := make([]float64, n*n)
	x0 := append([]float64{}, x...)
	if err := spec.Diff(x0, flat); err != nil {
		return linalg.NewTriplet(n, n, 0)
	}

	t := linalg.NewTriplet(n, n, n*(n+1)/2)
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := 0.5 * (flat[i+j*n] + flat[j+i*n])
			t.RowIdx[k], t.ColIdx[k], t.Values[k] = i, j, v
			k++
		}
	}
	t.RowIdx, t.ColIdx, t.Values = t.RowIdx[:k], t.ColIdx[:k], t.Values[:k]
	return t
}
