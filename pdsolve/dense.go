// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdsolve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DenseFactorizer is the reference Factorizer (SPEC_FULL.md's DOMAIN
// STACK): it assembles the dense symmetric KKT matrix into a
// gonum.org/v1/gonum/mat.SymDense, determines inertia from
// mat.EigenSym, and solves with mat.LU. A sparse symmetric-indefinite
// solver (MA27/MUMPS-class) is explicitly out of scope per spec.md §1;
// this is the module's one shipped, runnable Factorizer.
type DenseFactorizer struct {
	// EigenTol is the magnitude below which an eigenvalue is treated as
	// zero when classifying inertia.
	EigenTol float64
}

// NewDenseFactorizer builds a DenseFactorizer with a default zero
// tolerance.
func NewDenseFactorizer() *DenseFactorizer {
	return &DenseFactorizer{EigenTol: 1e-12}
}

type denseFactorization struct {
	sym      *mat.SymDense
	eig      mat.EigenSym
	pos, neg, zero int
}

func (f *DenseFactorizer) Factor(sys *System) (Factorization, error) {
	sym := mat.NewSymDense(sys.Dim, nil)
	for i := 0; i < sys.Dim; i++ {
		for j := i; j < sys.Dim; j++ {
			sym.SetSym(i, j, sys.Entries[i][j])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return nil, fmt.Errorf("pdsolve: eigendecomposition failed")
	}

	pos, neg, zero := 0, 0, 0
	for _, v := range eig.Values(nil) {
		switch {
		case v > f.EigenTol:
			pos++
		case v < -f.EigenTol:
			neg++
		default:
			zero++
		}
	}

	return &denseFactorization{sym: sym, eig: eig, pos: pos, neg: neg, zero: zero}, nil
}

func (d *denseFactorization) Inertia() (pos, neg, zero int) {
	return d.pos, d.neg, d.zero
}

func (d *denseFactorization) Solve(rhs []float64) ([]float64, error) {
	n := d.sym.SymmetricDim()
	b := mat.NewVecDense(n, rhs)
	var x mat.VecDense

	dense := mat.NewDense(n, n, nil)
	dense.Copy(d.sym)
	var lu mat.LU
	lu.Factorize(dense)
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("pdsolve: dense solve failed: %w", err)
	}
	sol := make([]float64, n)
	for i := 0; i < n; i++ {
		sol[i] = x.AtVec(i)
	}
	return sol, nil
}
