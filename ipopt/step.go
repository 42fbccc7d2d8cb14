// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipopt

import (
	"math"

	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/pdsolve"
)

// newtonStep assembles the condensed primal-dual KKT system
//
//	[ W+Σx    0      Jc^T   Jd^T ] [dx]    [-(∇φ_x + Jc^T yc + Jd^T yd)]
//	[  0      Σs     0     -I   ] [ds]  = [  yd - ∇φ_s ]
//	[ Jc      0      0      0   ] [dyc]   [ -c(x) ]
//	[ Jd     -I      0      0   ] [dyd]   [ -(d(x)-s) ]
//
// (spec.md §6), solves it, recovers the bound-multiplier steps from
// the eliminated complementarity equations, computes the primal and
// dual fraction-to-the-boundary step lengths, and hands the scaled
// primal direction to the line search.
func (o *Optimizer) newtonStep(w *Workspace) error {
	a := o.adapter
	data := w.data
	q := w.quantities

	n, mEq, mIneq := a.N(), a.MEq(), a.MIneq()
	dim := n + mIneq
	sys := pdsolve.NewSystem(dim, mEq+mIneq)

	gphiX, err := q.BarrierGradX()
	if err != nil {
		return err
	}
	gphiS := q.BarrierGradS()

	rhs := make([]float64, dim+mEq+mIneq)
	copy(rhs[:n], negate(gphiX))
	for j := 0; j < mIneq; j++ {
		rhs[n+j] = data.Curr.YD[j] - gphiS[j]
	}

	sigmaX := boundSigma(a.PxL(), a.PxU(), data.Curr.X, a.XLower(), a.XUpper(), data.Curr.ZL, data.Curr.ZU, n)
	sigmaS := boundSigma(a.PdL(), a.PdU(), data.Curr.S, a.DLower(), a.DUpper(), data.Curr.VL, data.Curr.VU, mIneq)
	for i := 0; i < n; i++ {
		sys.Add(i, i, sigmaX[i])
	}
	for j := 0; j < mIneq; j++ {
		sys.Add(n+j, n+j, sigmaS[j])
	}

	var hess *linalg.Triplet
	if hh, herr := a.Hessian(data.Curr.X, false, 1, data.Curr.YC, data.Curr.YD, false); herr == nil {
		hess = hh
	}
	if hess != nil {
		for k, v := range hess.Values {
			sys.Add(hess.RowIdx[k], hess.ColIdx[k], v)
		}
	}

	if mEq > 0 {
		jc, jerr := a.JacEq(data.Curr.X, false)
		if jerr != nil {
			return jerr
		}
		addJacobianBlock(sys, jc, 0, dim)
		c := make([]float64, mEq)
		if err := a.ConsEq(data.Curr.X, false, c); err != nil {
			return err
		}
		jc.TransMultVector(-1, data.Curr.YC, 1, rhs[:n])
		copy(rhs[dim:dim+mEq], negate(c))
	}

	if mIneq > 0 {
		jd, jerr := a.JacIneq(data.Curr.X, false)
		if jerr != nil {
			return jerr
		}
		addJacobianBlock(sys, jd, 0, dim+mEq)
		for j := 0; j < mIneq; j++ {
			sys.Add(n+j, dim+mEq+j, -1)
		}
		d := make([]float64, mIneq)
		if err := a.ConsIneq(data.Curr.X, false, d); err != nil {
			return err
		}
		jd.TransMultVector(-1, data.Curr.YD, 1, rhs[:n])
		res := make([]float64, mIneq)
		for j := range res {
			res[j] = -(d[j] - data.Curr.S[j])
		}
		copy(rhs[dim+mEq:], res)
	}

	sol, err := w.solver.Solve(sys, rhs)
	if err != nil {
		return err
	}
	data.RegularizationX = w.solver.LastDeltaX()
	dx := sol[:n]
	ds := sol[n:dim]
	dyc := sol[dim : dim+mEq]
	dyd := sol[dim+mEq:]

	dzL, dzU := boundMultiplierStep(a.PxL(), a.PxU(), data.Curr.X, a.XLower(), a.XUpper(), data.Curr.ZL, data.Curr.ZU, dx, data.Mu)
	dvL, dvU := boundMultiplierStep(a.PdL(), a.PdU(), data.Curr.S, a.DLower(), a.DUpper(), data.Curr.VL, data.Curr.VU, ds, data.Mu)

	copy(data.DeltaX, dx)
	copy(data.DeltaS, ds)
	copy(data.DeltaYC, dyc)
	copy(data.DeltaYD, dyd)
	copy(data.DeltaZL, dzL)
	copy(data.DeltaZU, dzU)
	copy(data.DeltaVL, dvL)
	copy(data.DeltaVU, dvU)

	alphaPrimal := primalFracToBoundary(a, data, dx, ds, data.CurrTau())
	alphaDual := dualFracToBoundary(data, dzL, dzU, dvL, dvU, data.CurrTau())

	data.SetTrialBoundMultipliersFromStep(alphaDual, dzL, dzU, dvL, dvU)

	w.ls.SOC = o.makeSOCSolver(w, sys)

	// The line search gets the raw Newton direction and starts its own
	// backtracking loop at alphaPrimal (spec.md §4.4 step 1: "Set
	// α = α_max"); it must never receive a pre-scaled direction, since
	// its switching-condition and alpha_min formulas raise α to the
	// non-unit exponents s_phi/s_theta and are only correct against the
	// true physical step length.
	if err := w.ls.FindAcceptableTrialPoint(dx, ds, dyc, dyd, alphaPrimal); err != nil {
		return err
	}
	data.InfoAlphaDual = alphaDual
	return nil
}

// makeSOCSolver resolves the already-assembled system with the
// second-order-correction right-hand side (spec.md §4.4), reusing the
// same assembled KKT matrix rather than reassembling it; each call goes
// through w.solver.Solve, which factors the matrix again.
func (o *Optimizer) makeSOCSolver(w *Workspace, sys *pdsolve.System) func(cTrial, dMinusSTrial []float64) ([]float64, []float64, []float64, []float64, error) {
	n := o.adapter.N()
	mEq, mIneq := o.adapter.MEq(), o.adapter.MIneq()
	dim := n + mIneq
	return func(cTrial, dMinusSTrial []float64) ([]float64, []float64, []float64, []float64, error) {
		rhs := make([]float64, dim+mEq+mIneq)
		copy(rhs[dim:dim+mEq], negate(cTrial))
		copy(rhs[dim+mEq:], negate(dMinusSTrial))
		sol, err := w.solver.Solve(sys, rhs)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return sol[:n], sol[n:dim], sol[dim : dim+mEq], sol[dim+mEq:], nil
	}
}

func addJacobianBlock(sys *pdsolve.System, j *linalg.Triplet, colOff, rowOff int) {
	for k, v := range j.Values {
		r, c := rowOff+j.RowIdx[k], colOff+j.ColIdx[k]
		sys.Entries[r][c] += v
		sys.Entries[c][r] += v
	}
}

// boundSigma computes Σ_x[i] = z_L[i]/(x[i]-x_L[i]) + z_U[i]/(x_U[i]-x[i])
// in full space (zero where unbounded).
func boundSigma(pL, pU *linalg.Projection, x, lower, upper, zL, zU []float64, n int) []float64 {
	sigma := make([]float64, n)
	li := pL.Indices()
	for k, i := range li {
		sigma[i] += zL[k] / (x[i] - lower[i])
	}
	ui := pU.Indices()
	for k, i := range ui {
		sigma[i] += zU[k] / (upper[i] - x[i])
	}
	return sigma
}

// boundMultiplierStep recovers dz_L,dz_U (or dv_L,dv_U) from the
// eliminated complementarity equations:
//
//	dzL = mu/(x-xL) - zL - (zL/(x-xL))*dx       (restricted to bounded indices)
//	dzU = mu/(xU-x) - zU + (zU/(xU-x))*dx
func boundMultiplierStep(pL, pU *linalg.Projection, x, lower, upper, zL, zU, dx []float64, mu float64) (dzLOut, dzUOut []float64) {
	dzLOut = make([]float64, pL.Dim())
	li := pL.Indices()
	for k, i := range li {
		slack := x[i] - lower[i]
		dzLOut[k] = mu/slack - zL[k] - (zL[k]/slack)*dx[i]
	}
	dzUOut = make([]float64, pU.Dim())
	ui := pU.Indices()
	for k, i := range ui {
		slack := upper[i] - x[i]
		dzUOut[k] = mu/slack - zU[k] + (zU[k]/slack)*dx[i]
	}
	return dzLOut, dzUOut
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// primalFracToBoundary combines x and s into one fraction-to-the-boundary
// computation against their respective bounds (spec.md §4.1).
func primalFracToBoundary(a interface {
	XLower() []float64
	XUpper() []float64
	DLower() []float64
	DUpper() []float64
}, data *iterate.Data, dx, ds []float64, tau float64) float64 {
	alphaX := linalg.FracToBoundary(data.Curr.X, dx, a.XLower(), a.XUpper(), tau)
	alphaS := 1.0
	if len(ds) > 0 {
		alphaS = linalg.FracToBoundary(data.Curr.S, ds, a.DLower(), a.DUpper(), tau)
	}
	return math.Min(alphaX, alphaS)
}

// dualFracToBoundary applies the same rule to the (nonnegative) bound
// multipliers.
func dualFracToBoundary(data *iterate.Data, dzL, dzU, dvL, dvU []float64, tau float64) float64 {
	alpha := 1.0
	probe := func(z, dz []float64) {
		if len(z) == 0 {
			return
		}
		lower := make([]float64, len(z))
		upper := make([]float64, len(z))
		for i := range upper {
			upper[i] = math.NaN()
		}
		if a := linalg.FracToBoundary(z, dz, lower, upper, tau); a < alpha {
			alpha = a
		}
	}
	probe(data.Curr.ZL, dzL)
	probe(data.Curr.ZU, dzU)
	probe(data.Curr.VL, dvL)
	probe(data.Curr.VU, dvU)
	return alpha
}
