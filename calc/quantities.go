// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package calc

import (
	"math"

	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/nlp"
)

// Quantities is the C4 derived-quantity cache: the barrier objective
// φ_μ, the constraint violation θ, the gradient of the Lagrangian, the
// complementarity residuals and the directional derivative ∇φ_μᵀΔ, all
// memoized per-iterate via Slot. Grounded on
// original_source/Algorithm/IpIpoptCalculatedQuantities.hpp, whose role
// this package plays in full-Go form (one Slot per named quantity
// rather than a dynamic tag registry, since the set of quantities this
// core needs is fixed and small — spec.md §9's point about avoiding
// speculative generality applies here too).
type Quantities struct {
	data    *iterate.Data
	adapter nlp.Adapter

	currBarrier, trialBarrier Slot[float64]
	currTheta, trialTheta     Slot[float64]
	currGradLagX              Slot[[]float64]
	currGradLagS              Slot[[]float64]
	currCompl                 Slot[complSet]
	currGradPhiX, currGradPhiS Slot[[]float64]

	// scratch buffers reused across recomputation to avoid per-call
	// allocation in the hot line-search loop.
	scratchC []float64
	scratchD []float64
}

type complSet struct {
	xL, xU, sL, sU []float64
}

// New builds a Quantities cache bound to the given iterate storage and
// NLP adapter.
func New(data *iterate.Data, adapter nlp.Adapter) *Quantities {
	return &Quantities{
		data:     data,
		adapter:  adapter,
		scratchC: make([]float64, adapter.MEq()),
		scratchD: make([]float64, adapter.MIneq()),
	}
}

func logBarrierTerm(z, lower float64) float64 {
	if math.IsNaN(lower) {
		return 0
	}
	return -math.Log(z - lower)
}

// barrierObj computes φ_μ(x,s) = f(x) - μ Σ log(x-x_L) - μ Σ log(x_U-x)
// - μ Σ log(s-d_L) - μ Σ log(d_U-s), the objective of the barrier
// subproblem (spec.md §3).
func (q *Quantities) barrierObj(p iterate.Point, newX bool) (float64, error) {
	f, err := q.adapter.Obj(p.X, newX)
	if err != nil {
		return 0, err
	}
	mu := q.data.Mu
	sum := 0.0
	xL, xU := q.adapter.XLower(), q.adapter.XUpper()
	for i, xi := range p.X {
		sum += logBarrierTerm(xi, xL[i])
		sum += logBarrierTerm(-xi, -xU[i])
	}
	dL, dU := q.adapter.DLower(), q.adapter.DUpper()
	for j, sj := range p.S {
		sum += logBarrierTerm(sj, dL[j])
		sum += logBarrierTerm(-sj, -dU[j])
	}
	return f + mu*sum, nil
}

// CurrBarrierObj / TrialBarrierObj return φ_μ at the current / trial
// iterate, memoized against the corresponding tag.
func (q *Quantities) CurrBarrierObj() (float64, error) {
	return q.currBarrier.Get(q.data.CurrTag(), func() (float64, error) {
		return q.barrierObj(q.data.Curr, false)
	})
}

func (q *Quantities) TrialBarrierObj() (float64, error) {
	return q.trialBarrier.Get(q.data.TrialTag(), func() (float64, error) {
		return q.barrierObj(q.data.Trial, true)
	})
}

// constraintViolation computes θ(x,s) = ||c(x)||_1 + ||d(x)-s||_1
// (spec.md §3's scalar merit-function-adjacent quantity used by the
// filter).
func (q *Quantities) constraintViolation(p iterate.Point, newX bool) (float64, error) {
	if len(q.scratchC) > 0 {
		if err := q.adapter.ConsEq(p.X, newX, q.scratchC); err != nil {
			return 0, err
		}
	}
	theta := 0.0
	for _, c := range q.scratchC {
		theta += math.Abs(c)
	}
	if len(q.scratchD) > 0 {
		if err := q.adapter.ConsIneq(p.X, newX, q.scratchD); err != nil {
			return 0, err
		}
	}
	for j, d := range q.scratchD {
		theta += math.Abs(d - p.S[j])
	}
	return theta, nil
}

func (q *Quantities) CurrConstraintViolation() (float64, error) {
	return q.currTheta.Get(q.data.CurrTag(), func() (float64, error) {
		return q.constraintViolation(q.data.Curr, false)
	})
}

func (q *Quantities) TrialConstraintViolation() (float64, error) {
	return q.trialTheta.Get(q.data.TrialTag(), func() (float64, error) {
		return q.constraintViolation(q.data.Trial, true)
	})
}

// GradLagrangian returns (∇_x L, ∇_s L) at the current iterate:
//
//	∇_x L = ∇f(x) + J_c(x)^T y_c + J_d(x)^T y_d - P_xL z_L + P_xU z_U
//	∇_s L = -y_d - P_dL v_L + P_dU v_U
func (q *Quantities) GradLagrangian() (gx, gs []float64, err error) {
	gx, err = q.currGradLagX.Get(q.data.CurrTag(), func() ([]float64, error) {
		return q.gradLagX()
	})
	if err != nil {
		return nil, nil, err
	}
	gs, err = q.currGradLagS.Get(q.data.CurrTag(), func() ([]float64, error) {
		return q.gradLagS(), nil
	})
	return gx, gs, err
}

func (q *Quantities) gradLagX() ([]float64, error) {
	a := q.adapter
	n := a.N()
	gx := make([]float64, n)
	if err := a.GradObj(q.data.Curr.X, false, gx); err != nil {
		return nil, err
	}
	if a.MEq() > 0 {
		jc, err := a.JacEq(q.data.Curr.X, false)
		if err != nil {
			return nil, err
		}
		jc.TransMultVector(1, q.data.Curr.YC, 1, gx)
	}
	if a.MIneq() > 0 {
		jd, err := a.JacIneq(q.data.Curr.X, false)
		if err != nil {
			return nil, err
		}
		jd.TransMultVector(1, q.data.Curr.YD, 1, gx)
	}
	a.PxL().ExpandAddScaled(-1, q.data.Curr.ZL, 1, gx)
	a.PxU().ExpandAddScaled(1, q.data.Curr.ZU, 1, gx)
	return gx, nil
}

func (q *Quantities) gradLagS() []float64 {
	a := q.adapter
	gs := make([]float64, a.MIneq())
	for j := range gs {
		gs[j] = -q.data.Curr.YD[j]
	}
	a.PdL().ExpandAddScaled(-1, q.data.Curr.VL, 1, gs)
	a.PdU().ExpandAddScaled(1, q.data.Curr.VU, 1, gs)
	return gs
}

// Complementarity returns the four complementarity residual vectors
// (x-x_L)*z_L - μ, (x_U-x)*z_U - μ, (s-d_L)*v_L - μ, (d_U-s)*v_U - μ in
// reduced (bounded-only) space, used by the driver's KKT error for the
// μ-convergence test.
func (q *Quantities) Complementarity() (xL, xU, sL, sU []float64, err error) {
	c, err := q.currCompl.Get(q.data.CurrTag(), func() (complSet, error) {
		return q.complementarity(), nil
	})
	return c.xL, c.xU, c.sL, c.sU, err
}

func (q *Quantities) complementarity() complSet {
	a := q.adapter
	mu := q.data.Mu

	reduce := func(p *linalg.Projection, full []float64) []float64 {
		r := make([]float64, p.Dim())
		p.Restrict(full, r)
		return r
	}

	xLr := reduce(a.PxL(), a.XLower())
	xUr := reduce(a.PxU(), a.XUpper())
	xr := reduce(a.PxL(), q.data.Curr.X)
	xr2 := reduce(a.PxU(), q.data.Curr.X)

	resXL := make([]float64, a.PxL().Dim())
	for i := range resXL {
		resXL[i] = (xr[i]-xLr[i])*q.data.Curr.ZL[i] - mu
	}
	resXU := make([]float64, a.PxU().Dim())
	for i := range resXU {
		resXU[i] = (xUr[i]-xr2[i])*q.data.Curr.ZU[i] - mu
	}

	dLr := reduce(a.PdL(), a.DLower())
	dUr := reduce(a.PdU(), a.DUpper())
	sr := reduce(a.PdL(), q.data.Curr.S)
	sr2 := reduce(a.PdU(), q.data.Curr.S)

	resSL := make([]float64, a.PdL().Dim())
	for i := range resSL {
		resSL[i] = (sr[i]-dLr[i])*q.data.Curr.VL[i] - mu
	}
	resSU := make([]float64, a.PdU().Dim())
	for i := range resSU {
		resSU[i] = (dUr[i]-sr2[i])*q.data.Curr.VU[i] - mu
	}

	return complSet{xL: resXL, xU: resXU, sL: resSL, sU: resSU}
}

// DirectionalDerivative returns ∇φ_μᵀΔ = ∇_x φ_μᵀΔx + ∇_s φ_μᵀΔs, the
// slope the Armijo test (spec.md §4.4) compares the barrier-objective
// decrease against.
func (q *Quantities) DirectionalDerivative(deltaX, deltaS []float64) (float64, error) {
	gx, err := q.gradPhiX()
	if err != nil {
		return 0, err
	}
	gs := q.gradPhiS()
	d := linalg.Dot(gx, deltaX) + linalg.Dot(gs, deltaS)
	return d, nil
}

// InvalidateMuDependent forces the μ-dependent slots (the barrier
// objective, its gradient, and the complementarity residuals) to
// recompute on next access. The iterate tag alone does not capture a
// change to Data.Mu, so any caller that mutates Mu without also
// changing the iterate must call this explicitly.
func (q *Quantities) InvalidateMuDependent() {
	q.currBarrier.Invalidate()
	q.trialBarrier.Invalidate()
	q.currGradPhiX.Invalidate()
	q.currGradPhiS.Invalidate()
	q.currCompl.Invalidate()
}

// BarrierGradX/BarrierGradS expose ∇_x φ_μ, ∇_s φ_μ (spec.md §4.2),
// used by the KKT system assembly (ipopt's newtonStep) to build the condensed
// primal block's right-hand side without re-deriving the barrier
// gradient formula there.
func (q *Quantities) BarrierGradX() ([]float64, error) { return q.gradPhiX() }
func (q *Quantities) BarrierGradS() []float64           { return q.gradPhiS() }

func (q *Quantities) gradPhiX() ([]float64, error) {
	return q.currGradPhiX.Get(q.data.CurrTag(), func() ([]float64, error) {
		a := q.adapter
		n := a.N()
		g := make([]float64, n)
		if err := a.GradObj(q.data.Curr.X, false, g); err != nil {
			return nil, err
		}
		mu := q.data.Mu
		xL, xU := a.XLower(), a.XUpper()
		for i := range g {
			if !math.IsNaN(xL[i]) {
				g[i] -= mu / (q.data.Curr.X[i] - xL[i])
			}
			if !math.IsNaN(xU[i]) {
				g[i] += mu / (xU[i] - q.data.Curr.X[i])
			}
		}
		return g, nil
	})
}

func (q *Quantities) gradPhiS() []float64 {
	v, _ := q.currGradPhiS.Get(q.data.CurrTag(), func() ([]float64, error) {
		a := q.adapter
		g := make([]float64, a.MIneq())
		mu := q.data.Mu
		dL, dU := a.DLower(), a.DUpper()
		for j := range g {
			if !math.IsNaN(dL[j]) {
				g[j] -= mu / (q.data.Curr.S[j] - dL[j])
			}
			if !math.IsNaN(dU[j]) {
				g[j] += mu / (dU[j] - q.data.Curr.S[j])
			}
		}
		return g, nil
	})
	return v
}
