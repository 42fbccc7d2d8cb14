// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package restoration implements C8, the feasibility restoration
// phase: the fallback invoked when the filter line search (C7)
// exhausts its backtracking without finding an acceptable trial point
// (spec.md §4.4/§8 scenario 6).
//
// Grounded on original_source/Algorithm/IpRestoIpoptNLP.hpp, which
// wraps the original NLP into an auxiliary feasibility problem
// (minimize constraint violation plus proximity to the reference
// point) and solves it with the barrier machinery. This package
// solves the same auxiliary problem with a damped Gauss-Newton
// iteration on the feasibility residual, reusing pdsolve's dense
// System/Factorizer (the same type the outer KKT solve uses) to factor
// the normal-equations system at each inner step, and writes the
// result back into the outer iterate.Data as the new current iterate
// on success.
package restoration

import (
	"errors"
	"math"

	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/journal"
	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/nlp"
	"github.com/curioloop/barrier/pdsolve"
)

// ErrRestorationFailed is returned when the inner feasibility loop
// cannot reduce the constraint violation below its target within the
// iteration budget; the outer driver (ipopt.Optimizer) treats this as
// a fatal convergence failure (spec.md §5's terminal failure states).
var ErrRestorationFailed = errors.New("restoration: failed to reduce constraint violation")

// Options controls the inner feasibility loop.
type Options struct {
	MaxIterations int
	ThetaTarget   float64 // stop once theta(x,s) <= ThetaTarget * theta(x_ref,s_ref)
	Rho           float64 // proximity weight to the reference point
	Mu            float64 // barrier parameter; the Gauss-Newton loop in PerformRestoration does not read it
}

// DefaultOptions mirrors the original's restoration defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 30,
		ThetaTarget:   0.5,
		Rho:           1000,
		Mu:            0.1,
	}
}

// FeasibilityRestorer is the one concrete Restorer this module ships
// (SPEC_FULL.md's Open Question decision: spec.md §8 scenario 6 needs
// to observe restoration actually run, so a stub would not do).
type FeasibilityRestorer struct {
	Outer   *iterate.Data
	Adapter nlp.Adapter
	Opts    Options
	Journal *journal.Journal
}

// New builds a FeasibilityRestorer bound to the outer solver's shared
// iterate storage.
func New(outer *iterate.Data, adapter nlp.Adapter, opts Options, j *journal.Journal) *FeasibilityRestorer {
	return &FeasibilityRestorer{Outer: outer, Adapter: adapter, Opts: opts, Journal: j}
}

// PerformRestoration runs the inner feasibility loop starting from the
// outer current iterate and, on success, overwrites the outer current
// iterate with the restored point (spec.md §4.4's restoration-phase
// contract).
func (r *FeasibilityRestorer) PerformRestoration() error {
	x := append([]float64{}, r.Outer.Curr.X...)
	s := append([]float64{}, r.Outer.Curr.S...)
	xRef := append([]float64{}, x...)
	sRef := append([]float64{}, s...)

	theta0 := r.feasibility(x, s)
	target := r.Opts.ThetaTarget * math.Max(theta0, 1e-8)

	if r.Journal != nil {
		r.Journal.Summary("restoration: entering, theta0=%.3e target=%.3e\n", theta0, target)
	}

	for it := 0; it < r.Opts.MaxIterations; it++ {
		theta := r.feasibility(x, s)
		if theta <= target {
			r.commit(x, s)
			if r.Journal != nil {
				r.Journal.Summary("restoration: converged at iter=%d theta=%.3e\n", it, theta)
			}
			return nil
		}

		dx, ds, err := r.gaussNewtonStep(x, s, xRef, sRef)
		if err != nil {
			return ErrRestorationFailed
		}

		alpha := 1.0
		accepted := false
		for k := 0; k < 30; k++ {
			xt := addScaled(x, dx, alpha)
			st := addScaled(s, ds, alpha)
			thetaTrial := r.feasibility(xt, st)
			if thetaTrial < theta {
				x, s = xt, st
				accepted = true
				break
			}
			alpha *= 0.5
		}
		if !accepted {
			return ErrRestorationFailed
		}
	}

	theta := r.feasibility(x, s)
	if theta < theta0 {
		// some progress; accept it rather than declaring outright failure,
		// mirroring the original's willingness to continue with a
		// "best effort" restored point when the iteration budget runs out
		// but theta strictly improved.
		r.commit(x, s)
		return nil
	}
	return ErrRestorationFailed
}

func (r *FeasibilityRestorer) feasibility(x, s []float64) float64 {
	a := r.Adapter
	theta := 0.0
	if a.MEq() > 0 {
		c := make([]float64, a.MEq())
		if a.ConsEq(x, true, c) == nil {
			for _, v := range c {
				theta += math.Abs(v)
			}
		}
	}
	if a.MIneq() > 0 {
		d := make([]float64, a.MIneq())
		if a.ConsIneq(x, true, d) == nil {
			for j, v := range d {
				theta += math.Abs(v - s[j])
			}
		}
	}
	return theta
}

// gaussNewtonStep solves the regularized Gauss-Newton system for the
// least-squares feasibility measure
//
//	min  ||c(x)||^2 + ||d(x)-s||^2 + rho*||x-xRef||^2 + rho*||s-sRef||^2
//
// by assembling the normal-equations KKT system and handing it to the
// same dense factorizer the outer solver uses (pdsolve.DenseFactorizer),
// the "reuse this module's own machinery recursively" design decision.
func (r *FeasibilityRestorer) gaussNewtonStep(x, s, xRef, sRef []float64) (dx, ds []float64, err error) {
	a := r.Adapter
	n, mIneq, mEq := a.N(), a.MIneq(), a.MEq()
	rho := r.Opts.Rho

	sys := pdsolve.NewSystem(n+mIneq, 0)
	rhs := make([]float64, n+mIneq)

	for i := 0; i < n; i++ {
		sys.Add(i, i, rho)
		rhs[i] = -rho * (x[i] - xRef[i])
	}
	for j := 0; j < mIneq; j++ {
		sys.Add(n+j, n+j, rho)
		rhs[n+j] = -rho * (s[j] - sRef[j])
	}

	if mEq > 0 {
		jc, jerr := a.JacEq(x, true)
		if jerr != nil {
			return nil, nil, jerr
		}
		c := make([]float64, mEq)
		if err := a.ConsEq(x, false, c); err != nil {
			return nil, nil, err
		}
		addNormalEquations(sys, rhs[:n], jc, c, n, 0)
	}

	if mIneq > 0 {
		jd, jerr := a.JacIneq(x, true)
		if jerr != nil {
			return nil, nil, jerr
		}
		d := make([]float64, mIneq)
		if err := a.ConsIneq(x, false, d); err != nil {
			return nil, nil, err
		}
		res := make([]float64, mIneq)
		for j := range res {
			res[j] = d[j] - s[j]
		}
		addNormalEquationsIneq(sys, rhs, jd, res, n)
	}

	fz := pdsolve.NewDenseFactorizer()
	fac, ferr := fz.Factor(sys)
	if ferr != nil {
		return nil, nil, ferr
	}
	sol, serr := fac.Solve(rhs)
	if serr != nil {
		return nil, nil, serr
	}
	return sol[:n], sol[n:], nil
}

// addNormalEquations accumulates J^T J into the x-block of sys and
// -J^T*res into rhs, for the equality-constraint residual block.
func addNormalEquations(sys *pdsolve.System, rhs []float64, j *linalg.Triplet, res []float64, n, off int) {
	jt := j.ToDense()
	rows, cols := jt.Dims()
	for a := 0; a < cols; a++ {
		for b := a; b < cols; b++ {
			v := 0.0
			for k := 0; k < rows; k++ {
				v += jt.At(k, a) * jt.At(k, b)
			}
			sys.Add(off+a, off+b, v)
		}
	}
	for a := 0; a < cols; a++ {
		v := 0.0
		for k := 0; k < rows; k++ {
			v += jt.At(k, a) * res[k]
		}
		rhs[a] -= v
	}
}

// addNormalEquationsIneq folds the inequality-residual Gauss-Newton
// block (which couples x and s through -I on the slack) into sys/rhs.
func addNormalEquationsIneq(sys *pdsolve.System, rhs []float64, jd *linalg.Triplet, res []float64, n int) {
	jt := jd.ToDense()
	rows, cols := jt.Dims()
	for a := 0; a < cols; a++ {
		for b := a; b < cols; b++ {
			v := 0.0
			for k := 0; k < rows; k++ {
				v += jt.At(k, a) * jt.At(k, b)
			}
			sys.Add(a, b, v)
		}
	}
	for k := 0; k < rows; k++ {
		for a := 0; a < cols; a++ {
			sys.Add(a, n+k, -jt.At(k, a))
		}
		sys.Add(n+k, n+k, 1)
	}
	for a := 0; a < cols; a++ {
		v := 0.0
		for k := 0; k < rows; k++ {
			v += jt.At(k, a) * res[k]
		}
		rhs[a] -= v
	}
	for k := 0; k < rows; k++ {
		rhs[n+k] += res[k]
	}
}

func addScaled(base, delta []float64, alpha float64) []float64 {
	out := make([]float64, len(base))
	for i := range out {
		out[i] = base[i] + alpha*delta[i]
	}
	return out
}

func (r *FeasibilityRestorer) commit(x, s []float64) {
	copy(r.Outer.Trial.X, x)
	copy(r.Outer.Trial.S, s)
	r.Outer.AcceptTrialPoint()
}
