// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iterate implements C3, the primal-dual iterate storage
// ("Data" in spec.md's own terminology): the current and trial iterates,
// the step Δ, the barrier parameter μ, iteration counters and the
// per-iteration diagnostics the journal later prints.
//
// Grounded on the teacher's sqpLoc/sqpCtx struct-of-slices split (a
// "location" holding the current point's function/gradient values,
// separate from a "context" holding step/iteration state) in
// slsqp/base.go, generalized to the primal-dual (x,s,y_c,y_d,z,v) tuple
// spec.md §3 defines, and on the cache-invalidation tag design from
// spec.md §9 ("keep a monotonically increasing counter ... store (tag,
// value) in each cache slot").
package iterate

import (
	"math"

	"github.com/curioloop/barrier/nlp"
)

// Point is one primal-dual iterate (x, s, y_c, y_d, z_L, z_U, v_L, v_U)
// from spec.md §3. The z/v slices are reduced-space (only bounded
// components), sized per the corresponding Projection's Dim().
type Point struct {
	X, S         []float64
	YC, YD       []float64
	ZL, ZU       []float64
	VL, VU       []float64
}

func clonePoint(n, mIneq, nzL, nzU, nvL, nvU int) Point {
	return Point{
		X: make([]float64, n), S: make([]float64, mIneq),
		YC: nil, YD: make([]float64, mIneq),
		ZL: make([]float64, nzL), ZU: make([]float64, nzU),
		VL: make([]float64, nvL), VU: make([]float64, nvU),
	}
}

func (p Point) copyFrom(o Point) {
	copy(p.X, o.X)
	copy(p.S, o.S)
	copy(p.YC, o.YC)
	copy(p.YD, o.YD)
	copy(p.ZL, o.ZL)
	copy(p.ZU, o.ZU)
	copy(p.VL, o.VL)
	copy(p.VU, o.VU)
}

// Data is the iterate storage component (C3). There is exactly one
// mutator per outer iteration (spec.md §5): the driver that commits an
// accepted step via AcceptTrialPoint.
type Data struct {
	Adapter nlp.Adapter

	Curr  Point
	Trial Point

	DeltaX, DeltaS     []float64
	DeltaYC, DeltaYD   []float64
	DeltaZL, DeltaZU   []float64
	DeltaVL, DeltaVU   []float64

	Mu     float64
	TauMin float64

	IterCount int

	// Diagnostics for the iteration-output summary line (spec.md §4.6)
	// and for the restoration-entry bookkeeping (SPEC_FULL.md
	// supplemented feature 3).
	InfoAlphaPrimal     float64
	InfoAlphaDual       float64
	InfoAlphaPrimalChar byte
	InfoLSCount         int
	InfoString          string
	RegularizationX     float64
	// SkipOutput suppresses the journal's per-iteration summary line
	// (SPEC_FULL.md supplemented feature 5). ResetInfo clears it; the
	// restoration driver in this module does not set it.
	SkipOutput bool

	currTag  uint64
	trialTag uint64
	nextTag  uint64
}

// NewData allocates iterate storage for the given adapter's dimensions.
func NewData(a nlp.Adapter, tauMin float64) *Data {
	nzL, nzU := a.PxL().Dim(), a.PxU().Dim()
	nvL, nvU := a.PdL().Dim(), a.PdU().Dim()
	n, mIneq := a.N(), a.MIneq()
	d := &Data{
		Adapter: a,
		Curr:    clonePoint(n, mIneq, nzL, nzU, nvL, nvU),
		Trial:   clonePoint(n, mIneq, nzL, nzU, nvL, nvU),
		DeltaX:  make([]float64, n), DeltaS: make([]float64, mIneq),
		DeltaYC: make([]float64, a.MEq()), DeltaYD: make([]float64, mIneq),
		DeltaZL: make([]float64, nzL), DeltaZU: make([]float64, nzU),
		DeltaVL: make([]float64, nvL), DeltaVU: make([]float64, nvU),
		TauMin: tauMin,
	}
	d.Curr.YC = make([]float64, a.MEq())
	d.Trial.YC = make([]float64, a.MEq())
	return d
}

// InitializeStructures sets the current iterate from the adapter's
// starting point, defaulting slacks to the (bound-clipped) constraint
// value, bound multipliers to 1 (the conventional Ipopt default) and
// equality/inequality multipliers to 0 unless the adapter supplies them
// (IpoptNLP::InitializeStructures in the original plays the analogous
// role).
func (d *Data) InitializeStructures(d0 []float64) error {
	a := d.Adapter
	x0, zL0, zU0 := a.StartingPoint()
	copy(d.Curr.X, x0)

	if d0 == nil && len(d.Curr.S) > 0 {
		d0 = make([]float64, len(d.Curr.S))
		if err := a.ConsIneq(x0, true, d0); err != nil {
			return err
		}
	}

	for i := range d.Curr.S {
		s := d0[i]
		if lo := a.DLower()[i]; !math.IsNaN(lo) && s < lo+1e-8 {
			s = lo + 1e-8
		}
		if up := a.DUpper()[i]; !math.IsNaN(up) && s > up-1e-8 {
			s = up - 1e-8
		}
		d.Curr.S[i] = s
	}

	yC0, yD0 := a.StartingMultipliers()
	if yC0 != nil {
		copy(d.Curr.YC, yC0)
	}
	if yD0 != nil {
		copy(d.Curr.YD, yD0)
	}

	fill := func(dst []float64, given []float64) {
		if given != nil {
			copy(dst, given)
			return
		}
		for i := range dst {
			dst[i] = 1
		}
	}
	fill(d.Curr.ZL, zL0)
	fill(d.Curr.ZU, zU0)
	fill(d.Curr.VL, nil)
	fill(d.Curr.VU, nil)

	d.currTag = d.bumpTag()
	d.Trial.copyFrom(d.Curr)
	d.trialTag = d.bumpTag()
	return nil
}

func (d *Data) bumpTag() uint64 {
	d.nextTag++
	return d.nextTag
}

// CurrTag/TrialTag identify the iterate a cached quantity was computed
// from; the calc cache treats a mismatch as "stale" (spec.md §4.1).
func (d *Data) CurrTag() uint64  { return d.currTag }
func (d *Data) TrialTag() uint64 { return d.trialTag }

// CurrTau returns tau(mu), the fraction-to-the-boundary parameter
// derived from the current barrier parameter (spec.md §3).
func (d *Data) CurrTau() float64 {
	tau := 1 - d.Mu
	if tau < d.TauMin {
		tau = d.TauMin
	}
	if tau >= 1 {
		tau = 1 - 1e-12
	}
	return tau
}

// SetTrialPrimalVariablesFromStep sets trial x,s = curr x,s + alpha*(Δx,
// Δs). Invalidates trial-tagged cache entries (spec.md §5: "Any write to
// trial invalidates trial-dependent cache tags").
func (d *Data) SetTrialPrimalVariablesFromStep(alpha float64, deltaX, deltaS []float64) {
	for i := range d.Trial.X {
		d.Trial.X[i] = d.Curr.X[i] + alpha*deltaX[i]
	}
	for i := range d.Trial.S {
		d.Trial.S[i] = d.Curr.S[i] + alpha*deltaS[i]
	}
	d.trialTag = d.bumpTag()
}

// AddToTrial adds dx,ds directly onto the existing trial x,s, used by
// the second-order correction to layer a correction step on top of the
// already-set alpha*Δ trial point rather than recomputing it from
// curr.
func (d *Data) AddToTrial(dx, ds []float64) {
	for i := range d.Trial.X {
		d.Trial.X[i] += dx[i]
	}
	for i := range d.Trial.S {
		d.Trial.S[i] += ds[i]
	}
	d.trialTag = d.bumpTag()
}

// SetTrialSVariables overwrites trial s directly (used by the magic
// step, spec.md §4.5).
func (d *Data) SetTrialSVariables(s []float64) {
	copy(d.Trial.S, s)
	d.trialTag = d.bumpTag()
}

// SetTrialEqMultipliersFromStep sets trial y_c,y_d = curr + alpha*(Δy_c,
// Δy_d).
func (d *Data) SetTrialEqMultipliersFromStep(alpha float64, deltaYC, deltaYD []float64) {
	for i := range d.Trial.YC {
		d.Trial.YC[i] = d.Curr.YC[i] + alpha*deltaYC[i]
	}
	for i := range d.Trial.YD {
		d.Trial.YD[i] = d.Curr.YD[i] + alpha*deltaYD[i]
	}
	d.trialTag = d.bumpTag()
}

// SetTrialBoundMultipliersFromStep sets the trial z/v bound multipliers
// from a (possibly different, dual) step length.
func (d *Data) SetTrialBoundMultipliersFromStep(alpha float64, deltaZL, deltaZU, deltaVL, deltaVU []float64) {
	for i := range d.Trial.ZL {
		d.Trial.ZL[i] = d.Curr.ZL[i] + alpha*deltaZL[i]
	}
	for i := range d.Trial.ZU {
		d.Trial.ZU[i] = d.Curr.ZU[i] + alpha*deltaZU[i]
	}
	for i := range d.Trial.VL {
		d.Trial.VL[i] = d.Curr.VL[i] + alpha*deltaVL[i]
	}
	for i := range d.Trial.VU {
		d.Trial.VU[i] = d.Curr.VU[i] + alpha*deltaVU[i]
	}
	d.trialTag = d.bumpTag()
}

// AcceptTrialPoint commits the trial iterate as the new current iterate
// — the single C3 mutation point per outer iteration (spec.md §5).
func (d *Data) AcceptTrialPoint() {
	d.Curr.copyFrom(d.Trial)
	d.currTag = d.bumpTag()
	d.IterCount++
}

// ResetInfo clears the per-iteration diagnostic fields before a new
// line-search sweep begins.
func (d *Data) ResetInfo() {
	d.InfoAlphaPrimal = 0
	d.InfoAlphaDual = 0
	d.InfoAlphaPrimalChar = ' '
	d.InfoLSCount = 0
	d.InfoString = ""
	d.SkipOutput = false
}

// AppendInfoString appends a diagnostic annotation character (e.g. "M"
// for a magic step), matching IpData().Append_info_string in the
// original.
func (d *Data) AppendInfoString(s string) {
	d.InfoString += s
}
