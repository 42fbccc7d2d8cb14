// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"

	"github.com/curioloop/barrier/calc"
	"github.com/curioloop/barrier/filter"
	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/journal"
	"github.com/curioloop/barrier/nlp"
)

// Restorer is invoked when no trial step length in [alpha_min,1] is
// acceptable; its concrete implementation (restoration.FeasibilityRestorer)
// solves an auxiliary feasibility subproblem and commits a new current
// iterate directly into the shared iterate.Data (spec.md §4.4's
// "fall back to restoration" edge case).
type Restorer interface {
	PerformRestoration() error
}

// SOCSolver resolves the already-assembled KKT system with the
// second-order-correction right-hand side (the constraint values at
// the trial point in place of the current ones), returning a corrected
// step. Supplied by the driver, which owns the pdsolve.Solver (whose
// Solve factors the system on every call); linesearch never imports pdsolve directly so
// the two packages compose instead of tangle.
type SOCSolver func(cTrial, dMinusSTrial []float64) (deltaX, deltaS, deltaYC, deltaYD []float64, err error)

// LineSearch is C7: the filter line search.
type LineSearch struct {
	Opts       *Options
	Data       *iterate.Data
	Adapter    nlp.Adapter
	Quantities *calc.Quantities
	Filter     *filter.Filter
	Journal    *journal.Journal
	Restorer   Restorer
	SOC        SOCSolver

	thetaMax, thetaMin float64
	initialized        bool
}

// Init fixes theta_max, theta_min from the starting iterate's
// constraint violation; both stay sticky for the filter's entire
// lifetime (SPEC_FULL.md's Open Question decision, following spec.md
// §9 as stated).
func (ls *LineSearch) Init() error {
	theta0, err := ls.Quantities.CurrConstraintViolation()
	if err != nil {
		return err
	}
	base := math.Max(1, theta0)
	ls.thetaMax = ls.Opts.ThetaMaxFact * base
	ls.thetaMin = ls.Opts.ThetaMinFact * base
	ls.initialized = true
	return nil
}

// compareLE is the shared tolerance helper original_source's
// CompareLE plays: lhs <= rhs up to a relative tolerance scaled by
// basval (SPEC_FULL.md supplemented feature 3).
func compareLE(lhs, rhs, basval float64) bool {
	tol := 1e-15 * math.Abs(basval)
	return lhs <= rhs+tol
}

// FindAcceptableTrialPoint runs the backtracking loop for the given
// search direction, committing the accepted trial point into Data via
// AcceptTrialPoint on success, or invoking Restorer on exhaustion.
// alphaMax is the primal fraction-to-the-boundary step length (spec.md
// §4.4 step 1: "Set α = α_max") — deltaX/deltaS/deltaYC/deltaYD are the
// raw, unscaled Newton direction, and every exponentiated test in this
// loop (isSwitchingCondition, calculateAlphaMin) is only correct against
// the true physical step length, not a fraction of it.
func (ls *LineSearch) FindAcceptableTrialPoint(deltaX, deltaS, deltaYC, deltaYD []float64, alphaMax float64) error {
	if !ls.initialized {
		if err := ls.Init(); err != nil {
			return err
		}
	}
	ls.Data.ResetInfo()

	phiCurr, err := ls.Quantities.CurrBarrierObj()
	if err != nil {
		return err
	}
	thetaCurr, err := ls.Quantities.CurrConstraintViolation()
	if err != nil {
		return err
	}
	deltaPhi, err := ls.Quantities.DirectionalDerivative(deltaX, deltaS)
	if err != nil {
		return err
	}

	alphaMin := ls.calculateAlphaMin(thetaCurr, deltaPhi)
	alpha := alphaMax

	nSteps := 0
	for {
		ls.Data.SetTrialPrimalVariablesFromStep(alpha, deltaX, deltaS)

		thetaTrial, tErr := ls.Quantities.TrialConstraintViolation()
		if tErr == nil {
			if thetaTrial > ls.thetaMax {
				// SPEC_FULL.md supplemented feature 1: the theta_max gate
				// rejects the trial outright, before any f-type/Armijo test.
				nSteps++
				if !ls.contractOrGiveUp(&alpha, alphaMin, &nSteps) {
					return ls.invokeRestoration(alpha, nSteps)
				}
				continue
			}
		}

		accept, evalErr := ls.checkAcceptability(alpha, phiCurr, thetaCurr, deltaPhi, thetaTrial, tErr)
		if evalErr != nil && !nlp.IsEvalError(evalErr) {
			return evalErr
		}
		if accept {
			phiTrial, _ := ls.Quantities.TrialBarrierObj()
			if ls.Opts.MagicSteps {
				ls.performMagicStep()
			}
			augmented := ls.augmentFilter(phiCurr, thetaCurr, phiTrial, thetaTrial, alpha, deltaPhi)
			ls.Data.SetTrialEqMultipliersFromStep(alpha, deltaYC, deltaYD)
			ls.Data.InfoAlphaPrimal = alpha
			ls.Data.InfoLSCount = nSteps + 1
			if augmented {
				ls.Data.InfoAlphaPrimalChar = 'h'
			} else {
				ls.Data.InfoAlphaPrimalChar = 'f'
			}
			ls.Data.AcceptTrialPoint()
			return nil
		}

		if soc, socErr := ls.trySecondOrderCorrection(alpha, alphaMax, phiCurr, thetaCurr, deltaPhi, thetaTrial); socErr == nil && soc {
			return nil
		}

		nSteps++
		if !ls.contractOrGiveUp(&alpha, alphaMin, &nSteps) {
			return ls.invokeRestoration(alpha, nSteps)
		}
	}
}

// contractOrGiveUp backtracks alpha by AlphaRedFactor; it returns false
// once alpha has fallen below alphaMin, signaling the caller to invoke
// restoration.
func (ls *LineSearch) contractOrGiveUp(alpha *float64, alphaMin float64, nSteps *int) bool {
	*alpha *= ls.Opts.AlphaRedFactor
	return *alpha >= alphaMin
}

// calculateAlphaMin computes the safeguard minimum step length below
// which backtracking gives up (original_source's CalculateAlphaMin).
func (ls *LineSearch) calculateAlphaMin(thetaCurr, deltaPhi float64) float64 {
	o := ls.Opts
	if deltaPhi >= 0 {
		return o.AlphaMinFrac * o.GammaTheta
	}
	candidates := []float64{o.GammaTheta}
	if thetaCurr <= ls.thetaMin {
		candidates = append(candidates,
			o.GammaPhi*thetaCurr/(-deltaPhi),
			o.Delta*math.Pow(thetaCurr, o.STheta)/math.Pow(-deltaPhi, o.SPhi))
	} else {
		candidates = append(candidates, o.GammaPhi*thetaCurr/(-deltaPhi))
	}
	m := candidates[0]
	for _, c := range candidates[1:] {
		if c < m {
			m = c
		}
	}
	return o.AlphaMinFrac * m
}

// isSwitchingCondition reports whether the search direction is
// "f-type" at this alpha: a sufficiently objective-decreasing direction
// for which the Armijo test (rather than the theta/phi filter margins)
// governs acceptance.
func (ls *LineSearch) isSwitchingCondition(alpha, thetaCurr, deltaPhi float64) bool {
	if deltaPhi >= 0 {
		return false
	}
	o := ls.Opts
	return alpha*math.Pow(-deltaPhi, o.SPhi) > o.Delta*math.Pow(thetaCurr, o.STheta)
}

// isFtype is original_source's "IsFtype(alpha_primal_test) &&
// curr_theta <= theta_min_" conjunct (IpFilterLineSearch.cpp:482): a
// step only takes the Armijo branch, instead of the sufficient-
// reduction branch, when it is switching-condition f-type *and* the
// current iterate's constraint violation is already small.
func (ls *LineSearch) isFtype(alpha, thetaCurr, deltaPhi float64) bool {
	return ls.isSwitchingCondition(alpha, thetaCurr, deltaPhi) && thetaCurr <= ls.thetaMin
}

// isAcceptableToCurrentIterate implements original_source's
// IsAcceptableToCurrentIterate, including the obj_max_inc rapid-increase
// guard (SPEC_FULL.md supplemented feature 2).
func (ls *LineSearch) isAcceptableToCurrentIterate(alpha, phiCurr, thetaCurr, deltaPhi, phiTrial, thetaTrial float64) bool {
	o := ls.Opts

	if phiTrial > phiCurr {
		basval := 1.0
		if math.Abs(phiCurr) > 10 {
			basval = math.Log10(math.Abs(phiCurr))
		}
		if math.Log10(phiTrial-phiCurr) > o.ObjMaxInc*basval {
			return false
		}
	}

	if ls.isFtype(alpha, thetaCurr, deltaPhi) {
		basval := math.Max(1, math.Abs(phiCurr))
		return compareLE(phiTrial, phiCurr+o.EtaPhi*alpha*deltaPhi, basval)
	}

	thetaOK := compareLE(thetaTrial, (1-o.GammaTheta)*thetaCurr, thetaCurr)
	phiOK := compareLE(phiTrial, phiCurr-o.GammaPhi*thetaCurr, phiCurr)
	return thetaOK || phiOK
}

func (ls *LineSearch) isAcceptableToCurrentFilter(phiTrial, thetaTrial float64) bool {
	return ls.Filter.Acceptable(phiTrial, thetaTrial)
}

// checkAcceptability runs the filter test then the current-iterate
// test, as original_source's CheckAcceptabilityOfTrialPoint does
// (filter first, since it is cheaper and prunes more often).
func (ls *LineSearch) checkAcceptability(alpha, phiCurr, thetaCurr, deltaPhi, thetaTrial float64, thetaErr error) (bool, error) {
	if thetaErr != nil {
		return false, thetaErr
	}
	phiTrial, err := ls.Quantities.TrialBarrierObj()
	if err != nil {
		return false, err
	}
	if !ls.isAcceptableToCurrentFilter(phiTrial, thetaTrial) {
		return false, nil
	}
	return ls.isAcceptableToCurrentIterate(alpha, phiCurr, thetaCurr, deltaPhi, phiTrial, thetaTrial), nil
}

// augmentFilter adds the current iterate's margin-shifted pair
// (phiCurr - GammaPhi*thetaCurr, (1-GammaTheta)*thetaCurr) to the filter
// unless the accepted step was f-type and passed the Armijo test
// (original_source only augments the filter
// when the theta-type branch of acceptance actually applied), and
// reports whether it did so, so the caller can set the 'f'/'h'
// iterate-character flag (spec.md §4.4 step 4) to match.
func (ls *LineSearch) augmentFilter(phiCurr, thetaCurr, phiTrial, thetaTrial, alpha, deltaPhi float64) bool {
	if ls.isFtype(alpha, thetaCurr, deltaPhi) {
		basval := math.Max(1, math.Abs(phiCurr))
		if compareLE(phiTrial, phiCurr+ls.Opts.EtaPhi*alpha*deltaPhi, basval) {
			return false
		}
	}
	ls.Filter.Add(phiCurr-ls.Opts.GammaPhi*thetaCurr, (1-ls.Opts.GammaTheta)*thetaCurr, ls.Data.IterCount)
	return true
}

// epsMach is the machine epsilon, the same Nextafter construction
// numdiff/diff.go roots for its central-difference step size.
var epsMach = math.Nextafter(1, 2) - 1

// performMagicStep adjusts the trial slacks toward d(x_trial) without
// crossing a bound (original_source's PerformMagicStep): Δs_L lifts the
// slack to cure a lower-bound-side residual, Δs_U pushes it down to
// cure an upper-bound-side residual, the combination is suppressed on
// doubly-bounded components it would move strictly further from the
// d_L/d_U midline, and the whole correction is discarded unless it
// clears a 10·ε_mach·‖s_trial‖∞ noise floor.
func (ls *LineSearch) performMagicStep() {
	m := ls.Adapter.MIneq()
	if m == 0 {
		return
	}
	dTrial := make([]float64, m)
	if err := ls.Adapter.ConsIneq(ls.Data.Trial.X, false, dTrial); err != nil {
		return
	}
	dL, dU := ls.Adapter.DLower(), ls.Adapter.DUpper()
	sTrial := ls.Data.Trial.S

	ds := make([]float64, m)
	sNormInf := 0.0
	for j := range ds {
		if a := math.Abs(sTrial[j]); a > sNormInf {
			sNormInf = a
		}
		r := dTrial[j] - sTrial[j]
		hasLower, hasUpper := !math.IsNaN(dL[j]), !math.IsNaN(dU[j])
		var dsL, dsU float64
		if hasLower {
			dsL = math.Max(0, r)
		}
		if hasUpper {
			dsU = math.Min(0, r)
		}
		ds[j] = dsL + dsU

		if hasLower && hasUpper && ds[j] != 0 {
			mid := dL[j] + dU[j]
			before := math.Abs(mid - 2*sTrial[j])
			after := math.Abs(mid - 2*(sTrial[j]+ds[j]))
			if after > before {
				ds[j] = 0
			}
		}
	}

	dsNormInf := 0.0
	for _, v := range ds {
		if a := math.Abs(v); a > dsNormInf {
			dsNormInf = a
		}
	}
	if dsNormInf <= 10*epsMach*sNormInf {
		return
	}

	s := make([]float64, m)
	for j := range s {
		s[j] = sTrial[j] + ds[j]
	}
	ls.Data.SetTrialSVariables(s)
	ls.Data.AppendInfoString("M")
}

// trySecondOrderCorrection attempts up to Opts.MaxSOC second-order
// corrections, but only on the first backtracking trial (alpha ==
// alphaMax) and only when that trial made theta worse or equal
// (original_source's TrySecondOrderCorrection gate,
// IpFilterLineSearch.cpp:260-261: "alpha_primal==alpha_primal_max &&
// theta_curr<=theta_trial && max_soc_>0").
func (ls *LineSearch) trySecondOrderCorrection(alpha, alphaMax, phiCurr, thetaCurr, deltaPhi, thetaTrial float64) (bool, error) {
	if ls.SOC == nil || ls.Opts.MaxSOC == 0 {
		return false, nil
	}
	if alpha != alphaMax || thetaCurr > thetaTrial {
		return false, nil
	}
	thetaOld := thetaCurr

	mEq, mIneq := ls.Adapter.MEq(), ls.Adapter.MIneq()
	cTrial := make([]float64, mEq)
	dTrial := make([]float64, mIneq)
	if mEq > 0 {
		if err := ls.Adapter.ConsEq(ls.Data.Trial.X, false, cTrial); err != nil {
			return false, nil
		}
	}
	if mIneq > 0 {
		if err := ls.Adapter.ConsIneq(ls.Data.Trial.X, false, dTrial); err != nil {
			return false, nil
		}
		for j := range dTrial {
			dTrial[j] -= ls.Data.Trial.S[j]
		}
	}

	for k := 0; k < ls.Opts.MaxSOC; k++ {
		dxSOC, dsSOC, dyc, dyd, err := ls.SOC(cTrial, dTrial)
		if err != nil {
			return false, nil
		}
		ls.Data.AddToTrial(dxSOC, dsSOC)
		thetaTrial, tErr := ls.Quantities.TrialConstraintViolation()
		if tErr != nil || thetaTrial > ls.thetaMax {
			return false, nil
		}
		accept, err := ls.checkAcceptability(alpha, phiCurr, thetaCurr, deltaPhi, thetaTrial, tErr)
		if err != nil {
			return false, nil
		}
		if accept {
			phiTrial, _ := ls.Quantities.TrialBarrierObj()
			ls.augmentFilter(phiCurr, thetaCurr, phiTrial, thetaTrial, alpha, deltaPhi)
			ls.Data.SetTrialEqMultipliersFromStep(1, dyc, dyd)
			ls.Data.InfoAlphaPrimal = alpha
			ls.Data.InfoAlphaPrimalChar = 'S'
			ls.Data.AppendInfoString("S")
			ls.Data.AcceptTrialPoint()
			return true, nil
		}
		if thetaTrial > ls.Opts.KappaSOC*thetaOld {
			// not making progress toward feasibility; abandon SOC
			return false, nil
		}
		thetaOld = thetaTrial
		if mEq > 0 {
			_ = ls.Adapter.ConsEq(ls.Data.Trial.X, false, cTrial)
		}
		if mIneq > 0 {
			if err := ls.Adapter.ConsIneq(ls.Data.Trial.X, false, dTrial); err == nil {
				for j := range dTrial {
					dTrial[j] -= ls.Data.Trial.S[j]
				}
			}
		}
	}
	return false, nil
}

// invokeRestoration records the 'R'/zero-alpha diagnostic entries
// (SPEC_FULL.md supplemented feature 3) and delegates to Restorer.
func (ls *LineSearch) invokeRestoration(lastAlpha float64, nSteps int) error {
	ls.Data.InfoAlphaPrimal = lastAlpha
	ls.Data.InfoAlphaDual = 0
	ls.Data.InfoAlphaPrimalChar = 'R'
	ls.Data.InfoLSCount = nSteps + 1
	if ls.Restorer == nil {
		return errLineSearchStalled
	}
	return ls.Restorer.PerformRestoration()
}

var errLineSearchStalled = lineSearchStalledError{}

type lineSearchStalledError struct{}

func (lineSearchStalledError) Error() string {
	return "linesearch: no acceptable trial point found and no restorer configured"
}
