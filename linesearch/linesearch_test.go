// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"
	"testing"

	"github.com/curioloop/barrier/calc"
	"github.com/curioloop/barrier/filter"
	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/nlp"
)

func newUnconstrainedDescentSetup(t *testing.T) *LineSearch {
	t.Helper()
	a := nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  1,
		X0: []float64{5},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0] = 1
			}
			return x[0]
		},
	})
	data := iterate.NewData(a, 0.99)
	if err := data.InitializeStructures(nil); err != nil {
		t.Fatalf("InitializeStructures: %v", err)
	}
	data.Mu = 0

	opts, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New(DefaultOptions()): %v", err)
	}

	return &LineSearch{
		Opts:       opts,
		Data:       data,
		Adapter:    a,
		Quantities: calc.New(data, a),
		Filter:     filter.New(opts.GammaPhi, opts.GammaTheta),
	}
}

func TestFindAcceptableTrialPointAcceptsFullDescentStep(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	err := ls.FindAcceptableTrialPoint([]float64{-1}, nil, nil, nil, 1.0)
	if err != nil {
		t.Fatalf("FindAcceptableTrialPoint: %v", err)
	}
	if math.Abs(ls.Data.Curr.X[0]-4) > 1e-12 {
		t.Fatalf("Curr.X[0] = %v, want 4", ls.Data.Curr.X[0])
	}
	if ls.Data.IterCount != 1 {
		t.Fatalf("IterCount = %d, want 1", ls.Data.IterCount)
	}
	if ls.Data.InfoAlphaPrimal != 1 {
		t.Fatalf("InfoAlphaPrimal = %v, want 1", ls.Data.InfoAlphaPrimal)
	}
	if ls.Data.InfoAlphaPrimalChar != 'f' {
		t.Fatalf("InfoAlphaPrimalChar = %q, want 'f'", ls.Data.InfoAlphaPrimalChar)
	}
}

// TestIsFtypeRequiresThetaBelowThetaMin guards spec.md §4.4 step 2c's
// "f-type AND theta_cur <= theta_min" conjunct: a switching-condition
// step at a theta above theta_min must still take the
// sufficient-reduction branch, not the Armijo branch.
func TestIsFtypeRequiresThetaBelowThetaMin(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	ls.thetaMin = 1
	alpha, deltaPhi := 1.0, -2.0

	if !ls.isSwitchingCondition(alpha, 0.5, deltaPhi) {
		t.Fatal("expected isSwitchingCondition to hold on its own at this theta")
	}
	if !ls.isSwitchingCondition(alpha, 2.0, deltaPhi) {
		t.Fatal("expected isSwitchingCondition to hold on its own at theta 2")
	}
	if !ls.isFtype(alpha, 0.5, deltaPhi) {
		t.Fatal("isFtype should hold when thetaCurr <= thetaMin")
	}
	if ls.isFtype(alpha, 2.0, deltaPhi) {
		t.Fatal("isFtype must not hold when thetaCurr > thetaMin, even if isSwitchingCondition does")
	}
}

// TestAugmentFilterReportsFtypeSkip checks augmentFilter's return value
// (consumed by FindAcceptableTrialPoint to set the 'f'/'h' iterate flag)
// against the same thetaMin-gated ftype condition.
func TestAugmentFilterReportsFtypeSkip(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	ls.thetaMin = 1
	alpha, deltaPhi := 1.0, -2.0
	phiCurr := 10.0
	phiTrialOK := phiCurr + ls.Opts.EtaPhi*alpha*deltaPhi // satisfies the Armijo test

	if augmented := ls.augmentFilter(phiCurr, 0.5, phiTrialOK, 0.1, alpha, deltaPhi); augmented {
		t.Fatal("expected no filter augmentation for an ftype step passing the Armijo test")
	}
	ls.Filter.Clear()
	if augmented := ls.augmentFilter(phiCurr, 2.0, phiTrialOK, 0.1, alpha, deltaPhi); !augmented {
		t.Fatal("expected filter augmentation when thetaCurr > thetaMin disqualifies the ftype branch")
	}
}

// TestTrySecondOrderCorrectionSkippedAfterFirstTrial guards spec.md
// §4.4.2: SOC is only attempted at the first backtracking trial
// (alpha == alphaMax), never on a subsequently contracted alpha.
func TestTrySecondOrderCorrectionSkippedAfterFirstTrial(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	ls.Opts.MaxSOC = 1
	ls.SOC = func(cTrial, dMinusSTrial []float64) ([]float64, []float64, []float64, []float64, error) {
		t.Fatal("SOC must not be invoked on a non-first trial")
		return nil, nil, nil, nil, nil
	}

	alphaMax := 1.0
	contractedAlpha := alphaMax * ls.Opts.AlphaRedFactor
	soc, err := ls.trySecondOrderCorrection(contractedAlpha, alphaMax, 10, 0, -1, 0.1)
	if err != nil {
		t.Fatalf("trySecondOrderCorrection: %v", err)
	}
	if soc {
		t.Fatal("expected SOC to report false on a non-first trial")
	}
}

// TestTrySecondOrderCorrectionSkippedWhenThetaImproved guards the other
// half of the same gate: SOC only fires when the trial made theta
// worse or equal, even on the first trial.
func TestTrySecondOrderCorrectionSkippedWhenThetaImproved(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	ls.Opts.MaxSOC = 1
	ls.SOC = func(cTrial, dMinusSTrial []float64) ([]float64, []float64, []float64, []float64, error) {
		t.Fatal("SOC must not be invoked when the trial reduced theta")
		return nil, nil, nil, nil, nil
	}

	alphaMax := 1.0
	soc, err := ls.trySecondOrderCorrection(alphaMax, alphaMax, 10, 1.0, -1, 0.5)
	if err != nil {
		t.Fatalf("trySecondOrderCorrection: %v", err)
	}
	if soc {
		t.Fatal("expected SOC to report false when thetaTrial improved on thetaCurr")
	}
}

func TestCalculateAlphaMinUsesSafeguardForAscentDirection(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	got := ls.calculateAlphaMin(0, 1) // deltaPhi >= 0: an ascent direction
	want := ls.Opts.AlphaMinFrac * ls.Opts.GammaTheta
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("calculateAlphaMin = %v, want %v", got, want)
	}
}

func TestContractOrGiveUpSignalsExhaustion(t *testing.T) {
	ls := newUnconstrainedDescentSetup(t)
	alpha := 1.0
	nSteps := 0
	alphaMin := 0.1
	for ls.contractOrGiveUp(&alpha, alphaMin, &nSteps) {
		nSteps++
		if nSteps > 100 {
			t.Fatal("contractOrGiveUp never signaled exhaustion")
		}
	}
	if alpha >= alphaMin {
		t.Fatalf("alpha = %v, expected it to have fallen below alphaMin %v", alpha, alphaMin)
	}
}
