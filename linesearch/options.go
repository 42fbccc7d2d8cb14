// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linesearch implements C7, the filter line search: given a
// search direction it repeatedly backtracks alpha, tests the trial
// point against the current iterate (Armijo/sufficient-reduction) and
// against the filter (C6), optionally tries a second-order correction
// or a magic step, and falls back to restoration (C8) when no alpha in
// [alpha_min,1] is acceptable.
//
// Grounded on original_source/Algorithm/IpFilterLineSearch.cpp in
// full; this package's function names track that file's method names
// closely (FindAcceptableTrialPoint, IsAcceptableToCurrentIterate,
// IsAcceptableToCurrentFilter, CalculateAlphaMin, ...).
package linesearch

import "fmt"

// Options collects every filter line-search parameter spec.md §4.4
// lists, validated once via New the way slsqp.Problem.New validates
// its options (the teacher's Options-struct-plus-constructor idiom).
type Options struct {
	ThetaMaxFact float64 // theta_max = ThetaMaxFact * max(1, theta(x0))
	ThetaMinFact float64 // theta_min = ThetaMinFact * max(1, theta(x0))
	EtaPhi       float64 // Armijo slope fraction
	Delta        float64 // switching-condition constant
	SPhi         float64 // switching-condition phi exponent
	STheta       float64 // switching-condition theta exponent
	GammaPhi     float64 // filter phi margin
	GammaTheta   float64 // filter theta margin
	AlphaMinFrac float64 // alpha_min safeguard fraction
	AlphaRedFactor float64 // backtracking contraction factor
	MaxSOC       int     // max second-order correction steps
	KappaSOC     float64 // SOC acceptance-improvement factor
	ObjMaxInc    float64 // rapid-increase rejection factor
	MagicSteps   bool    // enable the magic-step slack adjustment
	TauMin       float64 // fraction-to-the-boundary floor
}

// DefaultOptions mirrors the original's IpoptNLP defaults (spec.md
// §4.4).
func DefaultOptions() Options {
	return Options{
		ThetaMaxFact:   1e4,
		ThetaMinFact:   1e-4,
		EtaPhi:         1e-4,
		Delta:          1,
		SPhi:           2.3,
		STheta:         1.1,
		GammaPhi:       1e-5,
		GammaTheta:     1e-5,
		AlphaMinFrac:   0.05,
		AlphaRedFactor: 0.5,
		MaxSOC:         4,
		KappaSOC:       0.99,
		ObjMaxInc:      5,
		MagicSteps:     false,
		TauMin:         0.99,
	}
}

// New validates opts, matching slsqp.Problem.New's "construct then
// validate" idiom, and returns a descriptive error for the first
// out-of-range field found.
func New(opts Options) (*Options, error) {
	check := func(cond bool, name string) error {
		if !cond {
			return fmt.Errorf("linesearch: option %s out of range", name)
		}
		return nil
	}
	for _, c := range []error{
		check(opts.ThetaMaxFact > 0, "ThetaMaxFact"),
		check(opts.ThetaMinFact > 0 && opts.ThetaMinFact < opts.ThetaMaxFact, "ThetaMinFact"),
		check(opts.EtaPhi > 0 && opts.EtaPhi < 0.5, "EtaPhi"),
		check(opts.Delta > 0, "Delta"),
		check(opts.SPhi > 1, "SPhi"),
		check(opts.STheta > 1, "STheta"),
		check(opts.GammaPhi > 0 && opts.GammaPhi < 1, "GammaPhi"),
		check(opts.GammaTheta > 0 && opts.GammaTheta < 1, "GammaTheta"),
		check(opts.AlphaMinFrac > 0 && opts.AlphaMinFrac < 1, "AlphaMinFrac"),
		check(opts.AlphaRedFactor > 0 && opts.AlphaRedFactor < 1, "AlphaRedFactor"),
		check(opts.MaxSOC >= 0, "MaxSOC"),
		check(opts.KappaSOC > 0 && opts.KappaSOC < 1, "KappaSOC"),
		check(opts.ObjMaxInc > 1, "ObjMaxInc"),
		check(opts.TauMin > 0 && opts.TauMin < 1, "TauMin"),
	} {
		if c != nil {
			return nil, c
		}
	}
	o := opts
	return &o, nil
}
