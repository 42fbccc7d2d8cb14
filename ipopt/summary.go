// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipopt

import (
	"fmt"
	"math"

	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/journal"
	"github.com/curioloop/barrier/linalg"
)

// summaryHeader mirrors original_source/Algorithm/IpOrigIpoptNLP's
// iteration-output column layout (spec.md §4.6), reprinted every 10
// lines by printIterationSummary.
const summaryHeader = "iter     objective     inf_pr    inf_du   lg(mu)     ||d||   lg(rg) alpha_du alpha_pr  ls  info\n"

// printIterationSummary emits the C9 fixed-width per-iteration line:
// objective, primal/dual infeasibility, log10(mu), the step's infinity
// norm, log10 of the regularization actually used (or "   -  " if
// none), the dual and primal step lengths with the primal-step flag
// character, the line-search trial count, and any free-form
// annotations accumulated on Data.InfoString.
func (o *Optimizer) printIterationSummary(w *Workspace) {
	j := o.opts.Journal
	data := w.data

	if data.IterCount%10 == 1 {
		j.Dump(journal.LevelSummary, journal.CatMain, summaryHeader)
	}

	f, _ := o.adapter.Obj(data.Curr.X, false)
	infPr, _ := w.quantities.CurrConstraintViolation()
	infDu := dualInfeasibility(w)

	regCol := "   -  "
	if data.RegularizationX > 0 {
		regCol = fmt.Sprintf("%6.2f", math.Log10(data.RegularizationX))
	}

	flag := data.InfoAlphaPrimalChar
	if flag == 0 {
		flag = ' '
	}

	j.Dump(journal.LevelSummary, journal.CatMain,
		"%4d %14.7e %9.2e %9.2e %6.2f %9.2e %s %8.2e %8.2e%c %3d  %s\n",
		data.IterCount, f, infPr, infDu, math.Log10(data.Mu), deltaInfNorm(data), regCol,
		data.InfoAlphaDual, data.InfoAlphaPrimal, flag, data.InfoLSCount, data.InfoString)
}

// dualInfeasibility is ||∇_x L, ∇_s L||_inf, unscaled (the scaled
// version feeding the convergence test lives in kktError; the
// iteration summary reports the raw quantity the way the original
// does).
func dualInfeasibility(w *Workspace) float64 {
	gx, gs, err := w.quantities.GradLagrangian()
	if err != nil {
		return math.NaN()
	}
	return math.Max(linalg.AmaxNorm(gx), linalg.AmaxNorm(gs))
}

// deltaInfNorm is ‖Δ‖_∞ over the full primal-dual step just taken.
func deltaInfNorm(data *iterate.Data) float64 {
	m := 0.0
	for _, v := range [][]float64{
		data.DeltaX, data.DeltaS, data.DeltaYC, data.DeltaYD,
		data.DeltaZL, data.DeltaZU, data.DeltaVL, data.DeltaVU,
	} {
		for _, x := range v {
			if a := math.Abs(x); a > m {
				m = a
			}
		}
	}
	return m
}
