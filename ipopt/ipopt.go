// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ipopt is the top-level driver: it wires the NLP adapter
// (C2), iterate storage (C3), calculated quantities (C4), KKT solve
// (C5), filter (C6), line search (C7) and restoration (C8) into the
// outer barrier-parameter update loop (spec.md §5).
//
// Grounded on slsqp.Problem/Optimizer/Workspace/Result/Summary
// (slsqp/optimize.go in the teacher): a validated Problem.New()
// constructor, an Optimizer holding the immutable spec, a per-run
// Workspace, and a Result/Summary pair reporting the outcome.
package ipopt

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/barrier/calc"
	"github.com/curioloop/barrier/filter"
	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/journal"
	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/linesearch"
	"github.com/curioloop/barrier/nlp"
	"github.com/curioloop/barrier/pdsolve"
	"github.com/curioloop/barrier/restoration"
)

// Status is the terminal outcome of a Solve run.
type Status int

const (
	NotCalled Status = iota
	Success
	MaxIterExceeded
	RestorationFailed
	LineSearchStalled
	InvalidNumber
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case MaxIterExceeded:
		return "maximum iterations exceeded"
	case RestorationFailed:
		return "restoration failed"
	case LineSearchStalled:
		return "line search stalled"
	case InvalidNumber:
		return "invalid number encountered"
	default:
		return "not called"
	}
}

// MuStrategy controls how the barrier parameter decreases between
// subproblems (spec.md §5's "monotone Fiacco-McCormick" option).
type MuStrategy struct {
	Init                   float64
	Min                    float64
	LinearDecreaseFactor   float64
	SuperlinearExponent    float64
	BarrierTolFactor       float64 // subproblem is "solved" once E_mu <= BarrierTolFactor*mu
}

// DefaultMuStrategy mirrors the original's defaults.
func DefaultMuStrategy() MuStrategy {
	return MuStrategy{
		Init:                 0.1,
		Min:                  1e-11,
		LinearDecreaseFactor: 0.2,
		SuperlinearExponent:  1.5,
		BarrierTolFactor:     10,
	}
}

// Options collects every tunable of the outer driver.
type Options struct {
	MaxIterations int
	Tol           float64 // overall (mu=0) KKT tolerance
	SMax          float64 // KKT error scaling cap

	Mu          MuStrategy
	LineSearch  linesearch.Options
	PDSolve     pdsolve.Options
	Restoration restoration.Options

	Journal *journal.Journal
}

// DefaultOptions mirrors the original's top-level defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 300,
		Tol:           1e-8,
		SMax:          100,
		Mu:            DefaultMuStrategy(),
		LineSearch:    linesearch.DefaultOptions(),
		PDSolve:       pdsolve.DefaultOptions(),
		Restoration:   restoration.DefaultOptions(),
	}
}

// Problem specifies the problem for the interior-point optimizer.
type Problem struct {
	Adapter nlp.Adapter
	Opts    Options
}

// New validates the problem, matching slsqp.Problem.New's
// constructor idiom, and returns a ready-to-run Optimizer.
func (p *Problem) New() (*Optimizer, error) {
	if p.Adapter == nil {
		return nil, errors.New("ipopt: adapter is required")
	}
	if p.Adapter.N() <= 0 {
		return nil, errors.New("ipopt: problem dimension must be greater than 0")
	}
	o := p.Opts
	if o.MaxIterations <= 0 {
		return nil, errors.New("ipopt: max iterations must be greater than 0")
	}
	if o.Tol <= 0 {
		return nil, errors.New("ipopt: tolerance must be greater than 0")
	}
	if _, err := linesearch.New(o.LineSearch); err != nil {
		return nil, err
	}
	if o.Journal == nil {
		o.Journal = &journal.Journal{Level: journal.LevelNone}
	}
	return &Optimizer{adapter: p.Adapter, opts: o}, nil
}

// Optimizer is the validated, immutable problem specification.
type Optimizer struct {
	adapter nlp.Adapter
	opts    Options
}

// Workspace holds the mutable per-run solver state; separate
// workspaces let multiple goroutines share one Optimizer (the teacher's
// lbfgsb.Optimizer/slsqp.Optimizer convention).
type Workspace struct {
	data       *iterate.Data
	quantities *calc.Quantities
	filter     *filter.Filter
	solver     *pdsolve.Solver
	ls         *linesearch.LineSearch
	restorer   *restoration.FeasibilityRestorer
}

// Init allocates a fresh Workspace for this Optimizer.
func (o *Optimizer) Init() *Workspace {
	a := o.adapter
	data := iterate.NewData(a, o.opts.LineSearch.TauMin)
	quantities := calc.New(data, a)
	flt := filter.New(o.opts.LineSearch.GammaPhi, o.opts.LineSearch.GammaTheta)

	lsOpts, _ := linesearch.New(o.opts.LineSearch)
	restorer := restoration.New(data, a, o.opts.Restoration, o.opts.Journal)

	ls := &linesearch.LineSearch{
		Opts:       lsOpts,
		Data:       data,
		Adapter:    a,
		Quantities: quantities,
		Filter:     flt,
		Journal:    o.opts.Journal,
		Restorer:   restorer,
	}

	return &Workspace{
		data:       data,
		quantities: quantities,
		filter:     flt,
		solver:     pdsolve.NewSolver(pdsolve.NewDenseFactorizer(), o.opts.PDSolve),
		ls:         ls,
		restorer:   restorer,
	}
}

// Result contains the final result of the optimization run.
type Result struct {
	OK      bool
	X       []float64
	ObjVal  float64
	Stats   nlp.Stats
	Summary
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status  Status
	NumIter int
}

// Fit runs the interior-point algorithm to convergence or failure.
func (o *Optimizer) Fit(w *Workspace, d0 []float64) *Result {
	a := o.adapter
	data := w.data
	if err := data.InitializeStructures(d0); err != nil {
		return &Result{Summary: Summary{Status: InvalidNumber}}
	}
	data.Mu = o.opts.Mu.Init

	status := NotCalled
	for data.IterCount < o.opts.MaxIterations {
		eMu, err := o.kktError(w, data.Mu)
		if err != nil {
			status = InvalidNumber
			break
		}
		if data.Mu <= o.opts.Mu.Min {
			if e0, err := o.kktError(w, 0); err == nil && e0 <= o.opts.Tol {
				status = Success
				break
			}
		}
		if eMu <= o.opts.Mu.BarrierTolFactor*data.Mu {
			o.decreaseMu(w)
			continue
		}

		if err := o.newtonStep(w); err != nil {
			if errors.Is(err, pdsolve.ErrRegularizationExhausted) {
				err = w.restorer.PerformRestoration()
			}
			if err != nil {
				if errors.Is(err, restoration.ErrRestorationFailed) {
					status = RestorationFailed
				} else {
					status = LineSearchStalled
				}
				break
			}
		}

		if o.opts.Journal != nil && !data.SkipOutput {
			o.printIterationSummary(w)
		}
	}
	if status == NotCalled {
		status = MaxIterExceeded
	}

	f, _ := a.Obj(data.Curr.X, false)
	return &Result{
		OK:     status == Success,
		X:      append([]float64{}, data.Curr.X...),
		ObjVal: f,
		Stats:  a.Stats(),
		Summary: Summary{
			Status:  status,
			NumIter: data.IterCount,
		},
	}
}

// decreaseMu applies the Fiacco-McCormick update
// mu = max(mu_min, min(kappa*mu, mu^theta)).
func (o *Optimizer) decreaseMu(w *Workspace) {
	data := w.data
	s := o.opts.Mu
	next := math.Min(s.LinearDecreaseFactor*data.Mu, math.Pow(data.Mu, s.SuperlinearExponent))
	if next < s.Min {
		next = s.Min
	}
	data.Mu = next
	w.quantities.InvalidateMuDependent()
}

// kktError computes the scaled KKT error E_mu (spec.md §5's
// convergence test), following the original's scaling factors s_d,
// s_c.
func (o *Optimizer) kktError(w *Workspace, mu float64) (float64, error) {
	a := o.adapter
	data := w.data
	savedMu := data.Mu
	data.Mu = mu
	w.quantities.InvalidateMuDependent()
	defer func() {
		data.Mu = savedMu
		w.quantities.InvalidateMuDependent()
	}()

	gx, gs, err := w.quantities.GradLagrangian()
	if err != nil {
		return 0, err
	}
	theta, err := w.quantities.CurrConstraintViolation()
	if err != nil {
		return 0, err
	}
	xL, xU, sL, sU, err := w.quantities.Complementarity()
	if err != nil {
		return 0, err
	}

	sMax := o.opts.SMax
	sd := math.Max(sMax, (linalg.Dot(absOf(data.Curr.YC), ones(len(data.Curr.YC)))+
		linalg.Dot(absOf(data.Curr.YD), ones(len(data.Curr.YD))))/
		float64(max(1, a.MEq()+a.MIneq()))) / sMax

	nBound := a.PxL().Dim() + a.PxU().Dim() + a.PdL().Dim() + a.PdU().Dim()
	sc := math.Max(sMax, (sumAbs(data.Curr.ZL)+sumAbs(data.Curr.ZU)+sumAbs(data.Curr.VL)+sumAbs(data.Curr.VU))/
		float64(max(1, nBound))) / sMax

	dualInf := math.Max(linalg.AmaxNorm(gx), linalg.AmaxNorm(gs)) / sd
	complInf := maxAbs4(xL, xU, sL, sU) / sc

	return math.Max(math.Max(dualInf, theta), complInf), nil
}

func absOf(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func sumAbs(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += math.Abs(x)
	}
	return s
}

func maxAbs4(a, b, c, d []float64) float64 {
	m := 0.0
	for _, v := range [][]float64{a, b, c, d} {
		for _, x := range v {
			if ax := math.Abs(x); ax > m {
				m = ax
			}
		}
	}
	return m
}

// String implements fmt.Stringer for Result, for CLI summaries.
func (r *Result) String() string {
	return fmt.Sprintf("status=%s iters=%d f=%.8g", r.Status, r.NumIter, r.ObjVal)
}
