// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/curioloop/barrier/ipopt"
	"github.com/curioloop/barrier/linalg"
	"github.com/curioloop/barrier/nlp"
)

var scenario string

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve one of the built-in demo scenarios",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&scenario, "scenario", "unconstrained",
		"unconstrained | box-bounded | equality-qp | infeasible-start | soc | restoration")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	a, err := buildScenario(scenario)
	if err != nil {
		return err
	}

	p := &ipopt.Problem{Adapter: a, Opts: ipopt.DefaultOptions()}
	p.Opts.Journal = appJournal
	opt, err := p.New()
	if err != nil {
		return err
	}
	w := opt.Init()
	res := opt.Fit(w, nil)
	fmt.Println(res)
	fmt.Printf("x = %v\n", res.X)
	return nil
}

// buildScenario constructs one of the six end-to-end scenarios; the
// ipopt package's tests build their own copies of the unconstrained
// quadratic and the equality-constrained QP, not of the other four.
func buildScenario(name string) (nlp.Adapter, error) {
	switch name {
	case "unconstrained":
		return unconstrainedQuadratic(), nil
	case "box-bounded":
		return boxBoundedQuadratic(), nil
	case "equality-qp":
		return equalityConstrainedQP(), nil
	case "infeasible-start":
		return infeasibleStartInequality(), nil
	case "soc":
		return socExercise(), nil
	case "restoration":
		return restorationTrigger(), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
}

// diagHessian builds a diagonal Hessian triplet with every diagonal
// entry equal to coeff (callers pass 2*sigma or 2*yC[0]), the shape every
// quadratic scenario below needs for the objective's own curvature.
func diagHessian(n int, coeff float64) *linalg.Triplet {
	t := linalg.NewTriplet(n, n, n)
	for i := 0; i < n; i++ {
		t.RowIdx[i], t.ColIdx[i], t.Values[i] = i, i, coeff
	}
	return t
}

// unconstrainedQuadratic: min (x0-3)^2 + (x1+1)^2, no constraints at
// all — the simplest possible barrier subproblem (the bound/filter
// machinery should be a no-op).
func unconstrainedQuadratic() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{0, 0},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0] = 2 * (x[0] - 3)
				g[1] = 2 * (x[1] + 1)
			}
			return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			return diagHessian(2, 2*sigma)
		},
	})
}

// boxBoundedQuadratic: min x0^2+x1^2 subject to x0,x1 >= 1, forcing the
// solution onto the lower bound and exercising the fraction-to-boundary
// rule and the z_L multiplier path.
func boxBoundedQuadratic() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{2, 2},
		Bounds: []nlp.Bound{
			{Lower: 1, Upper: math.NaN()},
			{Lower: 1, Upper: math.NaN()},
		},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 2*x[0], 2*x[1]
			}
			return x[0]*x[0] + x[1]*x[1]
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			return diagHessian(2, 2*sigma)
		},
	})
}

// equalityConstrainedQP: min x0^2+x1^2 subject to x0+x1=1.
func equalityConstrainedQP() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{2, -1},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 2*x[0], 2*x[1]
			}
			return x[0]*x[0] + x[1]*x[1]
		},
		EqCons: []nlp.Evaluation{
			func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 1, 1
				}
				return x[0] + x[1] - 1
			},
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			return diagHessian(2, 2*sigma)
		},
	})
}

// infeasibleStartInequality starts outside 0<=x0+x1<=1 to exercise the
// filter's acceptance of a theta-reducing step. The constraint is
// linear, so a trial point's theta never exceeds the current one and
// the theta_max gate does not fire here.
func infeasibleStartInequality() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{5, 5},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 2*(x[0]-1), 2*(x[1]-1)
			}
			return (x[0]-1)*(x[0]-1) + (x[1]-1)*(x[1]-1)
		},
		IneqCons: []nlp.Cons{
			{Eval: func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 1, 1
				}
				return x[0] + x[1]
			}, Lower: 0, Upper: 1},
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			return diagHessian(2, 2*sigma)
		},
	})
}

// socExercise: a curved constraint boundary (a circle) where the pure
// Newton step typically increases theta on the first backtrack,
// exercising the second-order correction path.
func socExercise() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{2, 0},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 1, 0
			}
			return x[0]
		},
		EqCons: []nlp.Evaluation{
			func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 2*x[0], 2*x[1]
				}
				return x[0]*x[0] + x[1]*x[1] - 1
			},
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			c := 0.0
			if len(yC) > 0 {
				c = 2 * yC[0]
			}
			return diagHessian(2, c)
		},
	})
}

// restorationTrigger sets up a pair of linear equality constraints
// from a starting point far from the feasible point (1,-1). The
// constraints are consistent and linear, so the first full Newton step
// reaches them and is accepted; this scenario does not make the line
// search fall back to PerformRestoration.
func restorationTrigger() nlp.Adapter {
	return nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{10, -10},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 0, 0
			}
			return 0
		},
		EqCons: []nlp.Evaluation{
			func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 1, 0
				}
				return x[0] - 1
			},
			func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 0, 1
				}
				return x[1] + 1
			},
		},
		Hessian: func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet {
			return linalg.NewTriplet(2, 2, 0)
		},
	})
}
