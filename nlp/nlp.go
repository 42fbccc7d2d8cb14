// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nlp is the NLP adapter interface (C2): it presents f, ∇f, c,
// d, J_c, J_d and the Hessian of the Lagrangian to the barrier core in
// the already-split form the core's data model (spec.md §3) expects —
// equality residual c(x), inequality residual d(x) with d_L ≤ d(x) ≤
// d_U — together with the bound vectors and permutation operators for
// the four one-sided bound sets. It also carries the evaluation-error
// signaling described in spec.md §6-§7.
//
// Grounded on original_source/Algorithm/IpIpoptNLP.hpp (the virtual
// interface this package generalizes from C++ to a Go interface) and on
// original_source/Apps/StdInterface/IpStdInterfaceTNLP.cpp (the
// callback-adapter role FuncAdapter, below, fills concretely).
package nlp

import (
	"errors"
	"fmt"

	"github.com/curioloop/barrier/linalg"
)

// EvalError is raised when a callback reports failure (spec.md §6: "Any
// callback returning 'not ok' raises an Eval_Error"). The line search
// (C7) catches this at trial-point granularity and rejects the current
// alpha (spec.md §7); it must not be swallowed anywhere else.
type EvalError struct {
	Op  string
	Err error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nlp: %s evaluation failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("nlp: %s evaluation failed", e.Op)
}

func (e *EvalError) Unwrap() error { return e.Err }

// NewEvalError wraps a callback failure as an *EvalError tagged with the
// operation name (used for the line search's "reject this alpha" log
// line per spec.md §7).
func NewEvalError(op string, err error) error {
	if err == nil {
		err = errors.New("not ok")
	}
	return &EvalError{Op: op, Err: err}
}

// IsEvalError reports whether err is (or wraps) an *EvalError.
func IsEvalError(err error) bool {
	var e *EvalError
	return errors.As(err, &e)
}

// Stats holds the per-callback evaluation counters from
// original_source/Algorithm/IpIpoptNLP.hpp (f_evals, grad_f_evals, ...),
// which spec.md's callback surface lists but does not explicitly
// require counting; useful for the CLI summary and for tests asserting
// new_x caching behaves.
type Stats struct {
	FEvals     int
	GradFEvals int
	CEvals     int
	JacCEvals  int
	DEvals     int
	JacDEvals  int
	HEvals     int
}

// Adapter is the core-facing NLP surface (C2). Implementations own the
// "new_x"/"new_λ" caching discipline (spec.md §6) — the core passes
// newX/newLambda through rather than tracking a point cache itself,
// matching IpStdInterfaceTNLP.cpp's approach of forwarding these flags
// straight to the user's C callbacks.
type Adapter interface {
	// N is the number of decision variables. MEq/MIneq are the number of
	// equality / inequality constraints.
	N() int
	MEq() int
	MIneq() int

	// XLower/XUpper are length N; NaN marks "no bound at this index"
	// (spec.md §6: "entries may be -inf/+inf to denote missing bounds").
	XLower() []float64
	XUpper() []float64
	// DLower/DUpper are length MIneq, same NaN convention.
	DLower() []float64
	DUpper() []float64

	// PxL/PxU/PdL/PdU are the permutation operators P_{x_L}, P_{x_U},
	// P_{d_L}, P_{d_U} from spec.md §3, built once from the bound
	// vectors above.
	PxL() *linalg.Projection
	PxU() *linalg.Projection
	PdL() *linalg.Projection
	PdU() *linalg.Projection

	// StartingPoint returns the initial x and, if supplied, the initial
	// bound multipliers (nil when not supplied, letting the driver pick
	// a default).
	StartingPoint() (x0, zL0, zU0 []float64)
	// StartingMultipliers returns the initial equality/inequality
	// multipliers (nil when not supplied).
	StartingMultipliers() (yC0, yD0 []float64)

	Obj(x []float64, newX bool) (float64, error)
	GradObj(x []float64, newX bool, grad []float64) error
	ConsEq(x []float64, newX bool, c []float64) error
	ConsIneq(x []float64, newX bool, d []float64) error
	JacEq(x []float64, newX bool) (*linalg.Triplet, error)
	JacIneq(x []float64, newX bool) (*linalg.Triplet, error)
	// Hessian returns the (lower-triangular) Hessian of the Lagrangian
	// sigma*f(x) + yC^T c(x) + yD^T d(x) in triplet form.
	Hessian(x []float64, newX bool, sigma float64, yC, yD []float64, newLambda bool) (*linalg.Triplet, error)

	// AdjustBounds is called if slacks become too small (spec.md §6's
	// callback surface implies a well-posed problem; this mirrors
	// IpoptNLP::AdjustVariableBounds, a seldom-exercised safety valve
	// kept here for interface completeness). The default FuncAdapter
	// implementation is a no-op.
	AdjustBounds(newXL, newXU, newDL, newDU []float64)

	Stats() Stats
}
