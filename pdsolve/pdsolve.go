// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pdsolve implements C5, the primal-dual KKT system solve: it
// assembles the augmented Newton system for the barrier subproblem,
// factors it through a pluggable Factorizer, and retries with
// increasing regularization when the factorization's inertia doesn't
// match what a descent direction requires (spec.md §6-§7).
//
// Grounded on original_source/Algorithm/IpPDSystemSolver.hpp (the
// solve-with-regularization-retry loop) and on
// original_source/LinAlg/IpSymLinearSolver.hpp (the factor/inertia
// split this package's Factorizer interface generalizes).
package pdsolve

import (
	"errors"
	"fmt"
)

// Factorization is a completed factorization of one KKT matrix: it can
// report the inertia (count of positive, negative and zero eigenvalues)
// and solve for a right-hand side.
type Factorization interface {
	Inertia() (pos, neg, zero int)
	Solve(rhs []float64) ([]float64, error)
}

// Factorizer factors a dense symmetric KKT matrix of the given
// dimension. Implementations may be exact (dense eigen-based inertia,
// pdsolve.DenseFactorizer) or iterative; the core only depends on this
// interface, never on a concrete linear-algebra package, so a sparse
// symmetric-indefinite solver could be substituted without touching
// the rest of the module (spec.md §1 keeps the actual sparse solver out
// of scope).
type Factorizer interface {
	Factor(kkt *System) (Factorization, error)
}

// System is the augmented primal-dual KKT matrix plus the block sizes
// a Factorizer needs to judge inertia correctness: nPrimal rows/cols
// belong to the (x,s) block, nDual belong to the (y_c,y_d) block.
type System struct {
	Dim     int
	NPrimal int
	NDual   int

	// Entries is the dense row-major KKT matrix (Dim x Dim, symmetric);
	// Add fills both triangles, and DenseFactorizer reads the upper
	// triangle, so an assembler that writes Entries directly fills both.
	Entries [][]float64

	// DeltaX, DeltaC are the regularization terms currently added to
	// the primal and dual diagonal blocks respectively (spec.md §7).
	DeltaX, DeltaC float64
}

// NewSystem allocates a zeroed dim x dim augmented system.
func NewSystem(nPrimal, nDual int) *System {
	dim := nPrimal + nDual
	e := make([][]float64, dim)
	for i := range e {
		e[i] = make([]float64, dim)
	}
	return &System{Dim: dim, NPrimal: nPrimal, NDual: nDual, Entries: e}
}

// Add accumulates v into (row,col) and, off-diagonal, its symmetric
// mirror (col,row).
func (s *System) Add(row, col int, v float64) {
	s.Entries[row][col] += v
	if row != col {
		s.Entries[col][row] += v
	}
}

// ApplyRegularization adds deltaX to every diagonal entry of the
// primal block and subtracts deltaC from every diagonal entry of the
// dual block, replacing any regularization from a previous retry.
func (s *System) ApplyRegularization(deltaX, deltaC float64) {
	for i := 0; i < s.NPrimal; i++ {
		s.Entries[i][i] += deltaX - s.DeltaX
	}
	for i := s.NPrimal; i < s.Dim; i++ {
		s.Entries[i][i] -= deltaC - s.DeltaC
	}
	s.DeltaX, s.DeltaC = deltaX, deltaC
}

// Options controls the regularization retry loop (spec.md §7's
// "increase δ_x, δ_c geometrically until the inertia is correct or a
// retry budget is exhausted").
type Options struct {
	DeltaXStart  float64
	DeltaXMax    float64
	DeltaXFactor float64
	DeltaCStart  float64
	MaxTries     int
}

// DefaultOptions mirrors the original's IpoptNLP defaults (§7).
func DefaultOptions() Options {
	return Options{
		DeltaXStart:  1e-4,
		DeltaXMax:    1e10,
		DeltaXFactor: 8,
		DeltaCStart:  1e-8,
		MaxTries:     40,
	}
}

// Solver drives Factorizer through the regularization retry loop.
type Solver struct {
	Factorizer Factorizer
	Opts       Options

	lastDeltaX float64
}

// NewSolver builds a Solver with the given factorizer and options.
func NewSolver(f Factorizer, opts Options) *Solver {
	return &Solver{Factorizer: f, Opts: opts}
}

// LastDeltaX reports the primal regularization δ_x the most recent
// successful Solve settled on (0 if none was needed), for the C9
// iteration summary's regularization column.
func (s *Solver) LastDeltaX() float64 { return s.lastDeltaX }

// ErrRegularizationExhausted is returned when no amount of
// regularization (up to Opts.DeltaXMax, within Opts.MaxTries attempts)
// produces the correct inertia; the driver (ipopt.Optimizer.Fit) falls
// back to the restoration phase when it sees this error (spec.md §7).
var ErrRegularizationExhausted = errors.New("pdsolve: regularization exhausted without correct inertia")

// Solve factors sys (possibly retrying with increasing regularization)
// and returns the solution to sys*sol = rhs. It requires, for a
// well-posed barrier subproblem, exactly NPrimal positive and NDual
// negative eigenvalues; any other inertia triggers a regularization
// bump and retry.
func (s *Solver) Solve(sys *System, rhs []float64) ([]float64, error) {
	deltaX := 0.0
	deltaC := 0.0
	if s.lastDeltaX > 0 {
		deltaX = s.lastDeltaX / s.Opts.DeltaXFactor
		if deltaX < s.Opts.DeltaXStart {
			deltaX = 0
		}
	}

	for try := 0; try < s.Opts.MaxTries; try++ {
		sys.ApplyRegularization(deltaX, deltaC)
		fac, err := s.Factorizer.Factor(sys)
		if err == nil {
			pos, neg, zero := fac.Inertia()
			if pos == sys.NPrimal && neg == sys.NDual && zero == 0 {
				s.lastDeltaX = deltaX
				return fac.Solve(rhs)
			}
		}

		if deltaX == 0 {
			deltaX = s.Opts.DeltaXStart
		} else {
			deltaX *= s.Opts.DeltaXFactor
		}
		if deltaC == 0 {
			deltaC = s.Opts.DeltaCStart
		}
		if deltaX > s.Opts.DeltaXMax {
			return nil, fmt.Errorf("%w: delta_x reached %.3e", ErrRegularizationExhausted, deltaX)
		}
	}
	return nil, ErrRegularizationExhausted
}
