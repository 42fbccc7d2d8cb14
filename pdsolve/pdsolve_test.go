// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdsolve

import (
	"math"
	"testing"
)

func TestSolveBlockDiagonalSystem(t *testing.T) {
	sys := NewSystem(2, 1)
	sys.Add(0, 0, 2)
	sys.Add(1, 1, 3)
	sys.Add(2, 2, -1)

	solver := NewSolver(NewDenseFactorizer(), DefaultOptions())
	sol, err := solver.Solve(sys, []float64{4, 6, -1})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := []float64{2, 2, 1}
	for i, w := range want {
		if math.Abs(sol[i]-w) > 1e-9 {
			t.Fatalf("sol[%d] = %v, want %v", i, sol[i], w)
		}
	}
}

func TestSolveRetriesRegularizationUntilInertiaCorrect(t *testing.T) {
	// a zero primal block has no positive eigenvalue until regularized.
	sys := NewSystem(1, 0)
	opts := DefaultOptions()
	opts.DeltaXStart = 1e-2
	solver := NewSolver(NewDenseFactorizer(), opts)

	sol, err := solver.Solve(sys, []float64{1})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := 1.0 / opts.DeltaXStart
	if math.Abs(sol[0]-want) > 1e-6 {
		t.Fatalf("sol[0] = %v, want %v", sol[0], want)
	}
}

func TestSolveExhaustsRegularization(t *testing.T) {
	sys := NewSystem(1, 0)
	opts := DefaultOptions()
	opts.MaxTries = 0
	solver := NewSolver(NewDenseFactorizer(), opts)

	if _, err := solver.Solve(sys, []float64{1}); err == nil {
		t.Fatal("expected a zero retry budget to exhaust immediately")
	}
}
