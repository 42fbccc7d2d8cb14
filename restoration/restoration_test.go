package restoration

import (
	"math"
	"testing"

	"github.com/curioloop/barrier/iterate"
	"github.com/curioloop/barrier/nlp"
)

func TestFeasibilityRestorerReducesViolation(t *testing.T) {
	// min 0, subject to x0+x1 = 3, starting far from feasibility.
	a := nlp.NewFuncAdapter(nlp.FuncAdapterSpec{
		N:  2,
		X0: []float64{0, 0},
		EqCons: []nlp.Evaluation{
			func(x, g []float64) float64 {
				if g != nil {
					g[0], g[1] = 1, 1
				}
				return x[0] + x[1] - 3
			},
		},
		Object: func(x, g []float64) float64 {
			if g != nil {
				g[0], g[1] = 0, 0
			}
			return 0
		},
	})

	data := iterate.NewData(a, 0.99)
	if err := data.InitializeStructures(nil); err != nil {
		t.Fatal(err)
	}

	r := New(data, a, DefaultOptions(), nil)
	if err := r.PerformRestoration(); err != nil {
		t.Fatalf("PerformRestoration() = %v", err)
	}

	c := make([]float64, 1)
	if err := a.ConsEq(data.Curr.X, true, c); err != nil {
		t.Fatal(err)
	}
	if math.Abs(c[0]) > 1.0 {
		t.Fatalf("residual after restoration = %v, want small", c[0])
	}
}
