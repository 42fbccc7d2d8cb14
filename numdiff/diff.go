package numdiff

import (
	"errors"
	"math"
)

var centralEps = math.Pow(math.Nextafter(1, 2)-1, 1.0/3)

// ApproxSpec approximates the Jacobian of Object: R^N -> R^M by
// central differencing, the only scheme nlp.NewFiniteDifferenceHessian
// needs to turn an analytic Lagrangian gradient into a Hessian
// approximation column by column. diff is filled with
// diff[i+j*N] = d(f_j)/d(x_i).
//
// Reference: https://en.wikipedia.org/wiki/Finite_difference,
// https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
//
// License: https://github.com/scipy/scipy/blob/main/LICENSE.txt
type ApproxSpec struct {
	N, M int
	// Object is the function whose Jacobian is approximated. x is an
	// N-vector, the result an M-vector.
	Object func(x, y []float64)
	// RelStep/AbsStep override the automatically chosen step size; the
	// default (both zero) selects h = cbrt(eps)*sign(x)*max(1,|x|).
	RelStep float64
	AbsStep float64

	f1, f2  []float64
	absStep []float64
}

func (as *ApproxSpec) check(x0, diff []float64) error {
	switch {
	case as.N <= 0 || as.M <= 0:
		return errors.New("numdiff: non-positive dimensions")
	case as.Object == nil:
		return errors.New("numdiff: object function is required")
	case as.N != len(x0):
		return errors.New("numdiff: invalid x0 dimensions")
	case as.N*as.M != len(diff):
		return errors.New("numdiff: invalid diff dimensions")
	}
	if len(as.f1) != as.M {
		as.f1 = make([]float64, as.M)
		as.f2 = make([]float64, as.M)
	}
	if len(as.absStep) != as.N {
		as.absStep = make([]float64, as.N)
	}
	return nil
}

// Diff fills diff with the central-difference Jacobian approximation
// at x0, restoring x0's original values before returning. Object is
// called 2*N times.
func (as *ApproxSpec) Diff(x0, diff []float64) error {
	if err := as.check(x0, diff); err != nil {
		return err
	}
	as.absoluteStep(x0)
	as.approxCentral(x0, diff)
	return nil
}

func (as *ApproxSpec) absoluteStep(x0 []float64) {
	abs, rel := as.AbsStep, as.RelStep
	for i, v := range x0 {
		if abs == 0 && rel == 0 {
			as.absStep[i] = math.Copysign(centralEps, v) * math.Max(1, math.Abs(v))
			continue
		}
		s := abs
		if s == 0 {
			s = math.Copysign(rel, v) * math.Abs(v)
		}
		if (v+s)-v == 0 {
			s = math.Copysign(centralEps, v) * math.Max(1, math.Abs(v))
		}
		as.absStep[i] = math.Abs(s)
	}
}

func (as *ApproxSpec) approxCentral(x0, diff []float64) {
	n, fun := as.N, as.Object
	for i, s := range as.absStep {
		x := x0[i]
		x0[i] = x - s
		fun(x0, as.f1)
		x0[i] = x + s
		fun(x0, as.f2)
		x0[i] = x

		d := 1 / (2 * s)
		for j := 0; j < as.M; j++ {
			diff[i+j*n] = (as.f2[j] - as.f1[j]) * d
		}
	}
}
