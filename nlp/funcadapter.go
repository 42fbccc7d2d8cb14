package nlp

import (
	"math"

	"github.com/curioloop/barrier/linalg"
)

// Evaluation evaluates a scalar function and, when g is non-nil, its
// gradient at x — the same shape as slsqp.Evaluation /
// lbfgsb.Evaluation in the teacher, reused here for the objective and
// each scalar constraint.
type Evaluation func(x []float64, g []float64) (f float64)

// Cons is one scalar inequality constraint d_j(x) together with its
// bounds d_L_j <= d_j(x) <= d_U_j. Use math.NaN() for a missing bound.
type Cons struct {
	Eval  Evaluation
	Lower float64
	Upper float64
}

// HessianFunc returns the (lower-triangular) Hessian triplet of
// sigma*f(x) + yC^T c(x) + yD^T d(x), pattern fixed across calls
// (spec.md §6: "eval_h ... Hessian of sigma*f + lambda^T g"). A problem
// may supply the exact analytic Hessian; when FuncAdapterSpec.Hessian is
// nil, FuncAdapter falls back to NewFiniteDifferenceHessian.
type HessianFunc func(x []float64, sigma float64, yC, yD []float64) *linalg.Triplet

// Bound is a closed interval [Lower, Upper]; use math.NaN() for an
// unbounded side. Mirrors slsqp.Bound.
type Bound struct {
	Lower, Upper float64
}

// FuncAdapter is the reference Adapter implementation built directly
// from closures, the way slsqp.Problem/lbfgsb.Problem are built from
// Evaluation callbacks, and matching the callback-based role of
// original_source/Apps/StdInterface/IpStdInterfaceTNLP.cpp. It is the
// concrete collaborator spec.md §1 treats as external-at-the-interface;
// this module ships it so end-to-end problems (spec.md §8) are
// expressible and testable.
type FuncAdapter struct {
	n int

	obj     Evaluation
	eqCons  []Evaluation
	ineqCon []Cons
	hess    HessianFunc
	fdHess  HessianFunc

	xBounds []Bound

	x0, zL0, zU0 []float64
	yC0, yD0     []float64

	xL, xU []float64
	dL, dU []float64
	pxL    *linalg.Projection
	pxU    *linalg.Projection
	pdL    *linalg.Projection
	pdU    *linalg.Projection

	stats Stats
}

// FuncAdapterSpec collects the inputs to NewFuncAdapter.
type FuncAdapterSpec struct {
	N       int
	X0      []float64
	ZL0, ZU0 []float64
	YC0, YD0 []float64
	Bounds  []Bound // length N, NaN marks a missing side; nil leaves every variable unbounded
	Object  Evaluation
	EqCons  []Evaluation
	IneqCons []Cons
	Hessian HessianFunc
}

// NewFuncAdapter builds a reference Adapter from plain closures.
func NewFuncAdapter(spec FuncAdapterSpec) *FuncAdapter {
	n := spec.N
	bounds := spec.Bounds
	if bounds == nil {
		bounds = make([]Bound, n)
		for i := range bounds {
			bounds[i] = Bound{math.NaN(), math.NaN()}
		}
	}
	xL := make([]float64, n)
	xU := make([]float64, n)
	for i, b := range bounds {
		xL[i], xU[i] = b.Lower, b.Upper
	}

	dL := make([]float64, len(spec.IneqCons))
	dU := make([]float64, len(spec.IneqCons))
	for j, c := range spec.IneqCons {
		dL[j], dU[j] = c.Lower, c.Upper
	}

	a := &FuncAdapter{
		n:       n,
		obj:     spec.Object,
		eqCons:  append([]Evaluation{}, spec.EqCons...),
		ineqCon: append([]Cons{}, spec.IneqCons...),
		hess:    spec.Hessian,
		xBounds: bounds,
		x0:      spec.X0, zL0: spec.ZL0, zU0: spec.ZU0,
		yC0: spec.YC0, yD0: spec.YD0,
		xL: xL, xU: xU, dL: dL, dU: dU,
	}
	a.pxL = linalg.NewProjection(xL)
	a.pxU = linalg.NewProjection(xU)
	a.pdL = linalg.NewProjection(dL)
	a.pdU = linalg.NewProjection(dU)
	a.fdHess = NewFiniteDifferenceHessian(n, a.obj, a.eqCons, a.ineqCon)
	return a
}

func (a *FuncAdapter) N() int      { return a.n }
func (a *FuncAdapter) MEq() int    { return len(a.eqCons) }
func (a *FuncAdapter) MIneq() int  { return len(a.ineqCon) }
func (a *FuncAdapter) XLower() []float64 { return a.xL }
func (a *FuncAdapter) XUpper() []float64 { return a.xU }
func (a *FuncAdapter) DLower() []float64 { return a.dL }
func (a *FuncAdapter) DUpper() []float64 { return a.dU }
func (a *FuncAdapter) PxL() *linalg.Projection { return a.pxL }
func (a *FuncAdapter) PxU() *linalg.Projection { return a.pxU }
func (a *FuncAdapter) PdL() *linalg.Projection { return a.pdL }
func (a *FuncAdapter) PdU() *linalg.Projection { return a.pdU }

func (a *FuncAdapter) StartingPoint() (x0, zL0, zU0 []float64) {
	return a.x0, a.zL0, a.zU0
}

func (a *FuncAdapter) StartingMultipliers() (yC0, yD0 []float64) {
	return a.yC0, a.yD0
}

func (a *FuncAdapter) Obj(x []float64, newX bool) (float64, error) {
	a.stats.FEvals++
	return a.obj(x, nil), nil
}

func (a *FuncAdapter) GradObj(x []float64, newX bool, grad []float64) error {
	a.stats.GradFEvals++
	a.obj(x, grad)
	return nil
}

func (a *FuncAdapter) ConsEq(x []float64, newX bool, c []float64) error {
	a.stats.CEvals++
	for j, cons := range a.eqCons {
		c[j] = cons(x, nil)
	}
	return nil
}

func (a *FuncAdapter) ConsIneq(x []float64, newX bool, d []float64) error {
	a.stats.DEvals++
	for j, cons := range a.ineqCon {
		d[j] = cons.Eval(x, nil)
	}
	return nil
}

func (a *FuncAdapter) JacEq(x []float64, newX bool) (*linalg.Triplet, error) {
	a.stats.JacCEvals++
	return denseJacobian(x, a.n, a.eqCons), nil
}

func (a *FuncAdapter) JacIneq(x []float64, newX bool) (*linalg.Triplet, error) {
	a.stats.JacDEvals++
	evals := make([]Evaluation, len(a.ineqCon))
	for j, c := range a.ineqCon {
		evals[j] = c.Eval
	}
	return denseJacobian(x, a.n, evals), nil
}

func denseJacobian(x []float64, n int, cons []Evaluation) *linalg.Triplet {
	m := len(cons)
	t := linalg.NewTriplet(m, n, m*n)
	g := make([]float64, n)
	k := 0
	for j, cons := range cons {
		for i := range g {
			g[i] = 0
		}
		cons(x, g)
		for i := 0; i < n; i++ {
			t.RowIdx[k], t.ColIdx[k], t.Values[k] = j, i, g[i]
			k++
		}
	}
	return t
}

func (a *FuncAdapter) Hessian(x []float64, newX bool, sigma float64, yC, yD []float64, newLambda bool) (*linalg.Triplet, error) {
	a.stats.HEvals++
	if a.hess == nil {
		return a.fdHess(x, sigma, yC, yD), nil
	}
	return a.hess(x, sigma, yC, yD), nil
}

func (a *FuncAdapter) AdjustBounds(newXL, newXU, newDL, newDU []float64) {}

func (a *FuncAdapter) Stats() Stats { return a.stats }
