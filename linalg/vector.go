package linalg

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AmaxNorm returns the max-norm (infinity norm) ‖x‖_∞ of x.
//
// Used for the max-norm diagnostics of spec.md §3 ("θ(x,s) = ‖...‖
// in a chosen norm (max-norm in diagnostics)"): the dual-infeasibility
// norms of the driver's KKT error and iteration summary.
func AmaxNorm(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, math.Inf(1))
}

// Amax returns max_i |x[i]| (0 for an empty x), the same value as
// AmaxNorm. Mirrors Vector::Amax in the original source, which is
// always the absolute-value max-norm.
func Amax(x []float64) float64 {
	return AmaxNorm(x)
}

// ElementWiseMax sets dst[i] = max(dst[i], src[i]).
func ElementWiseMax(dst, src []float64) {
	for i := range dst {
		dst[i] = math.Max(dst[i], src[i])
	}
}

// ElementWiseMin sets dst[i] = min(dst[i], src[i]).
func ElementWiseMin(dst, src []float64) {
	for i := range dst {
		dst[i] = math.Min(dst[i], src[i])
	}
}

// ElementWiseAbs sets dst[i] = |dst[i]|.
func ElementWiseAbs(dst []float64) {
	for i := range dst {
		dst[i] = math.Abs(dst[i])
	}
}

// ElementWiseSgn sets dst[i] = sign(dst[i]) in {-1, 0, 1}.
func ElementWiseSgn(dst []float64) {
	for i, v := range dst {
		switch {
		case v > 0:
			dst[i] = 1
		case v < 0:
			dst[i] = -1
		default:
			dst[i] = 0
		}
	}
}

// AddScaled computes dst = alpha*x + beta*dst (a generalized Axpy with a
// scale on the destination). No other package in this module calls it.
func AddScaled(alpha float64, x []float64, beta float64, dst []float64) {
	n := len(dst)
	if beta == 0 {
		dzero(dst)
	} else if beta != 1 {
		dscal(n, beta, dst)
	}
	daxpy(n, alpha, x, dst)
}

// Copy copies src into a freshly allocated slice.
func Copy(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}

// Dot returns the inner product of x and y.
func Dot(x, y []float64) float64 {
	return ddot(len(x), x, y)
}

// Axpy computes y += alpha*x.
func Axpy(alpha float64, x []float64, y []float64) {
	daxpy(len(x), alpha, x, y)
}

// Scal computes x *= alpha.
func Scal(alpha float64, x []float64) {
	dscal(len(x), alpha, x)
}

// Zero zeroes x in place.
func Zero(x []float64) {
	dzero(x)
}

// FracToBoundary returns the largest step alpha in [0,1] such that
// x + alpha*dx remains within tau of the boundary on every bounded
// component:
//
//	alpha = min(1, min_{i: dx_i<0, lower_i finite} tau*(x_i-lower_i)/(-dx_i),
//	                min_{i: dx_i>0, upper_i finite} tau*(upper_i-x_i)/dx_i )
//
// lower/upper entries of NaN mean "no bound at this index". tau is the
// fraction-to-the-boundary parameter from spec.md §3 (tau in [tau_min, 1)).
func FracToBoundary(x, dx, lower, upper []float64, tau float64) float64 {
	alpha := 1.0
	for i := range x {
		d := dx[i]
		if d < 0 && !math.IsNaN(lower[i]) {
			slack := x[i] - lower[i]
			if slack < 0 {
				slack = 0
			}
			if cand := tau * slack / -d; cand < alpha {
				alpha = cand
			}
		} else if d > 0 && !math.IsNaN(upper[i]) {
			slack := upper[i] - x[i]
			if slack < 0 {
				slack = 0
			}
			if cand := tau * slack / d; cand < alpha {
				alpha = cand
			}
		}
	}
	if alpha < 0 {
		alpha = 0
	}
	return alpha
}

// TauFromMu derives the fraction-to-the-boundary parameter tau from the
// barrier parameter mu, following the standard Ipopt rule
// tau = max(tau_min, 1 - mu), clipped below at tau_min (spec.md §3: "tau
// in [tau_min, 1)").
func TauFromMu(mu, tauMin float64) float64 {
	tau := 1 - mu
	if tau < tauMin {
		tau = tauMin
	}
	if tau >= 1 {
		tau = 1 - 1e-12
	}
	return tau
}
