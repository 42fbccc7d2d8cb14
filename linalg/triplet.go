package linalg

import "gonum.org/v1/gonum/mat"

// Triplet is a sparse matrix in (row, col, value) triplet form, the wire
// format the NLP adapter's Jacobian/Hessian callbacks use (spec.md §6:
// "eval_jac_g(..., nnz, irow, jcol, values) — structure-only when values
// is absent, values-only when irow/jcol absent"). It plays the role the
// design notes (§9) assign to a "triplet-filling utility": rather than a
// dynamic-typecast visitor over a polymorphic Matrix hierarchy, callers
// fill RowIdx/ColIdx (structure) and Values (entries) directly, which
// is the only kind of matrix this core ever builds.
type Triplet struct {
	NRows, NCols int
	RowIdx       []int
	ColIdx       []int
	Values       []float64
}

// NewTriplet allocates a triplet matrix of the given dimensions and
// non-zero count, with structure left to be filled by the caller.
func NewTriplet(nrows, ncols, nnz int) *Triplet {
	return &Triplet{
		NRows: nrows, NCols: ncols,
		RowIdx: make([]int, nnz),
		ColIdx: make([]int, nnz),
		Values: make([]float64, nnz),
	}
}

// NNZ returns the number of stored entries.
func (t *Triplet) NNZ() int { return len(t.Values) }

// MultVector computes y = alpha*T*x + beta*y.
func (t *Triplet) MultVector(alpha float64, x []float64, beta float64, y []float64) {
	if beta != 1 {
		dscal(len(y), beta, y)
	}
	for k, v := range t.Values {
		y[t.RowIdx[k]] += alpha * v * x[t.ColIdx[k]]
	}
}

// TransMultVector computes y = alpha*T^T*x + beta*y.
func (t *Triplet) TransMultVector(alpha float64, x []float64, beta float64, y []float64) {
	if beta != 1 {
		dscal(len(y), beta, y)
	}
	for k, v := range t.Values {
		y[t.ColIdx[k]] += alpha * v * x[t.RowIdx[k]]
	}
}

// ToDense materializes the triplet matrix as a gonum dense matrix, used
// by the reference KKT factorizer (pdsolve.DenseFactorizer) to assemble
// the augmented primal-dual system before factoring it.
func (t *Triplet) ToDense() *mat.Dense {
	d := mat.NewDense(t.NRows, t.NCols, nil)
	for k, v := range t.Values {
		d.Set(t.RowIdx[k], t.ColIdx[k], d.At(t.RowIdx[k], t.ColIdx[k])+v)
	}
	return d
}

// AddToDenseSym accumulates this triplet's entries into a dense
// symmetric block of dst starting at (rowOff, colOff), scaled by alpha.
// Used when assembling the augmented KKT matrix from several triplet
// blocks (Jacobians, Hessian, regularization) into one dense system.
func (t *Triplet) AddToDenseSym(dst *mat.Dense, rowOff, colOff int, alpha float64) {
	for k, v := range t.Values {
		r, c := rowOff+t.RowIdx[k], colOff+t.ColIdx[k]
		dst.Set(r, c, dst.At(r, c)+alpha*v)
	}
}
