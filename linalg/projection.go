package linalg

// Projection implements the permutation operators P_{x_L}, P_{x_U},
// P_{d_L}, P_{d_U} from spec.md §3: only bounded components of x (or d)
// have a multiplier, so the reduced-space multiplier vectors are indexed
// densely while the full-space vectors they act on are indexed sparsely.
// A Projection records which full-space indices participate and lets the
// core move between the two spaces without materializing a matrix.
//
// This specializes the teacher's/design-notes' generic "compound
// matrix with kind tags" idea to the one concrete kind
// the core ever needs: a 0/1 selection matrix. A full polymorphic matrix
// hierarchy would be speculative generality the spec never asks for.
type Projection struct {
	indices []int // full-space index for each reduced-space slot
	full    int
}

// NewProjection builds a projection from the bound vector in full space:
// an index participates iff bound[i] is finite (not NaN).
func NewProjection(bound []float64) *Projection {
	p := &Projection{full: len(bound)}
	for i, b := range bound {
		if !isNaN(b) {
			p.indices = append(p.indices, i)
		}
	}
	return p
}

func isNaN(f float64) bool { return f != f }

// Dim returns the reduced-space dimension (number of bounded components).
func (p *Projection) Dim() int { return len(p.indices) }

// FullDim returns the full-space dimension.
func (p *Projection) FullDim() int { return p.full }

// Indices returns the full-space index for each reduced-space slot.
func (p *Projection) Indices() []int { return p.indices }

// Restrict is P^T applied to a full-space vector: picks out the bounded
// components into reduced space (e.g. extracting x_L-relevant entries of
// x). Equivalent to IpoptNLP's Px_L->TransMultVector.
func (p *Projection) Restrict(full []float64, reduced []float64) {
	for r, i := range p.indices {
		reduced[r] = full[i]
	}
}

// Expand is P applied to a reduced-space vector: injects it into full
// space, leaving non-participating entries at fill. Equivalent to
// Px_L->MultVector with beta=0.
func (p *Projection) Expand(reduced []float64, full []float64, fill float64) {
	for i := range full {
		full[i] = fill
	}
	for r, i := range p.indices {
		full[i] = reduced[r]
	}
}

// ExpandAddScaled computes full[i] = alpha*reduced[r] + beta*full[i] for
// participating indices and full[i] = beta*full[i] elsewhere — the
// general MultVector(alpha, x, beta, y) pattern from IpMatrix.cpp applied
// to the selection matrix.
func (p *Projection) ExpandAddScaled(alpha float64, reduced []float64, beta float64, full []float64) {
	if beta != 1 {
		dscal(len(full), beta, full)
	}
	for r, i := range p.indices {
		full[i] += alpha * reduced[r]
	}
}
