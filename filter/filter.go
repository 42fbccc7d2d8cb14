// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filter implements C6, the (φ,θ) domination filter the line
// search (C7) uses to accept or reject trial points in place of a
// classical merit function (spec.md §4.3).
//
// Grounded on original_source/Algorithm/IpFilterLineSearch.cpp's
// Filter and FilterEntry classes: a filter is a set of pairs, a
// candidate is acceptable if no entry dominates it, and adding an
// entry prunes every existing entry the new one dominates.
package filter

import (
	"fmt"
	"io"
)

// Entry is one (φ,θ) pair recorded in the filter, tagged with the
// outer iteration it was added at (for the VECTOR-level dump).
type Entry struct {
	Phi   float64
	Theta float64
	Iter  int
}

// Filter holds the current set of filter entries plus the two
// acceptance margins γ_φ, γ_θ (spec.md §4.3).
type Filter struct {
	entries   []Entry
	GammaPhi  float64
	GammaTheta float64
}

// New builds an empty filter with the given acceptance margins.
func New(gammaPhi, gammaTheta float64) *Filter {
	return &Filter{GammaPhi: gammaPhi, GammaTheta: gammaTheta}
}

// dominates reports whether e dominates (phi,theta): every entry that
// dominates a candidate makes it unacceptable. Plain, margin-free
// domination (spec.md §4.3's C6) — the γ_φ/γ_θ margins belong to the
// line search's augmented-entry construction (C7, augmentFilter), not
// to this query, or the margin would be applied twice.
func (e Entry) dominates(phi, theta float64) bool {
	return theta >= e.Theta && phi >= e.Phi
}

// Acceptable reports whether (phi,theta) is acceptable to the filter:
// no recorded entry dominates it (spec.md §4.3).
func (f *Filter) Acceptable(phi, theta float64) bool {
	for _, e := range f.entries {
		if e.dominates(phi, theta) {
			return false
		}
	}
	return true
}

// Add inserts (phi,theta) into the filter at the given iteration,
// first pruning every existing entry that (phi,theta) itself dominates
// (an entry dominated by the new point is redundant — spec.md §4.3:
// "augmenting the filter also removes now-redundant entries").
func (f *Filter) Add(phi, theta float64, iter int) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if !(theta <= e.Theta && phi <= e.Phi) {
			kept = append(kept, e)
		}
	}
	f.entries = append(kept, Entry{Phi: phi, Theta: theta, Iter: iter})
}

// Clear empties the filter. Neither the line search nor the restoration
// phase in this module calls it: the filter keeps its entries across a
// restoration.
func (f *Filter) Clear() {
	f.entries = f.entries[:0]
}

// Len reports the number of entries currently in the filter.
func (f *Filter) Len() int { return len(f.entries) }

// WriteTo dumps the filter at VECTOR verbosity, reprinting the column
// header every 10 entries the way Filter::Print does in the original
// (SPEC_FULL.md supplemented feature 4).
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	var total int64
	header := "iter            phi            theta\n"
	for i, e := range f.entries {
		if i%10 == 0 {
			n, err := io.WriteString(w, header)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := fmt.Fprintf(w, "%4d  %15.8e  %15.8e\n", e.Iter, e.Phi, e.Theta)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
