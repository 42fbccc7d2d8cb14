// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package calc implements C4, the calculated-quantities cache: the
// barrier objective, constraint violation, Lagrangian gradient and
// related derived quantities, each memoized against the iterate tag it
// was computed from rather than pushed out to observers on every
// mutation (spec.md §9: "prefer a pull-based tag comparison to an
// observer/dirty-bit push model").
package calc

// Slot memoizes a single derived quantity against the iterate.Data tag
// it was last computed for. A tag mismatch is the only invalidation
// signal; there are no explicit "dirty" writes, so a Data mutation
// that forgets to bump its tag would silently serve a stale value —
// the tag bump is the iterate package's responsibility, not this one's.
type Slot[T any] struct {
	tag   uint64
	valid bool
	value T
}

// Get returns the memoized value if tag matches the last computation,
// otherwise calls compute, stores the result under tag, and returns it.
func (s *Slot[T]) Get(tag uint64, compute func() (T, error)) (T, error) {
	if s.valid && s.tag == tag {
		return s.value, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	s.value, s.tag, s.valid = v, tag, true
	return s.value, nil
}

// Invalidate forces the next Get to recompute regardless of tag.
func (s *Slot[T]) Invalidate() { s.valid = false }
