// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"strings"
	"testing"
)

func TestEmptyFilterAcceptsAnything(t *testing.T) {
	f := New(1e-5, 1e-5)
	if !f.Acceptable(1e9, 1e9) {
		t.Fatal("empty filter must accept every point")
	}
}

func TestDominatedPointRejected(t *testing.T) {
	f := New(1e-5, 1e-5)
	f.Add(10, 1, 0)
	if f.Acceptable(11, 1.1) {
		t.Fatal("point with both higher phi and higher theta than a recorded entry must be rejected")
	}
}

func TestImprovingEitherCoordinateIsAccepted(t *testing.T) {
	f := New(1e-5, 1e-5)
	f.Add(10, 1, 0)
	if !f.Acceptable(5, 2) {
		t.Fatal("a point with much lower phi should be acceptable even with somewhat higher theta")
	}
	if !f.Acceptable(20, 0.0001) {
		t.Fatal("a point with much lower theta should be acceptable even with higher phi")
	}
}

func TestAddPrunesDominatedEntries(t *testing.T) {
	f := New(1e-5, 1e-5)
	f.Add(10, 5, 0)
	f.Add(5, 2, 1)
	if f.Len() != 1 {
		t.Fatalf("expected the first entry to be pruned as dominated, got %d entries", f.Len())
	}
}

func TestClear(t *testing.T) {
	f := New(1e-5, 1e-5)
	f.Add(1, 1, 0)
	f.Clear()
	if f.Len() != 0 {
		t.Fatalf("expected 0 entries after Clear, got %d", f.Len())
	}
}

func TestWriteToReprintsHeader(t *testing.T) {
	f := New(1e-5, 1e-5)
	for i := 0; i < 11; i++ {
		f.Add(float64(-i), float64(i)+100, i)
	}
	var buf strings.Builder
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if got := strings.Count(buf.String(), "iter"); got != 2 {
		t.Fatalf("expected the header to repeat once per 10 entries (2 times for 11 entries), got %d", got)
	}
}
