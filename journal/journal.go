// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package journal is the ambient logging component (A1): a
// verbosity-gated, category-filterable text logger for the solver
// driver, plus a log/slog handler adapter so the same sink can receive
// structured records from the CLI layer.
//
// Grounded directly on lbfgsb.Logger (lbfgsb/optimize.go in the
// teacher): a Level enum gating detail, and a pair of writers — one
// for free-text progress messages, one for tabular iteration output —
// generalized here with a Category bitmask so a caller can additionally
// pick which subsystem's MORE_DETAILED output it wants without raising
// the global level (original_source/Common/IpJournalist.hpp's
// EJournalCategory plays the analogous role).
package journal

import (
	"fmt"
	"io"
)

// Level controls how much detail is printed, mirroring lbfgsb.LogLevel's
// ordering (higher means more verbose).
type Level int

const (
	LevelNone       Level = 0
	LevelSummary    Level = 1
	LevelDetailed   Level = 2
	LevelVector     Level = 3
	LevelMatrix     Level = 4
	LevelMoreVector Level = 5
)

// Category is a bitmask selecting which subsystem a message belongs
// to, so a caller can raise verbosity for the line search without
// drowning in Hessian-approximation chatter.
type Category int

const (
	CatMain Category = 1 << iota
	CatLineSearch
	CatInitialization
	CatSolvePDSystem
	CatHessianApproximation
	CatRestoration

	CatAll = CatMain | CatLineSearch | CatInitialization |
		CatSolvePDSystem | CatHessianApproximation | CatRestoration
)

// Journal handles verbosity- and category-gated log output. Msg
// receives free-text progress lines, Out receives tabular/vector dumps
// (the filter listing, the per-iteration summary table). Both writers
// must be safe for the caller's concurrency model; this package does
// not add its own locking, matching lbfgsb.Logger's contract.
type Journal struct {
	Level      Level
	Categories Category
	Msg        io.Writer
	Out        io.Writer
}

func (j *Journal) enabled(level Level, cat Category) bool {
	if j == nil || j.Level < level {
		return false
	}
	return j.Categories&cat != 0
}

// Printf writes a free-text message if level/cat are enabled.
func (j *Journal) Printf(level Level, cat Category, format string, a ...any) {
	if !j.enabled(level, cat) || j.Msg == nil {
		return
	}
	if len(a) > 0 {
		fmt.Fprintf(j.Msg, format, a...)
	} else {
		fmt.Fprint(j.Msg, format)
	}
}

// Summary writes an untagged free-text message at LevelSummary/CatMain,
// used for the restoration phase's progress lines.
func (j *Journal) Summary(format string, a ...any) {
	j.Printf(LevelSummary, CatMain, format, a...)
}

// Dump writes tabular or vector output (to Out) if level/cat are
// enabled.
func (j *Journal) Dump(level Level, cat Category, format string, a ...any) {
	if !j.enabled(level, cat) || j.Out == nil {
		return
	}
	if len(a) > 0 {
		fmt.Fprintf(j.Out, format, a...)
	} else {
		fmt.Fprint(j.Out, format)
	}
}

// DumpWriter returns Out if level/cat are enabled and nil otherwise,
// for callers (e.g. filter.Filter.WriteTo) that want to stream
// multi-line output themselves rather than building one big string.
func (j *Journal) DumpWriter(level Level, cat Category) io.Writer {
	if !j.enabled(level, cat) {
		return nil
	}
	return j.Out
}
