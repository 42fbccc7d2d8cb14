// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package journal

import (
	"strings"
	"testing"
)

func TestPrintfGatedByLevel(t *testing.T) {
	var buf strings.Builder
	j := &Journal{Level: LevelSummary, Categories: CatAll, Msg: &buf}
	j.Printf(LevelDetailed, CatMain, "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written below the configured level, got %q", buf.String())
	}
	j.Printf(LevelSummary, CatMain, "iter %d\n", 3)
	if buf.String() != "iter 3\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestPrintfGatedByCategory(t *testing.T) {
	var buf strings.Builder
	j := &Journal{Level: LevelMatrix, Categories: CatLineSearch, Msg: &buf}
	j.Printf(LevelDetailed, CatRestoration, "restoration detail")
	if buf.Len() != 0 {
		t.Fatalf("expected category filtering to suppress the message, got %q", buf.String())
	}
	j.Printf(LevelDetailed, CatLineSearch, "line search detail")
	if buf.String() != "line search detail" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.Printf(LevelSummary, CatMain, "noop")
	j.Summary("noop")
	if w := j.DumpWriter(LevelSummary, CatMain); w != nil {
		t.Fatal("expected a nil Journal to report nothing enabled")
	}
}

func TestDumpWriterNilWhenDisabled(t *testing.T) {
	j := &Journal{Level: LevelNone, Categories: CatAll}
	if w := j.DumpWriter(LevelSummary, CatMain); w != nil {
		t.Fatal("expected DumpWriter to return nil when the level is disabled")
	}
}
