// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package journal

import (
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHandlerWritesThroughJournal(t *testing.T) {
	var buf strings.Builder
	j := &Journal{Level: LevelSummary, Categories: CatAll, Msg: &buf}
	logger := slog.New(NewSlogHandler(j))

	logger.Info("run starting", "run_id", "abc")

	out := buf.String()
	if !strings.Contains(out, "run starting") || !strings.Contains(out, "run_id=abc") {
		t.Fatalf("expected message and attribute in output, got %q", out)
	}
}

func TestSlogHandlerWithAttrsAndGroup(t *testing.T) {
	var buf strings.Builder
	j := &Journal{Level: LevelSummary, Categories: CatAll, Msg: &buf}
	logger := slog.New(NewSlogHandler(j)).With("component", "solver").WithGroup("iter")

	logger.Info("step", "count", 1)

	out := buf.String()
	if !strings.Contains(out, "component=solver") {
		t.Fatalf("expected bound attribute to be rendered, got %q", out)
	}
	if !strings.Contains(out, "iter.count=1") {
		t.Fatalf("expected grouped attribute to be prefixed, got %q", out)
	}
}

func TestSlogHandlerDisabledByJournalLevel(t *testing.T) {
	j := &Journal{Level: LevelNone, Categories: CatAll}
	h := NewSlogHandler(j)
	if h.Enabled(nil, slog.LevelInfo) {
		t.Fatal("expected info level to be disabled when journal level is None")
	}
	if !h.Enabled(nil, slog.LevelError) {
		t.Fatal("expected error level to always be enabled")
	}
}
