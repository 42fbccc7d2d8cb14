// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SlogHandler adapts a Journal into an slog.Handler so the CLI layer's
// structured logging (cmd/ipoptdemo) and the solver driver's own
// progress lines share one sink. Record level maps onto Journal's
// Level/CatMain the way lbfgsb's own callers pick a fixed LogLevel for
// the whole run; per-record attributes are rendered inline rather than
// structured, matching the free-text style of the rest of this
// package.
type SlogHandler struct {
	journal *Journal
	attrs   []slog.Attr
	group   string
}

// NewSlogHandler wraps j as an slog.Handler.
func NewSlogHandler(j *Journal) *SlogHandler {
	return &SlogHandler{journal: j}
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	switch {
	case level >= slog.LevelError:
		return h.journal.enabled(LevelNone, CatMain) || h.journal.Level >= LevelSummary
	case level >= slog.LevelWarn:
		return h.journal.enabled(LevelSummary, CatMain)
	case level >= slog.LevelInfo:
		return h.journal.enabled(LevelSummary, CatMain)
	default:
		return h.journal.enabled(LevelDetailed, CatMain)
	}
}

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", r.Level.String(), r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value)
		return true
	})
	b.WriteByte('\n')
	h.journal.Printf(LevelSummary, CatMain, "%s", b.String())
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := &SlogHandler{journal: h.journal, group: h.group}
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return nh
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	nh := &SlogHandler{journal: h.journal, attrs: h.attrs}
	if h.group != "" {
		nh.group = h.group + "." + name
	} else {
		nh.group = name
	}
	return nh
}
