package main

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/tabdeck/internal/command"
	"github.com/asheshgoplani/tabdeck/internal/engine"
	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

func TestFit(t *testing.T) {
	tests := []struct {
		in    string
		width int
	}{
		{"short", 10},
		{"exactly ten", 11},
		{"a much longer title than fits", 12},
		{"日本語のタイトルです", 9},
		{"multi\nline\ttitle", 20},
	}
	for _, tt := range tests {
		got := fit(tt.in, tt.width)
		if w := runewidth.StringWidth(got); w != tt.width {
			t.Errorf("fit(%q, %d) has width %d: %q", tt.in, tt.width, w, got)
		}
		if strings.ContainsAny(got, "\n\t") {
			t.Errorf("fit(%q) kept control whitespace: %q", tt.in, got)
		}
	}
	if fit("x", 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestTabFlags(t *testing.T) {
	got := tabFlags(tabs.Tab{Discarded: true, Pinned: true, GroupID: 4})
	if got != "F.PG." {
		t.Errorf("tabFlags = %q, want %q", got, "F.PG.")
	}
	if got := tabFlags(tabs.Tab{GroupID: tabs.NoGroup, Active: true}); got != "....*" {
		t.Errorf("tabFlags = %q, want %q", got, "....*")
	}
}

func TestRenderResults(t *testing.T) {
	out := renderResults(nil, 80)
	if !strings.Contains(out, "No matching tabs.") {
		t.Errorf("empty render = %q", out)
	}

	results := []engine.Result{
		{Tab: tabs.Tab{ID: 12, WindowID: 1, Title: "YouTube", URL: "https://youtube.com", GroupID: tabs.NoGroup}, MatchScore: 1},
		{Tab: tabs.Tab{ID: 7, WindowID: 1, Title: "Go", URL: "https://go.dev", GroupID: tabs.NoGroup}, MatchScore: 1},
	}
	out = renderResults(results, 80)
	for _, want := range []string{"TITLE", "YouTube", "https://go.dev", "Total: 2 tabs"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCommandResults(t *testing.T) {
	out := renderCommandResults([]command.Result{
		{Command: query.CommandSave, Success: true, AffectedCount: 3},
		{Command: query.CommandDelete, Success: false, Error: "no valid tab IDs"},
	})
	if !strings.Contains(out, "/save: 3 tabs") || !strings.Contains(out, "/delete: no valid tab IDs") {
		t.Errorf("unexpected command output:\n%s", out)
	}
}

func TestRenderVaultItems(t *testing.T) {
	if out := renderVaultItems(nil, 80); !strings.Contains(out, "Vault is empty.") {
		t.Errorf("empty vault render = %q", out)
	}
	out := renderVaultItems([]tabs.VaultItem{
		{ID: "abc", Title: "Docs", URL: "https://go.dev", GroupTitle: "Work", SavedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)},
	}, 120)
	if !strings.Contains(out, "[Work] Docs") || !strings.Contains(out, "Total: 1 item") {
		t.Errorf("unexpected vault render:\n%s", out)
	}
}

func TestRenderCatalog(t *testing.T) {
	out := renderCatalog()
	for _, want := range []string{"!groupname <value>", "/ungroup", "(not implemented)", "sort:title"} {
		if !strings.Contains(out, want) {
			t.Errorf("catalog missing %q", want)
		}
	}
}
