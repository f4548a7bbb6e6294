package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_AddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() of missing file error = %v", err)
	}

	adds := []HistoryEntry{
		{"Hello <#= name #>", modeEval},
		{"set name=Ada", modeCtrl},
		{"  ", modeEval},
		{"set name=Ada", modeCtrl}, // repeat of last
		{"params", modeCtrl},
	}

	for _, e := range adds {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q) error = %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"Hello <#= name #>", modeEval},
		{"set name=Ada", modeCtrl},
		{"params", modeCtrl},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := reloaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("reloaded Entries() = %v, want %v", got, want)
	}
}

func TestHistory_MovesDuplicateToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	h := NewHistory(path)

	for _, line := range []string{"a", "b", "a"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatal(err)
		}
	}

	// Same text in another mode is a distinct entry.
	if err := h.Add("b", modeCtrl); err != nil {
		t.Fatal(err)
	}

	want := []HistoryEntry{{"b", modeEval}, {"a", modeEval}, {"b", modeCtrl}}
	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(data); got != "E:b\nE:a\nC:b\n" {
		t.Errorf("history file = %q", got)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")
	_ = h.Add("x", modeEval)

	if e, err := h.Entry(0); err != nil || e.Line != "x" {
		t.Errorf("Entry(0) = %v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d) error = %v, want %v", i, err, ErrOutOfBounds)
		}
	}
}

func TestHistory_UnprefixedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	if err := os.WriteFile(path, []byte("plain\n\nC:quit\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	want := []HistoryEntry{{"plain", modeEval}, {"quit", modeCtrl}}
	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")

	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if err := h.Add("a", modeEval); err != nil {
		t.Fatal(err)
	}

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}
