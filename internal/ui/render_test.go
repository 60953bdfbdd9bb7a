package ui

import (
	"strings"
	"testing"
)

func TestRenderMessagesEmpty(t *testing.T) {
	if out := RenderMessages(nil, 0, 80); !strings.Contains(out, "No messages generated") {
		t.Errorf("expected empty-state help, got %q", out)
	}
}

func TestRenderMessages(t *testing.T) {
	out := RenderMessages([]string{"hello", "world"}, 1, 80)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "hello") || !strings.Contains(lines[1], "world") {
		t.Errorf("messages missing from output: %q", out)
	}
	if !strings.Contains(lines[0], "5") {
		t.Errorf("length badge missing: %q", lines[0])
	}
}

func TestRenderStatusBar(t *testing.T) {
	bar := RenderStatusBar(1, 3, 100, "", false)
	if !strings.Contains(bar, "2/3") {
		t.Errorf("expected position 2/3, got %q", bar)
	}
	if !strings.Contains(bar, ":post") {
		t.Errorf("expected post hint, got %q", bar)
	}

	bar = RenderStatusBar(0, 0, 100, "Generating...", true)
	if !strings.Contains(bar, "Generating...") || !strings.Contains(bar, ":select") {
		t.Errorf("unexpected dry-run status bar %q", bar)
	}
}
