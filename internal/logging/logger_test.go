package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHelpersBeforeInit(t *testing.T) {
	Logger = nil
	// Must not panic.
	Info("info")
	Debug("debug")
	Warn("warn")
	Error("error")
	WithPrefix("x").Info("discarded")
}

func TestInitLevels(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	Init(&buf, false)
	Debug("hidden", "k", 1)
	Info("shown", "k", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=2") {
		t.Errorf("info message missing: %q", out)
	}

	buf.Reset()
	Init(&buf, true)
	Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message missing at debug level: %q", buf.String())
	}
}

func TestOpenFileAppends(t *testing.T) {
	defer func() { Logger = nil }()

	path := filepath.Join(t.TempDir(), "logs", "doaddoad.log")
	w, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	Init(w, false)
	WithPrefix("test").Info("hello")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing message: %q", data)
	}
}
