package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeScript creates an executable shell script standing in for dadadodo.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-dadadodo")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestNewDadadodoMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope")

	_, err := NewDadadodo(path)
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gerr.Path != path {
		t.Errorf("expected path %q, got %q", path, gerr.Path)
	}
}

func TestNewDadadodoNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewDadadodo(path)
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestGeneratePipesInput(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, "exec cat"))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	out, err := d.Generate(context.Background(), []byte("hello markov world"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "hello markov world" {
		t.Errorf("expected echoed input, got %q", out)
	}
}

func TestGeneratePassesArgs(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, `echo "$@"`))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	out, err := d.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "-c 1 -\n" {
		t.Errorf("expected default args, got %q", out)
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, "exec cat"))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	out, err := d.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Generate with empty input failed: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestGenerateStderrDoesNotFail(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, "echo warning >&2\necho generated"))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	out, err := d.Generate(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "generated\n" {
		t.Errorf("expected stdout only, got %q", out)
	}
}

func TestGenerateNonZeroExitKeepsOutput(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, "echo partial\nexit 3"))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	out, err := d.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "partial\n" {
		t.Errorf("expected partial output, got %q", out)
	}
}

func TestGenerateDropsNonASCII(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, `printf 'caf\303\251 ok'`))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	out, err := d.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "caf ok" {
		t.Errorf("expected non-ASCII dropped, got %q", out)
	}
}

func TestGenerateTimeout(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, "exec sleep 10"), WithTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	start := time.Now()
	_, err = d.Generate(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if took := time.Since(start); took > 5*time.Second {
		t.Errorf("timeout not enforced, took %v", took)
	}
}

func TestGenerateCancelled(t *testing.T) {
	d, err := NewDadadodo(writeScript(t, "exec sleep 10"), WithTimeout(0))
	if err != nil {
		t.Fatalf("NewDadadodo failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Generate(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
