// Package generator runs the external Markov text generator.
//
// The generator is a black box: sanitized corpus text goes in on stdin and
// one blob of ASCII text comes out on stdout. Dadadodo is the only
// implementation; tests and alternative backends satisfy Generator.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/filippog/doaddoad/internal/logging"
	"github.com/filippog/doaddoad/internal/sanitize"
)

// DefaultPath is where distributions install dadadodo.
const DefaultPath = "/usr/bin/dadadodo"

// DefaultTimeout bounds a single generator run.
const DefaultTimeout = 30 * time.Second

// Generator produces text from a corpus.
type Generator interface {
	// Generate feeds input to the generator and returns its output. Empty
	// input is passed through as is.
	Generate(ctx context.Context, input []byte) (string, error)
}

// Error is returned when the generator binary cannot be found or started.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generator: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Dadadodo runs the dadadodo binary once per Generate call.
type Dadadodo struct {
	path    string
	args    []string
	timeout time.Duration
}

// Option customises a Dadadodo.
type Option func(*Dadadodo)

// WithArgs replaces the default arguments ("-c 1 -": one sentence block
// read from stdin).
func WithArgs(args ...string) Option { return func(d *Dadadodo) { d.args = args } }

// WithTimeout bounds each run. Zero disables the timeout.
func WithTimeout(t time.Duration) Option { return func(d *Dadadodo) { d.timeout = t } }

// NewDadadodo checks that path is an executable and returns a generator
// running it. The check happens here so a missing binary is reported
// before any corpus work is done.
func NewDadadodo(path string, opts ...Option) (*Dadadodo, error) {
	if path == "" {
		path = DefaultPath
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	d := &Dadadodo{
		path:    resolved,
		args:    []string{"-c", "1", "-"},
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Generate runs dadadodo with input on stdin and returns its stdout with
// any non-ASCII bytes dropped. Stderr output and a non-zero exit status are
// logged but do not fail the call; only a failure to start, a timeout or a
// cancelled ctx does. The process is always waited for.
func (d *Dadadodo) Generate(ctx context.Context, input []byte) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.path, d.args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that outlive a kill must not keep Wait blocked on the pipes.
	cmd.WaitDelay = time.Second

	log := logging.WithPrefix("generator")
	log.Debug("Running generator", "path", d.path, "input_bytes", len(input))
	start := time.Now()

	err := cmd.Run()

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		log.Warn("Generator wrote to stderr", "stderr", msg)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("generator %s: %w", d.path, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", &Error{Path: d.path, Err: err}
		}
		log.Warn("Generator exited with non-zero status", "code", exitErr.ExitCode())
	}

	out := sanitize.ASCII(stdout.String())
	log.Debug("Generator finished", "output_bytes", len(out), "took", time.Since(start))
	return out, nil
}
