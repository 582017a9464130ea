// Package runner runs a prompt through a local model.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const DefaultTimeout = 60 * time.Second

var (
	// ErrTimeout is returned when the model did not finish within the runner's time budget.
	ErrTimeout = errors.New("model runner timed out")
	// ErrNotFound is returned when the runner executable does not exist.
	ErrNotFound = errors.New("runner executable not found")
)

// ExitError is returned when the runner process exits with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("model runner exited with status %d: %s", e.Code, e.Stderr)
}

// NewExec creates a runner that executes `command args... <model>`, for example `ollama run phi3`.
func NewExec(command string, args []string, timeout time.Duration) *Exec {
	return &Exec{
		Command: command,
		Args:    args,
		Timeout: timeout,
	}
}

type Exec struct {
	Command string
	Args    []string
	Timeout time.Duration
	// OnOutput, if set, receives stdout as it is produced.
	OnOutput func(chunk []byte)
}

// Run writes prompt to the process's stdin, closes it, and collects stdout until the process
// exits. The process is killed when the timeout expires or ctx is cancelled.
func (e *Exec) Run(ctx context.Context, model, prompt string) (output string, err error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := append(append([]string{}, e.Args...), model)
	cmd := exec.CommandContext(timeoutCtx, e.Command, args...)
	// Children that inherit stdout must not keep Wait blocked after the kill.
	cmd.WaitDelay = time.Second
	cmd.Stdin = strings.NewReader(prompt)
	stdout := &outputWriter{onOutput: e.OnOutput}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return "", ErrTimeout
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, e.Command)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
	}
	return "", fmt.Errorf("failed to run model: %w", err)
}

type outputWriter struct {
	m        sync.Mutex
	buf      bytes.Buffer
	onOutput func(chunk []byte)
}

func (w *outputWriter) Write(p []byte) (n int, err error) {
	w.m.Lock()
	defer w.m.Unlock()
	if w.onOutput != nil {
		w.onOutput(p)
	}
	return w.buf.Write(p)
}

func (w *outputWriter) String() string {
	w.m.Lock()
	defer w.m.Unlock()
	return w.buf.String()
}
