package runner

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// sh -c <script> sh <model>: the model is available to the script as $1.
func shellRunner(script string, timeout time.Duration) *Exec {
	return NewExec("sh", []string{"-c", script, "sh"}, timeout)
}

func TestExecRun(t *testing.T) {
	tests := []struct {
		name           string
		script         string
		timeout        time.Duration
		expected       string
		expectedErr    error
		expectedStatus int
		expectedStderr string
	}{
		{
			name:     "prompt is written to stdin and stdout is returned",
			script:   `echo "model=$1"; cat`,
			timeout:  5 * time.Second,
			expected: "model=phi3\nContext\nWhat is Go?",
		},
		{
			name:           "non-zero exit returns the diagnostic output",
			script:         `echo "model not found" >&2; exit 2`,
			timeout:        5 * time.Second,
			expectedStatus: 2,
			expectedStderr: "model not found",
		},
		{
			name:        "slow models are killed at the timeout",
			script:      `exec sleep 10`,
			timeout:     100 * time.Millisecond,
			expectedErr: ErrTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := shellRunner(tt.script, tt.timeout)
			start := time.Now()
			actual, err := r.Run(context.Background(), "phi3", "Context\nWhat is Go?")
			if elapsed := time.Since(start); elapsed > 5*time.Second {
				t.Errorf("run took too long: %v", elapsed)
			}
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if tt.expectedStatus != 0 {
				var exitErr *ExitError
				if !errors.As(err, &exitErr) {
					t.Fatalf("expected ExitError, got %v", err)
				}
				if exitErr.Code != tt.expectedStatus {
					t.Errorf("expected status %d, got %d", tt.expectedStatus, exitErr.Code)
				}
				if exitErr.Stderr != tt.expectedStderr {
					t.Errorf("expected stderr %q, got %q", tt.expectedStderr, exitErr.Stderr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestExecRunMissingExecutable(t *testing.T) {
	r := NewExec("jarvik-test-no-such-runner", []string{"run"}, time.Second)
	_, err := r.Run(context.Background(), "phi3", "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecRunCancelled(t *testing.T) {
	r := shellRunner(`exec sleep 10`, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	_, err := r.Run(ctx, "phi3", "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecRunStreamsOutput(t *testing.T) {
	var m sync.Mutex
	var chunks []string
	r := shellRunner(`echo one; echo two`, 5*time.Second)
	r.OnOutput = func(chunk []byte) {
		m.Lock()
		defer m.Unlock()
		chunks = append(chunks, string(chunk))
	}
	actual, err := r.Run(context.Background(), "phi3", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(chunks, "") != actual {
		t.Errorf("expected streamed chunks to add up to %q, got %q", actual, chunks)
	}
}

func TestOllamaRun(t *testing.T) {
	var path string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		io.WriteString(w, `{"model":"phi3","message":{"role":"assistant","content":"Hel"},"done":false}`+"\n")
		io.WriteString(w, `{"model":"phi3","message":{"role":"assistant","content":"lo"},"done":false}`+"\n")
		io.WriteString(w, `{"model":"phi3","message":{"role":"assistant","content":""},"done":true}`+"\n")
	}))
	defer s.Close()

	var streamed strings.Builder
	r := NewOllama(s.URL, &http.Client{}, 5*time.Second)
	r.OnOutput = func(chunk []byte) {
		streamed.Write(chunk)
	}
	actual, err := r.Run(context.Background(), "phi3", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api/chat" {
		t.Errorf("expected the chat API to be called, got %q", path)
	}
	if actual != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", actual)
	}
	if streamed.String() != actual {
		t.Errorf("expected streamed output %q, got %q", actual, streamed.String())
	}
}

func TestOllamaRunTimeout(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer s.Close()
	defer close(release)

	r := NewOllama(s.URL, &http.Client{}, 100*time.Millisecond)
	_, err := r.Run(context.Background(), "phi3", "hello")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
