package post

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/jarvik/memory"
	"github.com/a-h/jarvik/orchestrator"
	"github.com/google/go-cmp/cmp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fetcher struct {
	query string
}

func (f *fetcher) GetContext(ctx context.Context, req memory.Request) (memory.Result, error) {
	f.query = req.Query
	p, _ := memory.ParsePayload([]byte(`{"context":"style: gofmt"}`))
	return memory.Result{Payload: p, Source: memory.SourceService}, nil
}

type lister []string

func (l lister) List(ctx context.Context) ([]string, error) {
	return l, nil
}

type recordingRunner struct {
	model  string
	prompt string
}

func (r *recordingRunner) Run(ctx context.Context, model, prompt string) (string, error) {
	r.model, r.prompt = model, prompt
	return "done", nil
}

func TestCode(t *testing.T) {
	f := &fetcher{}
	run := &recordingRunner{}
	h := New(discard, orchestrator.New(discard, f, lister{"mistral", "phi3"}, run))

	body := `{
		"instruction": "Oprav kód",
		"code": "func main() {}",
		"files": {"b.go": "package b", "a.go": "package a"},
		"username": "user-1",
		"api_key": "key"
	}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/code", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if f.query != "Oprav kód" {
		t.Errorf("expected the instruction to be used as the context query, got %q", f.query)
	}
	if run.model != "phi3" {
		t.Errorf("expected code instructions to select phi3, got %q", run.model)
	}
	expectedPrompt := "style: gofmt\nOprav kód\n```\nfunc main() {}\n```\nFilename: a.go\npackage a\nFilename: b.go\npackage b"
	if diff := cmp.Diff(expectedPrompt, run.prompt); diff != "" {
		t.Error(diff)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["response"] != "done" || resp["memory_mode"] != "private" {
		t.Errorf("unexpected response %v", resp)
	}
}

func TestCodeMissingInstruction(t *testing.T) {
	h := New(discard, orchestrator.New(discard, &fetcher{}, lister{"mistral"}, &recordingRunner{}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/code", strings.NewReader(`{"code":"x","username":"u","api_key":"k"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"instruction": "required"}, resp.Errors); diff != "" {
		t.Error(diff)
	}
}
