package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/jarvik/auth"
	"github.com/a-h/jarvik/models"
	"github.com/google/go-cmp/cmp"
)

func TestClient(t *testing.T) {
	var lastPath string
	var lastBody map[string]any
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.Method + " " + r.URL.Path
		lastBody = nil
		json.NewDecoder(r.Body).Decode(&lastBody)
		switch r.URL.Path {
		case "/ask", "/code":
			io.WriteString(w, `{"response":"ok","context":"c","debug":null,"model":"phi3","context_used":true,"context_items_count":2,"memory_mode":"private","error_code":0}`)
		case "/models":
			io.WriteString(w, `["phi3","mistral"]`)
		case "/auth/me":
			io.WriteString(w, `{"username":"user-1"}`)
		case "/knowledge", "/crawl":
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"API request failed","details":"connection refused"}`)
		}
	}))
	defer s.Close()
	c := New(s.URL)
	ctx := context.Background()
	creds := auth.Credentials{Username: "user-1", APIKey: "key"}

	t.Run("ask", func(t *testing.T) {
		resp, err := c.Ask(ctx, models.AskRequest{Credentials: creds, Message: "hello"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := models.AskResponse{
			Response: "ok",
			Context:  "c",
			Debug:    json.RawMessage("null"),
			Model:    "phi3",
			ContextMetadata: models.ContextMetadata{
				ContextUsed:       true,
				ContextItemsCount: 2,
				MemoryMode:        "private",
			},
		}
		if diff := cmp.Diff(expected, resp); diff != "" {
			t.Error(diff)
		}
		if lastPath != "POST /ask" || lastBody["message"] != "hello" || lastBody["api_key"] != "key" {
			t.Errorf("unexpected request %s %v", lastPath, lastBody)
		}
	})
	t.Run("code", func(t *testing.T) {
		if _, err := c.Code(ctx, models.CodeRequest{Credentials: creds, Instruction: "fix"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lastPath != "POST /code" || lastBody["instruction"] != "fix" {
			t.Errorf("unexpected request %s %v", lastPath, lastBody)
		}
	})
	t.Run("models", func(t *testing.T) {
		names, err := c.Models(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"phi3", "mistral"}, names); diff != "" {
			t.Error(diff)
		}
		if lastPath != "GET /models" {
			t.Errorf("unexpected request %s", lastPath)
		}
	})
	t.Run("auth me", func(t *testing.T) {
		user, err := c.AuthMe(ctx, creds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(user) != `{"username":"user-1"}` {
			t.Errorf("unexpected user %s", user)
		}
	})
	t.Run("errors carry the gateway response", func(t *testing.T) {
		_, err := c.Knowledge(ctx, models.KnowledgeRequest{Credentials: creds, Query: "q"})
		var ce *Error
		if !errors.As(err, &ce) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if ce.Status != http.StatusInternalServerError || ce.Response.Details != "connection refused" {
			t.Errorf("unexpected error %+v", ce)
		}
		if ce.Error() != "API request failed (status 500): connection refused" {
			t.Errorf("unexpected message %q", ce.Error())
		}
	})
}
