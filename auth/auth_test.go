package auth

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMissing(t *testing.T) {
	tests := []struct {
		name     string
		creds    Credentials
		expected []string
	}{
		{
			name:     "complete credentials are valid",
			creds:    Credentials{APIURL: "https://example.com", Username: "user-1", APIKey: "key"},
			expected: nil,
		},
		{
			name:     "api_url is optional",
			creds:    Credentials{Username: "user-1", APIKey: "key"},
			expected: nil,
		},
		{
			name:     "missing api_key is reported",
			creds:    Credentials{Username: "user-1"},
			expected: []string{"api_key"},
		},
		{
			name:     "whitespace counts as missing",
			creds:    Credentials{Username: "  ", APIKey: "\t"},
			expected: []string{"username", "api_key"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, tt.creds.Missing()); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		apiURL   string
		expected string
	}{
		{name: "empty uses the default", apiURL: "", expected: "https://default.example.com"},
		{name: "explicit URL is used", apiURL: "http://localhost:9000", expected: "http://localhost:9000"},
		{name: "trailing slashes are trimmed", apiURL: "http://localhost:9000/", expected: "http://localhost:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Credentials{APIURL: tt.apiURL}
			if actual := c.BaseURL("https://default.example.com/"); actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestAuthorization(t *testing.T) {
	c := Credentials{APIKey: "test-api-key-1"}
	if actual := c.Authorization(); actual != "Bearer test-api-key-1" {
		t.Errorf("unexpected header %q", actual)
	}
}

func TestLogValueOmitsAPIKey(t *testing.T) {
	buf := new(bytes.Buffer)
	log := slog.New(slog.NewJSONHandler(buf, nil))
	log.Info("request", slog.Any("credentials", Credentials{Username: "user-1", APIKey: "secret-key"}))
	if strings.Contains(buf.String(), "secret-key") {
		t.Errorf("api key was logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "user-1") {
		t.Errorf("expected username in log: %s", buf.String())
	}
}
