package models

import (
	"encoding/json"
	"strings"

	"github.com/a-h/jarvik/auth"
)

type AskRequest struct {
	auth.Credentials
	// Message is the question sent to the model.
	Message string `json:"message"`
	// Model overrides model selection when it is available.
	Model string `json:"model,omitempty"`
	// Remember allows the context service to retain the query.
	Remember bool `json:"remember"`
}

func (r AskRequest) Validate() ValidationErrors {
	errs := credentialErrors(r.Credentials)
	if strings.TrimSpace(r.Message) == "" {
		errs["message"] = "required"
	}
	return errs
}

// AskResponse is returned by both /ask and /code when the model ran successfully.
type AskResponse struct {
	Response string          `json:"response"`
	Context  string          `json:"context"`
	Debug    json.RawMessage `json:"debug"`
	Model    string          `json:"model"`
	ContextMetadata
	ErrorCode int `json:"error_code"`
}

type ContextMetadata struct {
	ContextUsed       bool   `json:"context_used"`
	ContextItemsCount int    `json:"context_items_count"`
	MemoryMode        string `json:"memory_mode"`
}

const (
	MemoryModePrivate = "private"
	MemoryModePublic  = "public"
)

func MemoryMode(remember bool) string {
	if remember {
		return MemoryModePublic
	}
	return MemoryModePrivate
}
