package models

import "github.com/a-h/jarvik/auth"

// ValidationErrors maps request field names to what is wrong with them.
type ValidationErrors map[string]string

func credentialErrors(c auth.Credentials) ValidationErrors {
	errs := ValidationErrors{}
	for _, field := range c.Missing() {
		errs[field] = "required"
	}
	return errs
}

// ErrorResponse is returned by /ask and /code on failure. It carries whatever context metadata
// had been computed when the request failed.
type ErrorResponse struct {
	Error   string           `json:"error,omitempty"`
	Errors  ValidationErrors `json:"errors,omitempty"`
	Details string           `json:"details,omitempty"`
	Context string           `json:"context,omitempty"`
	Model   string           `json:"model,omitempty"`
	ContextMetadata
	ErrorCode int `json:"error_code"`
}

// ProxyErrorResponse is returned when a request forwarded to the context service fails.
type ProxyErrorResponse struct {
	Error   string           `json:"error"`
	Errors  ValidationErrors `json:"errors,omitempty"`
	Details string           `json:"details,omitempty"`
}
