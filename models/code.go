package models

import (
	"strings"

	"github.com/a-h/jarvik/auth"
)

type CodeRequest struct {
	auth.Credentials
	Instruction string `json:"instruction"`
	Code        string `json:"code"`
	// Files maps file names to their content.
	Files    map[string]string `json:"files,omitempty"`
	Model    string            `json:"model,omitempty"`
	Remember bool              `json:"remember"`
}

func (r CodeRequest) Validate() ValidationErrors {
	errs := credentialErrors(r.Credentials)
	if strings.TrimSpace(r.Instruction) == "" {
		errs["instruction"] = "required"
	}
	return errs
}
