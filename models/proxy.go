package models

import (
	"strings"

	"github.com/a-h/jarvik/auth"
)

type AuthMeRequest struct {
	auth.Credentials
}

func (r AuthMeRequest) Validate() ValidationErrors {
	return credentialErrors(r.Credentials)
}

type KnowledgeRequest struct {
	auth.Credentials
	Query string `json:"query"`
}

func (r KnowledgeRequest) Validate() ValidationErrors {
	errs := credentialErrors(r.Credentials)
	if strings.TrimSpace(r.Query) == "" {
		errs["query"] = "required"
	}
	return errs
}

type CrawlRequest struct {
	auth.Credentials
	URL string `json:"url"`
}

func (r CrawlRequest) Validate() ValidationErrors {
	errs := credentialErrors(r.Credentials)
	if strings.TrimSpace(r.URL) == "" {
		errs["url"] = "required"
	}
	return errs
}
