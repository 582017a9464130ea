package models

// ModelsErrorResponse is returned by GET /models when no source could be queried.
type ModelsErrorResponse struct {
	Error  string   `json:"error"`
	Models []string `json:"models"`
}
