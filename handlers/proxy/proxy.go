// Package proxy holds the request and error handling shared by the handlers that forward
// requests to the context service.
package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/jarvik/memory"
	"github.com/a-h/jarvik/models"
	"github.com/a-h/respond"
)

type Validator interface {
	Validate() models.ValidationErrors
}

// Decode reads and validates the request body, writing a 400 response if either fails.
func Decode(log *slog.Logger, w http.ResponseWriter, r *http.Request, req Validator) (ok bool) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode body", slog.Any("error", err))
		respond.WithJSON(w, models.ProxyErrorResponse{
			Error:   "invalid request body",
			Details: err.Error(),
		}, http.StatusBadRequest)
		return false
	}
	if errs := req.Validate(); len(errs) > 0 {
		respond.WithJSON(w, models.ProxyErrorResponse{
			Error:  "validation failed",
			Errors: errs,
		}, http.StatusBadRequest)
		return false
	}
	return true
}

func WriteError(log *slog.Logger, w http.ResponseWriter, err error, status int) {
	log.Error("context service request failed", slog.Any("error", err))
	msg, details := memory.Describe(err)
	respond.WithJSON(w, models.ProxyErrorResponse{
		Error:   msg,
		Details: details,
	}, status)
}
