package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/jarvik/models"
	"github.com/a-h/respond"
)

type ModelLister interface {
	List(ctx context.Context) ([]string, error)
}

func New(log *slog.Logger, lister ModelLister) Handler {
	return Handler{
		log:    log,
		lister: lister,
	}
}

type Handler struct {
	log    *slog.Logger
	lister ModelLister
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	names, err := h.lister.List(r.Context())
	if len(names) == 0 && err != nil {
		h.log.Error("failed to list models", slog.Any("error", err))
		respond.WithJSON(w, models.ModelsErrorResponse{
			Error:  err.Error(),
			Models: []string{},
		}, http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	respond.WithJSON(w, names, http.StatusOK)
}
