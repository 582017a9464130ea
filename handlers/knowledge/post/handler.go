package post

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/jarvik/auth"
	"github.com/a-h/jarvik/handlers/proxy"
	"github.com/a-h/jarvik/models"
	"github.com/a-h/respond"
)

type Client interface {
	Knowledge(ctx context.Context, creds auth.Credentials, query string) (json.RawMessage, error)
}

func New(log *slog.Logger, client Client) Handler {
	return Handler{
		log:    log,
		client: client,
	}
}

type Handler struct {
	log    *slog.Logger
	client Client
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.KnowledgeRequest
	if !proxy.Decode(h.log, w, r, &req) {
		return
	}
	body, err := h.client.Knowledge(r.Context(), req.Credentials, req.Query)
	if err != nil {
		proxy.WriteError(h.log, w, err, http.StatusInternalServerError)
		return
	}
	respond.WithJSON(w, body, http.StatusOK)
}
