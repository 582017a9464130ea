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
	Me(ctx context.Context, creds auth.Credentials) (status int, body json.RawMessage, err error)
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
	var req models.AuthMeRequest
	if !proxy.Decode(h.log, w, r, &req) {
		return
	}
	status, body, err := h.client.Me(r.Context(), req.Credentials)
	if err != nil {
		proxy.WriteError(h.log, w, err, http.StatusBadGateway)
		return
	}
	respond.WithJSON(w, body, status)
}
