package post

import (
	"log/slog"
	"net/http"

	"github.com/a-h/jarvik/models"
	"github.com/a-h/jarvik/orchestrator"
)

func New(log *slog.Logger, o *orchestrator.Orchestrator) Handler {
	return Handler{
		log:          log,
		orchestrator: o,
	}
}

type Handler struct {
	log          *slog.Logger
	orchestrator *orchestrator.Orchestrator
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if !h.orchestrator.Decode(w, r, &req) {
		return
	}
	h.log.Info("ask", slog.Any("credentials", req.Credentials), slog.String("model", req.Model), slog.Bool("remember", req.Remember))
	h.orchestrator.Serve(w, r, orchestrator.Job{
		Credentials: req.Credentials,
		Query:       req.Message,
		Model:       req.Model,
		Remember:    req.Remember,
		Prompt:      orchestrator.QueryPrompt(req.Message),
		Errors:      req.Validate(),
	})
}
