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
	var req models.CodeRequest
	if !h.orchestrator.Decode(w, r, &req) {
		return
	}
	h.log.Info("code", slog.Any("credentials", req.Credentials), slog.String("model", req.Model), slog.Int("codeBytes", len(req.Code)), slog.Int("files", len(req.Files)))
	// The instruction alone drives context lookup and model choice, the code only goes to the model.
	h.orchestrator.Serve(w, r, orchestrator.Job{
		Credentials: req.Credentials,
		Query:       req.Instruction,
		Model:       req.Model,
		Remember:    req.Remember,
		Prompt:      orchestrator.CodePrompt(req.Instruction, req.Code, req.Files),
		Errors:      req.Validate(),
	})
}
