// Package orchestrator answers a user request by fetching context, choosing a model and running
// it. The /ask and /code handlers differ only in the Job they submit.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/jarvik/auth"
	"github.com/a-h/jarvik/memory"
	"github.com/a-h/jarvik/models"
	"github.com/a-h/jarvik/runner"
	"github.com/a-h/jarvik/selector"
	"github.com/a-h/respond"
)

// StatusClientClosedRequest is used when the caller went away before the model finished.
const StatusClientClosedRequest = 499

type ContextFetcher interface {
	GetContext(ctx context.Context, req memory.Request) (memory.Result, error)
}

type ModelLister interface {
	List(ctx context.Context) ([]string, error)
}

type Runner interface {
	Run(ctx context.Context, model, prompt string) (string, error)
}

func New(log *slog.Logger, fetcher ContextFetcher, lister ModelLister, modelRunner Runner) *Orchestrator {
	return &Orchestrator{
		log:     log,
		fetcher: fetcher,
		lister:  lister,
		runner:  modelRunner,
	}
}

type Orchestrator struct {
	log     *slog.Logger
	fetcher ContextFetcher
	lister  ModelLister
	runner  Runner
}

type Job struct {
	Credentials auth.Credentials
	// Query is used to look up context and to choose a model.
	Query    string
	Model    string
	Remember bool
	Prompt   PromptFunc
	// Errors are the request's validation errors, if any.
	Errors models.ValidationErrors
}

type Outcome struct {
	Status   int
	Response *models.AskResponse
	Error    *models.ErrorResponse
}

func (o Outcome) Body() any {
	if o.Error != nil {
		return o.Error
	}
	return o.Response
}

func failure(status int, er models.ErrorResponse) Outcome {
	er.ErrorCode = status
	return Outcome{Status: status, Error: &er}
}

func (o *Orchestrator) Run(ctx context.Context, job Job) Outcome {
	meta := models.ContextMetadata{
		MemoryMode: models.MemoryMode(job.Remember),
	}
	if len(job.Errors) > 0 {
		return failure(http.StatusBadRequest, models.ErrorResponse{
			Error:           "validation failed",
			Errors:          job.Errors,
			ContextMetadata: meta,
		})
	}

	start := time.Now()
	result, err := o.fetcher.GetContext(ctx, memory.Request{
		Credentials: job.Credentials,
		Query:       job.Query,
		Remember:    job.Remember,
	})
	if err != nil {
		o.log.Error("failed to get context", slog.Any("credentials", job.Credentials), slog.Any("error", err))
		msg, details := memory.Describe(err)
		return failure(http.StatusUnauthorized, models.ErrorResponse{
			Error:           msg,
			Details:         details,
			ContextMetadata: meta,
		})
	}
	meta.ContextUsed = result.Used()
	meta.ContextItemsCount = result.Items()
	o.log.Debug("context fetched", slog.Any("source", result.Source), slog.Bool("contextUsed", meta.ContextUsed), slog.Duration("duration", time.Since(start)))

	available, err := o.lister.List(ctx)
	if len(available) == 0 {
		o.log.Error("no models available", slog.Any("error", err))
		return failure(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:           "No models available",
			Context:         result.Context,
			ContextMetadata: meta,
		})
	}
	model, _ := selector.Resolve(job.Query, job.Model, available)

	start = time.Now()
	output, err := o.runner.Run(ctx, model, job.Prompt(result.Context))
	if err != nil {
		o.log.Error("model run failed", slog.String("model", model), slog.Duration("duration", time.Since(start)), slog.Any("error", err))
		return runFailure(err, models.ErrorResponse{
			Context:         result.Context,
			Model:           model,
			ContextMetadata: meta,
		})
	}
	o.log.Info("model run complete", slog.String("model", model), slog.Duration("duration", time.Since(start)))

	return Outcome{
		Status: http.StatusOK,
		Response: &models.AskResponse{
			Response:        output,
			Context:         result.Context,
			Debug:           result.Debug,
			Model:           model,
			ContextMetadata: meta,
			ErrorCode:       0,
		},
	}
}

func runFailure(err error, er models.ErrorResponse) Outcome {
	var exitErr *runner.ExitError
	switch {
	case errors.Is(err, runner.ErrTimeout):
		er.Error = "model runner timed out"
		return failure(http.StatusGatewayTimeout, er)
	case errors.Is(err, runner.ErrNotFound):
		er.Error = "runner executable not found"
		er.Details = err.Error()
		return failure(http.StatusInternalServerError, er)
	case errors.As(err, &exitErr):
		er.Error = "model runner failed"
		er.Details = exitErr.Stderr
		return failure(http.StatusInternalServerError, er)
	case errors.Is(err, context.Canceled):
		er.Error = "request cancelled"
		return failure(StatusClientClosedRequest, er)
	default:
		er.Error = "model runner failed"
		er.Details = err.Error()
		return failure(http.StatusInternalServerError, er)
	}
}

// Serve runs the job and writes the outcome as JSON. Nothing is written if the caller has gone.
func (o *Orchestrator) Serve(w http.ResponseWriter, r *http.Request, job Job) {
	outcome := o.Run(r.Context(), job)
	if r.Context().Err() != nil {
		o.log.Warn("caller went away before the response was ready", slog.Int("status", outcome.Status))
		return
	}
	respond.WithJSON(w, outcome.Body(), outcome.Status)
}

// Decode reads a JSON request body into v. When it fails, a 400 response is written and false
// returned.
func (o *Orchestrator) Decode(w http.ResponseWriter, r *http.Request, v any) (ok bool) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		o.log.Error("failed to decode body", slog.Any("error", err))
		outcome := failure(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Details: err.Error(),
			ContextMetadata: models.ContextMetadata{
				MemoryMode: models.MemoryModePrivate,
			},
		})
		respond.WithJSON(w, outcome.Body(), outcome.Status)
		return false
	}
	return true
}
