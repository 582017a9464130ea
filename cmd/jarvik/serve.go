package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/jarvik/cache"
	"github.com/a-h/jarvik/db"
	askpost "github.com/a-h/jarvik/handlers/ask/post"
	authmepost "github.com/a-h/jarvik/handlers/authme/post"
	codepost "github.com/a-h/jarvik/handlers/code/post"
	crawlpost "github.com/a-h/jarvik/handlers/crawl/post"
	knowledgepost "github.com/a-h/jarvik/handlers/knowledge/post"
	modelsget "github.com/a-h/jarvik/handlers/models/get"
	"github.com/a-h/jarvik/memory"
	"github.com/a-h/jarvik/orchestrator"
	"github.com/a-h/jarvik/registry"
	"github.com/a-h/jarvik/runner"
	"github.com/a-h/jsonapi"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

type ServeCommand struct {
	ListenAddr     string        `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:8000"`
	MemoryURL      string        `help:"The context service URL used when a request has no api_url." env:"MEMORY_URL" default:"https://fura.jarvik-ai.tech"`
	Cache          string        `help:"The context cache, a SQLite file path or an rqlite URL." env:"CACHE" default:"jarvik-cache.db"`
	CacheMaxItems  int           `help:"The maximum number of cached context payloads." env:"CACHE_MAX_ITEMS" default:"128"`
	CacheTTL       time.Duration `help:"How long a cached context payload is fresh." env:"CACHE_TTL" default:"24h"`
	ContextTimeout time.Duration `help:"The timeout for context service requests." env:"CONTEXT_TIMEOUT" default:"10s"`
	Runner         string        `help:"How models are run, exec runs a subprocess, http uses the Ollama API." env:"RUNNER" enum:"exec,http" default:"exec"`
	RunnerCommand  string        `help:"The command used to run a model, the model name is appended." env:"RUNNER_COMMAND" default:"ollama run"`
	RunnerTimeout  time.Duration `help:"The time a model has to answer." env:"RUNNER_TIMEOUT" default:"60s"`
	ListCommand    string        `help:"The command that lists models as JSON records." env:"LIST_COMMAND" default:"ollama list --format json"`
	ListTimeout    time.Duration `help:"The timeout for the model listing command." env:"LIST_TIMEOUT" default:"10s"`
	OllamaURL      string        `help:"The URL of the Ollama server." env:"OLLAMA_URL" default:"http://localhost:11434"`
	TagsTimeout    time.Duration `help:"The timeout for listing models over HTTP." env:"TAGS_TIMEOUT" default:"5s"`
	MaxBodyBytes   int64         `help:"The maximum request body size." env:"MAX_BODY_BYTES" default:"33554432"`
	TLSCertFile    string        `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile     string        `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	LogLevel       string        `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	log.Info("opening context cache", slog.String("location", c.Cache))
	store, err := db.Open(c.Cache)
	if err != nil {
		return fmt.Errorf("failed to open context cache: %w", err)
	}
	defer store.Close()
	contextCache := cache.New(store, c.CacheTTL, c.CacheMaxItems)
	if pruned, err := contextCache.Prune(ctx, c.CacheMaxItems); err != nil {
		return fmt.Errorf("failed to prune context cache: %w", err)
	} else if pruned > 0 {
		log.Info("pruned context cache", slog.Int64("pruned", pruned))
	}

	memoryClient := memory.New(log, contextCache, c.MemoryURL, c.ContextTimeout)

	tagsURL, err := jsonapi.URL(c.OllamaURL).Path("api", "tags").String()
	if err != nil {
		return fmt.Errorf("invalid Ollama URL: %w", err)
	}
	models := registry.New(log, strings.Fields(c.ListCommand), tagsURL)
	models.ListTimeout = c.ListTimeout
	models.TagsTimeout = c.TagsTimeout

	modelRunner, err := c.newRunner(log)
	if err != nil {
		return err
	}
	o := orchestrator.New(log, memoryClient, models, modelRunner)

	mux := http.NewServeMux()
	mux.Handle("GET /models", modelsget.New(log, models))
	mux.Handle("POST /ask", askpost.New(log, o))
	mux.Handle("POST /code", codepost.New(log, o))
	mux.Handle("POST /auth/me", authmepost.New(log, memoryClient))
	mux.Handle("POST /knowledge", knowledgepost.New(log, memoryClient))
	mux.Handle("POST /crawl", crawlpost.New(log, memoryClient))

	s := &http.Server{
		Addr:    c.ListenAddr,
		Handler: cors.AllowAll().Handler(limitBody(mux, c.MaxBodyBytes)),
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Listening", slog.String("addr", c.ListenAddr))
		var err error
		if s.TLSConfig != nil {
			err = s.ListenAndServeTLS("", "")
		} else {
			err = s.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.RunnerTimeout+5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (c ServeCommand) newRunner(log *slog.Logger) (orchestrator.Runner, error) {
	switch c.Runner {
	case "http":
		log.Info("running models with the Ollama API", slog.String("url", c.OllamaURL))
		return runner.NewOllama(c.OllamaURL, &http.Client{}, c.RunnerTimeout), nil
	default:
		command := strings.Fields(c.RunnerCommand)
		if len(command) == 0 {
			return nil, fmt.Errorf("runner command is empty")
		}
		log.Info("running models with a subprocess", slog.String("command", c.RunnerCommand))
		return runner.NewExec(command[0], command[1:], c.RunnerTimeout), nil
	}
}

func limitBody(next http.Handler, maxBytes int64) http.Handler {
	if maxBytes <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}
