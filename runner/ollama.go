package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// NewOllama creates a runner that calls the daemon's HTTP API instead of starting a process.
func NewOllama(serverURL string, httpClient *http.Client, timeout time.Duration) *Ollama {
	return &Ollama{
		ServerURL:  serverURL,
		HTTPClient: httpClient,
		Timeout:    timeout,
	}
}

type Ollama struct {
	ServerURL  string
	HTTPClient *http.Client
	Timeout    time.Duration
	// OnOutput, if set, receives the answer as it is generated.
	OnOutput func(chunk []byte)
}

func (o *Ollama) Run(ctx context.Context, model, prompt string) (output string, err error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithHTTPClient(o.HTTPClient),
		ollama.WithServerURL(o.ServerURL))
	if err != nil {
		return "", fmt.Errorf("failed to create LLM: %w", err)
	}
	var sb strings.Builder
	f := func(ctx context.Context, chunk []byte) error {
		if o.OnOutput != nil {
			o.OnOutput(chunk)
		}
		sb.Write(chunk)
		return nil
	}
	_, err = llm.GenerateContent(timeoutCtx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithStreamingFunc(f))
	if err == nil {
		return sb.String(), nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return "", ErrTimeout
	}
	return "", fmt.Errorf("failed to generate content: %w", err)
}
