// Package registry lists the models available to the local model runner.
package registry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/a-h/jsonapi"
)

const (
	DefaultTagsURL     = "http://localhost:11434/api/tags"
	DefaultListTimeout = 10 * time.Second
	DefaultTagsTimeout = 5 * time.Second
)

var DefaultListCommand = []string{"ollama", "list", "--format", "json"}

func New(log *slog.Logger, command []string, tagsURL string) *Registry {
	return &Registry{
		log:         log,
		command:     command,
		tagsURL:     tagsURL,
		ListTimeout: DefaultListTimeout,
		TagsTimeout: DefaultTagsTimeout,
	}
}

type Registry struct {
	log         *slog.Logger
	command     []string
	tagsURL     string
	ListTimeout time.Duration
	TagsTimeout time.Duration
}

// ErrNoModels is returned alongside an empty list when neither source produced a model name.
var ErrNoModels = errors.New("no models available")

// List returns model names in the order the source reported them. The listing command is tried
// first, then the daemon's HTTP API. An empty list is always accompanied by an error describing
// why, but callers should treat the empty list itself as the result.
func (r *Registry) List(ctx context.Context) (names []string, err error) {
	names, cmdErr := r.listCommand(ctx)
	if cmdErr == nil && len(names) > 0 {
		return names, nil
	}
	if cmdErr != nil {
		r.log.Warn("model listing command failed, trying HTTP API", slog.Any("error", cmdErr))
	}
	names, httpErr := r.listHTTP(ctx)
	if httpErr == nil && len(names) > 0 {
		return names, nil
	}
	if httpErr != nil {
		r.log.Warn("model listing HTTP API failed", slog.Any("error", httpErr))
	}
	return []string{}, errors.Join(ErrNoModels, cmdErr, httpErr)
}

func (r *Registry) listCommand(ctx context.Context) (names []string, err error) {
	if len(r.command) == 0 {
		return nil, fmt.Errorf("no listing command configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.ListTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err = cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", strings.Join(r.command, " "), ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w: %s", strings.Join(r.command, " "), err, strings.TrimSpace(stderr.String()))
	}
	return r.parseRecords(&stdout), nil
}

type record struct {
	Name string `json:"name"`
}

// parseRecords reads newline-delimited JSON records, skipping lines that are not JSON.
func (r *Registry) parseRecords(rd io.Reader) (names []string) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lineNumber int
	for scanner.Scan() {
		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			r.log.Warn("skipping malformed model record", slog.Int("line", lineNumber), slog.Any("error", err))
			continue
		}
		if rec.Name != "" {
			names = append(names, rec.Name)
		}
	}
	if err := scanner.Err(); err != nil {
		r.log.Warn("failed to read model records", slog.Any("error", err))
	}
	return names
}

type tagsResponse struct {
	Models []record `json:"models"`
}

func (r *Registry) listHTTP(ctx context.Context) (names []string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.TagsTimeout)
	defer cancel()

	url, err := jsonapi.URL(r.tagsURL).String()
	if err != nil {
		return nil, fmt.Errorf("invalid tags URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	res, err := jsonapi.Raw(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return nil, jsonapi.InvalidStatusError{
			Status: res.StatusCode,
			Body:   string(body),
		}
	}
	var tags tagsResponse
	if err = json.NewDecoder(res.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}
