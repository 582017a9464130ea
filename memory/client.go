// Package memory talks to the external context ("memory") service on behalf of a user.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/jarvik/auth"
	"github.com/a-h/jarvik/cache"
	"github.com/a-h/jsonapi"
)

const (
	DefaultURL     = "https://fura.jarvik-ai.tech"
	DefaultTimeout = 10 * time.Second
)

type Cache interface {
	Get(ctx context.Context, query string) (e cache.Entry, ok bool, err error)
	Fresh(e cache.Entry) bool
	Put(ctx context.Context, query string, data json.RawMessage) (pruned int64, err error)
}

func New(log *slog.Logger, c Cache, defaultURL string, timeout time.Duration) *Client {
	return &Client{
		log:        log,
		cache:      c,
		defaultURL: defaultURL,
		timeout:    timeout,
	}
}

type Client struct {
	log        *slog.Logger
	cache      Cache
	defaultURL string
	timeout    time.Duration
}

type Request struct {
	auth.Credentials
	Query    string
	Remember bool
}

type Source string

const (
	SourceService    Source = "service"
	SourceCache      Source = "cache"
	SourceStaleCache Source = "stale-cache"
)

type Result struct {
	Payload
	Source Source
}

type getContextRequest struct {
	Query    string `json:"query"`
	User     string `json:"user"`
	Remember bool   `json:"remember"`
}

// GetContext always asks the service first. A cached payload for the same query, fresh or not,
// is only returned when the service cannot be reached.
func (c *Client) GetContext(ctx context.Context, req Request) (r Result, err error) {
	cached, hasCached := c.cached(ctx, req.Query)

	status, body, err := c.do(ctx, http.MethodPost, req.Credentials, getContextRequest{
		Query:    req.Query,
		User:     req.Username,
		Remember: req.Remember,
	}, "get_context")
	if err == nil && !isSuccess(status) {
		err = fmt.Errorf("unexpected status %d: %w", status, jsonapi.InvalidStatusError{Status: status, Body: string(body)})
	}
	if err != nil {
		if hasCached {
			c.log.Warn("context service unavailable, using cached context", slog.Any("source", cached.Source), slog.Any("error", err))
			return cached, nil
		}
		return r, &RequestFailedError{Cause: err}
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return r, &InvalidJSONError{Body: string(body), Cause: err}
	}
	if _, err := c.cache.Put(ctx, req.Query, payload.Raw); err != nil {
		c.log.Warn("failed to cache context", slog.Any("error", err))
	}
	return Result{Payload: payload, Source: SourceService}, nil
}

func (c *Client) cached(ctx context.Context, query string) (r Result, ok bool) {
	e, ok, err := c.cache.Get(ctx, query)
	if err != nil {
		c.log.Warn("failed to read context cache", slog.Any("error", err))
		return r, false
	}
	if !ok {
		return r, false
	}
	if r.Payload, err = ParsePayload(e.Data); err != nil {
		c.log.Warn("ignoring unreadable cache entry", slog.Any("error", err))
		return r, false
	}
	r.Source = SourceCache
	if !c.cache.Fresh(e) {
		r.Source = SourceStaleCache
	}
	return r, true
}

// Me returns the service's description of the authenticated user, along with the status code
// the service responded with.
func (c *Client) Me(ctx context.Context, creds auth.Credentials) (status int, body json.RawMessage, err error) {
	status, raw, err := c.do(ctx, http.MethodGet, creds, nil, "auth", "me")
	if err != nil {
		return 0, nil, &RequestFailedError{Cause: err}
	}
	if !json.Valid(raw) {
		return status, nil, &InvalidJSONError{Body: string(raw), Cause: fmt.Errorf("invalid JSON")}
	}
	return status, raw, nil
}

type knowledgeRequest struct {
	Query string `json:"query"`
	User  string `json:"user"`
}

func (c *Client) Knowledge(ctx context.Context, creds auth.Credentials, query string) (json.RawMessage, error) {
	return c.proxy(ctx, creds, knowledgeRequest{Query: query, User: creds.Username}, "knowledge")
}

type crawlRequest struct {
	URL  string `json:"url"`
	User string `json:"user"`
}

func (c *Client) Crawl(ctx context.Context, creds auth.Credentials, url string) (json.RawMessage, error) {
	return c.proxy(ctx, creds, crawlRequest{URL: url, User: creds.Username}, "crawl")
}

func (c *Client) proxy(ctx context.Context, creds auth.Credentials, req any, path ...string) (json.RawMessage, error) {
	status, body, err := c.do(ctx, http.MethodPost, creds, req, path...)
	if err != nil {
		return nil, &RequestFailedError{Cause: err}
	}
	if !isSuccess(status) {
		return nil, &RequestFailedError{Cause: fmt.Errorf("unexpected status %d: %w", status, jsonapi.InvalidStatusError{Status: status, Body: string(body)})}
	}
	if !json.Valid(body) {
		return nil, &InvalidJSONError{Body: string(body), Cause: fmt.Errorf("invalid JSON")}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method string, creds auth.Credentials, req any, path ...string) (status int, body []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url, err := jsonapi.URL(creds.BaseURL(c.defaultURL)).Path(path...).String()
	if err != nil {
		return 0, nil, fmt.Errorf("invalid api_url: %w", err)
	}
	var r io.Reader
	if req != nil {
		buf, err := json.Marshal(req)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(buf)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	res, err := jsonapi.Raw(httpReq, jsonapi.WithRequestHeader("Authorization", creds.Authorization()))
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	body, err = io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return res.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
