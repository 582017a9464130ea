// Package client calls a running gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/a-h/jarvik/auth"
	"github.com/a-h/jarvik/models"
	"github.com/a-h/jsonapi"
)

func New(baseURL string) Client {
	return Client{
		baseURL: baseURL,
	}
}

type Client struct {
	baseURL string
}

// Error is returned when the gateway responds with a non-2xx status.
type Error struct {
	Status   int
	Response models.ProxyErrorResponse
	Body     string
}

func (e *Error) Error() string {
	if e.Response.Error == "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.Status, strings.TrimSpace(e.Body))
	}
	msg := fmt.Sprintf("%s (status %d)", e.Response.Error, e.Status)
	if e.Response.Details != "" {
		msg += ": " + e.Response.Details
	}
	if len(e.Response.Errors) > 0 {
		fields := make([]string, 0, len(e.Response.Errors))
		for field, problem := range e.Response.Errors {
			fields = append(fields, field+" "+problem)
		}
		sort.Strings(fields)
		msg += ": " + strings.Join(fields, ", ")
	}
	return msg
}

func (c Client) Ask(ctx context.Context, req models.AskRequest) (resp models.AskResponse, err error) {
	err = c.post(ctx, req, &resp, "ask")
	return resp, err
}

func (c Client) Code(ctx context.Context, req models.CodeRequest) (resp models.AskResponse, err error) {
	err = c.post(ctx, req, &resp, "code")
	return resp, err
}

func (c Client) Models(ctx context.Context) (names []string, err error) {
	err = c.do(ctx, http.MethodGet, nil, &names, "models")
	return names, err
}

func (c Client) AuthMe(ctx context.Context, creds auth.Credentials) (user json.RawMessage, err error) {
	err = c.post(ctx, models.AuthMeRequest{Credentials: creds}, &user, "auth", "me")
	return user, err
}

func (c Client) Knowledge(ctx context.Context, req models.KnowledgeRequest) (resp json.RawMessage, err error) {
	err = c.post(ctx, req, &resp, "knowledge")
	return resp, err
}

func (c Client) Crawl(ctx context.Context, req models.CrawlRequest) (resp json.RawMessage, err error) {
	err = c.post(ctx, req, &resp, "crawl")
	return resp, err
}

func (c Client) post(ctx context.Context, req, resp any, path ...string) (err error) {
	return c.do(ctx, http.MethodPost, req, resp, path...)
}

func (c Client) do(ctx context.Context, method string, req, resp any, path ...string) (err error) {
	url, err := jsonapi.URL(c.baseURL).Path(path...).String()
	if err != nil {
		return err
	}
	var body io.Reader
	if req != nil {
		buf, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	res, err := jsonapi.Raw(httpReq)
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		e := &Error{Status: res.StatusCode, Body: string(buf)}
		_ = json.Unmarshal(buf, &e.Response)
		return e
	}
	if err = json.Unmarshal(buf, resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
