// Package client is the HTTP client for the SuperBiz backend: plain chat,
// streamed chat, ops analysis, document upload and session management.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/logger"
	"github.com/papercomputeco/superbiz/pkg/stream"
	"github.com/papercomputeco/superbiz/pkg/upload"
	"github.com/papercomputeco/superbiz/pkg/utils"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 * 1024

// Client talks to one backend. It is safe for concurrent use, except that
// only one stream may run at a time.
type Client struct {
	baseURL     string
	http        *http.Client
	timeouts    Timeouts
	uploadRules upload.Rules
	traceDir    string
	logger      *slog.Logger

	streaming atomic.Bool
}

// New constructs a client for the API rooted at baseURL, e.g.
// http://localhost:9900/api.
func New(baseURL string, opts ...Option) *Client {
	defaults := config.NewDefaultConfig()

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
		timeouts: Timeouts{
			Chat:       defaults.Timeouts.Chat.Std(),
			ChatStream: defaults.Timeouts.ChatStream.Std(),
			Upload:     defaults.Timeouts.Upload.Std(),
			AIOps:      defaults.Timeouts.AIOps.Std(),
		},
		uploadRules: upload.Rules{
			MaxBytes:   defaults.Upload.MaxBytes,
			Extensions: defaults.Upload.Extensions,
		},
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// FromConfig constructs a client from the effective configuration. opts
// are applied after the configured values.
func FromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{
		WithTimeouts(Timeouts{
			Chat:       cfg.Timeouts.Chat.Std(),
			ChatStream: cfg.Timeouts.ChatStream.Std(),
			Upload:     cfg.Timeouts.Upload.Std(),
			AIOps:      cfg.Timeouts.AIOps.Std(),
		}),
		WithUploadRules(upload.Rules{
			MaxBytes:   cfg.Upload.MaxBytes,
			Extensions: cfg.Upload.Extensions,
		}),
		WithTraceDir(cfg.Trace.Dir),
	}

	return New(cfg.Client.APIBase, append(base, opts...)...)
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat asks a question and waits for the whole answer.
func (c *Client) Chat(ctx context.Context, sessionID, question string) (*ChatResponse, error) {
	var raw struct {
		Answer  *string  `json:"answer"`
		Sources []string `json:"sources"`
		Detail  *string  `json:"detail"`
	}

	if err := c.doJSON(ctx, c.timeouts.Chat, http.MethodPost, "/chat", ChatRequest{ID: sessionID, Question: question}, &raw); err != nil {
		return nil, err
	}

	switch {
	case raw.Answer != nil:
		return &ChatResponse{Answer: *raw.Answer, Sources: raw.Sources}, nil
	case raw.Detail != nil:
		return nil, &BackendError{Status: StatusError, Message: *raw.Detail}
	default:
		return nil, ErrUnexpectedResponse
	}
}

// AIOps runs an ops analysis and waits for the whole report.
func (c *Client) AIOps(ctx context.Context, problem string) (*AIOpsResponse, error) {
	var resp AIOpsResponse
	if err := c.doJSON(ctx, c.timeouts.AIOps, http.MethodPost, "/ai_ops", AIOpsRequest{Problem: problemOrDefault(problem)}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearSession clears the backend history of a session. A session the
// backend does not know is reported through the result status, not as an
// error.
func (c *Client) ClearSession(ctx context.Context, id string) (*SessionResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("session id is required")
	}

	var resp SessionResult
	uri := "/chat/clear/" + url.PathEscape(id)
	if err := c.doJSON(ctx, c.timeouts.Chat, http.MethodDelete, uri, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Status == StatusError {
		return nil, &BackendError{Status: resp.Status, Message: resp.Message}
	}
	return &resp, nil
}

// ListSessions lists the sessions the backend currently holds.
func (c *Client) ListSessions(ctx context.Context) (*SessionList, error) {
	var resp SessionList
	if err := c.doJSON(ctx, c.timeouts.Chat, http.MethodGet, "/chat/sessions", nil, &resp); err != nil {
		return nil, err
	}

	if resp.Status == StatusError {
		return nil, &BackendError{Status: resp.Status, Message: resp.Message}
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, timeout time.Duration, method, uri string, in, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, uri, in)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", uri, err)
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, uri string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+uri, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// do sends req and maps context failures to stream error kinds, so callers
// can tell a timeout from a cancel the same way for every endpoint.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.logger.Debug("sending request",
		"method", req.Method,
		"url", req.URL.String(),
	)

	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := c.http.Do(req)
	if err == nil {
		return resp, nil
	}

	ctx := req.Context()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, &stream.Error{Kind: stream.KindTimeout, Reason: "request deadline exceeded", Cause: err}
	case ctx.Err() != nil:
		return nil, &stream.Error{Kind: stream.KindAborted, Reason: "request aborted", Cause: err}
	default:
		return nil, fmt.Errorf("sending request to %s: %w", req.URL.Path, err)
	}
}

// checkStatus turns a non-2xx response into an *HTTPError. A body that
// cannot be read in full still yields the error, with whatever was read.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		c.logger.Debug("reading error body",
			"status", resp.StatusCode,
			"read", len(body),
			"error", err,
		)
	}
	return newHTTPError(resp.StatusCode, resp.Status, body)
}

func problemOrDefault(problem string) string {
	if strings.TrimSpace(problem) == "" {
		return DefaultProblem
	}
	return problem
}
