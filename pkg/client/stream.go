package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/papercomputeco/superbiz/pkg/stream"
)

// ChatStream asks a question on the streamed chat endpoint. onProgress, if
// set, receives the full answer so far after every content message.
//
// The returned error covers failures before the stream started (another
// stream in flight, connection failures, non-2xx status). Once streaming
// begins, failures are reported in the Outcome.
func (c *Client) ChatStream(ctx context.Context, sessionID, question string, onProgress stream.ProgressFunc) (stream.Outcome, error) {
	body := ChatRequest{ID: sessionID, Question: question}
	return c.runStream(ctx, "chat_stream", stream.ModePlain, c.timeouts.ChatStream, body, onProgress)
}

// AIOpsStream runs an ops analysis on the named-event stream endpoint. An
// empty problem asks for an analysis of the current alerts.
func (c *Client) AIOpsStream(ctx context.Context, problem string, onProgress stream.ProgressFunc) (stream.Outcome, error) {
	body := AIOpsRequest{Problem: problemOrDefault(problem)}
	return c.runStream(ctx, "ai_ops_stream", stream.ModeNamedEvent, c.timeouts.AIOps, body, onProgress)
}

// Streaming reports whether a stream is currently running.
func (c *Client) Streaming() bool {
	return c.streaming.Load()
}

func (c *Client) runStream(ctx context.Context, endpoint string, mode stream.Mode, timeout time.Duration, body any, onProgress stream.ProgressFunc) (stream.Outcome, error) {
	if !c.streaming.CompareAndSwap(false, true) {
		return stream.Outcome{}, ErrStreamInFlight
	}
	defer c.streaming.Store(false)

	// The deadline covers connecting and the whole body, independent of
	// chunk arrival.
	var (
		streamCtx context.Context
		cancel    context.CancelFunc
	)
	if timeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		streamCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	req, err := c.newRequest(streamCtx, http.MethodPost, "/"+endpoint, body)
	if err != nil {
		return stream.Outcome{}, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.do(req)
	if err != nil {
		return stream.Outcome{}, err
	}

	if err := c.checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return stream.Outcome{}, err
	}

	log := c.logger.With("endpoint", endpoint)

	srcOpts := []stream.BodyOption{
		stream.WithOnRelease(cancel),
		stream.WithSourceLogger(log),
	}

	trace, err := c.openTrace(endpoint)
	if err != nil {
		log.Warn("stream trace disabled", "error", err)
	}
	if trace != nil {
		defer func() {
			if err := trace.Close(); err != nil {
				log.Warn("closing stream trace", "error", err)
			}
		}()
		srcOpts = append(srcOpts, stream.WithTee(trace))
		log.Debug("recording stream", "path", trace.Name())
	}

	src := stream.NewBodySource(streamCtx, resp.Body, srcOpts...)

	opts := []stream.Option{stream.WithLogger(log)}
	if onProgress != nil {
		opts = append(opts, stream.WithProgress(onProgress))
	}

	return stream.NewAssembler(mode, opts...).Run(streamCtx, src), nil
}

// openTrace creates <traceDir>/<endpoint>-<timestamp>.sse, or returns nil
// when recording is disabled.
func (c *Client) openTrace(endpoint string) (*os.File, error) {
	if c.traceDir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(c.traceDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace dir: %w", err)
	}

	stamp := strings.ReplaceAll(time.Now().UTC().Format("20060102T150405.000000"), ".", "-")
	path := filepath.Join(c.traceDir, fmt.Sprintf("%s-%s.sse", endpoint, stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	return f, nil
}
