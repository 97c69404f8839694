package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/superbiz/pkg/logger"
	"github.com/papercomputeco/superbiz/pkg/upload"
)

// Timeouts are per-endpoint deadlines. Stream deadlines bound the whole
// stream.
type Timeouts struct {
	Chat       time.Duration
	ChatStream time.Duration
	Upload     time.Duration
	AIOps      time.Duration
}

// Option customizes the Client.
type Option func(c *Client)

// WithHTTPClient supplies a custom HTTP client. Its Timeout should be zero,
// since deadlines are applied per call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeouts sets the per-endpoint deadlines. Zero fields keep their
// current value.
func WithTimeouts(t Timeouts) Option {
	return func(c *Client) {
		if t.Chat > 0 {
			c.timeouts.Chat = t.Chat
		}
		if t.ChatStream > 0 {
			c.timeouts.ChatStream = t.ChatStream
		}
		if t.Upload > 0 {
			c.timeouts.Upload = t.Upload
		}
		if t.AIOps > 0 {
			c.timeouts.AIOps = t.AIOps
		}
	}
}

// WithUploadRules sets the client-side document checks run before upload.
func WithUploadRules(r upload.Rules) Option {
	return func(c *Client) {
		c.uploadRules = r
	}
}

// WithTraceDir records the raw bytes of every stream to an .sse file in dir.
func WithTraceDir(dir string) Option {
	return func(c *Client) {
		c.traceDir = dir
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.OrNop(l)
	}
}
