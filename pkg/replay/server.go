// Package replay serves and checks recorded event-stream traces, so the
// stream assembler can be exercised against real server output without the
// inference backend.
package replay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/superbiz/pkg/logger"
	"github.com/papercomputeco/superbiz/pkg/stream"
)

// Routes served by the replay server, relative to Config.Prefix.
const (
	RouteChatStream  = "/chat_stream"
	RouteAIOpsStream = "/ai_ops_stream"
)

var errReplayClosed = errors.New("replay server closed")

// Server replays one trace on the stream endpoints of the backend.
type Server struct {
	config Config
	trace  []byte
	app    *fiber.App
	logger *slog.Logger
	done   chan struct{}
}

// LoadTrace reads a recorded trace file.
func LoadTrace(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return data, nil
}

// NewServer builds a replay server for trace.
func NewServer(config Config, trace []byte, l *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		trace:  trace,
		app:    app,
		logger: logger.OrNop(l),
		done:   make(chan struct{}),
	}

	prefix := "/" + strings.Trim(config.Prefix, "/")
	group := app.Group(strings.TrimSuffix(prefix, "/"))
	group.Post(RouteChatStream, s.handleStream)
	group.Post(RouteAIOpsStream, s.handleStream)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the server on the configured listen address.
func (s *Server) Run() error {
	s.logger.Info("starting replay server",
		"listen", s.config.ListenAddr,
		"bytes", len(s.trace),
		"chunk_size", s.config.ChunkSize,
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting replay server",
		"listen", listener.Addr().String(),
		"bytes", len(s.trace),
		"chunk_size", s.config.ChunkSize,
	)

	return s.app.Listener(listener)
}

// Close stops in-flight replays and shuts the server down.
func (s *Server) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.app.Shutdown()
}

func (s *Server) handleStream(c *fiber.Ctx) error {
	s.logger.Debug("replaying trace", "path", c.Path())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// pw.Write blocks until fasthttp consumes the chunk, so each chunk is
	// flushed to the socket on its own.
	pr, pw := io.Pipe()
	go s.writeTrace(pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) writeTrace(pw *io.PipeWriter) {
	defer pw.Close()

	for _, chunk := range stream.SplitEvery(s.trace, s.config.ChunkSize) {
		if s.config.Delay > 0 {
			select {
			case <-time.After(s.config.Delay):
			case <-s.done:
				pw.CloseWithError(errReplayClosed)
				return
			}
		}

		if _, err := pw.Write(chunk); err != nil {
			s.logger.Debug("replay client went away", "error", err)
			return
		}
	}
}
