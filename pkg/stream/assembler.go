package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/superbiz/pkg/logger"
	"github.com/papercomputeco/superbiz/pkg/sse"
)

// Mode selects the stream grammar.
type Mode int

const (
	// ModePlain is the "data:"-only grammar of the chat stream endpoint.
	ModePlain Mode = iota

	// ModeNamedEvent is the grammar of the ops analysis endpoint, where
	// "event:" and "id:" lines may precede data lines.
	ModeNamedEvent
)

func (m Mode) String() string {
	if m == ModeNamedEvent {
		return "named-event"
	}
	return "plain"
}

// Status is the terminal status of a stream.
type Status int

const (
	StatusCompleted Status = iota + 1
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "streaming"
	}
}

// Outcome is the single terminal result of a stream.
type Outcome struct {
	Status Status

	// Text is the assembled answer. For a failed stream it holds whatever
	// content arrived before the failure.
	Text string

	// Err is set when Status is StatusFailed. It is always an *Error.
	Err error

	// LastEvent is the last "event:" name seen in ModeNamedEvent. It is
	// informational only.
	LastEvent string
}

// Completed reports whether the stream completed.
func (o Outcome) Completed() bool {
	return o.Status == StatusCompleted
}

// Reason returns the human-readable failure reason, or "".
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}

	var se *Error
	if errors.As(o.Err, &se) && se.Kind == KindProtocol {
		return se.Reason
	}
	return o.Err.Error()
}

// ProgressFunc receives the full assembled text after each content message
// and once more on completion.
type ProgressFunc func(text string)

// Option configures an Assembler.
type Option func(*Assembler)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Assembler) {
		a.onProgress = fn
	}
}

// WithLogger sets the logger for stream diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger.OrNop(l)
	}
}

// Assembler drives one stream from its source to a terminal Outcome:
// chunks go through an sse.LineBuffer and sse.Parser, data payloads through
// an Extractor, and content is appended to the answer.
//
// An Assembler is single-use.
type Assembler struct {
	mode       Mode
	lines      *sse.LineBuffer
	parser     *sse.Parser
	extractor  *Extractor
	onProgress ProgressFunc
	logger     *slog.Logger

	text strings.Builder

	// outcome.Status is zero while streaming and written exactly once.
	outcome Outcome
}

// NewAssembler returns an Assembler for the given grammar.
func NewAssembler(mode Mode, opts ...Option) *Assembler {
	a := &Assembler{
		mode:   mode,
		lines:  sse.NewLineBuffer(),
		parser: sse.NewParser(),
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.logger = a.logger.With("mode", mode.String())
	a.extractor = NewExtractor(a.logger)

	return a
}

// RunPlainStream assembles a "data:"-only stream.
func RunPlainStream(ctx context.Context, src ChunkSource, opts ...Option) Outcome {
	return NewAssembler(ModePlain, opts...).Run(ctx, src)
}

// RunNamedEventStream assembles a stream that may carry "event:" lines.
// The outcome's LastEvent holds the last event name seen.
func RunNamedEventStream(ctx context.Context, src ChunkSource, opts ...Option) Outcome {
	return NewAssembler(ModeNamedEvent, opts...).Run(ctx, src)
}

// Run pulls chunks from src until a terminal state is reached and returns
// the outcome. src is closed on every path.
func (a *Assembler) Run(ctx context.Context, src ChunkSource) Outcome {
	defer func() {
		if err := src.Close(); err != nil {
			a.logger.Debug("closing stream source", "error", err)
		}
	}()

	for a.streaming() {
		chunk, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			a.finishAtEOF()

		case err != nil:
			a.fail(asStreamError(err))

		default:
			for _, line := range a.lines.Push(chunk) {
				a.handleLine(line)
				if !a.streaming() {
					break
				}
			}
		}
	}

	a.lines.Discard()

	a.logger.Debug("stream finished",
		"status", a.outcome.Status.String(),
		"length", a.text.Len(),
		"last_event", a.outcome.LastEvent,
	)

	return a.outcome
}

// finishAtEOF processes a trailing unterminated line, then completes with
// whatever was assembled if no terminal message arrived.
func (a *Assembler) finishAtEOF() {
	if line, ok := a.lines.Flush(); ok {
		a.handleLine(line)
	}

	if a.streaming() {
		a.logger.Debug("stream ended without a done message")
		a.complete()
	}
}

func (a *Assembler) handleLine(line string) {
	frame := a.parser.Parse(line)

	switch frame.Kind {
	case sse.FrameEvent:
		if a.mode == ModeNamedEvent {
			a.logger.Debug("stream event", "event", frame.Name)
		}

	case sse.FrameData:
		for msg := range a.extractor.Extract(frame.Data) {
			a.apply(msg)
			if !a.streaming() {
				return
			}
		}

	case sse.FrameIgnored:
	}
}

func (a *Assembler) apply(msg Message) {
	switch msg.Kind {
	case KindContent:
		a.text.WriteString(msg.Text)
		a.progress()

	case KindDone:
		a.complete()
		a.progress()

	case KindError:
		a.fail(&Error{Kind: KindProtocol, Reason: msg.Text})
	}
}

func (a *Assembler) streaming() bool {
	return a.outcome.Status == 0
}

func (a *Assembler) complete() {
	a.terminate(Outcome{Status: StatusCompleted})
}

func (a *Assembler) fail(err error) {
	a.logger.Debug("stream failed", "error", err)
	a.terminate(Outcome{Status: StatusFailed, Err: err})
}

func (a *Assembler) terminate(o Outcome) {
	if !a.streaming() {
		return
	}

	o.Text = a.text.String()
	if a.mode == ModeNamedEvent {
		o.LastEvent = a.parser.CurrentEvent()
	}
	a.outcome = o
}

func (a *Assembler) progress() {
	if a.onProgress != nil {
		a.onProgress(a.text.String())
	}
}

func asStreamError(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: KindTransport, Reason: "reading stream", Cause: err}
}
