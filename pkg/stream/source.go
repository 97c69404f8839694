package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/superbiz/pkg/logger"
)

const (
	defaultReadSize = 32 * 1024

	// maxEmptyReads bounds consecutive (0, nil) reads before a body is
	// treated as broken.
	maxEmptyReads = 100
)

// ChunkSource yields the raw chunks of one stream in receipt order.
//
// Next returns io.EOF once the stream is exhausted. Failures are *Error
// values of kind KindTransport, KindTimeout or KindAborted. After io.EOF or
// any failure, Next returns ErrClosed; a source never re-opens.
//
// Close releases the underlying connection. It must be safe to call more
// than once and from every exit path.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// errDeadline is the cancellation cause recorded when a BodySource deadline
// fires.
var errDeadline = errors.New("stream deadline")

// BodySource is a ChunkSource over an io.ReadCloser, typically an HTTP
// response body.
//
// The context given to NewBodySource bounds the whole stream; the context
// given to each Next call bounds that pull. Cancelling either closes the
// body so that a blocked read returns promptly.
type BodySource struct {
	body     io.ReadCloser
	readSize int
	tee      io.Writer
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool

	onRelease   func()
	releaseOnce sync.Once
	releaseErr  error

	// finished is set after io.EOF or a failure.
	finished bool
	// eof is set when a read returned data together with io.EOF.
	eof bool
}

// BodyOption configures a BodySource.
type BodyOption func(*BodySource)

// WithDeadline bounds the whole stream to d, independent of chunk arrival.
// Expiry surfaces as KindTimeout.
func WithDeadline(d time.Duration) BodyOption {
	return func(s *BodySource) {
		if d <= 0 {
			return
		}
		s.ctx, s.cancel = context.WithTimeoutCause(s.ctx, d, errDeadline)
	}
}

// WithTee copies every raw byte read to w. Write errors are logged and
// otherwise ignored.
func WithTee(w io.Writer) BodyOption {
	return func(s *BodySource) {
		s.tee = w
	}
}

// WithOnRelease registers fn to run once, when the body is released.
func WithOnRelease(fn func()) BodyOption {
	return func(s *BodySource) {
		s.onRelease = fn
	}
}

// WithReadSize sets the maximum size of a single chunk.
func WithReadSize(n int) BodyOption {
	return func(s *BodySource) {
		if n > 0 {
			s.readSize = n
		}
	}
}

// WithSourceLogger sets the logger used for tee failures.
func WithSourceLogger(l *slog.Logger) BodyOption {
	return func(s *BodySource) {
		s.logger = logger.OrNop(l)
	}
}

// NewBodySource wraps body. The deadline timer, if any, starts now.
func NewBodySource(ctx context.Context, body io.ReadCloser, opts ...BodyOption) *BodySource {
	s := &BodySource{
		body:     body,
		readSize: defaultReadSize,
		logger:   logger.Nop(),
		ctx:      ctx,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cancel == nil {
		s.ctx, s.cancel = context.WithCancel(s.ctx)
	}

	s.stop = context.AfterFunc(s.ctx, func() {
		_ = s.release()
	})

	return s
}

// Next reads the next chunk.
func (s *BodySource) Next(ctx context.Context) ([]byte, error) {
	if s.finished {
		return nil, ErrClosed
	}

	if s.eof {
		s.finish()
		return nil, io.EOF
	}

	if err := s.contextErr(ctx); err != nil {
		s.finish()
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.release()
	})
	defer stop()

	buf := make([]byte, s.readSize)
	for empty := 0; ; empty++ {
		n, err := s.body.Read(buf)
		if n > 0 {
			s.teeWrite(buf[:n])
			if errors.Is(err, io.EOF) {
				s.eof = true
			}
			return buf[:n], nil
		}

		switch {
		case err == nil:
			if cerr := s.contextErr(ctx); cerr != nil {
				s.finish()
				return nil, cerr
			}
			if empty+1 >= maxEmptyReads {
				s.finish()
				return nil, &Error{Kind: KindTransport, Reason: "reading stream", Cause: io.ErrNoProgress}
			}
			continue

		case errors.Is(err, io.EOF):
			// A body closed by cancellation may also report EOF.
			if cerr := s.contextErr(ctx); cerr != nil {
				s.finish()
				return nil, cerr
			}
			s.finish()
			return nil, io.EOF

		default:
			// Releasing the body may cancel the stream context through the
			// release hook, so the cause is decided before finishing.
			cerr := s.contextErr(ctx)
			s.finish()
			if cerr != nil {
				return nil, cerr
			}
			return nil, &Error{Kind: KindTransport, Reason: "reading stream", Cause: err}
		}
	}
}

// Close stops the deadline timer and releases the body. Only the first
// call closes the body; later calls return the same result.
func (s *BodySource) Close() error {
	s.finished = true
	s.stop()
	s.cancel()
	return s.release()
}

func (s *BodySource) finish() {
	s.finished = true
	_ = s.release()
}

func (s *BodySource) release() error {
	s.releaseOnce.Do(func() {
		s.releaseErr = s.body.Close()
		if s.onRelease != nil {
			s.onRelease()
		}
	})
	return s.releaseErr
}

func (s *BodySource) teeWrite(p []byte) {
	if s.tee == nil {
		return
	}
	if _, err := s.tee.Write(p); err != nil {
		s.logger.Warn("stream trace write failed", "error", err)
		s.tee = nil
	}
}

// contextErr maps a done pull or stream context to a stream error.
func (s *BodySource) contextErr(ctx context.Context) error {
	for _, c := range []context.Context{ctx, s.ctx} {
		if c.Err() == nil {
			continue
		}
		return contextError(c)
	}
	return nil
}

func contextError(c context.Context) error {
	cause := context.Cause(c)
	if errors.Is(cause, errDeadline) || errors.Is(c.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Reason: "stream deadline exceeded", Cause: c.Err()}
	}
	return &Error{Kind: KindAborted, Reason: "stream aborted", Cause: cause}
}

// SliceSource is an in-memory ChunkSource, used for replays and tests.
type SliceSource struct {
	chunks   [][]byte
	next     int
	finished bool
	pulled   int
	closed   int
}

// NewSliceSource returns a source yielding chunks in order.
func NewSliceSource(chunks ...[]byte) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// SplitEvery cuts data into chunks of at most size bytes, ignoring rune
// and line boundaries.
func SplitEvery(data []byte, size int) [][]byte {
	if size <= 0 {
		size = len(data)
	}

	var chunks [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	return chunks
}

// Next returns the next chunk, io.EOF at the end, or an aborted error if ctx
// is done.
func (s *SliceSource) Next(ctx context.Context) ([]byte, error) {
	if s.finished {
		return nil, ErrClosed
	}

	if ctx.Err() != nil {
		s.finished = true
		return nil, contextError(ctx)
	}

	if s.next >= len(s.chunks) {
		s.finished = true
		return nil, io.EOF
	}

	chunk := s.chunks[s.next]
	s.next++
	s.pulled++

	return chunk, nil
}

// Close marks the source finished.
func (s *SliceSource) Close() error {
	s.finished = true
	s.closed++
	return nil
}

// Pulled returns the number of chunks handed out so far.
func (s *SliceSource) Pulled() int {
	return s.pulled
}

// Closed returns the number of Close calls.
func (s *SliceSource) Closed() int {
	return s.closed
}
