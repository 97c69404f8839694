package stream

import "errors"

// ErrorKind categorizes stream failures for handling.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// KindTransport is a connection-level failure while reading the body.
	KindTransport

	// KindTimeout means the stream deadline expired before completion.
	KindTimeout

	// KindAborted means the caller cancelled the stream.
	KindAborted

	// KindProtocol is an explicit error message sent by the server.
	KindProtocol

	// KindClosed is returned by a source that already reached its end.
	KindClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindAborted:
		return "aborted"
	case KindProtocol:
		return "protocol"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by sources and carried by failed
// outcomes.
type Error struct {
	Kind   ErrorKind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for errors.Is checks.
var (
	ErrClosed    = &Error{Kind: KindClosed, Reason: "stream closed"}
	ErrAborted   = &Error{Kind: KindAborted, Reason: "stream aborted"}
	ErrTimeout   = &Error{Kind: KindTimeout, Reason: "stream deadline exceeded"}
	ErrTransport = &Error{Kind: KindTransport, Reason: "stream transport failure"}
	ErrProtocol  = &Error{Kind: KindProtocol, Reason: "server reported an error"}
)

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsAborted reports whether err is a caller-initiated cancellation.
func IsAborted(err error) bool {
	return KindOf(err) == KindAborted
}

// IsTimeout reports whether err is a stream deadline expiry.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsProtocol reports whether err carries a server-sent error message.
func IsProtocol(err error) bool {
	return KindOf(err) == KindProtocol
}
