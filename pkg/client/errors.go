package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrStreamInFlight is returned when a stream is started while another one
// from the same Client is still running.
var ErrStreamInFlight = errors.New("another stream is already in flight")

// ErrUnexpectedResponse is returned when a 2xx body has neither the expected
// fields nor an error detail.
var ErrUnexpectedResponse = errors.New("unexpected response format")

// HTTPError wraps non-2xx responses.
type HTTPError struct {
	StatusCode int
	Status     string

	// Detail is the backend's {"detail": ...} message, when present.
	Detail string

	// Body is the trimmed raw body.
	Body string
}

func (e *HTTPError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Detail)
	case e.Body != "":
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("request failed: %s", e.Status)
	}
}

// BackendError is a 2xx response that reports a failure in its body.
type BackendError struct {
	Status  string
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return "backend reported " + e.Status
	}
	return e.Message
}

func newHTTPError(statusCode int, status string, body []byte) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Detail:     detail(body),
		Body:       strings.TrimSpace(string(body)),
	}
}

// detail extracts the "detail" field of an error body. Validation errors
// carry a list there, which is returned raw.
func detail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	d := gjson.GetBytes(body, "detail")
	switch d.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return d.Str
	default:
		return d.Raw
	}
}
