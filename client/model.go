package client

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrBodySize caps the amount of response body read when
// building an error for an unsuccessful status code. This prevents
// unbounded memory usage when a large response arrives with a
// failure status.
const maxErrBodySize = 4 << 10 // 4KB

// canceledMessage is the envelope message for caller-requested cancellation.
const canceledMessage = "operation was canceled"

// emptyBodyMessage is the informational note carried by a successful
// typed send whose response had no body to decode.
const emptyBodyMessage = "response body was empty, nothing to decode"

var (
	// ErrInvalidArgument is wrapped by configuration errors caused by a
	// bad argument to a [Builder] call, such as a blank URI or header key.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is wrapped by configuration errors caused by calling
	// [Builder] methods out of order, such as adding query parameters
	// before a URI is set.
	ErrInvalidState = errors.New("invalid state")

	// ErrTransport is wrapped by faults raised before any response existed
	// (DNS, connect, TLS, client timeout).
	ErrTransport = errors.New("transport failure")
	// ErrCanceled is wrapped when the caller's context ended the send.
	ErrCanceled = errors.New(canceledMessage)
	// ErrMaterialize is wrapped when reading or decoding a response body
	// fails after the transport call succeeded.
	ErrMaterialize = errors.New("materializing response body")

	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")

	// ErrStreamConsumed is yielded when a [LineStream] is iterated twice.
	ErrStreamConsumed = errors.New("line stream already consumed")
)

// UnexpectedStatusError is carried by a [Result] when a response was
// received but its status code falls outside the success range.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", e.Err, e.StatusCode)
	}

	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// isSuccessStatus reports whether code is in the [200,400) success range.
func isSuccessStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusBadRequest
}

// statusErr builds the error for an unsuccessful status code.
func statusErr(code int, body string) *UnexpectedStatusError {
	err := ErrUnexpectedStatusCode
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: code,
		Body:       body,
		Err:        err,
	}
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
