package client

import (
	"errors"
	"io"
	"net/http"
)

// Result is the envelope returned by every send. Check [Result.IsSuccess]
// before trusting Value: a failed Result carries the zero value of T.
//
// When Value owns a resource (raw response, stream, line stream) the
// caller owns it too and must release it with [Result.Close] or by
// closing the value directly.
type Result[T any] struct {
	// Value is the materialized body.
	Value T
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Message describes the failure. On success it is usually empty but may
	// carry an informational note, such as an empty body for a typed send.
	Message string
	// Err is the failure cause, nil on success. It wraps one of
	// [ErrTransport], [ErrCanceled], [ErrMaterialize] or is an
	// [*UnexpectedStatusError].
	Err error

	ok     bool
	closed bool
}

// IsSuccess reports whether the transport call completed with a success
// status and the body was materialized.
func (r *Result[T]) IsSuccess() bool {
	return r != nil && r.ok
}

// HasStatus reports whether a response was received at all.
func (r *Result[T]) HasStatus() bool {
	return r != nil && r.StatusCode != 0
}

// IsCanceled reports whether the send was ended by the caller's context.
func (r *Result[T]) IsCanceled() bool {
	return r != nil && errors.Is(r.Err, ErrCanceled)
}

// Close releases any resource held by Value. It is safe to call more
// than once and on results whose value holds nothing.
func (r *Result[T]) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true

	switch v := any(r.Value).(type) {
	case *http.Response:
		if v != nil && v.Body != nil {
			return v.Body.Close()
		}
	case io.Closer:
		if v != nil {
			return v.Close()
		}
	}

	return nil
}

func succeeded[T any](status int, value T, note string) *Result[T] {
	return &Result[T]{
		Value:      value,
		StatusCode: status,
		Message:    note,
		ok:         true,
	}
}

func failed[T any](status int, err error) *Result[T] {
	msg := err.Error()
	if errors.Is(err, ErrCanceled) {
		msg = canceledMessage
	}

	return &Result[T]{
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}
