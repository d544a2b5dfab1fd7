package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader is used by [RequestID] when no header is given.
const DefaultRequestIDHeader = "X-Request-ID"

// RequestID stamps every request lacking header with a random UUID.
func RequestID(header string, next http.RoundTripper) http.RoundTripper {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	next = nextOrDefault(next)

	return Func(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(header) != "" {
			return next.RoundTrip(r)
		}

		r = r.Clone(r.Context())
		r.Header.Set(header, uuid.NewString())

		return next.RoundTrip(r)
	})
}
