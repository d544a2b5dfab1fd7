package transport

import "net/http"

// Func adapts a function to an [http.RoundTripper].
type Func func(*http.Request) (*http.Response, error)

func (f Func) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func nextOrDefault(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		return http.DefaultTransport
	}

	return next
}
