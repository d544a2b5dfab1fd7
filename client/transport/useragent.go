package transport

import "net/http"

// UserAgent sets the User-Agent header on every request that does not
// already carry one.
func UserAgent(ua string, next http.RoundTripper) http.RoundTripper {
	next = nextOrDefault(next)

	return Func(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("User-Agent") != "" {
			return next.RoundTrip(r)
		}

		r = r.Clone(r.Context())
		r.Header.Set("User-Agent", ua)

		return next.RoundTrip(r)
	})
}
