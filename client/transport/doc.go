// Package transport provides [http.RoundTripper] middlewares that the
// client package composes around a base transport.
//
// # Chain
//
// Each middleware takes the next RoundTripper and returns a new one:
//
//	rt := http.DefaultTransport
//	rt = transport.UserAgent("my-app/1.0", rt)
//	rt = transport.RequestID(transport.DefaultRequestIDHeader, rt)
//	rt = transport.Trace(otel.Tracer("my-app"), rt)
//	rt, err := transport.Throttle(10, 5, func() *slog.Logger { return slog.Default() }, rt)
//
// # Throttle
//
// [Throttle] rate-limits outbound requests using a token bucket from
// [golang.org/x/time/rate]. When the limit is exceeded, requests block
// until a token becomes available or the request context ends.
//
// Middlewares never mutate the caller's request; they clone it before
// adding headers, as [http.RoundTripper] requires.
package transport
