package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/fluenthttp/client/transport"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *transport.ThrottleConfig
	noFollowRedirects bool
	logger            *slog.Logger
	baseURL           string
	headers           http.Header
	requestIDHeader   string
	tracer            trace.Tracer
	owned             bool
}

// WithClient replaces the default [http.Client] used by the [Client].
// The value is copied, so later options never mutate hc.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
// It bounds streaming reads too, so leave it unset for long-lived streams
// and rely on the context instead.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, transport.ErrMustNotBeZero)
		}
		c.throttle = &transport.ThrottleConfig{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
// The 3xx response is then returned to the caller as a successful result.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithBaseURL sets the URI new builders start with. Relative URIs passed
// to [Builder.SetURI] resolve against it.
func WithBaseURL(rawURL string) Option {
	return func(c *options) error {
		if strings.TrimSpace(rawURL) == "" {
			return errors.New("base url must not be empty")
		}
		c.baseURL = rawURL
		return nil
	}
}

// WithHeader adds a default header, sent whenever a request does not set
// the same header itself.
func WithHeader(key, value string) Option {
	return func(c *options) error {
		if strings.TrimSpace(key) == "" {
			return errors.New("header key must not be empty")
		}
		if c.headers == nil {
			c.headers = make(http.Header)
		}
		c.headers.Set(key, value)
		return nil
	}
}

// WithRequestID stamps every outgoing request that lacks one with a
// random UUID under header. An empty header defaults to X-Request-ID.
func WithRequestID(header string) Option {
	return func(c *options) error {
		if header == "" {
			header = transport.DefaultRequestIDHeader
		}
		c.requestIDHeader = header
		return nil
	}
}

// WithTracer records a client span per request and propagates its
// context through the globally registered propagator.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithOwnedTransport makes the [Client] the single owner of its base
// transport: [Client.Close] releases its idle connections exactly once.
// When no transport is supplied, a private clone of [http.DefaultTransport]
// is created so the shared default is never touched.
func WithOwnedTransport() Option {
	return func(c *options) error {
		c.owned = true
		return nil
	}
}
