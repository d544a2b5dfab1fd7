package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/adamwoolhether/fluenthttp/client/transport"
)

// Client wraps the std-lib *http.Client.
// It owns the middleware chain and default headers shared by every
// [Builder] it creates. A Client is safe for concurrent use; its
// Builders are not.
type Client struct {
	c       *http.Client
	base    http.RoundTripper
	logger  *slog.Logger
	baseURL *url.URL
	headers http.Header

	owned     bool
	closeOnce sync.Once
}

// Build creates a Client from the given options. Without options it
// sends through [http.DefaultTransport], which it shares and never closes.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:       &http.Client{},
		logger:  slog.Default(),
		headers: opts.headers,
		owned:   opts.owned,
	}

	if opts.client != nil {
		cp := *opts.client
		client.c = &cp
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if opts.baseURL != "" {
		u, err := url.Parse(opts.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		client.baseURL = u
	}

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		rt = opts.client.Transport
	case opts.owned:
		rt = http.DefaultTransport.(*http.Transport).Clone()
	default:
		rt = http.DefaultTransport
	}
	client.base = rt

	if opts.userAgent != "" {
		rt = transport.UserAgent(opts.userAgent, rt)
	}
	if opts.requestIDHeader != "" {
		rt = transport.RequestID(opts.requestIDHeader, rt)
	}
	if opts.tracer != nil {
		rt = transport.Trace(opts.tracer, rt)
	}
	if opts.throttle != nil {
		throttled, err := transport.Throttle(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, rt)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		rt = throttled
	}
	client.c.Transport = rt

	return client, nil
}

// NewRequest returns a fresh [Builder] bound to the client.
func (c *Client) NewRequest() *Builder {
	return NewBuilder(c)
}

// HTTPClient returns the underlying *http.Client for advanced use cases.
func (c *Client) HTTPClient() *http.Client {
	return c.c
}

// Close releases the transport when the client owns it (see
// [WithOwnedTransport]). Shared transports are left untouched.
// Only the first call has any effect.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}

	c.closeOnce.Do(func() {
		if closer, ok := c.base.(interface{ CloseIdleConnections() }); ok {
			closer.CloseIdleConnections()
		}
		c.logger.Debug("client transport closed")
	})

	return nil
}

var (
	defaultOnce sync.Once
	defaultCli  *Client
)

func defaultClient() *Client {
	defaultOnce.Do(func() {
		defaultCli, _ = Build()
	})

	return defaultCli
}
