package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync/atomic"
)

// contentHeaders lists the headers that describe a body rather than the
// request envelope. [Builder.Build] moves these onto [Content.Header]
// whenever the request carries a body.
var contentHeaders = func() map[string]struct{} {
	names := []string{
		"Allow",
		"Content-Disposition",
		"Content-Encoding",
		"Content-Language",
		"Content-Length",
		"Content-Location",
		"Content-MD5",
		"Content-Range",
		"Content-Type",
		"Expires",
		"Last-Modified",
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[http.CanonicalHeaderKey(n)] = struct{}{}
	}

	return set
}()

// IsContentHeader reports whether key names body metadata.
func IsContentHeader(key string) bool {
	_, ok := contentHeaders[http.CanonicalHeaderKey(key)]
	return ok
}

// Content is a request body together with the headers describing it.
// Content built from a byte slice is replayable; content built from a
// reader can be sent once, and every descriptor built from it shares that
// single send.
type Content struct {
	Header http.Header

	data   []byte
	stream io.Reader
	sent   *atomic.Bool
}

// NewContent returns replayable content holding data.
// An empty contentType leaves Content-Type unset.
func NewContent(data []byte, contentType string) *Content {
	c := &Content{
		Header: make(http.Header),
		data:   data,
	}
	if data == nil {
		c.data = []byte{}
	}

	if contentType != "" {
		c.Header.Set("Content-Type", contentType)
	}
	c.Header.Set("Content-Length", strconv.Itoa(len(c.data)))

	return c
}

// NewStreamContent returns content read from r when the request is sent.
// Its length is unknown, so it is transferred chunked. It can be sent
// once; converting it to an [http.Request] again fails with [ErrInvalidState].
func NewStreamContent(r io.Reader, contentType string) *Content {
	c := &Content{
		Header: make(http.Header),
		stream: r,
		sent:   new(atomic.Bool),
	}
	if contentType != "" {
		c.Header.Set("Content-Type", contentType)
	}

	return c
}

// Len returns the body size, or -1 when it is unknown.
func (c *Content) Len() int64 {
	if c.stream != nil {
		return -1
	}

	return int64(len(c.data))
}

// Bytes returns the buffered body. It is nil for streamed content.
func (c *Content) Bytes() []byte {
	return c.data
}

func (c *Content) reader() (io.Reader, error) {
	if c.stream == nil {
		return bytes.NewReader(c.data), nil
	}

	if c.sent != nil && c.sent.Swap(true) {
		return nil, invalidState("stream content has already been sent")
	}

	return c.stream, nil
}

func (c *Content) clone() *Content {
	if c == nil {
		return nil
	}

	cp := Content{
		Header: c.Header.Clone(),
		data:   c.data,
		stream: c.stream,
		sent:   c.sent,
	}
	if cp.Header == nil {
		cp.Header = make(http.Header)
	}

	return &cp
}

// Request is the immutable descriptor produced by [Builder.Build].
// Header holds envelope headers only; body metadata lives on Body.Header.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   *Content
}

// HTTPRequest converts the descriptor into an [http.Request] bound to ctx.
// A descriptor with stream content converts once.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	if r == nil {
		return nil, invalidArg("request must not be nil")
	}
	if r.URL == nil {
		return nil, invalidState("request has no URI")
	}

	var body io.Reader
	if r.Body != nil {
		rd, err := r.Body.reader()
		if err != nil {
			return nil, err
		}
		body = rd
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: instantiating request: %w", ErrInvalidArgument, err)
	}

	req.Header = r.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	if r.Body != nil {
		for k, v := range r.Body.Header {
			if k == "Content-Length" {
				continue
			}
			req.Header[k] = slices.Clone(v)
		}
		if r.Body.stream != nil {
			req.ContentLength = -1
		}
	}

	return req, nil
}

// Equal reports whether two descriptors carry the same method, URI,
// headers and body metadata.
func (r *Request) Equal(o *Request) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Method != o.Method || r.URL.String() != o.URL.String() {
		return false
	}
	if !headerEqual(r.Header, o.Header) {
		return false
	}
	if (r.Body == nil) != (o.Body == nil) {
		return false
	}
	if r.Body == nil {
		return true
	}

	return headerEqual(r.Body.Header, o.Body.Header) && bytes.Equal(r.Body.data, o.Body.data)
}

func headerEqual(a, b http.Header) bool {
	return maps.EqualFunc(a, b, slices.Equal[[]string])
}
