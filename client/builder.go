package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adamwoolhether/fluenthttp/client/kv"
	"github.com/adamwoolhether/fluenthttp/client/multipart"
)

// Content types set by the body helpers.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Builder accumulates the configuration of a single request through
// chained calls. Every mutator returns the same *Builder.
//
// The first invalid call is recorded and returned by [Builder.Err],
// [Builder.Build] and every Send method, which then dispatch nothing.
// Later mutators are ignored until the builder is reset.
//
// A Builder is reset after each Send call, success or failure, so it can
// be reused for the next request. It is not safe for concurrent use.
// The zero value is ready to use and sends through a default Client.
type Builder struct {
	client *Client

	method string
	uri    *url.URL
	query  string
	header http.Header
	body   *Content
	err    error
}

// NewBuilder returns a Builder that sends through c.
// A nil c uses a Client with default settings.
func NewBuilder(c *Client) *Builder {
	if c == nil {
		c = defaultClient()
	}

	b := &Builder{client: c}
	b.Reset()

	return b
}

// Reset clears all accumulated state. The method returns to GET and the
// URI returns to the client's base URL, if it has one.
func (b *Builder) Reset() *Builder {
	if b.client == nil {
		b.client = defaultClient()
	}

	b.method = http.MethodGet
	b.uri = nil
	b.query = ""
	b.header = make(http.Header)
	b.body = nil
	b.err = nil

	if base := b.client.baseURL; base != nil {
		u := *base
		b.query = u.RawQuery
		u.RawQuery = ""
		b.uri = &u
	}

	return b
}

// ready prepares a zero Builder on first use and reports whether
// mutators still apply.
func (b *Builder) ready() bool {
	if b.header == nil {
		b.Reset()
	}

	return b.err == nil
}

// Err returns the first configuration error recorded by a mutator.
func (b *Builder) Err() error {
	return b.err
}

// SetURI sets the request URI and discards any accumulated query string.
// A query already present in uri is kept. Relative references resolve
// against the client's base URL.
func (b *Builder) SetURI(uri string) *Builder {
	if !b.ready() {
		return b
	}

	if strings.TrimSpace(uri) == "" {
		return b.fail(invalidArg("uri must not be empty"))
	}

	u, err := url.Parse(uri)
	if err != nil {
		return b.fail(fmt.Errorf("%w: parsing uri: %w", ErrInvalidArgument, err))
	}

	if !u.IsAbs() && b.client.baseURL != nil {
		u = b.client.baseURL.ResolveReference(u)
	}

	b.query = u.RawQuery
	u.RawQuery = ""
	u.ForceQuery = false
	b.uri = u

	return b
}

// AddQueryParameters appends the pairs projected from src to the query
// string. src may be a map, [url.Values], [kv.Pairs] or a struct; see
// [kv.Project] for the projection rules. A URI must be set first.
func (b *Builder) AddQueryParameters(src any) *Builder {
	if !b.ready() {
		return b
	}

	if b.uri == nil {
		return b.fail(invalidState("uri must be set before adding query parameters"))
	}
	if src == nil {
		return b.fail(invalidArg("query parameters must not be nil"))
	}

	pairs, err := kv.Project(src)
	if err != nil {
		return b.fail(fmt.Errorf("%w: projecting query parameters: %w", ErrInvalidArgument, err))
	}

	b.appendQuery(pairs.Encode())

	return b
}

// AddQueryParameter appends a single key/value pair to the query string.
func (b *Builder) AddQueryParameter(key, value string) *Builder {
	return b.AddQueryParameters(kv.Pairs{{Key: key, Value: value}})
}

// SetHeader sets a header, replacing any value already set for key.
// Keys are case-insensitive.
func (b *Builder) SetHeader(key, value string) *Builder {
	if !b.ready() {
		return b
	}

	if strings.TrimSpace(key) == "" {
		return b.fail(invalidArg("header key must not be empty"))
	}

	b.header.Set(key, value)

	return b
}

// SetHeaders calls [Builder.SetHeader] for every entry in headers.
func (b *Builder) SetHeaders(headers map[string]string) *Builder {
	for k, v := range headers {
		b.SetHeader(k, v)
	}

	return b
}

// SetMethod sets the request method. Any valid token is accepted,
// so custom methods work alongside the standard ones.
func (b *Builder) SetMethod(method string) *Builder {
	if !b.ready() {
		return b
	}

	if strings.TrimSpace(method) == "" {
		return b.fail(invalidArg("method must not be empty"))
	}
	if strings.IndexFunc(method, isNotTokenChar) >= 0 {
		return b.fail(invalidArg("method %q is not a valid token", method))
	}

	b.method = method

	return b
}

// Get sets the method to GET and the URI to uri.
func (b *Builder) Get(uri string) *Builder { return b.SetMethod(http.MethodGet).SetURI(uri) }

// Post sets the method to POST and the URI to uri.
func (b *Builder) Post(uri string) *Builder { return b.SetMethod(http.MethodPost).SetURI(uri) }

// Put sets the method to PUT and the URI to uri.
func (b *Builder) Put(uri string) *Builder { return b.SetMethod(http.MethodPut).SetURI(uri) }

// Patch sets the method to PATCH and the URI to uri.
func (b *Builder) Patch(uri string) *Builder { return b.SetMethod(http.MethodPatch).SetURI(uri) }

// Delete sets the method to DELETE and the URI to uri.
func (b *Builder) Delete(uri string) *Builder { return b.SetMethod(http.MethodDelete).SetURI(uri) }

// Head sets the method to HEAD and the URI to uri.
func (b *Builder) Head(uri string) *Builder { return b.SetMethod(http.MethodHead).SetURI(uri) }

// Options sets the method to OPTIONS and the URI to uri.
func (b *Builder) Options(uri string) *Builder { return b.SetMethod(http.MethodOptions).SetURI(uri) }

// SetJSONBody encodes v as JSON and uses it as the body.
func (b *Builder) SetJSONBody(v any) *Builder {
	if !b.ready() {
		return b
	}

	if v == nil {
		return b.fail(invalidArg("json body must not be nil"))
	}

	data, err := json.Marshal(v)
	if err != nil {
		return b.fail(fmt.Errorf("%w: encoding json body: %w", ErrInvalidArgument, err))
	}

	b.body = NewContent(data, ContentTypeJSON)

	return b
}

// SetFormURLEncodedBody projects v into key/value pairs and uses their
// form encoding as the body. Projection follows [Builder.AddQueryParameters].
func (b *Builder) SetFormURLEncodedBody(v any) *Builder {
	if !b.ready() {
		return b
	}

	if v == nil {
		return b.fail(invalidArg("form body must not be nil"))
	}

	pairs, err := kv.Project(v)
	if err != nil {
		return b.fail(fmt.Errorf("%w: projecting form body: %w", ErrInvalidArgument, err))
	}

	b.body = NewContent([]byte(pairs.Encode()), ContentTypeForm)

	return b
}

// SetMultipartBody runs configure against a fresh [multipart.Builder]
// and uses the encoded result as the body.
func (b *Builder) SetMultipartBody(configure func(*multipart.Builder)) *Builder {
	if !b.ready() {
		return b
	}

	if configure == nil {
		return b.fail(invalidArg("multipart configuration must not be nil"))
	}

	var mb multipart.Builder
	configure(&mb)

	data, contentType, err := mb.Encode()
	if err != nil {
		return b.fail(fmt.Errorf("%w: multipart body: %w", ErrInvalidArgument, err))
	}

	b.body = NewContent(data, contentType)

	return b
}

// SetRawContent uses content as the body as-is. A nil content clears the body.
func (b *Builder) SetRawContent(content *Content) *Builder {
	if !b.ready() {
		return b
	}

	b.body = content

	return b
}

// Build returns a new immutable descriptor of the accumulated state.
// Headers naming body metadata are attached to the body; all others
// stay on the envelope. Without a body every header stays on the envelope.
func (b *Builder) Build() (*Request, error) {
	if !b.ready() {
		return nil, b.err
	}

	if b.uri == nil {
		return nil, invalidState("uri must be set before building a request")
	}

	u := *b.uri
	u.RawQuery = b.query

	req := Request{
		Method: b.method,
		URL:    &u,
		Header: make(http.Header, len(b.header)),
		Body:   b.body.clone(),
	}

	for k, v := range b.header {
		if req.Body != nil && IsContentHeader(k) {
			req.Body.Header[k] = append([]string(nil), v...)
			continue
		}
		req.Header[k] = append([]string(nil), v...)
	}

	return &req, nil
}

// take builds the descriptor for a send and resets the builder.
func (b *Builder) take() (*Request, error) {
	defer b.Reset()

	return b.Build()
}

func (b *Builder) appendQuery(encoded string) {
	switch {
	case encoded == "":
	case b.query == "":
		b.query = encoded
	default:
		b.query += "&" + encoded
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}

	return b
}

// isNotTokenChar reports whether r may not appear in an HTTP token (RFC 9110 §5.6.2).
func isNotTokenChar(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return false
	}

	return !strings.ContainsRune("!#$%&'*+-.^_`|~", r)
}
