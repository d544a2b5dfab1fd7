package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync"
)

// Completion selects when dispatch hands control back.
type Completion int

const (
	// CompleteBody reads the whole body before returning.
	CompleteBody Completion = iota
	// CompleteHeaders returns as soon as the headers arrive.
	CompleteHeaders
)

// materializeFn turns a successful response into a value. It owns resp
// and must release it unless ownership moves into the returned value.
// The string result is an informational note for the envelope.
type materializeFn[T any] func(resp *http.Response) (T, string, error)

// send runs the protocol shared by every mode: build the transport
// request, dispatch it, classify the outcome and materialize the body.
// The error return is reserved for misuse; everything else lands in the Result.
func send[T any](ctx context.Context, c *Client, req *Request, completion Completion, fn materializeFn[T]) (*Result[T], error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	for k, v := range c.headers {
		if _, ok := httpReq.Header[k]; !ok {
			httpReq.Header[k] = append([]string(nil), v...)
		}
	}

	resp, err := c.dispatch(ctx, httpReq, completion)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return failed[T](status, err), nil
	}

	if !isSuccessStatus(resp.StatusCode) {
		return failed[T](resp.StatusCode, c.statusFailure(resp)), nil
	}

	value, note, err := fn(resp)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failed[T](resp.StatusCode, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)), nil
		}
		return failed[T](resp.StatusCode, fmt.Errorf("%w: %w", ErrMaterialize, err)), nil
	}

	return succeeded(resp.StatusCode, value, note), nil
}

// dispatch executes req. A nil error means a response arrived; a success
// body is already buffered when completion is CompleteBody. A non-nil response
// alongside an error means the body could not be completed.
func (c *Client) dispatch(ctx context.Context, req *http.Request, completion Completion) (*http.Response, error) {
	resp, err := c.c.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	// Failure bodies are read by statusFailure, capped.
	if completion == CompleteHeaders || !isSuccessStatus(resp.StatusCode) {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	c.closeBody(resp)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
		}
		return resp, fmt.Errorf("%w: reading body: %w", ErrMaterialize, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	return resp, nil
}

// statusFailure releases resp and returns the status error, enriched
// with the start of the body when it can be read.
func (c *Client) statusFailure(resp *http.Response) error {
	defer c.closeBody(resp)

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		c.logger.Debug("reading error body", "status", resp.StatusCode, "error", err)
		b = []byte("unable to read body")
	}

	return statusErr(resp.StatusCode, string(bytes.TrimSpace(b)))
}

// closeBody drains what is left of the body so the connection can be
// reused, then closes it.
func (c *Client) closeBody(resp *http.Response) {
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrBodySize)); err != nil {
		c.logger.Debug("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	defer c.closeBody(resp)

	return io.ReadAll(resp.Body)
}

// /////////////////////////////////////////////////////////////////
// Modes on descriptors

// Do sends req and returns the raw response. The body is fully buffered;
// the caller owns the response and should close it via [Result.Close].
func (c *Client) Do(ctx context.Context, req *Request) (*Result[*http.Response], error) {
	return send(ctx, c, req, CompleteBody, func(resp *http.Response) (*http.Response, string, error) {
		return resp, "", nil
	})
}

// DoString sends req and returns the body decoded as UTF-8 text.
func (c *Client) DoString(ctx context.Context, req *Request) (*Result[string], error) {
	return send(ctx, c, req, CompleteBody, func(resp *http.Response) (string, string, error) {
		data, err := c.readBody(resp)
		if err != nil {
			return "", "", fmt.Errorf("reading body: %w", err)
		}
		return string(data), "", nil
	})
}

// DoBytes sends req and returns the body as a byte slice, empty but
// non-nil when the response had no body.
func (c *Client) DoBytes(ctx context.Context, req *Request) (*Result[[]byte], error) {
	return send(ctx, c, req, CompleteBody, func(resp *http.Response) ([]byte, string, error) {
		data, err := c.readBody(resp)
		if err != nil {
			return nil, "", fmt.Errorf("reading body: %w", err)
		}
		if data == nil {
			data = []byte{}
		}
		return data, "", nil
	})
}

// DoStream sends req and returns the body as an open stream as soon as
// the headers arrive. Closing the stream releases the response.
func (c *Client) DoStream(ctx context.Context, req *Request) (*Result[io.ReadCloser], error) {
	return send(ctx, c, req, CompleteHeaders, func(resp *http.Response) (io.ReadCloser, string, error) {
		return &responseStream{resp: resp, c: c}, "", nil
	})
}

// DoLines sends req and returns a [LineStream] over the body once the
// headers arrive. Lines are read lazily, only while the caller iterates.
func (c *Client) DoLines(ctx context.Context, req *Request) (*Result[*LineStream], error) {
	return send(ctx, c, req, CompleteHeaders, func(resp *http.Response) (*LineStream, string, error) {
		return newLineStream(ctx, resp, c.logger), "", nil
	})
}

// DoAs sends req and decodes the JSON body into a T. Field names match
// case-insensitively. An empty body is not an error: the Result succeeds
// with the zero T and an informational Message.
func DoAs[T any](ctx context.Context, c *Client, req *Request) (*Result[T], error) {
	return send(ctx, c, req, CompleteBody, func(resp *http.Response) (T, string, error) {
		var v T

		data, err := c.readBody(resp)
		if err != nil {
			return v, "", fmt.Errorf("reading body: %w", err)
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return v, emptyBodyMessage, nil
		}

		if err := json.Unmarshal(data, &v); err != nil {
			var zero T
			return zero, "", fmt.Errorf("decoding json into %s: %w", typeName[T](), err)
		}

		return v, "", nil
	})
}

// /////////////////////////////////////////////////////////////////
// Modes on builders

// Send builds the request, resets the builder and returns the raw response.
// See [Client.Do].
func (b *Builder) Send(ctx context.Context) (*Result[*http.Response], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return b.client.Do(ctx, req)
}

// SendString builds, resets and sends, returning the body as text.
// See [Client.DoString].
func (b *Builder) SendString(ctx context.Context) (*Result[string], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return b.client.DoString(ctx, req)
}

// SendBytes builds, resets and sends, returning the body as bytes.
// See [Client.DoBytes].
func (b *Builder) SendBytes(ctx context.Context) (*Result[[]byte], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return b.client.DoBytes(ctx, req)
}

// SendStream builds, resets and sends, returning the body as an open stream.
// See [Client.DoStream].
func (b *Builder) SendStream(ctx context.Context) (*Result[io.ReadCloser], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return b.client.DoStream(ctx, req)
}

// SendLines builds, resets and sends, returning a lazy line stream.
// See [Client.DoLines].
func (b *Builder) SendLines(ctx context.Context) (*Result[*LineStream], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return b.client.DoLines(ctx, req)
}

// SendAs builds, resets and sends b's request, decoding the JSON body
// into a T. See [DoAs].
func SendAs[T any](ctx context.Context, b *Builder) (*Result[T], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return DoAs[T](ctx, b.client, req)
}

// /////////////////////////////////////////////////////////////////

// responseStream is the body of a response whose Close also releases
// the response. Close is idempotent.
type responseStream struct {
	resp *http.Response
	c    *Client
	once sync.Once
	err  error
}

func (s *responseStream) Read(p []byte) (int, error) {
	return s.resp.Body.Read(p)
}

func (s *responseStream) Close() error {
	if s == nil {
		return nil
	}

	s.once.Do(func() {
		s.err = s.resp.Body.Close()
		if s.err != nil && !errors.Is(s.err, http.ErrBodyReadAfterClose) {
			s.c.logger.Error("failed to close response stream", "error", s.err)
		}
	})

	return s.err
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
