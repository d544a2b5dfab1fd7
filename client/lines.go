package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// StreamState is the lifecycle position of a [LineStream].
type StreamState int32

const (
	StreamConnecting StreamState = iota
	StreamConnected
	StreamStreaming
	StreamCompleted
	StreamCanceled
	StreamFaulted
)

func (s StreamState) String() string {
	switch s {
	case StreamConnecting:
		return "connecting"
	case StreamConnected:
		return "connected"
	case StreamStreaming:
		return "streaming"
	case StreamCompleted:
		return "completed"
	case StreamCanceled:
		return "canceled"
	case StreamFaulted:
		return "faulted"
	}

	return "unknown"
}

func (s StreamState) terminal() bool {
	return s >= StreamCompleted
}

// LineStream yields the lines of a response body as they arrive. Lines
// are read only while the caller iterates [LineStream.All]; it can be
// iterated once. Blank lines are skipped.
//
// The underlying response is released when iteration ends for any reason,
// or on [LineStream.Close].
type LineStream struct {
	ctx    context.Context
	resp   *http.Response
	logger *slog.Logger

	state    atomic.Int32
	consumed atomic.Bool
	closed   atomic.Bool
	once     sync.Once
}

func newLineStream(ctx context.Context, resp *http.Response, logger *slog.Logger) *LineStream {
	s := &LineStream{
		ctx:    ctx,
		resp:   resp,
		logger: logger,
	}
	s.setState(StreamConnected)

	return s
}

// State returns the current lifecycle state.
func (s *LineStream) State() StreamState {
	if s == nil {
		return StreamConnecting
	}

	return StreamState(s.state.Load())
}

// All returns a single-use iterator over the stream's lines. Cancellation
// of the send's context, or a call to Close, ends iteration without an
// error. Any other read fault is yielded once as the final element.
// A second call yields only [ErrStreamConsumed].
func (s *LineStream) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s == nil {
			return
		}

		if !s.consumed.CompareAndSwap(false, true) {
			yield("", ErrStreamConsumed)
			return
		}

		defer s.Close()

		if s.canceled() {
			s.finish(StreamCanceled)
			return
		}

		s.setState(StreamStreaming)
		s.logger.Debug("line stream started", "url", s.url())

		r := bufio.NewReader(s.resp.Body)
		for {
			if s.canceled() {
				s.finish(StreamCanceled)
				return
			}

			line, err := r.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				if s.canceled() {
					s.finish(StreamCanceled)
					return
				}
				s.finish(StreamFaulted)
				s.logger.Debug("line stream faulted", "url", s.url(), "error", err)
				yield("", err)
				return
			}

			if line = strings.TrimRight(line, "\r\n"); strings.TrimSpace(line) != "" {
				if !yield(line, nil) {
					s.finish(StreamCanceled)
					return
				}
			}

			if err != nil {
				s.finish(StreamCompleted)
				s.logger.Debug("line stream completed", "url", s.url())
				return
			}
		}
	}
}

// Close releases the response. A stream closed before it completed is
// marked canceled. Close is safe to call more than once.
func (s *LineStream) Close() error {
	if s == nil {
		return nil
	}

	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		s.finish(StreamCanceled)
		err = s.resp.Body.Close()
		if err != nil {
			s.logger.Error("failed to close line stream", "error", err)
		}
	})

	return err
}

func (s *LineStream) canceled() bool {
	return s.closed.Load() || s.ctx.Err() != nil
}

func (s *LineStream) setState(st StreamState) {
	s.state.Store(int32(st))
}

// finish moves the stream to st unless it already reached a terminal state.
func (s *LineStream) finish(st StreamState) {
	for {
		cur := StreamState(s.state.Load())
		if cur.terminal() {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(st)) {
			return
		}
	}
}

func (s *LineStream) url() string {
	if s.resp.Request == nil || s.resp.Request.URL == nil {
		return ""
	}

	return s.resp.Request.URL.Redacted()
}
