package client

import (
	"context"
	"fmt"
	"hash"
	"net/http"

	"github.com/adamwoolhether/fluenthttp/client/download"
)

// ————————————————————————————————————————————————————————————————————
// Type aliases re-exporting user-facing types from [download].
// ————————————————————————————————————————————————————————————————————

type (
	// DownloadOption configures a file download.
	DownloadOption = download.Option

	// DownloadError wraps a sentinel error with additional detail.
	DownloadError = download.Error
)

// ————————————————————————————————————————————————————————————————————
// Sentinel errors
// ————————————————————————————————————————————————————————————————————

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch
)

// ————————————————————————————————————————————————————————————————————
// Download option forwarding functions
// ————————————————————————————————————————————————————————————————————

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithSkipExisting causes a download to succeed immediately when
// the destination file already exists.
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }

// ————————————————————————————————————————————————————————————————————
// File mode
// ————————————————————————————————————————————————————————————————————

// DoFile sends req and streams the body to destPath, returning the number
// of bytes written. The file appears at destPath only once the body is
// complete and verified. A checksum or length mismatch fails the Result
// with [ErrMaterialize]. Invalid options are returned as the error
// before anything is sent.
func (c *Client) DoFile(ctx context.Context, req *Request, destPath string, opts ...DownloadOption) (*Result[int64], error) {
	if destPath == "" {
		return nil, invalidArg("destination path must not be empty")
	}
	if err := download.Validate(opts...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return send(ctx, c, req, CompleteHeaders, func(resp *http.Response) (int64, string, error) {
		defer c.closeBody(resp)

		n, err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, c.logger, opts...)
		return n, "", err
	})
}

// SendFile builds, resets and sends, streaming the body to destPath.
// See [Client.DoFile].
func (b *Builder) SendFile(ctx context.Context, destPath string, opts ...DownloadOption) (*Result[int64], error) {
	req, err := b.take()
	if err != nil {
		return nil, err
	}

	return b.client.DoFile(ctx, req, destPath, opts...)
}
