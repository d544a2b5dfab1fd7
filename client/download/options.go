package download

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

// Option defines optional settings for downloading files.
type Option func(*options) error

type options struct {
	checksum     *digest
	progress     bool
	skipExisting bool
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string, compared case-insensitively.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		if _, err := hex.DecodeString(expected); err != nil {
			return fmt.Errorf("expected checksum is not hex: %w", err)
		}

		opts.checksum = &digest{hash: h, expected: expected}
		return nil
	}
}

// Validate applies optFns to a scratch configuration and returns the
// first error, so callers can reject bad options before starting a transfer.
func Validate(optFns ...Option) error {
	_, err := resolve(optFns)
	return err
}

func resolve(optFns []Option) (options, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return options{}, fmt.Errorf("applying option: %w", err)
		}
	}

	return opts, nil
}

// WithProgress enables periodic progress logging via the logger
// supplied to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting causes Handle to return immediately when the
// destination file already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
