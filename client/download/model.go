package download

import (
	"errors"
	"fmt"
)

var (
	// ErrContentLengthMismatch means fewer or more bytes arrived than the
	// response advertised.
	ErrContentLengthMismatch = errors.New("content length mismatch")

	// ErrChecksumMismatch means the written bytes did not hash to the
	// expected value.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrDownloadCancelled is joined with the context error when the
	// download stops because its context ended.
	ErrDownloadCancelled = errors.New("download cancelled")
)

// Error reports a verification failure for the file headed to Path.
// Nothing is written to Path when an Error is returned.
type Error struct {
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}

	return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
