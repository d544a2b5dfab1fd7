package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Handle streams body to a temp file in the same directory as destPath,
// which is renamed to destPath on success. On any error the temp file is
// removed and destPath is left untouched. It returns the number of bytes
// written, or 0 when an existing file was skipped.
//
// A negative contentLength means the length is unknown and is not checked.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) (int64, error) {
	opts, err := resolve(optFns)
	if err != nil {
		return 0, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	if destPath == "" {
		return 0, errors.New("destination path must not be empty")
	}

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			logger.Info("skipping existing file", "path", destPath)
			return 0, nil
		}
	}

	body = &contextReader{ctx: ctx, r: body}

	file, err := os.CreateTemp(filepath.Dir(destPath), ".fluenthttp-dl-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	check := &integrity{path: destPath, length: contentLength, digest: opts.checksum}

	writers := []io.Writer{file, check}

	var prog *progress
	if opts.progress {
		prog = newProgress(logger, destPath, contentLength)
		writers = append(writers, prog)
	}

	n, err := io.Copy(io.MultiWriter(writers...), body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, fmt.Errorf("%w: %w", ErrDownloadCancelled, ctxErr)
		}

		return n, fmt.Errorf("copying file body: %w", err)
	}

	if err := check.check(); err != nil {
		return n, err
	}

	if err := file.Sync(); err != nil {
		return n, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true
	if prog != nil {
		prog.done()
	}

	return n, nil
}

// contextReader fails reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
