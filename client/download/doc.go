// Package download streams HTTP response bodies to disk with optional
// checksum validation and progress reporting.
//
// # Single Download
//
// [Handle] writes the body to a temporary file alongside the destination
// path, then atomically renames it on success:
//
//	n, err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), want),
//	)
//
// Most callers should use [github.com/adamwoolhether/fluenthttp/client],
// whose Builder.SendFile invokes Handle and re-exports these options as
// client.With* functions.
package download
