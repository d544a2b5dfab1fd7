package download

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// digest pairs a hash with the hex checksum it must produce.
type digest struct {
	hash     hash.Hash
	expected string
}

// integrity observes every byte written to the temp file and checks the
// total against the advertised length and the optional digest.
type integrity struct {
	path    string
	length  int64
	digest  *digest
	written int64
}

func (in *integrity) Write(p []byte) (int, error) {
	in.written += int64(len(p))
	if in.digest != nil {
		in.digest.hash.Write(p)
	}

	return len(p), nil
}

// check reports the first mismatch. A negative length is not checked.
func (in *integrity) check() error {
	if in.length >= 0 && in.written != in.length {
		return &Error{
			Path:   in.path,
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", in.length, in.written),
		}
	}

	if in.digest == nil {
		return nil
	}

	// Checksums are commonly published in either case.
	actual := hex.EncodeToString(in.digest.hash.Sum(nil))
	if !strings.EqualFold(actual, in.digest.expected) {
		return &Error{
			Path:   in.path,
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", in.digest.expected, actual),
		}
	}

	return nil
}
