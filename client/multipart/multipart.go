// Package multipart assembles multipart/form-data request bodies from
// text fields and file parts.
//
// Parts are validated as they are added; the first failure is kept and
// returned by [Builder.Encode]:
//
//	var b multipart.Builder
//	b.AddText("title", "report").
//		AddFile("attachment", "/tmp/report.pdf", "application/pdf")
//	body, contentType, err := b.Encode()
package multipart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const defaultFileContentType = "application/octet-stream"

var (
	// ErrMissingFieldName is returned when a part has a blank field name.
	ErrMissingFieldName = errors.New("field name must not be empty")
	// ErrMissingFileName is returned when a file part has a blank file name.
	ErrMissingFileName = errors.New("file name must not be empty")
)

type partKind int

const (
	textPart partKind = iota
	bytesPart
	streamPart
	pathPart
)

type part struct {
	kind        partKind
	field       string
	fileName    string
	contentType string
	text        string
	data        []byte
	reader      io.Reader
	path        string
}

// Builder accumulates named parts. The zero value is ready to use.
type Builder struct {
	parts []part
	err   error
}

// AddText adds a plain form field.
func (b *Builder) AddText(field, value string) *Builder {
	if b.check(field, "", false) {
		b.parts = append(b.parts, part{kind: textPart, field: field, text: value})
	}

	return b
}

// AddBytes adds a file part whose content is data.
// An empty contentType defaults to application/octet-stream.
func (b *Builder) AddBytes(field, fileName string, data []byte, contentType string) *Builder {
	if b.check(field, fileName, true) {
		b.parts = append(b.parts, part{kind: bytesPart, field: field, fileName: fileName, data: data, contentType: contentType})
	}

	return b
}

// AddStream adds a file part read from r when the body is encoded.
func (b *Builder) AddStream(field, fileName string, r io.Reader, contentType string) *Builder {
	if r == nil {
		b.fail(fmt.Errorf("part %q: reader must not be nil", field))
		return b
	}

	if b.check(field, fileName, true) {
		b.parts = append(b.parts, part{kind: streamPart, field: field, fileName: fileName, reader: r, contentType: contentType})
	}

	return b
}

// AddFile adds a file part read from path when the body is encoded.
// The file name sent is the base name of path.
func (b *Builder) AddFile(field, path, contentType string) *Builder {
	if strings.TrimSpace(path) == "" {
		b.fail(fmt.Errorf("part %q: %w", field, ErrMissingFileName))
		return b
	}

	if b.check(field, filepath.Base(path), true) {
		b.parts = append(b.parts, part{kind: pathPart, field: field, fileName: filepath.Base(path), path: path, contentType: contentType})
	}

	return b
}

// Err returns the first error recorded while adding parts.
func (b *Builder) Err() error {
	return b.err
}

// Len returns the number of accepted parts.
func (b *Builder) Len() int {
	return len(b.parts)
}

// Encode writes every part and returns the body along with its
// Content-Type header value, boundary included.
func (b *Builder) Encode() ([]byte, string, error) {
	if b.err != nil {
		return nil, "", b.err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range b.parts {
		if err := p.write(w); err != nil {
			return nil, "", fmt.Errorf("writing part %q: %w", p.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func (b *Builder) check(field, fileName string, isFile bool) bool {
	if strings.TrimSpace(field) == "" {
		b.fail(ErrMissingFieldName)
		return false
	}
	if isFile && strings.TrimSpace(fileName) == "" {
		b.fail(fmt.Errorf("part %q: %w", field, ErrMissingFileName))
		return false
	}

	return b.err == nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (p part) write(w *multipart.Writer) error {
	if p.kind == textPart {
		return w.WriteField(p.field, p.text)
	}

	contentType := p.contentType
	if contentType == "" {
		contentType = defaultFileContentType
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+escapeQuotes(p.field)+`"; filename="`+escapeQuotes(p.fileName)+`"`)
	header.Set("Content-Type", contentType)

	dst, err := w.CreatePart(header)
	if err != nil {
		return err
	}

	switch p.kind {
	case bytesPart:
		_, err = dst.Write(p.data)
	case streamPart:
		_, err = io.Copy(dst, p.reader)
	case pathPart:
		err = copyFile(dst, p.path)
	}

	return err
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
