package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
)

// Source is an upload payload. Build one with Bytes, Blob, FileHeader or Stream.
//
// Every source is materialized into memory before the backend sees it, so uploads are
// bounded by what the caller is willing to buffer.
type Source interface {
	readAll() ([]byte, error)
}

// Opener opens a fresh reader over a blob of bytes.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func() (io.ReadCloser, error)

// Open calls f.
func (f OpenerFunc) Open() (io.ReadCloser, error) { return f() }

type bytesSource []byte

func (b bytesSource) readAll() ([]byte, error) { return b, nil }

// Bytes wraps an in-memory buffer. The buffer is not copied.
func Bytes(b []byte) Source { return bytesSource(b) }

type blobSource struct {
	opener Opener
}

func (b blobSource) readAll() ([]byte, error) {
	rc, err := b.opener.Open()
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Blob wraps a lazily opened byte container.
func Blob(o Opener) Source { return blobSource{opener: o} }

// FileHeader wraps a multipart file part as a blob.
func FileHeader(fh *multipart.FileHeader) Source {
	return Blob(OpenerFunc(func() (io.ReadCloser, error) {
		return fh.Open()
	}))
}

type streamSource struct {
	r io.Reader
}

func (s streamSource) readAll() ([]byte, error) {
	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, fmt.Errorf("drain stream: %w", err)
	}
	return data, nil
}

// Stream wraps a reader that is drained to EOF, chunks kept in arrival order.
func Stream(r io.Reader) Source { return streamSource{r: r} }

// ReadAll normalizes any Source into a single buffer.
func ReadAll(src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("nil upload source")
	}
	return src.readAll()
}
