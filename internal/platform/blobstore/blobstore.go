// Package blobstore stores file asset content. Metadata lives in Postgres
// (see the fileasset domain); this package only moves bytes.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"mime"
	"time"
)

var (
	ErrNotFound           = errors.New("blob not found")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrEmptyKey           = errors.New("blob key is required")
)

// AllowedContentTypes lists what clinics may upload.
var AllowedContentTypes = map[string]bool{
	"image/png":          true,
	"image/jpeg":         true,
	"image/dicom":        true,
	"application/dicom":  true,
	"application/pdf":    true,
	"text/plain":         true,
	"text/csv":           true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Object describes stored content.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	SHA256      string
}

// Store is the file storage collaborator. Delete of a missing key is not an
// error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// NormalizeContentType strips parameters and checks the allowlist.
func NormalizeContentType(ct string) (string, error) {
	media, _, err := mime.ParseMediaType(ct)
	if err != nil || !AllowedContentTypes[media] {
		return "", ErrInvalidContentType
	}
	return media, nil
}

// hashingReader hashes what passes through it.
type hashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: r, h: sha256.New()}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.h.Write(p[:n])
		hr.n += int64(n)
	}
	return n, err
}

func (hr *hashingReader) sum() string {
	return hex.EncodeToString(hr.h.Sum(nil))
}
