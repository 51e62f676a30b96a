package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type storedBlob struct {
	object  Object
	content []byte
}

// MemoryStore keeps blobs in process memory. Development and tests only.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*storedBlob), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (Object, error) {
	if key == "" {
		return Object{}, ErrEmptyKey
	}
	hr := newHashingReader(r)
	content, err := io.ReadAll(hr)
	if err != nil {
		return Object{}, fmt.Errorf("read blob: %w", err)
	}
	if size >= 0 && int64(len(content)) != size {
		return Object{}, fmt.Errorf("blob size mismatch: declared %d, read %d", size, len(content))
	}

	obj := Object{Key: key, Size: hr.n, ContentType: contentType, SHA256: hr.sum()}
	s.mu.Lock()
	s.blobs[key] = &storedBlob{object: obj, content: content}
	s.mu.Unlock()
	return obj, nil
}

func (s *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, Object, error) {
	s.mu.RLock()
	b, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Object{}, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.content)), b.object, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

// URL returns an opaque memory:// reference; it cannot be fetched over HTTP.
func (s *MemoryStore) URL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	q := url.Values{"expires": {fmt.Sprint(s.now().Add(ttl).Unix())}}
	return "memory:///" + url.PathEscape(key) + "?" + q.Encode(), nil
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
