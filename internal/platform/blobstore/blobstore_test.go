package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"time"
)

func TestMemoryStore_PutOpen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	content := "lab report body"

	obj, err := s.Put(ctx, "clinic-1/report.pdf", strings.NewReader(content), int64(len(content)), "application/pdf")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	sum := sha256.Sum256([]byte(content))
	if obj.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("unexpected hash %s", obj.SHA256)
	}
	if obj.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), obj.Size)
	}

	rc, got, err := s.Open(ctx, "clinic-1/report.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != content {
		t.Errorf("expected %q, got %q", content, body)
	}
	if got.ContentType != "application/pdf" {
		t.Errorf("expected content type to round trip, got %s", got.ContentType)
	}
}

func TestMemoryStore_SizeMismatch(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Put(context.Background(), "k", strings.NewReader("abc"), 10, "text/plain"); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if s.Len() != 0 {
		t.Error("failed put must not store anything")
	}
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Put(context.Background(), "", strings.NewReader("abc"), 3, "text/plain"); err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestMemoryStore_DeleteAndMissing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.Put(ctx, "k", strings.NewReader("abc"), 3, "text/plain")

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("second Delete must be a no-op, got %v", err)
	}
	if _, _, err := s.Open(ctx, "k"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.URL(ctx, "k", time.Minute); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_URL(t *testing.T) {
	s := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	_, _ = s.Put(context.Background(), "clinic 1/x.png", strings.NewReader("x"), 1, "image/png")

	u, err := s.URL(context.Background(), "clinic 1/x.png", time.Minute)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.HasPrefix(u, "memory:///") || !strings.Contains(u, "expires=1700000060") {
		t.Errorf("unexpected url %s", u)
	}
}

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"application/pdf", "application/pdf", false},
		{"text/plain; charset=utf-8", "text/plain", false},
		{"IMAGE/PNG", "image/png", false},
		{"application/x-msdownload", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeContentType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeContentType(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
