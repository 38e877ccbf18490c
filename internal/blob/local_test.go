package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/simp-lee/newsdesk/internal/domain"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "/media/", []string{"news-images"})
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestUpload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, "news-images", "news/a.png", []byte("png"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "/media/news-images/news/a.png" {
		t.Errorf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), "news-images", "news", "a.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	if _, err := s.Upload(ctx, "news-images", "news/a.png", []byte("again")); !domain.IsAlreadyExists(err) {
		t.Errorf("second upload error = %v; want AlreadyExists", err)
	}
}

func TestUpload_Rejects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		bucket string
		path   string
		data   []byte
		check  func(error) bool
	}{
		{"unknown bucket", "avatars", "a.png", []byte("x"), domain.IsNotFound},
		{"traversal", "news-images", "../../etc/passwd", []byte("x"), domain.IsValidation},
		{"absolute", "news-images", "/etc/passwd", []byte("x"), domain.IsValidation},
		{"backslash traversal", "news-images", `..\..\x`, []byte("x"), domain.IsValidation},
		{"empty path", "news-images", "", []byte("x"), domain.IsValidation},
		{"empty file", "news-images", "a.png", nil, domain.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Upload(ctx, tt.bucket, tt.path, tt.data); !tt.check(err) {
				t.Errorf("Upload() error = %v", err)
			}
		})
	}
}

func TestUpload_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Upload(ctx, "news-images", "a.png", []byte("x")); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewLocalStore_InvalidBucket(t *testing.T) {
	if _, err := NewLocalStore(t.TempDir(), "/media", []string{"Bad_Bucket"}); err == nil {
		t.Fatal("expected error for invalid bucket name")
	}
}
