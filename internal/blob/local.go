// Package blob stores uploaded files on the local filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/simp-lee/newsdesk/internal/domain"
)

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// LocalStore is a domain.BlobStore writing below a root directory. Files are
// never overwritten and are addressed as <baseURL>/<bucket>/<path>.
type LocalStore struct {
	root    string
	baseURL string
	buckets []string
}

var _ domain.BlobStore = (*LocalStore)(nil)

// NewLocalStore creates the bucket directories under root. Uploads to other
// buckets are rejected.
func NewLocalStore(root, baseURL string, buckets []string) (*LocalStore, error) {
	for _, b := range buckets {
		if !bucketName.MatchString(b) {
			return nil, fmt.Errorf("invalid bucket name %q", b)
		}
		if err := os.MkdirAll(filepath.Join(root, b), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", b, err)
		}
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		buckets: slices.Clone(buckets),
	}, nil
}

// Root returns the directory the store writes to.
func (s *LocalStore) Root() string { return s.root }

// Upload writes data to bucket/name and returns its public URL. An existing
// file under the same name is an AlreadyExists error.
func (s *LocalStore) Upload(ctx context.Context, bucket, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !slices.Contains(s.buckets, bucket) {
		return "", domain.NewAppError(domain.CodeNotFound, fmt.Sprintf("bucket %q not found", bucket), nil)
	}
	clean, err := cleanPath(name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domain.Validation("file is empty")
	}

	full := filepath.Join(s.root, bucket, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", domain.NewAppError(domain.CodeInternal, "upload failed", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", domain.NewAppError(domain.CodeAlreadyExists, "file already exists", err)
		}
		return "", domain.NewAppError(domain.CodeInternal, "upload failed", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full)
		return "", domain.NewAppError(domain.CodeInternal, "upload failed", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", domain.NewAppError(domain.CodeInternal, "upload failed", err)
	}

	return s.baseURL + "/" + bucket + "/" + clean, nil
}

// cleanPath rejects absolute paths and any path escaping the bucket.
func cleanPath(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") {
		return "", domain.Validation("invalid file path")
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", domain.Validation("invalid file path")
	}
	return clean, nil
}
