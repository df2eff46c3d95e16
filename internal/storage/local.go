// Package storage keeps payment proof files.  Files are addressed by an
// opaque slash separated key and served back under a base URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// store root.
var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore stores proof files and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore writes blobs below a directory on local disk.  The HTTP server
// serves them under baseURL after checking who is asking.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes r to key atomically (temp file + rename) and returns the URL.
// An existing blob with the same key is replaced.
func (s *LocalStore) Put(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename blob: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Path returns the file holding key.  It fails with ErrInvalidKey for keys
// outside the store and os.ErrNotExist when nothing is stored under key.
func (s *LocalStore) Path(key string) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", os.ErrNotExist
	}
	return full, nil
}

// Delete removes a blob.  Deleting a missing key is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}
