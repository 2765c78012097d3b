package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps media files under a root directory and serves them from baseURL
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a store rooted at root
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("invalid media path %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Save writes r to name, replacing any existing file atomically
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	target, err := s.resolve(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create media directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write media file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("store media file: %w", err)
	}
	return written, nil
}

// Remove deletes name. Missing files are not an error.
func (s *LocalStore) Remove(ctx context.Context, name string) error {
	target, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// URL returns the public URL of name
func (s *LocalStore) URL(name string) string {
	return s.baseURL + "/" + strings.TrimLeft(name, "/")
}
