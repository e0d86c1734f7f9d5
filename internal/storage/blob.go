package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned when a storage key does not name a blob this store could have written.
var ErrInvalidKey = errors.New("invalid storage key")

// BlobStore persists uploaded file bytes and hands back an opaque key.
type BlobStore interface {
	Store(ctx context.Context, content io.Reader, originalName string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// LocalStore keeps blobs as flat files in one directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Store writes content under a fresh key derived from the sanitized original name.
func (s *LocalStore) Store(ctx context.Context, content io.Reader, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := SecureFilename(originalName)
	if name == "" {
		name = "file"
	}
	key := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + name

	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	return key, nil
}

// Open returns a reader for a previously stored blob.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	return os.Open(filepath.Join(s.dir, key))
}

// Delete removes a stored blob.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func validKey(key string) bool {
	return key != "" && key == filepath.Base(key) && !strings.HasPrefix(key, ".")
}

// SecureFilename reduces name to a safe flat ASCII file name: the base name only, spaces
// folded to underscores, and anything outside [A-Za-z0-9._-] dropped.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}
