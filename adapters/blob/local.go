// Package blob stores raw workbook bytes on the local filesystem so failed
// sheet tasks can be retried from the exact bytes of the original upload.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"sheetwise/domain/core"
	"sheetwise/internal/errors"
)

// LocalStore keeps blobs as content-addressed files under one directory.
// Storing the same bytes twice yields the same opaque path, which makes
// retry idempotent for free.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create blob directory %s", dir)
	}
	return &LocalStore{dir: dir}, nil
}

// Store writes the bytes and returns their opaque path
func (s *LocalStore) Store(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to store empty blob")
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + ".bin"
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); err == nil {
		log.Printf("[BlobStore] %s already stored", name[:12])
		return name, nil
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write blob")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "failed to finalize blob")
	}

	log.Printf("[BlobStore] stored %d bytes as %s", len(data), name[:12])
	return name, nil
}

// Load reads back the bytes at an opaque path
func (s *LocalStore) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(path)))
	if os.IsNotExist(err) {
		return nil, core.ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read blob")
	}
	return data, nil
}

// Exists reports whether the path still resolves to stored bytes
func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(path)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
