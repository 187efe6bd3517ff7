package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStorage implements attachment storage on the local filesystem.
// Content is written to a temp file first, hashed while streaming, then
// renamed to its digest so the key is stable for identical content.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	dir := filepath.Join(baseDir, "attachments")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachments directory: %w", err)
	}
	return &LocalStorage{baseDir: dir}, nil
}

func (s *LocalStorage) Save(ctx context.Context, reader io.Reader, contentType string) (string, error) {
	tmpPath := filepath.Join(s.baseDir, "tmp-"+uuid.New().String())
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), reader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	key := hex.EncodeToString(hasher.Sum(nil))
	finalPath := filepath.Join(s.baseDir, key)
	if _, err := os.Stat(finalPath); err == nil {
		// Same content already stored.
		os.Remove(tmpPath)
		return key, nil
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize attachment: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.baseDir, key))
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, int64, error) {
	if err := validateKey(key); err != nil {
		return false, 0, err
	}
	info, err := os.Stat(filepath.Join(s.baseDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.baseDir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// validateKey rejects anything that is not a bare hex digest, so keys can
// never escape the storage directory.
func validateKey(key string) error {
	if key == "" || filepath.Base(key) != key {
		return fmt.Errorf("invalid storage key %q", key)
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
