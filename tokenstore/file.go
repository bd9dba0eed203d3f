package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hien-duc/spendwise-go/pkg/errs"
)

// FileStore persists the token in a single file on disk, the closest analog
// to durable device storage. Writes go through a temp file and rename so a
// crash never leaves a half-written token.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a file-backed store at path. The parent directory is
// created on first Set.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("token store path is required")
	}
	return &FileStore{path: path}, nil
}

// DefaultPath returns the conventional token location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &errs.StorageError{Op: "resolve home dir", Err: err}
	}
	return filepath.Join(home, ".spendwise", "token"), nil
}

// Get returns the stored token, or ok=false when no token file exists.
func (s *FileStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &errs.StorageError{Op: "read token", Err: err}
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Set writes the token atomically.
func (s *FileStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &errs.StorageError{Op: "create token dir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return &errs.StorageError{Op: "create temp token", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &errs.StorageError{Op: "write token", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &errs.StorageError{Op: "close token", Err: err}
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return &errs.StorageError{Op: "chmod token", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &errs.StorageError{Op: "rename token", Err: err}
	}
	return nil
}

// Clear removes the token file. Clearing an empty store succeeds.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return &errs.StorageError{Op: "remove token", Err: err}
	}
	return nil
}
