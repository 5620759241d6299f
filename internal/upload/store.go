// Package upload provides the content store for visit attachments.
// It defines the FileStore interface, a disk-backed implementation
// that writes under the configured upload directory, and an in-memory
// implementation for tests. The store is deliberately permissive:
// no size limit, no type validation and no dedup — the same bytes
// saved twice produce two independent stored files.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when a stored path has no content
// behind it (e.g. a crash left a dangling metadata row).
var ErrFileNotFound = errors.New("stored file not found")

// FileStore is the contract for attachment content storage. Save
// returns the path under which the bytes were stored; that path is
// what the document metadata records.
type FileStore interface {
	Save(fileName string, content io.Reader) (path string, err error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// DiskStore stores files under a single directory, each under a
// generated name so colliding upload names never overwrite each
// other. The original file name survives only in the document
// metadata.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if absent and returns a
// store rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the content to a fresh file named by a UUID, keeping
// the original extension so stored files stay recognizable on disk.
func (s *DiskStore) Save(fileName string, content io.Reader) (string, error) {
	stored := uuid.New().String() + filepath.Ext(fileName)
	path := filepath.Join(s.dir, stored)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Open returns a reader over the stored file.
func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes a stored file. Removing a path that is already gone
// is not an error.
func (s *DiskStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemStore is an in-memory FileStore for tests and development.
type MemStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: map[string][]byte{}}
}

func (s *MemStore) Save(fileName string, content io.Reader) (string, error) {
	b, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	path := "mem/" + uuid.New().String() + filepath.Ext(fileName)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = b
	return path, nil
}

func (s *MemStore) Open(path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *MemStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// Len reports how many files the store holds. Test helper.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
