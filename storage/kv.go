// Package storage provides the key-value persistence consumed by the
// rating loop and the puzzle cache. The core serializes its own state;
// stores only move opaque strings.
package storage

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Store is the persistence surface. Get reports absence through the
// second return instead of an error; errors mean the store itself
// failed.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// MemStore is an in-memory Store, used in tests and by hosts that
// persist elsewhere.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

// Get implements Store.
func (s *MemStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// FileStore keeps one file per key under a directory. Writes go through
// a temp file and a rename, so a crash never leaves a half-written
// value behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a FileStore
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "storage: create %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", errors.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := ioutil.ReadFile(p)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "storage: read %s", key)
	}
	return string(data), true, nil
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(s.dir, key+".tmp-")
	if err != nil {
		return errors.Wrapf(err, "storage: stage %s", key)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "storage: write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "storage: close %s", key)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "storage: commit %s", key)
	}
	return nil
}
