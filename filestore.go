package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore reads and writes files by slash-separated names relative to a
// served root.
type FileStore interface {
	Get(name string) ([]byte, error)
	Put(name string, data []byte) error
}

// DirStore is a FileStore backed by a directory on disk. Names that resolve
// outside the directory are rejected with ErrPathEscapesRoot. Concurrent
// Put and Get on one name are not serialized.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: directory %q: %v", ErrInvalidConfig, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: directory %q: %v", ErrInvalidConfig, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrInvalidConfig, root)
	}
	return &DirStore{root: abs}, nil
}

func (s *DirStore) Root() string {
	return s.root
}

func (s *DirStore) resolve(name string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesRoot, name)
	}
	return p, nil
}

func (s *DirStore) Get(name string) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", ErrFileNotFound, name)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return data, nil
}

// Put writes data to name, creating missing parent directories.
func (s *DirStore) Put(name string, data []byte) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create parent of %q: %w", name, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return nil
}
