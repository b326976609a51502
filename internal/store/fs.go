package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/danielolaszy/ghinbox/internal/logging"
)

// FSStore keeps notes as files under a root directory.
type FSStore struct {
	fs   afero.Fs
	root string

	mu   sync.Mutex
	dirs map[string]struct{}
}

// NewFSStore returns a store writing under root on fs.
func NewFSStore(fs afero.Fs, root string) *FSStore {
	return &FSStore{
		fs:   fs,
		root: root,
		dirs: make(map[string]struct{}),
	}
}

// NewOSStore returns a store writing under root on the local disk.
func NewOSStore(root string) *FSStore {
	return NewFSStore(afero.NewOsFs(), root)
}

func (s *FSStore) fullPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Exists reports whether a note file is present at path.
func (s *FSStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, s.fullPath(path))
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return ok, nil
}

// Read returns the content of the note file at path.
func (s *FSStore) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := afero.ReadFile(s.fs, s.fullPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the note file at path, creating its directory on first use.
func (s *FSStore) Write(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := s.fullPath(path)
	if err := s.ensureDir(filepath.Dir(full)); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Debug("note written", "path", path, "bytes", len(content))
	return nil
}

// ensureDir creates dir once per store. Concurrent callers for the same
// directory block until the first one has finished.
func (s *FSStore) ensureDir(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[dir]; ok {
		return nil
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	s.dirs[dir] = struct{}{}
	return nil
}
