// Package store persists markdown notes.
//
// Paths are slash-separated and relative to the store root, as produced by
// render.NotePath. Implementations must be safe for concurrent use by
// goroutines writing distinct paths.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no note exists at the path.
var ErrNotFound = errors.New("note not found")

// Store is the storage capability the sync engine depends on.
type Store interface {
	// Exists reports whether a note is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Read returns the full text of the note at path.
	Read(ctx context.Context, path string) (string, error)

	// Write creates or replaces the note at path, creating parent
	// directories as needed.
	Write(ctx context.Context, path, content string) error
}
