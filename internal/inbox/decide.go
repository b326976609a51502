// Package inbox syncs a repository's issues and discussions into notes and
// builds the read-only inbox view of them.
package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/danielolaszy/ghinbox/internal/frontmatter"
	"github.com/danielolaszy/ghinbox/internal/render"
	"github.com/danielolaszy/ghinbox/internal/store"
)

// Decision is the outcome of comparing a remote item with its stored note.
type Decision int

const (
	// Create means no note exists yet.
	Create Decision = iota
	// Update means the remote item changed after the note was written.
	Update
	// Skip means the note is current.
	Skip
)

func (d Decision) String() string {
	switch d {
	case Create:
		return "create"
	case Update:
		return "update"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide compares the update time of a remote item with the timestamp stored
// in the note at path. Equal timestamps skip.
//
// A note whose front matter is missing, unparseable or lacks an integer
// timestamp yields an error wrapping frontmatter.ErrMalformed; the caller must
// not overwrite it.
func Decide(ctx context.Context, s store.Store, path string, updatedAt time.Time) (Decision, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return Skip, err
	}
	if !exists {
		return Create, nil
	}

	content, err := s.Read(ctx, path)
	if err != nil {
		return Skip, err
	}

	fields, err := frontmatter.Parse(content)
	if err != nil {
		return Skip, fmt.Errorf("%s: %w", path, err)
	}
	stored, err := fields.Timestamp()
	if err != nil {
		return Skip, fmt.Errorf("%s: %w", path, err)
	}

	if render.Timestamp(updatedAt) > stored {
		return Update, nil
	}
	return Skip, nil
}
