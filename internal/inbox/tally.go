package inbox

import (
	"slices"
	"sync"
)

// Tally collects the identifiers handled during one sync run.
// Issues and pull requests are identified by number, discussions by node ID.
// It is safe for concurrent use.
type Tally struct {
	mu      sync.Mutex
	created []string
	updated []string
	skipped []string
}

// Record appends id to the sequence matching d.
func (t *Tally) Record(d Decision, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch d {
	case Create:
		t.created = append(t.created, id)
	case Update:
		t.updated = append(t.updated, id)
	case Skip:
		t.skipped = append(t.skipped, id)
	}
}

// Created returns a copy of the created identifiers in completion order.
func (t *Tally) Created() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.created)
}

// Updated returns a copy of the updated identifiers in completion order.
func (t *Tally) Updated() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.updated)
}

// Skipped returns a copy of the skipped identifiers in completion order.
func (t *Tally) Skipped() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.skipped)
}

// Counts returns the length of each sequence.
func (t *Tally) Counts() (created, updated, skipped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.created), len(t.updated), len(t.skipped)
}
