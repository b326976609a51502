package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielolaszy/ghinbox/internal/logging"
	"github.com/danielolaszy/ghinbox/pkg/models"
)

// Issue status filters.
const (
	StatusAll    = "all"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// DefaultQueryPerPage is the page size used when building the inbox.
const DefaultQueryPerPage = 10

// DefaultQueryPageLimit is how many pages of each listing the inbox reads by default.
const DefaultQueryPageLimit = 1

// NoPageLimit makes Query read every page.
const NoPageLimit = -1

// ConfiguredPageLimit converts a configured page limit, where zero means
// unlimited, into a QueryOptions.PageLimit.
func ConfiguredPageLimit(n int) int {
	if n == 0 {
		return NoPageLimit
	}
	return n
}

// ErrInvalidFilter is returned for an unknown status or state filter value.
var ErrInvalidFilter = errors.New("invalid filter")

// QueryOptions selects what Query returns.
type QueryOptions struct {
	// Status filters issues by open/closed. Empty means StatusAll.
	Status string

	// State, when set, keeps only items in that inbox state ("new" or "replied").
	State string

	PerPage int // zero means DefaultQueryPerPage

	// PageLimit caps the pages read from each listing. Zero means
	// DefaultQueryPageLimit and a negative value means no limit.
	PageLimit int

	// Maintainer decides the new/replied state.
	Maintainer string
}

// Validate checks the filter values.
func (o QueryOptions) Validate() error {
	switch o.Status {
	case "", StatusAll, StatusOpen, StatusClosed:
	default:
		return fmt.Errorf("%w: status %q, expected one of %s, %s, %s", ErrInvalidFilter, o.Status, StatusAll, StatusOpen, StatusClosed)
	}
	switch o.State {
	case "", models.StateNew, models.StateReplied:
	default:
		return fmt.Errorf("%w: state %q, expected %s or %s", ErrInvalidFilter, o.State, models.StateNew, models.StateReplied)
	}
	return nil
}

// Item is one issue or discussion in the inbox view.
type Item struct {
	Number    int       `json:"number"`
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Status    string    `json:"status,omitempty"`
	Category  string    `json:"category,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Inbox holds the filtered issues and discussions.
type Inbox struct {
	Issues      []Item `json:"issues"`
	Discussions []Item `json:"discussions"`
}

// Response is the query mode result.
type Response struct {
	Inbox Inbox `json:"inbox"`

	// Warnings counts fetches that failed; the inbox may be incomplete when it is non-zero.
	Warnings int `json:"warnings"`
}

// Query fetches issues and discussions and filters them without touching any store.
// Pull requests returned by the issues listing are included among the issues.
func Query(ctx context.Context, src Source, owner, repo string, opts QueryOptions) (*Response, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	status := opts.Status
	if status == "" {
		status = StatusAll
	}
	perPage := opts.PerPage
	if perPage == 0 {
		perPage = DefaultQueryPerPage
	}
	pageLimit := opts.PageLimit
	switch {
	case pageLimit == 0:
		pageLimit = DefaultQueryPageLimit
	case pageLimit < 0:
		pageLimit = 0
	}

	repository := owner + "/" + repo
	resp := &Response{Inbox: Inbox{Issues: []Item{}, Discussions: []Item{}}}

	issues, err := src.ListIssues(ctx, owner, repo, perPage, pageLimit)
	if err != nil {
		logging.Warn("issue listing incomplete", "repository", repository, "fetched", len(issues), "error", err)
		resp.Warnings++
	}

	for _, issue := range issues {
		if status != StatusAll && issue.State != status {
			continue
		}

		var comments []models.Comment
		if issue.CommentCount > 0 {
			comments, err = src.ListComments(ctx, owner, repo, issue.Number)
			if err != nil {
				logging.Warn("failed to fetch comments", "repository", repository, "issue_number", issue.Number, "error", err)
				resp.Warnings++
			}
		}

		state := models.InboxState(comments, opts.Maintainer)
		if opts.State != "" && state != opts.State {
			continue
		}

		resp.Inbox.Issues = append(resp.Inbox.Issues, Item{
			Number:    issue.Number,
			Title:     issue.Title,
			State:     state,
			Status:    issue.State,
			URL:       issue.URL,
			CreatedAt: issue.CreatedAt,
			UpdatedAt: issue.UpdatedAt,
		})
	}

	discussions, err := src.ListDiscussions(ctx, owner, repo, perPage, pageLimit)
	if err != nil {
		logging.Warn("discussion listing incomplete", "repository", repository, "fetched", len(discussions), "error", err)
		resp.Warnings++
	}

	for _, d := range discussions {
		state := models.InboxState(d.Comments, opts.Maintainer)
		if opts.State != "" && state != opts.State {
			continue
		}

		resp.Inbox.Discussions = append(resp.Inbox.Discussions, Item{
			Number:    d.Number,
			ID:        d.ID,
			Title:     d.Title,
			State:     state,
			Category:  d.Category,
			URL:       d.URL,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}

	logging.Debug("inbox built",
		"repository", repository,
		"status", status,
		"state", opts.State,
		"issues", len(resp.Inbox.Issues),
		"discussions", len(resp.Inbox.Discussions),
		"warnings", resp.Warnings)

	return resp, ctx.Err()
}
