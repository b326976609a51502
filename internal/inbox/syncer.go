package inbox

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/danielolaszy/ghinbox/internal/frontmatter"
	"github.com/danielolaszy/ghinbox/internal/logging"
	"github.com/danielolaszy/ghinbox/internal/render"
	"github.com/danielolaszy/ghinbox/internal/store"
	"github.com/danielolaszy/ghinbox/pkg/models"
)

// DefaultConcurrency bounds the number of items saved at once.
const DefaultConcurrency = 8

// DefaultSyncPerPage is the page size used when persisting.
const DefaultSyncPerPage = 100

// Syncer writes every issue, pull request and discussion of a repository to a
// store, skipping items whose note is already current.
type Syncer struct {
	Source   Source
	Store    store.Store
	Renderer render.Renderer

	Owner string
	Repo  string

	// PerPage is the page size for both listings. Zero means DefaultSyncPerPage.
	PerPage int

	// Concurrency bounds per-item work. Zero means DefaultConcurrency.
	Concurrency int
}

// Result reports one sync run.
type Result struct {
	Tally *Tally

	// Warnings counts problems that left the sync incomplete: truncated
	// listings, unreadable notes, and items whose comments, diff or write failed.
	Warnings int
}

// Complete reports whether the run finished without warnings.
func (r *Result) Complete() bool {
	return r.Warnings == 0
}

// Run performs one sync. Per-item failures are logged and counted in
// Result.Warnings; Run only returns an error when ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	perPage := s.PerPage
	if perPage == 0 {
		perPage = DefaultSyncPerPage
	}
	concurrency := s.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}

	repository := s.Owner + "/" + s.Repo
	logging.Info("starting sync", "repository", repository, "per_page", perPage, "concurrency", concurrency)

	run := &syncRun{Syncer: s, tally: &Tally{}}

	issues, err := s.Source.ListIssues(ctx, s.Owner, s.Repo, perPage, 0)
	if err != nil {
		logging.Warn("issue listing incomplete", "repository", repository, "fetched", len(issues), "error", err)
		run.warn()
	}

	discussions, err := s.Source.ListDiscussions(ctx, s.Owner, s.Repo, perPage, 0)
	if err != nil {
		logging.Warn("discussion listing incomplete", "repository", repository, "fetched", len(discussions), "error", err)
		run.warn()
	}

	logging.Debug("fetched items", "repository", repository, "issues", len(issues), "discussions", len(discussions))

	p := pool.New().WithMaxGoroutines(concurrency)
	for _, issue := range issues {
		p.Go(func() {
			run.saveIssue(ctx, issue)
		})
	}
	for _, discussion := range discussions {
		p.Go(func() {
			run.saveDiscussion(ctx, discussion)
		})
	}
	p.Wait()

	result := &Result{Tally: run.tally, Warnings: int(run.warnings.Load())}

	created, updated, skipped := result.Tally.Counts()
	logging.Info("sync finished",
		"repository", repository,
		"created", created,
		"updated", updated,
		"skipped", skipped,
		"warnings", result.Warnings)
	logging.Debug("sync tally",
		"created", result.Tally.Created(),
		"updated", result.Tally.Updated(),
		"skipped", result.Tally.Skipped())

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

type syncRun struct {
	*Syncer
	tally    *Tally
	warnings atomic.Int64
}

func (r *syncRun) warn() {
	r.warnings.Add(1)
}

// check runs Decide and records skips. ok is false when the item must be left alone.
func (r *syncRun) check(ctx context.Context, kind, id, path string, updatedAt time.Time) (Decision, bool) {
	decision, err := Decide(ctx, r.Store, path, updatedAt)
	if err != nil {
		if errors.Is(err, frontmatter.ErrMalformed) {
			logging.Error("note has malformed front matter, leaving it untouched", "kind", kind, "id", id, "path", path, "error", err)
		} else {
			logging.Error("failed to inspect note", "kind", kind, "id", id, "path", path, "error", err)
		}
		r.warn()
		return Skip, false
	}
	if decision == Skip {
		logging.Debug("note is current", "kind", kind, "id", id, "path", path)
		r.tally.Record(Skip, id)
		return Skip, false
	}
	return decision, true
}

func (r *syncRun) saveIssue(ctx context.Context, issue models.GitHubIssue) {
	kind := issue.Kind()
	id := strconv.Itoa(issue.Number)
	path := render.NotePath(r.Repo, kind, issue.Number, issue.Title)

	decision, ok := r.check(ctx, kind, id, path, issue.UpdatedAt)
	if !ok {
		return
	}

	var comments []models.Comment
	if issue.CommentCount > 0 {
		var err error
		comments, err = r.Source.ListComments(ctx, r.Owner, r.Repo, issue.Number)
		if err != nil {
			logging.Error("failed to fetch comments, not writing note", "kind", kind, "id", id, "error", err)
			r.warn()
			return
		}
	}

	var diff *string
	if issue.PullRequest != nil {
		d, err := r.Source.PullRequestDiff(ctx, r.Owner, r.Repo, issue.Number)
		if err != nil {
			logging.Warn("failed to fetch diff, linking to it instead", "id", id, "error", err)
			r.warn()
		} else {
			diff = &d
		}
	}

	r.write(ctx, decision, kind, id, path, r.Renderer.Issue(issue, comments, diff))
}

func (r *syncRun) saveDiscussion(ctx context.Context, discussion models.Discussion) {
	path := render.NotePath(r.Repo, models.KindDiscussion, discussion.Number, discussion.Title)

	decision, ok := r.check(ctx, models.KindDiscussion, discussion.ID, path, discussion.UpdatedAt)
	if !ok {
		return
	}

	r.write(ctx, decision, models.KindDiscussion, discussion.ID, path, r.Renderer.Discussion(discussion))
}

func (r *syncRun) write(ctx context.Context, decision Decision, kind, id, path, content string) {
	if err := r.Store.Write(ctx, path, content); err != nil {
		logging.Error("failed to write note", "kind", kind, "id", id, "path", path, "error", err)
		r.warn()
		return
	}
	logging.Debug("note saved", "kind", kind, "id", id, "path", path, "decision", decision.String())
	r.tally.Record(decision, id)
}
