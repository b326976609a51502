package inbox

import (
	"context"

	"github.com/danielolaszy/ghinbox/pkg/models"
)

// Source fetches repository items. *github.Client implements it.
//
// The list methods may return partial results together with an error when
// pagination was cut short.
type Source interface {
	ListIssues(ctx context.Context, owner, repo string, perPage, pageLimit int) ([]models.GitHubIssue, error)
	ListComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error)
	PullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
	ListDiscussions(ctx context.Context, owner, repo string, perPage, pageLimit int) ([]models.Discussion, error)
}
