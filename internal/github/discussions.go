package github

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"

	"github.com/danielolaszy/ghinbox/internal/logging"
	"github.com/danielolaszy/ghinbox/pkg/models"
)

type actor struct {
	Login string
}

type replyNode struct {
	Author    actor
	Body      string
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
}

type commentNode struct {
	Author    actor
	Body      string
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	Replies   struct {
		Nodes []replyNode
	} `graphql:"replies(first: 30)"`
}

type discussionNode struct {
	ID       string
	Number   int
	Title    string
	Body     string
	URL      string
	Author   actor
	Category struct {
		Name string
	}
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	Comments  struct {
		Nodes []commentNode
	} `graphql:"comments(first: 30)"`
}

type discussionsQuery struct {
	Repository struct {
		Discussions struct {
			Nodes    []discussionNode
			PageInfo struct {
				EndCursor   githubv4.String
				HasNextPage bool
			}
		} `graphql:"discussions(first: $perPage, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// ListDiscussions retrieves discussions with their first 30 comments and the
// first 30 replies of each comment, following the GraphQL cursor.
//
// Pagination continues while GitHub reports another page and fewer than
// pageLimit pages have been read (0 means no limit). A failed query ends
// pagination; the discussions gathered so far are returned with the error.
func (c *Client) ListDiscussions(ctx context.Context, owner, repo string, perPage, pageLimit int) ([]models.Discussion, error) {
	variables := map[string]interface{}{
		"owner":   githubv4.String(owner),
		"name":    githubv4.String(repo),
		"perPage": githubv4.Int(perPage),
		"cursor":  (*githubv4.String)(nil),
	}

	var result []models.Discussion
	for page := 1; pageLimit == 0 || page <= pageLimit; page++ {
		logging.Debug("fetching discussions page", "repository", owner+"/"+repo, "page", page, "per_page", perPage)

		var query discussionsQuery
		if err := c.graphql.Query(ctx, &query, variables); err != nil {
			logging.Error("failed to query discussions", "repository", owner+"/"+repo, "page", page, "error", err)
			return result, fmt.Errorf("failed to query page %d of discussions for %s/%s: %w", page, owner, repo, err)
		}

		discussions := query.Repository.Discussions
		for _, node := range discussions.Nodes {
			result = append(result, convertDiscussion(node))
		}

		if !discussions.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(discussions.PageInfo.EndCursor)
	}

	return result, nil
}

func convertDiscussion(node discussionNode) models.Discussion {
	comments := make([]models.Comment, 0, len(node.Comments.Nodes))
	for _, c := range node.Comments.Nodes {
		replies := make([]models.Comment, 0, len(c.Replies.Nodes))
		for _, r := range c.Replies.Nodes {
			replies = append(replies, models.Comment{
				Author:    login(r.Author.Login),
				Body:      r.Body,
				CreatedAt: r.CreatedAt.UTC(),
				UpdatedAt: r.UpdatedAt.UTC(),
			})
		}
		comments = append(comments, models.Comment{
			Author:    login(c.Author.Login),
			Body:      c.Body,
			CreatedAt: c.CreatedAt.UTC(),
			UpdatedAt: c.UpdatedAt.UTC(),
			Replies:   replies,
		})
	}

	return models.Discussion{
		ID:        node.ID,
		Number:    node.Number,
		Title:     node.Title,
		Body:      node.Body,
		Author:    login(node.Author.Login),
		URL:       node.URL,
		Category:  node.Category.Name,
		CreatedAt: node.CreatedAt.UTC(),
		UpdatedAt: node.UpdatedAt.UTC(),
		Comments:  comments,
	}
}
