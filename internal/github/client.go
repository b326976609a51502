// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/internal/logging"
	"github.com/danielolaszy/ghinbox/pkg/models"
)

// DefaultDomain is the public GitHub host.
const DefaultDomain = "github.com"

// ghostLogin stands in for authors whose account has been deleted.
const ghostLogin = "ghost"

// requestTimeout bounds every HTTP round trip to the API.
const requestTimeout = 30 * time.Second

// Client encapsulates the GitHub REST and GraphQL API clients.
type Client struct {
	rest    *github.Client
	graphql *githubv4.Client
}

// APIURLs returns the REST base URL and GraphQL endpoint for a GitHub host.
// An empty domain means github.com.
func APIURLs(domain string) (restURL, graphqlURL string) {
	if domain == "" || domain == DefaultDomain {
		return "https://api.github.com/", "https://api.github.com/graphql"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain), fmt.Sprintf("https://%s/api/graphql", domain)
}

// NewClient creates a GitHub API client from the github section of the configuration.
// Every request carries the token as a bearer credential. When HTTPCache is set,
// responses are kept in memory and revalidated with conditional requests.
func NewClient(cfg config.GitHubConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	restURL, graphqlURL := APIURLs(cfg.Domain)

	logging.Info("github configuration",
		"domain", cfg.Domain,
		"api_url", restURL,
		"graphql_url", graphqlURL,
		"token", logging.MaskSensitive(cfg.Token),
		"http_cache", cfg.HTTPCache)

	return newClient(newHTTPClient(cfg.Token, cfg.HTTPCache), restURL, graphqlURL)
}

func newHTTPClient(token string, cache bool) *http.Client {
	var transport http.RoundTripper = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   http.DefaultTransport,
	}
	if cache {
		cacheTransport := httpcache.NewMemoryCacheTransport()
		cacheTransport.Transport = transport
		transport = cacheTransport
	}
	return &http.Client{Transport: transport, Timeout: requestTimeout}
}

func newClient(httpClient *http.Client, restURL, graphqlURL string) (*Client, error) {
	if !strings.HasSuffix(restURL, "/") {
		restURL += "/"
	}
	parsedURL, err := url.Parse(restURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}

	rest := github.NewClient(httpClient)
	rest.BaseURL = parsedURL
	rest.UploadURL = parsedURL

	return &Client{
		rest:    rest,
		graphql: githubv4.NewEnterpriseClient(graphqlURL, httpClient),
	}, nil
}

// ListIssues retrieves issues and pull requests in every state, one page at a time.
//
// Pagination stops after an empty page, a page shorter than perPage, or once
// pageLimit pages have been read (0 means no limit). If a page cannot be
// fetched, the issues gathered so far are returned together with the error.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, perPage, pageLimit int) ([]models.GitHubIssue, error) {
	var result []models.GitHubIssue

	for page := 1; pageLimit == 0 || page <= pageLimit; page++ {
		opts := &github.IssueListByRepoOptions{
			State: "all",
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: perPage,
			},
		}

		logging.Debug("fetching issues page", "repository", owner+"/"+repo, "page", page, "per_page", perPage)

		issues, _, err := c.rest.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			logging.Error("failed to fetch github issues", "repository", owner+"/"+repo, "page", page, "error", err)
			return result, fmt.Errorf("failed to fetch page %d of issues for %s/%s: %w", page, owner, repo, err)
		}

		for _, issue := range issues {
			result = append(result, convertIssue(issue))
		}

		if len(issues) < perPage {
			break
		}
	}

	return result, nil
}

// ListComments retrieves every comment on an issue or pull request, oldest first.
func (c *Client) ListComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var result []models.Comment
	for {
		comments, resp, err := c.rest.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			logging.Error("failed to fetch issue comments", "repository", owner+"/"+repo, "issue_number", number, "error", err)
			return nil, fmt.Errorf("failed to fetch comments for %s/%s#%d: %w", owner, repo, number, err)
		}

		for _, comment := range comments {
			result = append(result, models.Comment{
				Author:    login(comment.GetUser().GetLogin()),
				Body:      comment.GetBody(),
				CreatedAt: comment.GetCreatedAt().UTC(),
				UpdatedAt: comment.GetUpdatedAt().UTC(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

// PullRequestDiff retrieves the unified diff of a pull request.
func (c *Client) PullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := c.rest.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		logging.Error("failed to fetch pull request diff", "repository", owner+"/"+repo, "pull_number", number, "error", err)
		return "", fmt.Errorf("failed to fetch diff for %s/%s#%d: %w", owner, repo, number, err)
	}
	return diff, nil
}

func convertIssue(issue *github.Issue) models.GitHubIssue {
	labelNames := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labelNames = append(labelNames, label.GetName())
	}

	result := models.GitHubIssue{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		Author:        login(issue.GetUser().GetLogin()),
		State:         issue.GetState(),
		URL:           issue.GetHTMLURL(),
		Labels:        labelNames,
		CommentCount:  issue.GetComments(),
		ReactionCount: issue.GetReactions().GetTotalCount(),
		CreatedAt:     issue.GetCreatedAt().UTC(),
		UpdatedAt:     issue.GetUpdatedAt().UTC(),
	}

	if issue.IsPullRequest() {
		result.PullRequest = &models.PullRequestLinks{
			DiffURL: issue.PullRequestLinks.GetDiffURL(),
			HTMLURL: issue.PullRequestLinks.GetHTMLURL(),
		}
	}

	return result
}

func login(name string) string {
	if name == "" {
		return ghostLogin
	}
	return name
}
