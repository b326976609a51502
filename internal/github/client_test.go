package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/pkg/models"
)

// TestAPIURLs tests the logic that converts a domain to the REST and GraphQL endpoints
func TestAPIURLs(t *testing.T) {
	testCases := []struct {
		name            string
		domain          string
		expectedAPIURL  string
		expectedGraphQL string
	}{
		{
			name:            "Default GitHub.com",
			domain:          "github.com",
			expectedAPIURL:  "https://api.github.com/",
			expectedGraphQL: "https://api.github.com/graphql",
		},
		{
			name:            "GitHub Enterprise",
			domain:          "github.example.com",
			expectedAPIURL:  "https://github.example.com/api/v3/",
			expectedGraphQL: "https://github.example.com/api/graphql",
		},
		{
			name:            "Empty Domain (should default to github.com)",
			domain:          "",
			expectedAPIURL:  "https://api.github.com/",
			expectedGraphQL: "https://api.github.com/graphql",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			apiURL, graphqlURL := APIURLs(tc.domain)
			assert.Equal(t, tc.expectedAPIURL, apiURL)
			assert.Equal(t, tc.expectedGraphQL, graphqlURL)

			parsedURL, err := url.Parse(apiURL)
			require.NoError(t, err)
			assert.Equal(t, apiURL, parsedURL.String())
		})
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(config.GitHubConfig{Domain: "github.com"})
	assert.Error(t, err)

	client, err := NewClient(config.GitHubConfig{Token: "test_token", Domain: "git.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://git.example.com/api/v3/", client.rest.BaseURL.String())
}

// issueServer fakes the issues listing endpoint for a repository holding total issues.
type issueServer struct {
	*httptest.Server
	total    int
	failPage int
	requests atomic.Int32
	notAll   atomic.Int32
}

func newIssueServer(t *testing.T, total int) *issueServer {
	s := &issueServer{total: total}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		query := r.URL.Query()
		if query.Get("state") != "all" {
			s.notAll.Add(1)
		}

		page, _ := strconv.Atoi(query.Get("page"))
		perPage, _ := strconv.Atoi(query.Get("per_page"))
		if page == s.failPage {
			http.Error(w, `{"message":"server error"}`, http.StatusInternalServerError)
			return
		}

		issues := []map[string]any{}
		for n := (page-1)*perPage + 1; n <= page*perPage && n <= s.total; n++ {
			issues = append(issues, map[string]any{
				"number":     n,
				"title":      fmt.Sprintf("Issue %d", n),
				"state":      "open",
				"html_url":   fmt.Sprintf("https://github.com/octo/hello/issues/%d", n),
				"user":       map[string]any{"login": "octocat"},
				"updated_at": "2024-01-01T00:00:00Z",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(issues)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := newClient(http.DefaultClient, serverURL, serverURL+"/graphql")
	require.NoError(t, err)
	return client
}

func TestListIssuesPagination(t *testing.T) {
	testCases := []struct {
		name             string
		total            int
		perPage          int
		pageLimit        int
		expectedIssues   int
		expectedRequests int32
	}{
		{name: "Short last page", total: 5, perPage: 2, expectedIssues: 5, expectedRequests: 3},
		{name: "Empty last page", total: 4, perPage: 2, expectedIssues: 4, expectedRequests: 3},
		{name: "No issues", total: 0, perPage: 10, expectedIssues: 0, expectedRequests: 1},
		{name: "Page ceiling", total: 10, perPage: 2, pageLimit: 2, expectedIssues: 4, expectedRequests: 2},
		{name: "Ceiling of one", total: 30, perPage: 10, pageLimit: 1, expectedIssues: 10, expectedRequests: 1},
		{name: "Ceiling above data", total: 3, perPage: 2, pageLimit: 5, expectedIssues: 3, expectedRequests: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newIssueServer(t, tc.total)
			client := testClient(t, server.URL)

			issues, err := client.ListIssues(t.Context(), "octo", "hello", tc.perPage, tc.pageLimit)
			require.NoError(t, err)
			assert.Len(t, issues, tc.expectedIssues)
			assert.Equal(t, tc.expectedRequests, server.requests.Load())
			assert.Zero(t, server.notAll.Load())
		})
	}
}

func TestListIssuesPartialFailure(t *testing.T) {
	server := newIssueServer(t, 10)
	server.failPage = 2
	client := testClient(t, server.URL)

	issues, err := client.ListIssues(t.Context(), "octo", "hello", 3, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	require.Len(t, issues, 3)
	assert.Equal(t, 1, issues[0].Number)
	assert.Equal(t, int32(2), server.requests.Load())
}

func TestListIssuesConvertsFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{
				"number": 42,
				"title": "Crash on start",
				"body": "It crashes.",
				"state": "open",
				"html_url": "https://github.com/octo/hello/issues/42",
				"user": {"login": "octocat"},
				"labels": [{"name": "bug"}, {"name": "help wanted"}],
				"comments": 2,
				"reactions": {"total_count": 3},
				"created_at": "2023-12-31T10:00:00Z",
				"updated_at": "2024-01-01T00:00:00Z"
			},
			{
				"number": 7,
				"title": "Fix crash",
				"state": "closed",
				"html_url": "https://github.com/octo/hello/pull/7",
				"user": null,
				"updated_at": "2024-01-02T00:00:00Z",
				"pull_request": {
					"html_url": "https://github.com/octo/hello/pull/7",
					"diff_url": "https://github.com/octo/hello/pull/7.diff"
				}
			}
		]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	issues, err := testClient(t, server.URL).ListIssues(t.Context(), "octo", "hello", 100, 0)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	issue := issues[0]
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, "octocat", issue.Author)
	assert.Equal(t, []string{"bug", "help wanted"}, issue.Labels)
	assert.Equal(t, 2, issue.CommentCount)
	assert.Equal(t, 3, issue.ReactionCount)
	assert.Equal(t, int64(1704067200000), issue.UpdatedAt.UnixMilli())
	assert.Nil(t, issue.PullRequest)
	assert.Equal(t, models.KindIssue, issue.Kind())

	pr := issues[1]
	assert.Equal(t, "ghost", pr.Author)
	require.NotNil(t, pr.PullRequest)
	assert.Equal(t, "https://github.com/octo/hello/pull/7", pr.PullRequest.HTMLURL)
	assert.Equal(t, "https://github.com/octo/hello/pull/7.diff", pr.PullRequest.DiffURL)
	assert.Equal(t, models.KindPullRequest, pr.Kind())
}

func TestListCommentsFollowsNextPage(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"user": {"login": "octo"}, "body": "fixed", "created_at": "2024-01-02T00:00:00Z"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues/42/comments?page=2>; rel="next"`, server.URL))
		fmt.Fprint(w, `[{"user": {"login": "hubot"}, "body": "same here", "created_at": "2024-01-01T00:00:00Z"}]`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	comments, err := testClient(t, server.URL).ListComments(t.Context(), "octo", "hello", 42)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "hubot", comments[0].Author)
	assert.Equal(t, "octo", comments[1].Author)
	assert.Equal(t, "fixed", comments[1].Body)
}

func TestListCommentsError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	comments, err := testClient(t, server.URL).ListComments(t.Context(), "octo", "hello", 42)
	assert.Error(t, err)
	assert.Nil(t, comments)
}

func TestPullRequestDiff(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3.diff" {
			http.Error(w, "unexpected accept header", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "--- a/x\n+++ b/x\n")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	diff, err := testClient(t, server.URL).PullRequestDiff(t.Context(), "octo", "hello", 7)
	require.NoError(t, err)
	assert.Equal(t, "--- a/x\n+++ b/x\n", diff)
}

func TestHTTPClientSendsTokenAndCaches(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer test_token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=60")
		fmt.Fprint(w, `[]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := newClient(newHTTPClient("test_token", true), server.URL, server.URL+"/graphql")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.ListIssues(t.Context(), "octo", "hello", 10, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), requests.Load())
}

func TestHTTPClientTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, newHTTPClient("t", false).Timeout)
}
