package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discussionPage1 = `{"data": {"repository": {"discussions": {
	"nodes": [{
		"id": "D_kwDOA1",
		"number": 1,
		"title": "Welcome",
		"body": "Say hi",
		"url": "https://github.com/octo/hello/discussions/1",
		"author": {"login": "octocat"},
		"category": {"name": "Announcements"},
		"createdAt": "2024-01-01T00:00:00Z",
		"updatedAt": "2024-01-02T00:00:00Z",
		"comments": {"nodes": [{
			"author": {"login": "hubot"},
			"body": "hi",
			"createdAt": "2024-01-01T01:00:00Z",
			"updatedAt": "2024-01-01T01:00:00Z",
			"replies": {"nodes": [{
				"author": {"login": "octo"},
				"body": "welcome",
				"createdAt": "2024-01-01T02:00:00Z",
				"updatedAt": "2024-01-01T02:00:00Z"
			}]}
		}]}
	}],
	"pageInfo": {"endCursor": "Y3Vyc29yOjE=", "hasNextPage": true}
}}}}`

const discussionPage2 = `{"data": {"repository": {"discussions": {
	"nodes": [{
		"id": "D_kwDOA2",
		"number": 2,
		"title": "Ideas",
		"body": "",
		"url": "https://github.com/octo/hello/discussions/2",
		"author": {"login": ""},
		"category": {"name": "Ideas"},
		"createdAt": "2024-01-03T00:00:00Z",
		"updatedAt": "2024-01-03T00:00:00Z",
		"comments": {"nodes": []}
	}],
	"pageInfo": {"endCursor": "Y3Vyc29yOjI=", "hasNextPage": false}
}}}}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// discussionServer serves two pages of discussions keyed by the cursor variable.
type discussionServer struct {
	*httptest.Server
	requests atomic.Int32
	fail     bool
}

func newDiscussionServer(t *testing.T) *discussionServer {
	s := &discussionServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case s.fail && req.Variables["cursor"] != nil:
			fmt.Fprint(w, `{"errors": [{"message": "something went wrong"}]}`)
		case req.Variables["cursor"] == nil:
			fmt.Fprint(w, discussionPage1)
		case req.Variables["cursor"] == "Y3Vyc29yOjE=":
			fmt.Fprint(w, discussionPage2)
		default:
			http.Error(w, "unknown cursor", http.StatusBadRequest)
		}
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestListDiscussionsFollowsCursor(t *testing.T) {
	server := newDiscussionServer(t)
	client := testClient(t, server.URL)

	discussions, err := client.ListDiscussions(t.Context(), "octo", "hello", 1, 0)
	require.NoError(t, err)
	require.Len(t, discussions, 2)
	assert.Equal(t, int32(2), server.requests.Load())

	first := discussions[0]
	assert.Equal(t, "D_kwDOA1", first.ID)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "octocat", first.Author)
	assert.Equal(t, "Announcements", first.Category)
	assert.Equal(t, int64(1704153600000), first.UpdatedAt.UnixMilli())
	require.Len(t, first.Comments, 1)
	assert.Equal(t, "hubot", first.Comments[0].Author)
	require.Len(t, first.Comments[0].Replies, 1)
	assert.Equal(t, "octo", first.Comments[0].Replies[0].Author)
	assert.Equal(t, "welcome", first.Comments[0].Replies[0].Body)

	second := discussions[1]
	assert.Equal(t, "ghost", second.Author)
	assert.Empty(t, second.Comments)
}

func TestListDiscussionsPageCeiling(t *testing.T) {
	server := newDiscussionServer(t)
	client := testClient(t, server.URL)

	discussions, err := client.ListDiscussions(t.Context(), "octo", "hello", 1, 1)
	require.NoError(t, err)
	assert.Len(t, discussions, 1)
	assert.Equal(t, int32(1), server.requests.Load())
}

func TestListDiscussionsPartialFailure(t *testing.T) {
	server := newDiscussionServer(t)
	server.fail = true
	client := testClient(t, server.URL)

	discussions, err := client.ListDiscussions(t.Context(), "octo", "hello", 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	require.Len(t, discussions, 1)
	assert.Equal(t, "D_kwDOA1", discussions[0].ID)
}

func TestListDiscussionsQueryShape(t *testing.T) {
	var captured graphqlRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"data": {"repository": {"discussions": {"nodes": [], "pageInfo": {"endCursor": "", "hasNextPage": false}}}}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	discussions, err := testClient(t, server.URL).ListDiscussions(t.Context(), "octo", "hello", 25, 0)
	require.NoError(t, err)
	assert.Empty(t, discussions)

	assert.Contains(t, captured.Query, "repository(owner: $owner, name: $name)")
	assert.Contains(t, captured.Query, "discussions(first: $perPage, after: $cursor)")
	assert.Contains(t, captured.Query, "comments(first: 30)")
	assert.Contains(t, captured.Query, "replies(first: 30)")
	assert.Equal(t, "octo", captured.Variables["owner"])
	assert.Equal(t, "hello", captured.Variables["name"])
	assert.Equal(t, float64(25), captured.Variables["perPage"])
}
