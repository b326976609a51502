// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// Item kinds. They double as the directory names notes are written under.
const (
	KindIssue       = "issues"
	KindPullRequest = "pull_requests"
	KindDiscussion  = "discussions"
)

// Inbox states derived from who spoke last.
const (
	StateNew     = "new"
	StateReplied = "replied"
)

// GitHubIssue represents an issue or pull request as returned by the issues endpoint.
type GitHubIssue struct {
	// Number is the issue number in GitHub (e.g., 42)
	Number int

	// Title is the issue's title or summary
	Title string

	// Body is the full markdown body of the issue
	Body string

	// Author is the login of the user who opened the issue
	Author string

	// State is the open/closed status reported by GitHub
	State string

	// URL is the HTML URL of the issue
	URL string

	// Labels is a slice of label names attached to the issue
	Labels []string

	// CommentCount is the number of comments GitHub reports for the issue
	CommentCount int

	// ReactionCount is the total number of reactions on the issue body
	ReactionCount int

	// CreatedAt is the timestamp when the issue was created
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the issue was last updated
	UpdatedAt time.Time

	// PullRequest is set when the issue is a pull request
	PullRequest *PullRequestLinks
}

// PullRequestLinks holds the links GitHub attaches to issues that are pull requests.
type PullRequestLinks struct {
	DiffURL string
	HTMLURL string
}

// Kind returns the note directory the issue belongs in.
func (i GitHubIssue) Kind() string {
	if i.PullRequest != nil {
		return KindPullRequest
	}
	return KindIssue
}

// Comment is a single comment on an issue or discussion.
type Comment struct {
	Author    string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Replies is only populated for discussion comments
	Replies []Comment
}

// Discussion represents a GitHub discussion with its first page of comments.
type Discussion struct {
	// ID is the GraphQL node ID
	ID string

	Number    int
	Title     string
	Body      string
	Author    string
	URL       string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Comments holds at most the first 30 comments, each with at most 30 replies
	Comments []Comment
}

// LastCommentAuthor returns the author of the final top-level comment, or "" if there are none.
func LastCommentAuthor(comments []Comment) string {
	if len(comments) == 0 {
		return ""
	}
	return comments[len(comments)-1].Author
}

// InboxState classifies a thread as replied when the maintainer wrote the last comment.
func InboxState(comments []Comment, maintainer string) string {
	if maintainer != "" && LastCommentAuthor(comments) == maintainer {
		return StateReplied
	}
	return StateNew
}
