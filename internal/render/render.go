// Package render turns GitHub issues, pull requests and discussions into markdown notes.
package render

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielolaszy/ghinbox/internal/frontmatter"
	"github.com/danielolaszy/ghinbox/pkg/models"
)

// MaxInlineDiff is the diff size, in characters, below which a pull request diff is embedded.
const MaxInlineDiff = 1000

// TimeLayout is how created_at and updated_at are written.
const TimeLayout = "2006-01-02 15:04:05"

var headingPattern = regexp.MustCompile(`(?m)^(#{1,4} )`)

// Renderer builds notes. Maintainer decides the new/replied state.
type Renderer struct {
	Maintainer string
}

// Issue renders an issue or pull request with its comments.
// For pull requests, diff is the raw unified diff; nil means it could not be fetched
// and a link is written instead.
func (r Renderer) Issue(issue models.GitHubIssue, comments []models.Comment, diff *string) string {
	var status any
	if issue.State != "" {
		status = issue.State
	}
	fields := []frontmatter.Field{
		{Key: "state", Value: models.InboxState(comments, r.Maintainer)},
		{Key: "status", Value: status},
		{Key: "url", Value: issue.URL},
		{Key: "participants", Value: Participants(comments)},
		{Key: "comments", Value: issue.CommentCount},
		{Key: "reaction_count", Value: issue.ReactionCount},
		{Key: "labels", Value: issue.Labels},
		{Key: "created_at", Value: FormatTime(issue.CreatedAt)},
		{Key: "updated_at", Value: FormatTime(issue.UpdatedAt)},
		{Key: frontmatter.TimestampKey, Value: Timestamp(issue.UpdatedAt)},
	}

	body := ShiftHeadings(issue.Body)
	if issue.PullRequest != nil {
		body += "\n\n" + DiffSection(diff, issue.PullRequest.HTMLURL)
	}

	blocks := []string{turn("##", issue.Author, body)}
	for _, c := range comments {
		blocks = append(blocks, turn("##", c.Author, ShiftHeadings(c.Body)))
	}
	return note(fields, blocks)
}

// Discussion renders a discussion with its comments and their replies.
func (r Renderer) Discussion(d models.Discussion) string {
	fields := []frontmatter.Field{
		{Key: "state", Value: models.InboxState(d.Comments, r.Maintainer)},
		{Key: "url", Value: d.URL},
		{Key: "category", Value: d.Category},
		{Key: "created_at", Value: FormatTime(d.CreatedAt)},
		{Key: "updated_at", Value: FormatTime(d.UpdatedAt)},
		{Key: frontmatter.TimestampKey, Value: Timestamp(d.UpdatedAt)},
	}

	blocks := []string{turn("##", d.Author, ShiftHeadings(d.Body))}
	for _, c := range d.Comments {
		blocks = append(blocks, turn("##", c.Author, ShiftHeadings(c.Body)))
		for _, reply := range c.Replies {
			blocks = append(blocks, turn("###", reply.Author, ShiftHeadings(reply.Body)))
		}
	}
	return note(fields, blocks)
}

func turn(heading, author, body string) string {
	return heading + " " + author + "\n" + body
}

func note(fields []frontmatter.Field, blocks []string) string {
	return frontmatter.Encode(fields) + "\n" + strings.Join(blocks, "\n\n") + "\n"
}

// ShiftHeadings pushes markdown headings of level 1-4 down two levels so
// they nest under the note's own "##" headings. Deeper headings are left alone.
func ShiftHeadings(text string) string {
	return headingPattern.ReplaceAllString(text, "##$1")
}

// DiffSection returns the fenced diff for small diffs, or a link to the pull request otherwise.
func DiffSection(diff *string, htmlURL string) string {
	if diff == nil {
		return fmt.Sprintf("Diff unavailable, [view here](%s)", htmlURL)
	}
	if utf8.RuneCountInString(*diff) >= MaxInlineDiff {
		return fmt.Sprintf("Diff too large to display, [view here](%s)", htmlURL)
	}

	var kept []string
	for _, line := range strings.Split(*diff, "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case '+', '-', '@':
			kept = append(kept, line)
		}
	}
	return "```diff\n" + strings.Join(kept, "\n") + "\n```"
}

// Participants counts the distinct comment authors.
func Participants(comments []models.Comment) int {
	seen := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		seen[c.Author] = struct{}{}
	}
	return len(seen)
}

// FormatTime writes t in UTC without the ISO "T" separator or zone suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Timestamp is the epoch-millisecond value stored in a note's front matter.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// NotePath returns the slash-separated path of an item's note, relative to the store root.
func NotePath(repoName, kind string, number int, title string) string {
	name := fmt.Sprintf("%d", number)
	if clean := SanitizeTitle(title); clean != "" {
		name += " " + clean
	}
	return path.Join("github", repoName, kind, name+".md")
}
