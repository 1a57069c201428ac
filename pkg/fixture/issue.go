package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"digital.vasic.skilleval/pkg/command"
	"digital.vasic.skilleval/pkg/logging"
)

const ghTimeout = 30 * time.Second

// Issue is the subset of a GitHub issue rendered into a fixture.
type Issue struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	State         string `json:"state"`
	HTMLURL       string `json:"html_url"`
	CreatedAt     string `json:"created_at"`
	RepositoryURL string `json:"repository_url"`
	User          struct {
		Login string `json:"login"`
	} `json:"user"`
}

// FetchIssue renders repo#number as markdown. It asks the gh CLI
// first, which carries the user's auth, then the REST API. ok is
// false when both fail.
func (l *Loader) FetchIssue(ctx context.Context, repo string, number int) (string, bool) {
	if repo == "" || number == 0 {
		return "", false
	}
	path := fmt.Sprintf("repos/%s/issues/%d", repo, number)

	res := command.Run(ctx, command.Spec{Name: l.ghBinary, Args: []string{"api", path}, Timeout: ghTimeout})
	if res.Success {
		var issue Issue
		if err := json.Unmarshal([]byte(res.Stdout), &issue); err == nil {
			return FormatIssue(issue), true
		}
	}

	var issue Issue
	if err := l.github.GetJSON(ctx, "/"+path, &issue); err != nil {
		l.logger.Warn("issue_fetch_failed", logging.String("issue", path), logging.Err(err))
		return "", false
	}
	return FormatIssue(issue), true
}

// FormatIssue renders an issue as the markdown document the agent
// reads from the workspace.
func FormatIssue(issue Issue) string {
	title := issue.Title
	if title == "" {
		title = "Unknown"
	}
	author := issue.User.Login
	if author == "" {
		author = "unknown"
	}
	state := issue.State
	if state == "" {
		state = "open"
	}
	created := issue.CreatedAt
	if len(created) > 10 {
		created = created[:10]
	}
	repo := strings.Replace(issue.RepositoryURL, "https://api.github.com/repos/", "", 1)

	var b strings.Builder
	fmt.Fprintf(&b, "# GitHub Issue: %s\n\n", title)
	fmt.Fprintf(&b, "**Repository:** %s\n", repo)
	fmt.Fprintf(&b, "**Author:** %s\n", author)
	fmt.Fprintf(&b, "**Created:** %s\n", created)
	fmt.Fprintf(&b, "**State:** %s\n", state)
	fmt.Fprintf(&b, "**URL:** %s\n\n", issue.HTMLURL)
	b.WriteString("---\n\n")
	b.WriteString(issue.Body)
	b.WriteString("\n")
	return b.String()
}
