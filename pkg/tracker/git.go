package tracker

import (
	"context"
	"strings"
	"time"

	"digital.vasic.skilleval/pkg/command"
)

const gitTimeout = 5 * time.Second

// GitInfo is the repository state at the time of a run.
type GitInfo struct {
	Commit string
	Branch string
	Dirty  bool
}

// Unknown is reported when git cannot be queried.
var Unknown = GitInfo{Commit: "unknown", Branch: "unknown"}

// ReadGitInfo queries the short HEAD commit, the branch and whether
// the work tree has uncommitted changes. Any failure yields Unknown.
func ReadGitInfo(ctx context.Context, dir string) GitInfo {
	run := func(args ...string) (string, bool) {
		res := command.Run(ctx, command.Spec{
			Name:    "git",
			Args:    args,
			Dir:     dir,
			Timeout: gitTimeout,
		})
		return strings.TrimSpace(res.Stdout), res.Success
	}

	commit, ok := run("rev-parse", "--short", "HEAD")
	if !ok {
		return Unknown
	}
	branch, ok := run("rev-parse", "--abbrev-ref", "HEAD")
	if !ok {
		return Unknown
	}
	status, ok := run("status", "--porcelain")
	if !ok {
		return Unknown
	}
	return GitInfo{Commit: commit, Branch: branch, Dirty: status != ""}
}
