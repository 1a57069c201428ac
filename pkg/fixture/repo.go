package fixture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/command"
	"digital.vasic.skilleval/pkg/logging"
)

const (
	verifyTimeout   = 10 * time.Second
	cloneTimeout    = 120 * time.Second
	fetchTimeout    = 60 * time.Second
	checkoutTimeout = 30 * time.Second
	lockRetryDelay  = 200 * time.Millisecond
)

// CacheKey is the cache directory name for a repository pinned at
// commit: "<owner>-<name>-<commit[:8]>".
func CacheKey(repoURL, commit string) string {
	parts := strings.Split(strings.TrimRight(repoURL, "/"), "/")
	name := strings.TrimSuffix(parts[len(parts)-1], ".git")
	owner := "local"
	if len(parts) > 1 {
		owner = parts[len(parts)-2]
		if i := strings.LastIndex(owner, ":"); i >= 0 {
			owner = owner[i+1:]
		}
	}
	return owner + "-" + name + "-" + short(commit)
}

func short(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

// ensureRepo returns a cached checkout of repoURL at commit,
// cloning it when the cache is missing or holds another commit.
// The cache entry is locked while it is verified or rebuilt.
func (l *Loader) ensureRepo(ctx context.Context, repoURL, commit string) (string, error) {
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create repo cache")
	}
	key := CacheKey(repoURL, commit)
	repoDir := filepath.Join(l.cacheDir, key)

	lock := flock.New(filepath.Join(l.cacheDir, key+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", errors.Wrapf(err, "lock cache entry %s", key)
	}
	if !locked {
		return "", errors.Errorf("cache entry %s is locked", key)
	}
	defer lock.Unlock()

	log := l.logger.WithFields(logging.String("repo", repoURL), logging.String("commit", short(commit)))

	if _, err := os.Stat(repoDir); err == nil {
		head := command.RunIn(ctx, repoDir, verifyTimeout, "git", "rev-parse", "HEAD")
		if head.Success && strings.HasPrefix(strings.TrimSpace(head.Stdout), short(commit)) {
			log.Debug("repo_cache_hit")
			return repoDir, nil
		}
		log.Info("repo_cache_stale")
		if err := os.RemoveAll(repoDir); err != nil {
			return "", errors.Wrap(err, "remove stale checkout")
		}
	}

	log.Info("repo_clone_started")
	steps := []struct {
		dir     string
		timeout time.Duration
		args    []string
	}{
		{"", cloneTimeout, []string{"clone", "--depth", "1", repoURL, repoDir}},
		{repoDir, fetchTimeout, []string{"fetch", "--depth", "1", "origin", commit}},
		{repoDir, checkoutTimeout, []string{"checkout", commit}},
	}
	for _, step := range steps {
		if err := l.git(ctx, step.dir, step.timeout, step.args...); err != nil {
			_ = os.RemoveAll(repoDir)
			return "", err
		}
	}
	log.Info("repo_clone_finished")
	return repoDir, nil
}

// git runs one git step, retrying transient failures. A partial
// clone left by a failed attempt is removed before the next one.
func (l *Loader) git(ctx context.Context, dir string, timeout time.Duration, args ...string) error {
	return retry.Do(
		func() error {
			res := command.RunIn(ctx, dir, timeout, "git", args...)
			if res.Success {
				return nil
			}
			err := errors.Errorf("%s: %s", res.Command, strings.TrimSpace(res.Output()))
			if res.NotFound {
				return retry.Unrecoverable(err)
			}
			if args[0] == "clone" {
				_ = os.RemoveAll(args[len(args)-1])
			}
			return err
		},
		retry.Attempts(2),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Warn("git_retry", logging.Int("attempt", int(n)+1), logging.Err(err))
		}),
	)
}
