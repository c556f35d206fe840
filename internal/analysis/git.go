// pattern: Imperative Shell

package analysis

import (
	"bufio"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"projscan/internal/cache"
)

const gitTimeout = 5 * time.Second

// GitInsights collects branch, last commit, working tree changes and extra
// worktrees for the repository at dir. Commands that fail leave their
// fields empty; nil means dir is not a git repository.
func GitInsights(ctx context.Context, dir string, now time.Time) *cache.GitInsights {
	branch, err := git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil
	}

	insights := &cache.GitInsights{
		Branch:      branch,
		CollectedAt: now.UTC(),
	}
	if out, err := git(ctx, dir, "log", "-1", "--format=%h %s%x00%cI"); err == nil {
		insights.LastCommit, insights.LastCommitAt = parseLastCommit(out)
	}
	if out, err := git(ctx, dir, "status", "--porcelain"); err == nil {
		insights.Uncommitted = countLines(out)
	}
	if out, err := git(ctx, dir, "remote"); err == nil {
		insights.DefaultRemote = firstLine(out)
	}
	if out, err := git(ctx, dir, "worktree", "list", "--porcelain"); err == nil {
		insights.Worktrees = parseWorktreeList(out)
	}
	return insights
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// parseLastCommit splits "<hash> <subject>\x00<ISO date>".
func parseLastCommit(out string) (string, time.Time) {
	summary, date, _ := strings.Cut(out, "\x00")
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(date))
	if err != nil {
		return summary, time.Time{}
	}
	return summary, at.UTC()
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// parseWorktreeList parses the porcelain output of `git worktree list`.
// Format:
//
//	worktree /path/to/worktree
//	HEAD abc123
//	branch refs/heads/branch-name
//	<blank line>
//
// The first entry is the main worktree; only additional worktrees are returned.
func parseWorktreeList(output string) []cache.Worktree {
	var worktrees []cache.Worktree
	var current *cache.Worktree
	isFirst := true

	flush := func() {
		if current != nil && !isFirst {
			worktrees = append(worktrees, *current)
		}
		if current != nil {
			isFirst = false
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			path := strings.TrimPrefix(line, "worktree ")
			current = &cache.Worktree{Path: path, Name: filepath.Base(path)}
		case strings.HasPrefix(line, "branch ") && current != nil:
			current.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		case line == "":
			flush()
		}
	}
	flush()

	return worktrees
}
