// pattern: Functional Core

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DefaultTTL is how long a record stays valid when nothing on disk changed.
const DefaultTTL = 24 * time.Hour

// Record is the cached analysis of one project root.
type Record struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	DirModTime time.Time `json:"dir_mod_time"`
	CachedAt   time.Time `json:"cached_at"`
	Payload    Payload   `json:"payload"`
}

// Payload is what analysis computed for the project.
type Payload struct {
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Description   string         `json:"description,omitempty"`
	LastActivity  time.Time      `json:"last_activity"`
	TrackingFiles []TrackingFile `json:"tracking_files,omitempty"`
	Languages     []string       `json:"languages,omitempty"`
	HasVCS        bool           `json:"has_vcs"`
	GitInsights   *GitInsights   `json:"git_insights,omitempty"`
}

// TrackingFile is a planning or status file the record depends on.
type TrackingFile struct {
	Path    string    `json:"path"`
	Type    string    `json:"type"`
	ModTime time.Time `json:"mod_time"`
}

// GitInsights is a snapshot of repository metadata.
type GitInsights struct {
	Branch        string     `json:"branch,omitempty"`
	LastCommit    string     `json:"last_commit,omitempty"`
	LastCommitAt  time.Time  `json:"last_commit_at,omitempty"`
	Worktrees     []Worktree `json:"worktrees,omitempty"`
	CollectedAt   time.Time  `json:"collected_at"`
	Uncommitted   int        `json:"uncommitted"`
	DefaultRemote string     `json:"default_remote,omitempty"`
}

// Worktree is an additional git worktree of a project.
type Worktree struct {
	Name   string `json:"name"`   // Branch name or worktree directory name
	Path   string `json:"path"`   // Absolute path to the worktree directory
	Branch string `json:"branch"` // Git branch name
}

// Stale reports whether the insights are older than maxAge at now.
func (g *GitInsights) Stale(now time.Time, maxAge time.Duration) bool {
	return g == nil || now.Sub(g.CollectedAt) > maxAge
}

// Stats counts lookups made through one Manager.
type Stats struct {
	Hits          int
	Misses        int
	Invalidations int
}

// HitRate returns hits as a fraction of all lookups, or 0 without lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Outcome reports what a best-effort write did. Err explains a write that
// did not happen; callers log it and carry on.
type Outcome struct {
	Stored bool
	Err    error
}

const maxNameLen = 40

// FileName returns the cache file name for a project path: a readable
// prefix from the basename plus a hash of the full path.
func FileName(projectPath string) string {
	sum := sha256.Sum256([]byte(projectPath))
	return sanitize(baseName(projectPath)) + "-" + hex.EncodeToString(sum[:])[:16] + ".json"
}

func baseName(path string) string {
	path = strings.TrimRight(path, "/\\")
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxNameLen {
			break
		}
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}
