// pattern: Functional Core

package discovery

import (
	"errors"
	"time"

	"projscan/internal/ignore"
	"projscan/internal/signals"
)

// DefaultFanOut is how many child directories of one directory are
// traversed at once.
const DefaultFanOut = 5

var (
	// ErrNotExist is returned when the base directory does not exist.
	ErrNotExist = errors.New("base directory does not exist")
	// ErrNotDirectory is returned when the base path is not a directory.
	ErrNotDirectory = errors.New("base path is not a directory")
)

// UnknownType is the project type before analysis classifies the root.
const UnknownType = "unknown"

// ProjectRoot is a directory the scanner decided is a project.
type ProjectRoot struct {
	Name      string    // Directory basename (used as display name)
	Path      string    // Symlink-resolved absolute path
	Files     []string  // Names of the root's immediate files
	ModTime   time.Time // Directory modification time at scan
	Type      string    // Project type, UnknownType until analyzed
	Languages []string  // Filled in by analysis
	Score     int       // Root score; zero for light-check roots
	Workspace bool      // Found through monorepo workspace expansion
}

// Diagnostic records a subtree the scan skipped because of an error.
type Diagnostic struct {
	Path    string
	Message string
	Err     error
}

// Result is the outcome of one scan.
type Result struct {
	ScanID      string
	Base        string
	Roots       []ProjectRoot // traversal order
	Diagnostics []Diagnostic
	Visited     int
}

// Options configures one scan.
type Options struct {
	MaxDepth     int
	LegacyIgnore []string // extra directory basenames to skip
	Signals      signals.Config
	Ignore       ignore.Config
	DenyPaths    []string // substrings of resolved paths that are never entered
	FanOut       int
}

// DefaultOptions returns options with every component at its defaults.
func DefaultOptions() Options {
	return Options{
		MaxDepth: 5,
		Signals:  signals.DefaultConfig(),
		Ignore:   ignore.DefaultConfig(),
		FanOut:   DefaultFanOut,
	}
}
