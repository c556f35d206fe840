// pattern: Functional Core

package signals

import (
	"strings"
	"time"
)

var vcsMarkers = map[string]bool{".git": true, ".hg": true, ".svn": true}

// Entry is one immediate child of a directory.
type Entry struct {
	Name  string
	IsDir bool
}

// DirNode is a directory as seen by a single listing.
type DirNode struct {
	Path    string
	Depth   int
	ModTime time.Time
	Entries []Entry
}

// Files returns the names of the node's immediate files.
func (n DirNode) Files() []string {
	var files []string
	for _, e := range n.Entries {
		if !e.IsDir {
			files = append(files, e.Name)
		}
	}
	return files
}

// Subdirs returns the names of the node's immediate subdirectories.
func (n DirNode) Subdirs() []string {
	var dirs []string
	for _, e := range n.Entries {
		if e.IsDir {
			dirs = append(dirs, e.Name)
		}
	}
	return dirs
}

// Signals is the evidence one directory listing gives for being a root.
type Signals struct {
	Manifests       []string
	Lockfiles       []string
	MonorepoMarkers []string
	HasVCS          bool
	DocsFirst       bool // a docs directory holding markdown
	SourceDirs      []string
	CodeFiles       int
	NoiseOnly       bool // every subdirectory is build output, deps or examples
}

// Empty reports whether no evidence at all was found.
func (s Signals) Empty() bool {
	return len(s.Manifests) == 0 && len(s.Lockfiles) == 0 && len(s.MonorepoMarkers) == 0 &&
		!s.HasVCS && !s.DocsFirst && len(s.SourceDirs) == 0 && s.CodeFiles == 0
}

// Derive computes signals from a listing. docsMarkdown says whether the
// node's docs directory holds markdown; it needs a second listing, so the
// caller supplies it.
func Derive(node DirNode, docsMarkdown bool, cfg Config) Signals {
	return derive(node, docsMarkdown, compile(cfg))
}

func derive(node DirNode, docsMarkdown bool, c *compiled) Signals {
	var s Signals
	subdirs, noisy := 0, 0

	for _, e := range node.Entries {
		if vcsMarkers[e.Name] {
			// .git is a file inside worktrees and submodules.
			s.HasVCS = true
			continue
		}
		if e.IsDir {
			subdirs++
			if c.noise.has(e.Name) {
				noisy++
			}
			if c.sourceDirs.has(e.Name) {
				s.SourceDirs = append(s.SourceDirs, e.Name)
			}
			if e.Name == "docs" && docsMarkdown {
				s.DocsFirst = true
			}
			continue
		}
		switch {
		case c.manifests.has(e.Name):
			s.Manifests = append(s.Manifests, e.Name)
		case c.lockfiles.has(e.Name):
			s.Lockfiles = append(s.Lockfiles, e.Name)
		}
		if c.markers.has(e.Name) {
			s.MonorepoMarkers = append(s.MonorepoMarkers, e.Name)
		}
		if c.isCode(e.Name) {
			s.CodeFiles++
		}
	}

	s.NoiseOnly = subdirs > 0 && noisy == subdirs
	return s
}

// Score is the weighted sum of the signals. Each positive signal only ever
// adds, so gaining a manifest never lowers a score.
func Score(s Signals, cfg Config) int {
	w := cfg.Weights
	score := 0

	hasManifest := len(s.Manifests) > 0
	if hasManifest {
		score += w.Manifest
	}
	if cfg.LockfilesStrong && len(s.Lockfiles) > 0 {
		score += w.Lockfile
	}
	if len(s.MonorepoMarkers) > 0 {
		score += w.MonorepoMarker
	}
	if s.HasVCS {
		switch {
		case hasManifest:
			score += w.VCSWithManifest
		case cfg.StopAtVCSRoot:
			score += w.VCSAlone
		}
	}
	if s.DocsFirst {
		score += w.DocsFirst
	}
	if len(s.SourceDirs) > 0 {
		score += w.SourceLayout
	}
	if cfg.MinCodeFiles > 0 && s.CodeFiles >= cfg.MinCodeFiles {
		score += w.CodeFiles
	}
	if s.NoiseOnly {
		score += w.NoiseOnly
	}
	return score
}

// IsRoot applies the configured threshold.
func IsRoot(score int, cfg Config) bool {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return score >= threshold
}

// LooksLikeProject is the light check used when the weighted score falls
// short: a strong single-file indicator or any recognized code file.
func LooksLikeProject(node DirNode, cfg Config) bool {
	return looksLikeProject(node, compile(cfg))
}

func looksLikeProject(node DirNode, c *compiled) bool {
	for _, e := range node.Entries {
		if e.IsDir {
			continue
		}
		if c.indicators.has(e.Name) || c.manifests.has(e.Name) || c.isCode(e.Name) {
			return true
		}
	}
	return false
}

func isMarkdown(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx") || strings.HasSuffix(lower, ".markdown")
}
