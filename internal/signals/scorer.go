// pattern: Imperative Shell

package signals

import (
	"os"
	"path/filepath"

	"projscan/internal/logging"
)

// Scorer reads directories and scores them with one compiled Config.
// It is safe for concurrent use.
type Scorer struct {
	c      *compiled
	logger *logging.ScopedLogger
}

func NewScorer(cfg Config, logger *logging.ScopedLogger) *Scorer {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.NestedPackages == "" {
		cfg.NestedPackages = NestedWhenMonorepo
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scorer{c: compile(cfg), logger: logger}
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config {
	return s.c.cfg
}

// ReadDirNode lists dir without recursing.
func ReadDirNode(dir string, depth int) (DirNode, error) {
	node := DirNode{Path: dir, Depth: depth}
	info, err := os.Stat(dir)
	if err != nil {
		return node, err
	}
	node.ModTime = info.ModTime()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return node, err
	}
	node.Entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			// Classify symlinks by their target; dangling links are files.
			if fi, err := os.Stat(filepath.Join(dir, e.Name())); err == nil {
				isDir = fi.IsDir()
			}
		}
		node.Entries = append(node.Entries, Entry{Name: e.Name(), IsDir: isDir})
	}
	return node, nil
}

// Inspect lists dir and derives its signals. Any filesystem error yields an
// empty node and empty signals: the weakest possible candidate.
func (s *Scorer) Inspect(dir string, depth int) (DirNode, Signals) {
	node, err := ReadDirNode(dir, depth)
	if err != nil {
		s.logger.Debug("directory unreadable", "path", dir, "error", err)
		return DirNode{Path: dir, Depth: depth}, Signals{}
	}
	return node, s.Derive(node)
}

// Derive computes the signals of a listing already read by the caller.
func (s *Scorer) Derive(node DirNode) Signals {
	return derive(node, s.docsHaveMarkdown(node), s.c)
}

// Collect returns only the signals for dir.
func (s *Scorer) Collect(dir string) Signals {
	_, sig := s.Inspect(dir, 0)
	return sig
}

// Score scores signals with the scorer's weights.
func (s *Scorer) Score(sig Signals) int {
	return Score(sig, s.c.cfg)
}

// IsRoot applies the scorer's threshold.
func (s *Scorer) IsRoot(score int) bool {
	return IsRoot(score, s.c.cfg)
}

// LooksLikeProject runs the light check against a listing.
func (s *Scorer) LooksLikeProject(node DirNode) bool {
	return looksLikeProject(node, s.c)
}

func (s *Scorer) docsHaveMarkdown(node DirNode) bool {
	hasDocs := false
	for _, e := range node.Entries {
		if e.IsDir && e.Name == "docs" {
			hasDocs = true
			break
		}
	}
	if !hasDocs {
		return false
	}
	entries, err := os.ReadDir(filepath.Join(node.Path, "docs"))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isMarkdown(e.Name()) {
			return true
		}
	}
	return false
}
