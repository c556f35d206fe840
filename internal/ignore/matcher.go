// pattern: Imperative Shell

package ignore

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"projscan/internal/logging"
)

// DefaultIgnoreFileName is the per-directory ignore-file read during scans.
const DefaultIgnoreFileName = ".projscanignore"

const patternCacheSize = 512

// Config holds the global ignore settings.
type Config struct {
	Patterns       []string // globs tested against basename and full path
	Directories    []string // directory basenames that are never entered
	Projects       []string // project-name patterns applied to results only
	UseIgnoreFiles bool
	IgnoreFileName string
}

func DefaultConfig() Config {
	return Config{
		Directories: []string{
			"node_modules", ".git", ".hg", ".svn", "vendor", ".venv", "venv",
			"__pycache__", ".cache", ".Trash", ".npm", ".cargo", ".rustup",
		},
		UseIgnoreFiles: true,
		IgnoreFileName: DefaultIgnoreFileName,
	}
}

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// Matcher decides which directories and projects are excluded. A Matcher
// belongs to one scan: every ignore-file it reads stays cached until the
// scan ends, however many directories the scan visits.
type Matcher struct {
	cfg      Config
	global   []Rule
	filesMu  sync.Mutex
	files    map[string][]Rule
	patterns *lru.Cache[string, compiledPattern]
	warned   sync.Map
	logger   *logging.ScopedLogger
}

// NewMatcher builds a matcher from configuration plus legacy directory
// basenames (command-line ignores), which are evaluated first.
func NewMatcher(cfg Config, legacy []string, logger *logging.ScopedLogger) *Matcher {
	if cfg.IgnoreFileName == "" {
		cfg.IgnoreFileName = DefaultIgnoreFileName
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	patterns, _ := lru.New[string, compiledPattern](patternCacheSize)
	return &Matcher{
		cfg:      cfg,
		global:   globalRules(cfg, legacy),
		files:    make(map[string][]Rule),
		patterns: patterns,
		logger:   logger,
	}
}

// ShouldIgnoreDirectory reports whether the scanner must skip path. Rules are
// evaluated as: the inherited chain from ctx (outermost first), the
// ignore-file inside path itself, then global rules. Every matching rule
// overwrites the decision, so the last match wins.
func (m *Matcher) ShouldIgnoreDirectory(path, basename string, ctx *Context) bool {
	path = filepath.ToSlash(path)
	ignored := false
	apply := func(rules []Rule) {
		for _, r := range rules {
			if r.Kind == ProjectName {
				continue
			}
			if m.dirRuleMatches(r, path, basename) {
				ignored = !r.Negate
			}
		}
	}

	apply(ctx.Rules())
	if m.cfg.UseIgnoreFiles {
		apply(m.DirRules(filepath.FromSlash(path)))
	}
	apply(m.global)
	return ignored
}

// ShouldIgnoreProject filters a discovered project. Only global patterns
// apply; each is tested against the project name and its full path.
func (m *Matcher) ShouldIgnoreProject(name, path string) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, r := range m.global {
		if r.Kind == Basename {
			continue
		}
		if m.match(r.Pattern, name, false) || m.match(r.Pattern, path, true) {
			ignored = !r.Negate
		}
	}
	return ignored
}

// DirRules returns the rules declared by dir's ignore-file, reading it at
// most once per scan. Missing or unreadable files yield no rules.
func (m *Matcher) DirRules(dir string) []Rule {
	if !m.cfg.UseIgnoreFiles {
		return nil
	}
	file := filepath.Join(dir, m.cfg.IgnoreFileName)
	m.filesMu.Lock()
	rules, ok := m.files[file]
	m.filesMu.Unlock()
	if ok {
		return rules
	}

	rules = m.readIgnoreFile(file)
	m.filesMu.Lock()
	m.files[file] = rules
	m.filesMu.Unlock()
	return rules
}

func (m *Matcher) readIgnoreFile(file string) []Rule {
	f, err := os.Open(file)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Debug("ignore file unreadable", "file", file, "error", err)
		}
		return nil
	}
	defer f.Close()

	rules, err := ParseIgnoreFile(f, file)
	if err != nil {
		m.logger.Warn("ignore file partially read", "file", file, "error", err)
	}
	return rules
}

func (m *Matcher) dirRuleMatches(r Rule, path, basename string) bool {
	switch r.Kind {
	case Basename:
		return m.match(r.Pattern, basename, false)
	case Glob:
		if r.IsGlobal() {
			return m.match(r.Pattern, basename, false) || m.match(r.Pattern, path, true)
		}
		rel := relativeTo(r.Base(), path)
		if strings.HasPrefix(r.Pattern, "/") {
			return rel != "" && m.match(strings.TrimPrefix(r.Pattern, "/"), rel, false)
		}
		if rel != "" && m.match(r.Pattern, rel, true) {
			return true
		}
		return m.match(r.Pattern, path, true)
	default:
		return false
	}
}

// match wraps Match with a compiled-pattern cache and warns once per broken
// pattern. Broken patterns never match.
func (m *Matcher) match(pattern, target string, fullPath bool) bool {
	if pattern == target {
		return true
	}
	if !HasGlobMeta(pattern) {
		return fullPath && strings.Contains(target, pattern)
	}

	cp, ok := m.patterns.Get(pattern)
	if !ok {
		re, err := CompileGlob(pattern)
		cp = compiledPattern{re: re, err: err}
		m.patterns.Add(pattern, cp)
	}
	if cp.err != nil {
		if _, seen := m.warned.LoadOrStore(pattern, struct{}{}); !seen {
			m.logger.Warn("invalid ignore pattern", "pattern", pattern, "error", cp.err)
		}
		return false
	}
	return cp.re.MatchString(target)
}

func relativeTo(base, path string) string {
	if base == "" {
		return ""
	}
	rel, err := filepath.Rel(base, filepath.FromSlash(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}
