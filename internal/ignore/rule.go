// pattern: Functional Core

package ignore

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
)

// RuleKind says which target a rule is tested against.
type RuleKind int

const (
	// Basename rules match a directory's own name.
	Basename RuleKind = iota
	// Glob rules match full paths (and, for ignore-file rules, paths relative
	// to the ignore-file's directory).
	Glob
	// ProjectName rules only filter discovered projects.
	ProjectName
)

func (k RuleKind) String() string {
	switch k {
	case Basename:
		return "basename"
	case Glob:
		return "glob"
	case ProjectName:
		return "project"
	default:
		return "unknown"
	}
}

// GlobalSource marks rules that come from configuration rather than an ignore-file.
const GlobalSource = "config"

// Rule is one ignore instruction. Rules are evaluated in order and the last
// matching rule decides, so a negated rule only un-ignores when it comes last.
type Rule struct {
	Pattern string
	Kind    RuleKind
	Negate  bool
	Source  string // GlobalSource or the ignore-file path
}

// Base returns the directory an ignore-file rule is relative to.
func (r Rule) Base() string {
	if r.Source == GlobalSource || r.Source == "" {
		return ""
	}
	return filepath.Dir(r.Source)
}

// IsGlobal reports whether the rule came from configuration.
func (r Rule) IsGlobal() bool {
	return r.Source == GlobalSource
}

// ParseRule parses one ignore-file line. The second return is false for
// blank lines and comments.
func ParseRule(line, source string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false
	}

	rule := Rule{Source: source}
	if strings.HasPrefix(line, "!") {
		rule.Negate = true
		line = strings.TrimSpace(line[1:])
	}
	// "build/" means the directory build; every target here is a directory.
	if len(line) > 1 {
		line = strings.TrimSuffix(line, "/")
	}
	if line == "" {
		return Rule{}, false
	}

	rule.Pattern = line
	if strings.Contains(line, "/") || strings.Contains(line, "**") {
		rule.Kind = Glob
	} else {
		rule.Kind = Basename
	}
	return rule, true
}

// ParseIgnoreFile reads ignore rules, one per line.
func ParseIgnoreFile(r io.Reader, source string) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if rule, ok := ParseRule(scanner.Text(), source); ok {
			rules = append(rules, rule)
		}
	}
	return rules, scanner.Err()
}

// globalRules turns configuration lists into rules in evaluation order:
// directory basenames first, then patterns, then project names.
func globalRules(cfg Config, legacy []string) []Rule {
	rules := make([]Rule, 0, len(legacy)+len(cfg.Directories)+len(cfg.Patterns)+len(cfg.Projects))
	for _, name := range legacy {
		if name = strings.TrimSpace(name); name != "" {
			rules = append(rules, Rule{Pattern: name, Kind: Basename, Source: GlobalSource})
		}
	}
	for _, name := range cfg.Directories {
		if name = strings.TrimSpace(name); name != "" {
			rules = append(rules, Rule{Pattern: name, Kind: Basename, Source: GlobalSource})
		}
	}
	for _, p := range cfg.Patterns {
		rules = appendPatternRule(rules, p, Glob)
	}
	for _, p := range cfg.Projects {
		rules = appendPatternRule(rules, p, ProjectName)
	}
	return rules
}

func appendPatternRule(rules []Rule, p string, kind RuleKind) []Rule {
	p = strings.TrimSpace(p)
	negate := strings.HasPrefix(p, "!")
	if negate {
		p = strings.TrimSpace(p[1:])
	}
	if p == "" {
		return rules
	}
	return append(rules, Rule{Pattern: p, Kind: kind, Negate: negate, Source: GlobalSource})
}
