// pattern: Functional Core

package ignore

import (
	"regexp"
	"strings"
)

// HasGlobMeta reports whether p contains glob metacharacters.
func HasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[")
}

// GlobToRegexp translates a glob into an anchored regular expression.
// "*" stays inside one path segment, "**" crosses separators, "**/" also
// matches zero directories, and "?" matches exactly one character.
func GlobToRegexp(glob string) string {
	runes := []rune(glob)
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					b.WriteString("(?:.*/)?")
				} else {
					b.WriteString(".*")
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString(".")
		case '[':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == ']' {
					end = j
					break
				}
			}
			if end < 0 {
				// Left unbalanced on purpose so compilation reports it.
				b.WriteString("[")
				continue
			}
			class := string(runes[i+1 : end])
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// CompileGlob compiles a glob pattern.
func CompileGlob(glob string) (*regexp.Regexp, error) {
	return regexp.Compile(GlobToRegexp(glob))
}

// Match tests pattern against target. Equal strings always match; glob
// patterns match through their anchored regexp; a plain pattern matches a
// full path by substring. A pattern that fails to compile returns an error
// and never matches.
func Match(pattern, target string, fullPath bool) (bool, error) {
	if pattern == target {
		return true, nil
	}
	if HasGlobMeta(pattern) {
		re, err := CompileGlob(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(target), nil
	}
	if fullPath {
		return strings.Contains(target, pattern), nil
	}
	return false, nil
}
