// pattern: Functional Core

package analysis

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// typeRules map root files to a project type, most specific first.
var typeRules = []struct {
	files []string
	typ   string
}{
	{[]string{"pnpm-workspace.yaml", "lerna.json", "nx.json", "turbo.json", "rush.json", "go.work"}, "monorepo"},
	{[]string{"deno.json", "deno.jsonc"}, "deno"},
	{[]string{"package.json"}, "node"},
	{[]string{"go.mod"}, "go"},
	{[]string{"Cargo.toml"}, "rust"},
	{[]string{"pyproject.toml", "setup.py", "requirements.txt", "Pipfile"}, "python"},
	{[]string{"Gemfile", "*.gemspec"}, "ruby"},
	{[]string{"composer.json"}, "php"},
	{[]string{"pom.xml", "build.gradle", "build.gradle.kts", "build.sbt"}, "jvm"},
	{[]string{"mix.exs"}, "elixir"},
	{[]string{"pubspec.yaml"}, "dart"},
	{[]string{"Package.swift"}, "swift"},
	{[]string{"*.csproj", "*.sln"}, "dotnet"},
	{[]string{"stack.yaml", "*.cabal"}, "haskell"},
	{[]string{"project.clj", "deps.edn"}, "clojure"},
	{[]string{"CMakeLists.txt", "meson.build"}, "c/c++"},
	{[]string{"Dockerfile", "docker-compose.yml", "compose.yaml"}, "container"},
	{[]string{"Makefile", "Justfile"}, "make"},
}

// DetectType classifies a root by the files at its top level. Roots without
// a recognized file but with markdown docs are "docs"; otherwise "unknown".
func DetectType(files []string) string {
	for _, rule := range typeRules {
		for _, name := range files {
			if matchesAny(rule.files, name) {
				return rule.typ
			}
		}
	}
	for _, name := range files {
		if strings.EqualFold(filepath.Ext(name), ".md") && !strings.EqualFold(name, "README.md") {
			return "docs"
		}
	}
	return "unknown"
}

func matchesAny(patterns []string, name string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		if p == name {
			return true
		}
		ok, _ := filepath.Match(p, name)
		return ok && strings.Contains(p, "*")
	})
}

var languageByExt = map[string]string{
	".go":     "Go",
	".js":     "JavaScript",
	".mjs":    "JavaScript",
	".cjs":    "JavaScript",
	".jsx":    "JavaScript",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".py":     "Python",
	".rs":     "Rust",
	".rb":     "Ruby",
	".java":   "Java",
	".kt":     "Kotlin",
	".swift":  "Swift",
	".c":      "C",
	".h":      "C",
	".cc":     "C++",
	".cpp":    "C++",
	".hpp":    "C++",
	".cs":     "C#",
	".php":    "PHP",
	".ex":     "Elixir",
	".exs":    "Elixir",
	".dart":   "Dart",
	".scala":  "Scala",
	".lua":    "Lua",
	".sh":     "Shell",
	".zig":    "Zig",
	".hs":     "Haskell",
	".ml":     "OCaml",
	".clj":    "Clojure",
	".vue":    "Vue",
	".svelte": "Svelte",
}

// RankLanguages turns per-extension file counts into language names, most
// files first, ties by name.
func RankLanguages(extCounts map[string]int) []string {
	counts := make(map[string]int)
	for ext, n := range extCounts {
		if lang, ok := languageByExt[strings.ToLower(ext)]; ok {
			counts[lang] += n
		}
	}
	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	return langs
}

const (
	StatusActive = "active"
	StatusRecent = "recent"
	StatusStale  = "stale"
)

const (
	activeWindow = 14 * 24 * time.Hour
	recentWindow = 90 * 24 * time.Hour
)

// StatusFor classifies a project by the time since its last activity.
func StatusFor(lastActivity, now time.Time) string {
	age := now.Sub(lastActivity)
	switch {
	case lastActivity.IsZero():
		return StatusStale
	case age <= activeWindow:
		return StatusActive
	case age <= recentWindow:
		return StatusRecent
	default:
		return StatusStale
	}
}

// trackingTypes maps tracking-file names (lowercased) to their kind.
var trackingTypes = map[string]string{
	"todo.md":      "todo",
	".todo":        "todo",
	"todo.txt":     "todo",
	"roadmap.md":   "roadmap",
	"changelog.md": "changelog",
	"progress.md":  "progress",
	"status.md":    "status",
	"tasks.md":     "todo",
}

// TrackingType returns the kind of a tracking file, or "" for other files.
func TrackingType(name string) string {
	return trackingTypes[strings.ToLower(name)]
}
