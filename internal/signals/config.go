// pattern: Functional Core

package signals

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultThreshold is the reference score at which a directory becomes a root.
const DefaultThreshold = 60

// NestedPolicy controls monorepo workspace expansion.
type NestedPolicy string

const (
	NestedNever        NestedPolicy = "never"
	NestedWhenMonorepo NestedPolicy = "when-monorepo"
	NestedAlways       NestedPolicy = "always"
)

// ParseNestedPolicy accepts the config spelling. Empty means when-monorepo.
func ParseNestedPolicy(s string) (NestedPolicy, error) {
	switch NestedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NestedWhenMonorepo:
		return NestedWhenMonorepo, nil
	case NestedNever:
		return NestedNever, nil
	case NestedAlways:
		return NestedAlways, nil
	default:
		return "", fmt.Errorf("unknown nested package policy %q (want never, when-monorepo or always)", s)
	}
}

// Weights are the scoring policy. Only their relative order is a contract.
// Manifest and monorepo marker dominate and lockfiles come second. VCS next
// to a manifest is a large bonus, at least the moderate VCS-alone and docs
// bonuses. Layout hints are small and a noise-only layout is negative.
type Weights struct {
	Manifest        int
	Lockfile        int
	MonorepoMarker  int
	VCSWithManifest int
	VCSAlone        int
	DocsFirst       int
	SourceLayout    int
	CodeFiles       int
	NoiseOnly       int
}

func DefaultWeights() Weights {
	return Weights{
		Manifest:        60,
		Lockfile:        50,
		MonorepoMarker:  60,
		VCSWithManifest: 50,
		VCSAlone:        40,
		DocsFirst:       40,
		SourceLayout:    15,
		CodeFiles:       15,
		NoiseOnly:       -30,
	}
}

// Config lists what the scorer recognizes. Name lists accept exact names or
// filepath.Match patterns such as "*.csproj".
type Config struct {
	Manifests       []string
	Lockfiles       []string
	MonorepoMarkers []string
	CodeExtensions  []string
	Indicators      []string
	NoiseDirs       []string
	SourceDirs      []string
	MinCodeFiles    int
	LockfilesStrong bool
	StopAtVCSRoot   bool
	Threshold       int
	NestedPackages  NestedPolicy
	Weights         Weights
}

func DefaultConfig() Config {
	return Config{
		Manifests: []string{
			"package.json", "go.mod", "Cargo.toml", "pyproject.toml", "setup.py",
			"Gemfile", "composer.json", "pom.xml", "build.gradle", "build.gradle.kts",
			"mix.exs", "pubspec.yaml", "deno.json", "Package.swift", "build.sbt",
			"project.clj", "stack.yaml", "*.csproj", "*.sln", "*.cabal", "*.gemspec",
		},
		Lockfiles: []string{
			"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "bun.lockb", "go.sum",
			"Cargo.lock", "poetry.lock", "Pipfile.lock", "uv.lock", "Gemfile.lock",
			"composer.lock", "mix.lock", "pubspec.lock",
		},
		MonorepoMarkers: []string{
			"pnpm-workspace.yaml", "lerna.json", "nx.json", "turbo.json", "rush.json", "go.work",
		},
		CodeExtensions: []string{
			".go", ".js", ".mjs", ".cjs", ".ts", ".tsx", ".jsx", ".py", ".rs", ".rb",
			".java", ".kt", ".swift", ".c", ".cc", ".cpp", ".h", ".hpp", ".cs", ".php",
			".ex", ".exs", ".dart", ".scala", ".lua", ".sh", ".zig", ".hs", ".ml", ".clj",
		},
		Indicators: []string{
			"Makefile", "CMakeLists.txt", "Dockerfile", "docker-compose.yml", "compose.yaml",
			"Justfile", "Taskfile.yml", "meson.build", "flake.nix", "requirements.txt",
		},
		NoiseDirs: []string{
			"node_modules", "dist", "build", "target", "out", "vendor", ".venv", "venv",
			"__pycache__", ".cache", "coverage", "examples", "example", "fixtures",
			"testdata", ".next", ".turbo",
		},
		SourceDirs:      []string{"src", "app", "lib", "pkg", "cmd", "internal", "test", "tests"},
		MinCodeFiles:    3,
		LockfilesStrong: true,
		StopAtVCSRoot:   true,
		Threshold:       DefaultThreshold,
		NestedPackages:  NestedWhenMonorepo,
		Weights:         DefaultWeights(),
	}
}

// nameSet matches entry names against exact names and glob patterns.
type nameSet struct {
	exact map[string]bool
	globs []string
}

func newNameSet(names []string) nameSet {
	s := nameSet{exact: make(map[string]bool, len(names))}
	for _, n := range names {
		if strings.ContainsAny(n, "*?[") {
			s.globs = append(s.globs, n)
		} else {
			s.exact[n] = true
		}
	}
	return s
}

func (s nameSet) has(name string) bool {
	if s.exact[name] {
		return true
	}
	for _, g := range s.globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// compiled is a Config with its name lists turned into lookup sets.
type compiled struct {
	cfg        Config
	manifests  nameSet
	lockfiles  nameSet
	markers    nameSet
	indicators nameSet
	noise      nameSet
	sourceDirs nameSet
	codeExts   map[string]bool
}

func compile(cfg Config) *compiled {
	exts := make(map[string]bool, len(cfg.CodeExtensions))
	for _, e := range cfg.CodeExtensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &compiled{
		cfg:        cfg,
		manifests:  newNameSet(cfg.Manifests),
		lockfiles:  newNameSet(cfg.Lockfiles),
		markers:    newNameSet(cfg.MonorepoMarkers),
		indicators: newNameSet(cfg.Indicators),
		noise:      newNameSet(cfg.NoiseDirs),
		sourceDirs: newNameSet(cfg.SourceDirs),
		codeExts:   exts,
	}
}

func (c *compiled) isCode(name string) bool {
	return c.codeExts[strings.ToLower(filepath.Ext(name))]
}
