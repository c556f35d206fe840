// pattern: Imperative Shell

package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// WorkspaceGlobs returns the package globs a monorepo root declares, in
// declaration order without duplicates. Globs starting with "!" exclude.
// A declaration that cannot be read or parsed is logged and skipped.
func (s *Scorer) WorkspaceGlobs(dir string, sig Signals) []string {
	policy := s.c.cfg.NestedPackages
	switch {
	case policy == NestedNever:
		return nil
	case policy == NestedWhenMonorepo && len(sig.MonorepoMarkers) == 0:
		return nil
	}

	var globs []string
	add := func(file string, parse func([]byte) ([]string, error)) {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("workspace declaration unreadable", "file", path, "error", err)
			return
		}
		found, err := parse(data)
		if err != nil {
			s.logger.Warn("workspace declaration malformed", "file", path, "error", err)
			return
		}
		globs = append(globs, found...)
	}

	for _, marker := range sig.MonorepoMarkers {
		switch marker {
		case "pnpm-workspace.yaml":
			add(marker, parsePnpmWorkspace)
		case "lerna.json":
			add(marker, parseLerna)
		case "rush.json":
			add(marker, parseRush)
		case "go.work":
			add(marker, func(data []byte) ([]string, error) {
				return parseGoWork(filepath.Join(dir, marker), data)
			})
		}
	}
	if slices.Contains(sig.Manifests, "package.json") {
		add("package.json", parsePackageJSONWorkspaces)
	}
	if slices.Contains(sig.Manifests, "Cargo.toml") {
		add("Cargo.toml", parseCargoWorkspace)
	}

	return normalizeGlobs(globs)
}

func parsePnpmWorkspace(data []byte) ([]string, error) {
	var ws struct {
		Packages []string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}
	return ws.Packages, nil
}

func parseLerna(data []byte) ([]string, error) {
	var lerna struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &lerna); err != nil {
		return nil, err
	}
	return lerna.Packages, nil
}

func parseRush(data []byte) ([]string, error) {
	var rush struct {
		Projects []struct {
			ProjectFolder string `json:"projectFolder"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(data, &rush); err != nil {
		return nil, err
	}
	folders := make([]string, 0, len(rush.Projects))
	for _, p := range rush.Projects {
		folders = append(folders, p.ProjectFolder)
	}
	return folders, nil
}

func parseGoWork(path string, data []byte) ([]string, error) {
	work, err := modfile.ParseWork(path, data, nil)
	if err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(work.Use))
	for _, use := range work.Use {
		dirs = append(dirs, use.Path)
	}
	return dirs, nil
}

// parsePackageJSONWorkspaces accepts both the array form and the
// {"packages": [...]} object form of the workspaces field. A manifest
// without the field declares nothing.
func parsePackageJSONWorkspaces(data []byte) ([]string, error) {
	var pkg struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	if len(pkg.Workspaces) == 0 || string(pkg.Workspaces) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(pkg.Workspaces, &list); err == nil {
		return list, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(pkg.Workspaces, &obj); err != nil {
		return nil, fmt.Errorf("workspaces field: %w", err)
	}
	return obj.Packages, nil
}

func parseCargoWorkspace(data []byte) ([]string, error) {
	var cargo struct {
		Workspace struct {
			Members []string `toml:"members"`
			Exclude []string `toml:"exclude"`
		} `toml:"workspace"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, err
	}
	globs := append([]string{}, cargo.Workspace.Members...)
	for _, ex := range cargo.Workspace.Exclude {
		globs = append(globs, "!"+ex)
	}
	return globs, nil
}

func normalizeGlobs(globs []string) []string {
	seen := make(map[string]bool, len(globs))
	out := make([]string, 0, len(globs))
	for _, g := range globs {
		g = strings.TrimSpace(g)
		negate := strings.HasPrefix(g, "!")
		g = strings.TrimPrefix(g, "!")
		g = strings.TrimPrefix(filepath.ToSlash(g), "./")
		if len(g) > 1 {
			g = strings.TrimSuffix(g, "/")
		}
		if g == "" || g == "." {
			continue
		}
		if negate {
			g = "!" + g
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
