// pattern: Imperative Shell

package discovery

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"projscan/internal/ignore"
)

// expandWorkspace visits the packages a monorepo root declares. Targets may
// sit below the root, so they skip the inside-a-root check; every other
// rule still applies, with ignore rules inherited along the path.
func (st *scanState) expandWorkspace(ctx context.Context, root string, depth int, ictx *ignore.Context, globs []string) []ProjectRoot {
	targets := st.resolveWorkspace(root, globs)
	if len(targets) == 0 {
		return nil
	}
	st.logger.Debug("expanding workspace", "root", root, "globs", globs, "targets", len(targets))

	rootCtx := ictx.Child(root, st.matcher.DirRules(root))
	ctxFor := func(target string) *ignore.Context {
		return st.chainTo(rootCtx, root, filepath.Dir(target))
	}

	// Targets at different depths are visited one group per depth.
	byDepth := make(map[int][]string)
	var depths []int
	for _, t := range targets {
		d := depth + segments(root, t)
		if _, ok := byDepth[d]; !ok {
			depths = append(depths, d)
		}
		byDepth[d] = append(byDepth[d], t)
	}

	var roots []ProjectRoot
	for _, d := range depths {
		roots = append(roots, st.visitAll(ctx, byDepth[d], d, ctxFor, true)...)
	}
	return roots
}

// chainTo extends rootCtx with one link per directory between root and dir.
func (st *scanState) chainTo(rootCtx *ignore.Context, root, dir string) *ignore.Context {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return rootCtx
	}
	c := rootCtx
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		c = c.Child(cur, st.matcher.DirRules(cur))
	}
	return c
}

// resolveWorkspace turns workspace globs into existing directories below
// root, in declaration order. A trailing "/*" or "/**" lists that directory
// one level deep; other globs go through filepath.Glob. Globs starting with
// "!" remove matches. Targets outside root are dropped.
func (st *scanState) resolveWorkspace(root string, globs []string) []string {
	var include, exclude []string
	for _, g := range globs {
		if strings.HasPrefix(g, "!") {
			exclude = append(exclude, strings.TrimPrefix(g, "!"))
		} else {
			include = append(include, g)
		}
	}

	var targets []string
	seen := make(map[string]bool)
	for _, g := range include {
		for _, t := range st.expandGlob(root, g) {
			rel, err := filepath.Rel(root, t)
			if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				st.logger.Debug("workspace target outside root", "root", root, "target", t)
				continue
			}
			if seen[t] || excluded(filepath.ToSlash(rel), exclude) {
				continue
			}
			seen[t] = true
			targets = append(targets, t)
		}
	}
	return targets
}

func (st *scanState) expandGlob(root, glob string) []string {
	prefix, oneLevel := strings.CutSuffix(glob, "/**")
	if !oneLevel {
		prefix, oneLevel = strings.CutSuffix(glob, "/*")
	}
	if oneLevel && !ignore.HasGlobMeta(prefix) {
		return listSubdirs(filepath.Join(root, filepath.FromSlash(prefix)))
	}

	if !ignore.HasGlobMeta(glob) {
		target := filepath.Join(root, filepath.FromSlash(glob))
		if isDir(target) {
			return []string{target}
		}
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(glob)))
	if err != nil {
		st.logger.Warn("invalid workspace glob", "root", root, "glob", glob, "error", err)
		return nil
	}
	var dirs []string
	for _, m := range matches {
		if isDir(m) {
			dirs = append(dirs, m)
		}
	}
	return dirs
}

func listSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() || (e.Type()&os.ModeSymlink != 0 && isDir(path)) {
			dirs = append(dirs, path)
		}
	}
	return dirs
}

func excluded(rel string, patterns []string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		if !ignore.HasGlobMeta(p) {
			return p == rel
		}
		ok, err := ignore.Match(p, rel, false)
		return err == nil && ok
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func segments(root, target string) int {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return 1
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}
