package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"projscan/internal/logging"
	"projscan/internal/signals"
)

// tree creates files below root. Keys ending in "/" are directories.
func tree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// newBase returns a symlink-resolved temp dir so paths compare equal to
// the scanner's output.
func newBase(t *testing.T) string {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return base
}

func scan(t *testing.T, base string, opts Options) *Result {
	t.Helper()
	res, err := NewScanner(nil).Scan(context.Background(), base, opts)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return res
}

func rootPaths(base string, res *Result) []string {
	var paths []string
	for _, r := range res.Roots {
		rel, _ := filepath.Rel(base, r.Path)
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths
}

func TestScan_AppScenario(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"app/package.json":     `{"name": "app"}`,
		"app/.git/HEAD":        "ref: refs/heads/main\n",
		"app/src/index.ts":     "export {}\n",
		"app/src/package.json": `{"name": "inner"}`,
	})

	res := scan(t, base, DefaultOptions())
	got := rootPaths(base, res)
	if !slices.Equal(got, []string{"app"}) {
		t.Fatalf("roots = %v, want [app]", got)
	}

	app := res.Roots[0]
	if app.Score < 60 {
		t.Errorf("app score = %d, want >= 60", app.Score)
	}
	if app.Name != "app" || app.Type != UnknownType || app.Workspace {
		t.Errorf("app = %+v", app)
	}
	if !slices.Contains(app.Files, "package.json") {
		t.Errorf("Files = %v, want package.json listed", app.Files)
	}
	if app.ModTime.IsZero() {
		t.Error("ModTime should be set")
	}
	if res.ScanID == "" {
		t.Error("ScanID should be set")
	}
}

func TestScan_PnpmWorkspaceScenario(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"mono/pnpm-workspace.yaml":     "packages:\n  - 'packages/*'\n",
		"mono/package.json":            `{"name": "mono", "private": true}`,
		"mono/packages/a/package.json": `{"name": "a"}`,
		"mono/packages/b/package.json": `{"name": "b"}`,
		"mono/packages/c/":             "",
		"mono/tools/gen/package.json":  `{"name": "gen"}`,
	})

	res := scan(t, base, DefaultOptions())
	got := rootPaths(base, res)
	want := []string{"mono", "mono/packages/a", "mono/packages/b"}
	if !slices.Equal(got, want) {
		t.Fatalf("roots = %v, want %v", got, want)
	}
	if res.Roots[0].Workspace || !res.Roots[1].Workspace || !res.Roots[2].Workspace {
		t.Errorf("workspace flags = %v %v %v, want false true true",
			res.Roots[0].Workspace, res.Roots[1].Workspace, res.Roots[2].Workspace)
	}
}

func TestScan_WorkspaceExclusionAndPolicy(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"mono/lerna.json":              `{"packages": ["packages/*", "!packages/b"]}`,
		"mono/package.json":            `{"name": "mono"}`,
		"mono/packages/a/package.json": `{"name": "a"}`,
		"mono/packages/b/package.json": `{"name": "b"}`,
	})

	got := rootPaths(base, scan(t, base, DefaultOptions()))
	if !slices.Equal(got, []string{"mono", "mono/packages/a"}) {
		t.Errorf("roots = %v, want mono and packages/a", got)
	}

	opts := DefaultOptions()
	opts.Signals.NestedPackages = signals.NestedNever
	got = rootPaths(base, scan(t, base, opts))
	if !slices.Equal(got, []string{"mono"}) {
		t.Errorf("never policy roots = %v, want [mono]", got)
	}
}

func TestScan_WorkspaceTargetsHonorIgnoreRules(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"mono/pnpm-workspace.yaml":            "packages:\n  - packages/*\n",
		"mono/package.json":                   `{"name": "mono"}`,
		"mono/packages/.projscanignore":       "legacy-*\n",
		"mono/packages/a/package.json":        `{"name": "a"}`,
		"mono/packages/legacy-x/package.json": `{"name": "legacy-x"}`,
	})

	got := rootPaths(base, scan(t, base, DefaultOptions()))
	if !slices.Equal(got, []string{"mono", "mono/packages/a"}) {
		t.Errorf("roots = %v, want legacy-x ignored", got)
	}
}

func TestScan_IgnoredSubtreeNeverEmits(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		".projscanignore":               "archive\n",
		"archive/old/go.mod":            "module old\n",
		"archive/older/deep/go.mod":     "module older\n",
		"live/go.mod":                   "module live\n",
		"node_modules/pkg/package.json": `{"name": "pkg"}`,
	})

	res := scan(t, base, DefaultOptions())
	for _, r := range res.Roots {
		if strings.Contains(r.Path, "archive") || strings.Contains(r.Path, "node_modules") {
			t.Errorf("root %s emitted from an ignored subtree", r.Path)
		}
	}
	if got := rootPaths(base, res); !slices.Equal(got, []string{"live"}) {
		t.Errorf("roots = %v, want [live]", got)
	}
}

func TestScan_NegatedOnlyMatchStaysEligible(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		".projscanignore": "!keep\n",
		"keep/go.mod":     "module keep\n",
	})

	if got := rootPaths(base, scan(t, base, DefaultOptions())); !slices.Equal(got, []string{"keep"}) {
		t.Errorf("roots = %v, want [keep]", got)
	}
}

func TestScan_LegacyIgnore(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"scratch/go.mod": "module scratch\n",
		"real/go.mod":    "module real\n",
	})

	opts := DefaultOptions()
	opts.LegacyIgnore = []string{"scratch"}
	if got := rootPaths(base, scan(t, base, opts)); !slices.Equal(got, []string{"real"}) {
		t.Errorf("roots = %v, want [real]", got)
	}
}

func TestScan_Idempotent(t *testing.T) {
	base := newBase(t)
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		files["group/"+name+"/go.mod"] = "module " + name + "\n"
		files["other/"+name+"/Cargo.toml"] = "[package]\nname = \"" + name + "\"\n"
	}
	tree(t, base, files)

	first := rootPaths(base, scan(t, base, DefaultOptions()))
	second := rootPaths(base, scan(t, base, DefaultOptions()))
	if len(first) != 14 {
		t.Fatalf("found %d roots, want 14: %v", len(first), first)
	}
	if !slices.Equal(first, second) {
		t.Errorf("scans differ:\n%v\n%v", first, second)
	}
	if !slices.IsSorted(first) {
		t.Errorf("roots not in traversal order: %v", first)
	}
}

func TestScan_NoOverlappingRoots(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"svc/go.mod":                 "module svc\n",
		"svc/internal/x/go.mod":      "module x\n",
		"tool/main.py":               "print()\n",
		"tool/sub/pyproject.toml":    "[project]\nname = \"sub\"\n",
		"mono/turbo.json":            "{}\n",
		"mono/package.json":          `{"workspaces": ["apps/*"]}`,
		"mono/apps/web/package.json": `{"name": "web"}`,
	})

	res := scan(t, base, DefaultOptions())
	for _, outer := range res.Roots {
		for _, inner := range res.Roots {
			if inner.Path == outer.Path || inner.Workspace {
				continue
			}
			if strings.HasPrefix(inner.Path, outer.Path+string(filepath.Separator)) {
				t.Errorf("%s is nested inside %s", inner.Path, outer.Path)
			}
		}
	}
	got := rootPaths(base, res)
	want := []string{"mono", "mono/apps/web", "svc", "tool"}
	if !slices.Equal(got, want) {
		t.Errorf("roots = %v, want %v", got, want)
	}
}

func TestScan_LightCheck(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"scripts/deploy.sh":     "#!/bin/sh\n",
		"scripts/nested/go.mod": "module nested\n",
		"notes/todo.txt":        "nothing\n",
	})

	res := scan(t, base, DefaultOptions())
	if got := rootPaths(base, res); !slices.Equal(got, []string{"scripts"}) {
		t.Fatalf("roots = %v, want [scripts]", got)
	}
	if res.Roots[0].Score >= 60 {
		t.Errorf("light-check root score = %d, want below threshold", res.Roots[0].Score)
	}
}

func TestScan_LightCheckAppliesToBase(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"Makefile":        "all:\n",
		"main.c":          "int main(void) { return 0; }\n",
		"vendored/go.mod": "module vendored\n",
	})

	res := scan(t, base, DefaultOptions())
	if got := rootPaths(base, res); !slices.Equal(got, []string{"."}) {
		t.Fatalf("roots = %v, want the base itself", got)
	}
	if res.Roots[0].Path != base {
		t.Errorf("root path = %q, want %q", res.Roots[0].Path, base)
	}
}

func TestScan_MaxDepth(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{"l1/l2/l3/go.mod": "module deep\n"})

	opts := DefaultOptions()
	opts.MaxDepth = 3
	if got := rootPaths(base, scan(t, base, opts)); len(got) != 0 {
		t.Errorf("depth 3 scan found %v, want nothing", got)
	}
	opts.MaxDepth = 4
	if got := rootPaths(base, scan(t, base, opts)); !slices.Equal(got, []string{"l1/l2/l3"}) {
		t.Errorf("depth 4 scan found %v", got)
	}
}

func TestScan_DenyPaths(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"Library/Caches/thing/go.mod": "module thing\n",
		"code/go.mod":                 "module code\n",
	})

	opts := DefaultOptions()
	opts.DenyPaths = []string{"/Library/Caches"}
	if got := rootPaths(base, scan(t, base, opts)); !slices.Equal(got, []string{"code"}) {
		t.Errorf("roots = %v, want [code]", got)
	}
}

func TestScan_Symlinks(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{
		"proj/go.mod": "module proj\n",
		"loop/x/":     "",
	})
	if err := os.Symlink(filepath.Join(base, "proj"), filepath.Join(base, "alias")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(base, "loop"), filepath.Join(base, "loop", "x", "back")); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.MaxDepth = 20
	res := scan(t, base, opts)
	if got := rootPaths(base, res); !slices.Equal(got, []string{"proj"}) {
		t.Errorf("roots = %v, want proj exactly once", got)
	}
}

func TestScan_BasePathErrors(t *testing.T) {
	base := newBase(t)
	file := filepath.Join(base, "file.txt")
	tree(t, base, map[string]string{"file.txt": "x"})

	_, err := NewScanner(nil).Scan(context.Background(), filepath.Join(base, "missing"), DefaultOptions())
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("missing base: err = %v, want ErrNotExist", err)
	}
	_, err = NewScanner(nil).Scan(context.Background(), file, DefaultOptions())
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("file base: err = %v, want ErrNotDirectory", err)
	}
}

func TestScan_UnreadableSubtreeIsIsolated(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	base := newBase(t)
	tree(t, base, map[string]string{
		"locked/inner/go.mod": "module inner\n",
		"open/go.mod":         "module open\n",
	})
	locked := filepath.Join(base, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	res := scan(t, base, DefaultOptions())
	if got := rootPaths(base, res); !slices.Equal(got, []string{"open"}) {
		t.Errorf("roots = %v, want [open]", got)
	}
	if len(res.Diagnostics) == 0 {
		t.Error("expected a diagnostic for the unreadable directory")
	}
}

func TestScan_Cancelled(t *testing.T) {
	base := newBase(t)
	tree(t, base, map[string]string{"a/go.mod": "module a\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewScanner(nil).Scan(ctx, base, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil || len(res.Roots) != 0 {
		t.Errorf("cancelled scan should return an empty partial result, got %+v", res)
	}
}

func TestScan_LogsScanID(t *testing.T) {
	base := newBase(t)
	lm := logging.NewTestLogManager(100)
	defer func() { _ = lm.Close() }()

	res, err := NewScanner(lm).Scan(context.Background(), base, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, e := range lm.Drain() {
		if e.Message == "scan finished" && e.Fields["scan_id"] == res.ScanID {
			found = true
		}
	}
	if !found {
		t.Error("expected a scan finished entry carrying the scan id")
	}
}
