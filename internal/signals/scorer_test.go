package signals

import (
	"os"
	"path/filepath"
	"testing"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScorer_Inspect(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "go.mod"), "module example.com/x\n")
	mkfile(t, filepath.Join(dir, "docs", "guide.md"), "# Guide\n")
	mkfile(t, filepath.Join(dir, "cmd", "x", "main.go"), "package main\n")

	s := NewScorer(DefaultConfig(), nil)
	node, sig := s.Inspect(dir, 2)

	if node.Depth != 2 || node.Path != dir {
		t.Errorf("node = %+v", node)
	}
	if node.ModTime.IsZero() {
		t.Error("ModTime should be set")
	}
	if len(node.Files()) != 1 || len(node.Subdirs()) != 2 {
		t.Errorf("files=%v subdirs=%v", node.Files(), node.Subdirs())
	}
	if len(sig.Manifests) != 1 || !sig.DocsFirst || len(sig.SourceDirs) != 1 {
		t.Errorf("signals = %+v", sig)
	}
	if !s.IsRoot(s.Score(sig)) {
		t.Errorf("score %d should be a root", s.Score(sig))
	}
}

func TestScorer_DocsWithoutMarkdown(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "docs", "diagram.png"), "png")

	if sig := NewScorer(DefaultConfig(), nil).Collect(dir); sig.DocsFirst {
		t.Error("docs without markdown is not a docs-first layout")
	}
}

func TestScorer_InspectMissingDirectory(t *testing.T) {
	s := NewScorer(DefaultConfig(), nil)
	node, sig := s.Inspect(filepath.Join(t.TempDir(), "gone"), 1)
	if !sig.Empty() {
		t.Errorf("missing directory should give empty signals, got %+v", sig)
	}
	if len(node.Entries) != 0 {
		t.Errorf("missing directory should have no entries")
	}
	if s.Score(sig) != 0 {
		t.Errorf("empty signals scored %d", s.Score(sig))
	}
}

func TestReadDirNode_SymlinkedDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "alias")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	node, err := ReadDirNode(dir, 0)
	if err != nil {
		t.Fatalf("ReadDirNode() error = %v", err)
	}
	for _, e := range node.Entries {
		if e.Name == "alias" && !e.IsDir {
			t.Error("symlink to a directory should be listed as a directory")
		}
	}
}
