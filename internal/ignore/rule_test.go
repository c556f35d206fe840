package ignore

import (
	"strings"
	"testing"
)

func TestParseIgnoreFile(t *testing.T) {
	content := `
# generated output
build/
!keep-build
*.bak
vendor/legacy
**/tmp
   # indented comment

`
	rules, err := ParseIgnoreFile(strings.NewReader(content), "/base/.projscanignore")
	if err != nil {
		t.Fatalf("ParseIgnoreFile() error = %v", err)
	}

	want := []Rule{
		{Pattern: "build", Kind: Basename},
		{Pattern: "keep-build", Kind: Basename, Negate: true},
		{Pattern: "*.bak", Kind: Basename},
		{Pattern: "vendor/legacy", Kind: Glob},
		{Pattern: "**/tmp", Kind: Glob},
	}
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d: %+v", len(rules), len(want), rules)
	}
	for i, w := range want {
		got := rules[i]
		if got.Pattern != w.Pattern || got.Kind != w.Kind || got.Negate != w.Negate {
			t.Errorf("rule %d = %+v, want pattern=%q kind=%s negate=%v", i, got, w.Pattern, w.Kind, w.Negate)
		}
		if got.Source != "/base/.projscanignore" {
			t.Errorf("rule %d source = %q", i, got.Source)
		}
		if got.Base() != "/base" {
			t.Errorf("rule %d base = %q", i, got.Base())
		}
	}
}

func TestParseRule_SkipsBlankAndComment(t *testing.T) {
	for _, line := range []string{"", "   ", "# comment", "!"} {
		if _, ok := ParseRule(line, "f"); ok {
			t.Errorf("ParseRule(%q) should be skipped", line)
		}
	}
}

func TestGlobalRules_Order(t *testing.T) {
	cfg := Config{
		Directories: []string{"node_modules"},
		Patterns:    []string{"*-backup", "!keep-backup"},
		Projects:    []string{"scratch"},
	}
	rules := globalRules(cfg, []string{"legacy"})

	want := []struct {
		pattern string
		kind    RuleKind
		negate  bool
	}{
		{"legacy", Basename, false},
		{"node_modules", Basename, false},
		{"*-backup", Glob, false},
		{"keep-backup", Glob, true},
		{"scratch", ProjectName, false},
	}
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i, w := range want {
		if rules[i].Pattern != w.pattern || rules[i].Kind != w.kind || rules[i].Negate != w.negate {
			t.Errorf("rule %d = %+v", i, rules[i])
		}
		if !rules[i].IsGlobal() {
			t.Errorf("rule %d should be global", i)
		}
	}
}
