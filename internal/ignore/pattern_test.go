package ignore

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		target   string
		fullPath bool
		want     bool
	}{
		{"literal equal", "node_modules", "node_modules", false, true},
		{"literal different", "node_modules", "node_module", false, false},
		{"star suffix", "*-backup", "db-backup", false, true},
		{"star suffix no trailing", "*-backup", "db-backups", false, false},
		{"star does not cross separator", "*-backup", "/base/db-backup", true, false},
		{"double star crosses separator", "/base/**/tmp", "/base/a/b/tmp", true, true},
		{"double star slash matches zero dirs", "**/tmp", "tmp", false, true},
		{"double star slash matches nested", "**/tmp", "a/b/tmp", true, true},
		{"question mark exactly one", "v?", "v1", false, true},
		{"question mark not zero", "v?", "v", false, false},
		{"question mark not two", "v?", "v12", false, false},
		{"character class", "log[0-9]", "log7", false, true},
		{"negated class", "log[!0-9]", "logs", false, true},
		{"dots are literal", "*.bak", "notes_bak", false, false},
		{"substring on full path", "archive", "/home/u/archive/old", true, true},
		{"no substring on basename", "archive", "archived", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.pattern, tt.target, tt.fullPath)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q, %q, %v) = %v, want %v (regexp %s)",
					tt.pattern, tt.target, tt.fullPath, got, tt.want, GlobToRegexp(tt.pattern))
			}
		})
	}
}

func TestMatch_InvalidPatternFailsOpen(t *testing.T) {
	got, err := Match("[abc", "a", false)
	if err == nil {
		t.Fatal("expected compile error for unbalanced class")
	}
	if got {
		t.Error("invalid pattern must not match")
	}
}
