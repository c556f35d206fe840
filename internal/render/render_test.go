package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"projscan/internal/analysis"
	"projscan/internal/cache"
	"projscan/internal/discovery"
)

var now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func project(name, status string, age time.Duration) analysis.Project {
	return analysis.Project{
		ProjectRoot: discovery.ProjectRoot{
			Name:      name,
			Path:      "/code/" + name,
			Type:      "go",
			Languages: []string{"Go"},
		},
		Status:       status,
		Description:  name + " does things",
		LastActivity: now.Add(-age),
	}
}

func names(projects []analysis.Project) []string {
	var out []string
	for _, p := range projects {
		out = append(out, p.Name)
	}
	return out
}

func TestRank(t *testing.T) {
	in := []analysis.Project{
		project("old", analysis.StatusStale, 400*24*time.Hour),
		project("beta", analysis.StatusActive, time.Hour),
		project("alpha", analysis.StatusActive, time.Hour),
		project("mid", analysis.StatusRecent, 20*24*time.Hour),
		project("fresh", analysis.StatusActive, time.Minute),
	}
	got := strings.Join(names(Rank(in)), " ")
	if want := "fresh alpha beta mid old"; got != want {
		t.Errorf("Rank() = %s, want %s", got, want)
	}
	if in[0].Name != "old" {
		t.Error("Rank must not reorder its input")
	}
}

func TestTable_Plain(t *testing.T) {
	projects := []analysis.Project{
		project("api", analysis.StatusRecent, 3*24*time.Hour+time.Hour),
		project("web", analysis.StatusActive, 2*time.Hour),
	}
	projects[1].Workspace = true

	var buf bytes.Buffer
	stats := &cache.Stats{Hits: 3, Misses: 1}
	if err := Table(&buf, projects, Options{Plain: true, Now: now, Cache: stats, Warnings: 2}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(out, "\n")

	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[0], "DESCRIPTION") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "↳ web") || !strings.Contains(lines[1], "2h") {
		t.Errorf("first row = %q, want the active workspace project", lines[1])
	}
	if !strings.HasPrefix(lines[2], "api") || !strings.Contains(lines[2], "3d") {
		t.Errorf("second row = %q", lines[2])
	}
	for _, want := range []string{
		"2 projects: 1 active, 1 recent, 0 stale",
		"cache: 3 hits, 1 misses, 0 invalidated (75% hit rate)",
		"2 warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output must not contain escape sequences")
	}
}

func TestTable_TruncatesToWidth(t *testing.T) {
	p := project("a-project-with-an-extremely-long-directory-name", analysis.StatusActive, time.Hour)
	p.Description = strings.Repeat("very long description ", 20)

	var buf bytes.Buffer
	if err := Table(&buf, []analysis.Project{p}, Options{Plain: true, Now: now, Width: 90}); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if w := ansi.StringWidth(line); w > 90 {
			t.Errorf("line is %d columns wide, want at most 90: %q", w, line)
		}
	}
	if !strings.Contains(buf.String(), "…") {
		t.Error("expected truncated cells to end in an ellipsis")
	}
}

func TestTable_Styled(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, []analysis.Project{project("api", analysis.StatusActive, time.Hour)}, Options{Theme: "latte", Now: now}); err != nil {
		t.Fatal(err)
	}
	plain := ansi.Strip(buf.String())
	if !strings.Contains(plain, "api") || !strings.Contains(plain, "1 project: 1 active") {
		t.Errorf("styled output lost content:\n%s", plain)
	}
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, nil, Options{Plain: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No projects found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{2 * 24 * time.Hour, "2d"},
		{65 * 24 * time.Hour, "2mo"},
		{800 * 24 * time.Hour, "2y"},
	}
	for _, tt := range tests {
		if got := Age(now, now.Add(-tt.ago)); got != tt.want {
			t.Errorf("Age(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if Age(now, time.Time{}) != "-" {
		t.Error("zero time should render as -")
	}
}

func TestJSON(t *testing.T) {
	p := project("api", analysis.StatusActive, time.Hour)
	p.Languages = nil

	var buf bytes.Buffer
	if err := JSON(&buf, []analysis.Project{p}); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 1 || decoded[0]["name"] != "api" || decoded[0]["status"] != "active" {
		t.Errorf("decoded = %v", decoded)
	}
	if langs, ok := decoded[0]["languages"].([]any); !ok || len(langs) != 0 {
		t.Errorf("languages = %v, want an empty array", decoded[0]["languages"])
	}
}
