// pattern: Imperative Shell

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"projscan/internal/analysis"
	"projscan/internal/cache"
)

const (
	defaultWidth  = 100
	maxNameWidth  = 28
	typeWidth     = 9
	statusWidth   = 6
	langWidth     = 18
	updatedWidth  = 7
	minDescWidth  = 10
	columnPadding = 2
	ellipsis      = "…"
)

// Options controls table output.
type Options struct {
	Theme    string
	Plain    bool         // no colors
	Width    int          // terminal width; 0 means 100
	Now      time.Time    // reference for relative times; zero means time.Now
	Cache    *cache.Stats // adds a cache line to the footer
	Warnings int          // adds a warnings line to the footer
}

// Table writes a ranked, aligned table of projects with a summary footer.
func Table(w io.Writer, projects []analysis.Project, opts Options) error {
	st := NewStyles(opts.Theme, opts.Plain)
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	ranked := Rank(projects)
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, st.Muted("No projects found."))
		return err
	}

	nameWidth := len("NAME")
	for _, p := range ranked {
		nameWidth = max(nameWidth, ansi.StringWidth(p.Name))
	}
	nameWidth = min(nameWidth, maxNameWidth)

	fixed := nameWidth + typeWidth + statusWidth + langWidth + updatedWidth + 5*columnPadding
	descWidth := max(opts.Width-fixed, minDescWidth)

	var b strings.Builder
	b.WriteString(row(
		cell(st.Header("NAME"), nameWidth),
		cell(st.Header("TYPE"), typeWidth),
		cell(st.Header("STATUS"), statusWidth),
		cell(st.Header("LANGUAGES"), langWidth),
		cell(st.Header("UPDATED"), updatedWidth),
		st.Header("DESCRIPTION"),
	))
	for _, p := range ranked {
		name := truncate(p.Name, nameWidth)
		if p.Workspace {
			name = truncate("↳ "+p.Name, nameWidth)
		}
		b.WriteString(row(
			cell(st.Name(name), nameWidth),
			cell(st.Muted(truncate(p.Type, typeWidth)), typeWidth),
			cell(st.Status(p.Status), statusWidth),
			cell(st.Accent(truncate(strings.Join(p.Languages, ","), langWidth)), langWidth),
			cell(st.Muted(Age(opts.Now, p.LastActivity)), updatedWidth),
			st.Muted(truncate(p.Description, descWidth)),
		))
	}

	b.WriteString("\n")
	b.WriteString(st.Title(summary(ranked)))
	b.WriteString("\n")
	if opts.Cache != nil {
		fmt.Fprintf(&b, "%s\n", st.Muted(fmt.Sprintf("cache: %d hits, %d misses, %d invalidated (%.0f%% hit rate)",
			opts.Cache.Hits, opts.Cache.Misses, opts.Cache.Invalidations, opts.Cache.HitRate()*100)))
	}
	if opts.Warnings > 0 {
		fmt.Fprintf(&b, "%s\n", st.Warn(fmt.Sprintf("%d warnings (run with --verbose for details)", opts.Warnings)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func summary(projects []analysis.Project) string {
	counts := Counts(projects)
	noun := "projects"
	if len(projects) == 1 {
		noun = "project"
	}
	return fmt.Sprintf("%d %s: %d active, %d recent, %d stale",
		len(projects), noun,
		counts[analysis.StatusActive], counts[analysis.StatusRecent], counts[analysis.StatusStale])
}

func row(cells ...string) string {
	return strings.TrimRight(strings.Join(cells, strings.Repeat(" ", columnPadding)), " ") + "\n"
}

// cell pads styled text to width visible columns.
func cell(styled string, width int) string {
	if pad := width - ansi.StringWidth(styled); pad > 0 {
		return styled + strings.Repeat(" ", pad)
	}
	return styled
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, ellipsis)
}

// Age renders the time since t compactly: "now", "5m", "3h", "2d", "4mo", "1y".
func Age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy", int(d.Hours()/(24*365)))
	}
}

type jsonProject struct {
	Name          string               `json:"name"`
	Path          string               `json:"path"`
	Type          string               `json:"type"`
	Status        string               `json:"status"`
	Description   string               `json:"description,omitempty"`
	Languages     []string             `json:"languages"`
	LastActivity  time.Time            `json:"last_activity"`
	Score         int                  `json:"score"`
	Workspace     bool                 `json:"workspace,omitempty"`
	HasVCS        bool                 `json:"has_vcs"`
	TrackingFiles []cache.TrackingFile `json:"tracking_files,omitempty"`
	Git           *cache.GitInsights   `json:"git,omitempty"`
	Cached        bool                 `json:"cached"`
}

// JSON writes the ranked projects as an indented JSON array.
func JSON(w io.Writer, projects []analysis.Project) error {
	ranked := Rank(projects)
	out := make([]jsonProject, 0, len(ranked))
	for _, p := range ranked {
		langs := p.Languages
		if langs == nil {
			langs = []string{}
		}
		out = append(out, jsonProject{
			Name:          p.Name,
			Path:          p.Path,
			Type:          p.Type,
			Status:        p.Status,
			Description:   p.Description,
			Languages:     langs,
			LastActivity:  p.LastActivity,
			Score:         p.Score,
			Workspace:     p.Workspace,
			HasVCS:        p.HasVCS,
			TrackingFiles: p.TrackingFiles,
			Git:           p.Git,
			Cached:        p.Cached,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
