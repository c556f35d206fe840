// pattern: Imperative Shell

package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"projscan/internal/cache"
	"projscan/internal/discovery"
	"projscan/internal/ignore"
	"projscan/internal/logging"
)

// DefaultGitRefresh is how old cached git insights may get before they are
// collected again on a cache hit.
const DefaultGitRefresh = time.Hour

// Project is an analyzed project root.
type Project struct {
	discovery.ProjectRoot
	Status        string
	Description   string
	LastActivity  time.Time
	TrackingFiles []cache.TrackingFile
	HasVCS        bool
	Git           *cache.GitInsights
	Cached        bool // payload came from the cache
}

// Options configures an Analyzer.
type Options struct {
	Ignore      ignore.Config // project-name filters
	NoiseDirs   []string      // skipped when counting languages
	GitInsights bool
	GitRefresh  time.Duration
	FanOut      int
}

// Analyzer classifies discovered roots, reusing cached results when valid.
type Analyzer struct {
	store   *cache.Manager
	matcher *ignore.Matcher
	opts    Options
	noise   map[string]bool
	logger  *logging.ScopedLogger
	now     func() time.Time
}

// NewAnalyzer creates an analyzer. A nil store disables caching.
func NewAnalyzer(store *cache.Manager, opts Options, logs logging.LoggerProvider) *Analyzer {
	if opts.FanOut <= 0 {
		opts.FanOut = discovery.DefaultFanOut
	}
	if opts.GitRefresh <= 0 {
		opts.GitRefresh = DefaultGitRefresh
	}
	logger := logging.NopLogger()
	ignoreLogger := logging.NopLogger()
	if logs != nil {
		logger = logs.For("analysis")
		ignoreLogger = logs.For("ignore")
	}
	noise := make(map[string]bool, len(opts.NoiseDirs))
	for _, d := range opts.NoiseDirs {
		noise[d] = true
	}
	return &Analyzer{
		store:   store,
		matcher: ignore.NewMatcher(opts.Ignore, nil, ignoreLogger),
		opts:    opts,
		noise:   noise,
		logger:  logger,
		now:     time.Now,
	}
}

// Analyze filters roots through the project ignore rules and analyzes the
// rest, keeping their order. On cancellation it returns what finished.
func (a *Analyzer) Analyze(ctx context.Context, roots []discovery.ProjectRoot) ([]Project, error) {
	var kept []discovery.ProjectRoot
	for _, r := range roots {
		if a.matcher.ShouldIgnoreProject(r.Name, r.Path) {
			a.logger.Debug("project ignored", "name", r.Name, "path", r.Path)
			continue
		}
		kept = append(kept, r)
	}

	slots := make([]*Project, len(kept))
	var g errgroup.Group
	g.SetLimit(a.opts.FanOut)
	for i, root := range kept {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p := a.analyze(ctx, root)
			slots[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	projects := make([]Project, 0, len(kept))
	for _, p := range slots {
		if p != nil {
			projects = append(projects, *p)
		}
	}
	return projects, ctx.Err()
}

func (a *Analyzer) analyze(ctx context.Context, root discovery.ProjectRoot) Project {
	if a.store != nil {
		if rec, ok := a.store.Get(root.Path); ok {
			p := fromPayload(root, rec.Payload)
			p.Cached = true
			a.refreshGit(ctx, &p)
			return p
		}
	}

	payload := a.compute(ctx, root)
	if a.store != nil {
		if out := a.store.Put(root.Path, payload); out.Err != nil {
			a.logger.Debug("result not cached", "path", root.Path, "error", out.Err)
		}
	}
	return fromPayload(root, payload)
}

// refreshGit recollects stale insights of a cached project and stores only
// them, leaving the rest of the record as it was.
func (a *Analyzer) refreshGit(ctx context.Context, p *Project) {
	if !a.opts.GitInsights || !p.HasVCS || !p.Git.Stale(a.now(), a.opts.GitRefresh) {
		return
	}
	insights := GitInsights(ctx, p.Path, a.now())
	if insights == nil {
		return
	}
	p.Git = insights
	if out := a.store.UpdateGitInsightsOnly(p.Path, insights); out.Err != nil {
		a.logger.Debug("git insights not cached", "path", p.Path, "error", out.Err)
	}
}

func (a *Analyzer) compute(ctx context.Context, root discovery.ProjectRoot) cache.Payload {
	payload := cache.Payload{
		Type:        DetectType(root.Files),
		Description: Describe(root.Path, root.Files),
		Languages:   a.languages(root.Path),
		HasVCS:      isVCS(root.Path),
	}

	last := root.ModTime
	for _, name := range root.Files {
		info, err := os.Stat(filepath.Join(root.Path, name))
		if err != nil {
			continue
		}
		if kind := TrackingType(name); kind != "" {
			payload.TrackingFiles = append(payload.TrackingFiles, cache.TrackingFile{
				Path:    filepath.Join(root.Path, name),
				Type:    kind,
				ModTime: info.ModTime(),
			})
		}
		if info.ModTime().After(last) {
			last = info.ModTime()
		}
	}

	if a.opts.GitInsights && payload.HasVCS {
		payload.GitInsights = GitInsights(ctx, root.Path, a.now())
		if gi := payload.GitInsights; gi != nil && gi.LastCommitAt.After(last) {
			last = gi.LastCommitAt
		}
	}

	payload.LastActivity = last.UTC()
	payload.Status = StatusFor(last, a.now())
	return payload
}

// languages counts source files at the root and one level below, skipping
// hidden and noise directories.
func (a *Analyzer) languages(dir string) []string {
	counts := make(map[string]int)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() {
			counts[filepath.Ext(name)]++
			continue
		}
		if strings.HasPrefix(name, ".") || a.noise[name] {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		for _, s := range sub {
			if !s.IsDir() {
				counts[filepath.Ext(s.Name())]++
			}
		}
	}
	return RankLanguages(counts)
}

func isVCS(dir string) bool {
	for _, marker := range []string{".git", ".hg", ".svn"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func fromPayload(root discovery.ProjectRoot, payload cache.Payload) Project {
	root.Type = payload.Type
	root.Languages = payload.Languages
	return Project{
		ProjectRoot:   root,
		Status:        payload.Status,
		Description:   payload.Description,
		LastActivity:  payload.LastActivity,
		TrackingFiles: payload.TrackingFiles,
		HasVCS:        payload.HasVCS,
		Git:           payload.GitInsights,
	}
}
