// pattern: Imperative Shell

package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"projscan/internal/ignore"
	"projscan/internal/logging"
	"projscan/internal/signals"
)

// Scanner discovers project roots below a base directory.
type Scanner struct {
	logs logging.LoggerProvider
}

// NewScanner creates a scanner. A nil provider disables logging.
func NewScanner(logs logging.LoggerProvider) *Scanner {
	return &Scanner{logs: logs}
}

func (s *Scanner) logger(scope string) *logging.ScopedLogger {
	if s.logs == nil {
		return logging.NopLogger()
	}
	return s.logs.For(scope)
}

// Scan walks base and returns the project roots found, in traversal order.
// Only a missing or non-directory base is an error; unreadable subtrees are
// skipped and reported in Result.Diagnostics. When ctx is cancelled no new
// directories are visited and the partial result is returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, base string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", base, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scan %s: %w", abs, ErrNotExist)
		}
		return nil, fmt.Errorf("scan %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: %w", abs, ErrNotDirectory)
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}

	scanID := uuid.NewString()
	logger := s.logger("scan").With("scan_id", scanID)
	logger.Info("scan started", "base", abs, "max_depth", opts.MaxDepth)

	st := &scanState{
		opts:    opts,
		matcher: ignore.NewMatcher(opts.Ignore, opts.LegacyIgnore, s.logger("ignore")),
		scorer:  signals.NewScorer(opts.Signals, s.logger("signals")),
		logger:  logger,
		visited: make(map[string]bool),
		emitted: make(map[string]bool),
	}

	roots := st.visit(ctx, abs, 0, nil, false)

	result := &Result{
		ScanID:      scanID,
		Base:        abs,
		Roots:       roots,
		Diagnostics: st.diagnostics,
		Visited:     len(st.visited),
	}
	logger.Info("scan finished",
		"roots", len(result.Roots),
		"visited", result.Visited,
		"diagnostics", len(result.Diagnostics),
	)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// scanState is private to one Scan call. mu guards visited, emitted and
// diagnostics; roots are returned up the recursion and joined in child
// order, so the result order does not depend on goroutine scheduling.
type scanState struct {
	opts    Options
	matcher *ignore.Matcher
	scorer  *signals.Scorer
	logger  *logging.ScopedLogger

	mu          sync.Mutex
	visited     map[string]bool
	emitted     map[string]bool
	diagnostics []Diagnostic
}

// visit evaluates one directory. ictx holds the ignore rules inherited from
// its ancestors. rearmed marks a monorepo workspace target, which may lie
// inside an emitted root.
func (st *scanState) visit(ctx context.Context, dir string, depth int, ictx *ignore.Context, rearmed bool) []ProjectRoot {
	if ctx.Err() != nil {
		return nil
	}
	if depth >= st.opts.MaxDepth {
		return nil
	}
	if st.matcher.ShouldIgnoreDirectory(dir, filepath.Base(dir), ictx) {
		st.logger.Debug("directory ignored", "path", dir)
		return nil
	}

	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		st.diagnose(dir, "resolve symlinks", err)
		return nil
	}
	if !st.markVisited(real) {
		return nil
	}
	if !rearmed && st.insideRoot(real) {
		return nil
	}
	if st.denied(real) {
		st.logger.Debug("directory deny-listed", "path", real)
		return nil
	}

	node, err := signals.ReadDirNode(real, depth)
	if err != nil {
		st.diagnose(dir, "read directory", err)
		return nil
	}

	sig := st.scorer.Derive(node)
	score := st.scorer.Score(sig)
	if st.scorer.IsRoot(score) {
		root := st.emit(node, score, rearmed)
		st.logger.Debug("root found", "path", real, "score", score)

		roots := []ProjectRoot{root}
		if globs := st.scorer.WorkspaceGlobs(real, sig); len(globs) > 0 {
			roots = append(roots, st.expandWorkspace(ctx, real, depth, ictx, globs)...)
		}
		return roots
	}

	if st.scorer.LooksLikeProject(node) {
		st.logger.Debug("project found by indicator", "path", real, "score", score)
		return []ProjectRoot{st.emit(node, score, rearmed)}
	}

	childCtx := ictx.Child(real, st.matcher.DirRules(real))
	subdirs := node.Subdirs()
	children := make([]string, len(subdirs))
	for i, name := range subdirs {
		children[i] = filepath.Join(real, name)
	}
	return st.visitAll(ctx, children, depth+1, func(string) *ignore.Context { return childCtx }, false)
}

// visitAll traverses dirs with at most FanOut in flight and joins their
// roots in the order of dirs. A failing child never affects its siblings.
func (st *scanState) visitAll(ctx context.Context, dirs []string, depth int, ctxFor func(dir string) *ignore.Context, rearmed bool) []ProjectRoot {
	if len(dirs) == 0 {
		return nil
	}
	slots := make([][]ProjectRoot, len(dirs))

	var g errgroup.Group
	g.SetLimit(st.opts.FanOut)
	for i, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = st.visit(ctx, dir, depth, ctxFor(dir), rearmed)
			return nil
		})
	}
	_ = g.Wait()

	var roots []ProjectRoot
	for _, slot := range slots {
		roots = append(roots, slot...)
	}
	return roots
}

func (st *scanState) emit(node signals.DirNode, score int, workspace bool) ProjectRoot {
	st.mu.Lock()
	st.emitted[node.Path] = true
	st.mu.Unlock()

	return ProjectRoot{
		Name:      filepath.Base(node.Path),
		Path:      node.Path,
		Files:     node.Files(),
		ModTime:   node.ModTime,
		Type:      UnknownType,
		Score:     score,
		Workspace: workspace,
	}
}

// markVisited records real and reports whether it was new.
func (st *scanState) markVisited(real string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.visited[real] {
		return false
	}
	st.visited[real] = true
	return true
}

// insideRoot reports whether an ancestor of real was emitted.
func (st *scanState) insideRoot(real string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for dir := filepath.Dir(real); ; dir = filepath.Dir(dir) {
		if st.emitted[dir] {
			return true
		}
		if parent := filepath.Dir(dir); parent == dir {
			return false
		}
	}
}

func (st *scanState) denied(real string) bool {
	slashed := filepath.ToSlash(real)
	for _, deny := range st.opts.DenyPaths {
		if deny != "" && strings.Contains(slashed, filepath.ToSlash(deny)) {
			return true
		}
	}
	return false
}

func (st *scanState) diagnose(path, message string, err error) {
	st.logger.Debug("subtree skipped", "path", path, "reason", message, "error", err)
	st.mu.Lock()
	st.diagnostics = append(st.diagnostics, Diagnostic{Path: path, Message: message, Err: err})
	st.mu.Unlock()
}
