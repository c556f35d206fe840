// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"projscan/internal/analysis"
	"projscan/internal/cache"
	"projscan/internal/config"
	"projscan/internal/discovery"
	"projscan/internal/instance"
	"projscan/internal/logging"
	"projscan/internal/render"
	"projscan/internal/watch"
)

// session holds what one scan or watch invocation shares.
type session struct {
	env   *Env
	cfg   config.Config
	logs  *logging.Manager
	store *cache.Manager // nil with --no-cache
}

func openSession(env *Env) (*session, error) {
	cfg, err := LoadConfig(env.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.Config{
		FilePath:       config.ResolveLogPath(),
		ChannelBufSize: 1000,
		Level:          cfg.LogLevel,
	}
	if env.Verbose {
		logCfg.Console = env.Stderr
		logCfg.Level = "debug"
	}
	logs, err := logging.NewManager(logCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	s := &session{env: env, cfg: cfg, logs: logs}
	if !env.NoCache {
		s.store = cache.NewManager(cfg.ResolveCacheDir(), logs.For("cache"))
	}
	return s, nil
}

func (s *session) Close() {
	_ = s.logs.Close()
}

// bases returns the directories to scan: explicit arguments, then the
// configured scan paths, then the working directory.
func (s *session) bases(args []string) ([]string, error) {
	if len(args) > 0 {
		out := make([]string, 0, len(args))
		for _, a := range args {
			out = append(out, config.ExpandPath(a))
		}
		return out, nil
	}
	if paths := s.cfg.ResolveScanPaths(); len(paths) > 0 {
		return paths, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	return []string{wd}, nil
}

// scanOnce discovers, analyzes and prints the projects under bases.
func (s *session) scanOnce(ctx context.Context, bases []string) error {
	logger := s.logs.For("app")
	// Warnings from a previous rescan are already reported.
	_, _ = s.logs.Warnings().Drain()
	opts := s.cfg.ScanOptions(s.env.Depth, s.env.Ignore)
	scanner := discovery.NewScanner(s.logs)

	var roots []discovery.ProjectRoot
	var diagnostics []discovery.Diagnostic
	seen := make(map[string]bool)
	for _, base := range bases {
		res, err := scanner.Scan(ctx, base, opts)
		if err != nil {
			return err
		}
		for _, r := range res.Roots {
			if seen[r.Path] {
				continue
			}
			seen[r.Path] = true
			roots = append(roots, r)
		}
		diagnostics = append(diagnostics, res.Diagnostics...)
	}
	logger.Info("discovered projects", "count", len(roots), "bases", bases)

	if s.store != nil {
		s.store.ResetStats()
	}
	analyzer := analysis.NewAnalyzer(s.store, analysis.Options{
		Ignore:      s.cfg.IgnoreConfig(),
		NoiseDirs:   s.cfg.RootDetection.NoiseDirs,
		GitInsights: s.cfg.GitInsights,
		FanOut:      s.cfg.FanOut,
	}, s.logs)
	projects, err := analyzer.Analyze(ctx, roots)
	if err != nil {
		return err
	}

	if s.env.JSON {
		return render.JSON(s.env.Stdout, projects)
	}

	if s.env.Verbose {
		for _, d := range diagnostics {
			fmt.Fprintf(s.env.Stderr, "skipped %s: %s\n", d.Path, d.Message)
		}
	}
	warned, dropped := s.logs.Warnings().Drain()

	renderOpts := render.Options{
		Theme:    s.cfg.Theme,
		Plain:    !isTerminal(s.env.Stdout) || os.Getenv("NO_COLOR") != "",
		Width:    terminalWidth(s.env.Stdout),
		Warnings: len(warned) + dropped + len(diagnostics),
	}
	if s.store != nil {
		stats := s.store.Stats()
		renderOpts.Cache = &stats
	}
	return render.Table(s.env.Stdout, projects, renderOpts)
}

// RunScan performs one scan and prints the result.
func RunScan(ctx context.Context, env *Env, args []string) error {
	s, err := openSession(env)
	if err != nil {
		return err
	}
	defer s.Close()

	bases, err := s.bases(args)
	if err != nil {
		return err
	}
	if err := s.scanOnce(ctx, bases); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunWatch scans once, then rescans whenever a base directory changes,
// until ctx is cancelled.
func RunWatch(ctx context.Context, env *Env, args []string) error {
	s, err := openSession(env)
	if err != nil {
		return err
	}
	defer s.Close()

	stateDir := filepath.Dir(config.ResolveLogPath())
	fl, err := instance.Lock(stateDir)
	if err != nil {
		return err
	}
	defer instance.Cleanup(stateDir, fl)

	bases, err := s.bases(args)
	if err != nil {
		return err
	}
	if err := s.scanOnce(ctx, bases); err != nil {
		return err
	}

	w, err := watch.New(bases, s.cfg.Ignore.Directories, 0, s.logs.For("watch"))
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Watching %d directories, press Ctrl-C to stop.\n", len(w.WatchList()))
	return w.Run(ctx, func(ctx context.Context) error {
		fmt.Fprintln(env.Stdout)
		return s.scanOnce(ctx, bases)
	})
}
