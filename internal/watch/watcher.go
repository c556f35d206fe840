// pattern: Imperative Shell

package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"projscan/internal/logging"
)

// DefaultDebounce coalesces bursts of changes into one rescan.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a rescan when the base directories or their immediate
// subdirectories change. Deeper changes are picked up by the cache's own
// validity checks on the next rescan.
type Watcher struct {
	fs       *fsnotify.Watcher
	bases    map[string]bool
	skip     map[string]bool
	debounce time.Duration
	logger   *logging.ScopedLogger
}

// New watches each base and its subdirectories, except those whose names
// are in skipDirs or start with a dot.
func New(bases []string, skipDirs []string, debounce time.Duration, logger *logging.ScopedLogger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		bases:    make(map[string]bool, len(bases)),
		skip:     make(map[string]bool, len(skipDirs)),
		debounce: debounce,
		logger:   logger,
	}
	for _, d := range skipDirs {
		w.skip[d] = true
	}
	for _, base := range bases {
		if err := fsw.Add(base); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", base, err)
		}
		w.bases[filepath.Clean(base)] = true
		w.addChildren(base)
	}
	return w, nil
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fs.WatchList()
}

func (w *Watcher) addChildren(base string) {
	entries, err := os.ReadDir(base)
	if err != nil {
		w.logger.Warn("cannot list watched directory", "path", base, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(base, e.Name()))
		}
	}
}

func (w *Watcher) addDir(dir string) {
	name := filepath.Base(dir)
	if w.skip[name] || name[0] == '.' {
		return
	}
	if err := w.fs.Add(dir); err != nil {
		w.logger.Debug("directory not watched", "path", dir, "error", err)
	}
}

// Run calls rescan once per burst of changes until ctx is cancelled. A
// failing rescan is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, rescan func(context.Context) error) error {
	defer func() { _ = w.fs.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Info("change detected, rescanning")
			if err := rescan(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("rescan failed", "error", err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// handle reports whether event should trigger a rescan. New directories
// directly inside a base start being watched.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Has(fsnotify.Create) && w.bases[filepath.Dir(event.Name)] {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
		}
	}
	w.logger.Debug("change", "path", event.Name, "op", event.Op.String())
	return true
}
