// pattern: Imperative Shell

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"projscan/internal/logging"
)

const (
	lockFileName = ".projscan-cache.lock"
	lockTimeout  = 2 * time.Second
	lockRetry    = 20 * time.Millisecond
)

var errLockBusy = errors.New("cache lock held by another process")

// Manager stores one JSON record per project in a directory. Every failure
// degrades to a cache miss; nothing here aborts a scan.
type Manager struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *logging.ScopedLogger

	mu    sync.Mutex
	stats Stats
}

// NewManager creates a manager over dir. The directory is created on the
// first write.
func NewManager(dir string, logger *logging.ScopedLogger) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{
		dir:    dir,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger,
	}
}

// Dir returns the cache directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Get returns the record for projectPath if it is still valid. A record
// that fails validation, or cannot be parsed, is deleted.
func (m *Manager) Get(projectPath string) (*Record, bool) {
	file := m.file(projectPath)
	data, err := os.ReadFile(file)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("cache read failed", "file", file, "error", err)
		}
		m.count(false, false)
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		m.logger.Warn("cache record corrupt", "file", file, "error", err)
		m.remove(file)
		m.count(false, true)
		return nil, false
	}

	if reason := m.invalid(&rec); reason != "" {
		m.logger.Debug("cache record invalidated", "path", projectPath, "reason", reason)
		m.remove(file)
		m.count(false, true)
		return nil, false
	}

	m.count(true, false)
	return &rec, true
}

// invalid returns why rec can no longer be trusted, or "" if it can.
func (m *Manager) invalid(rec *Record) string {
	if m.now().Sub(rec.CachedAt) > m.ttl {
		return "expired"
	}
	info, err := os.Stat(rec.Path)
	if err != nil {
		return "directory missing"
	}
	if info.ModTime().After(rec.DirModTime) {
		return "directory modified"
	}
	for _, tf := range rec.Payload.TrackingFiles {
		fi, err := os.Stat(tf.Path)
		if err != nil {
			return "tracking file missing: " + tf.Path
		}
		if fi.ModTime().After(tf.ModTime) {
			return "tracking file modified: " + tf.Path
		}
	}
	return ""
}

// Put writes a fresh record for projectPath. Timestamps are stored in UTC.
func (m *Manager) Put(projectPath string, payload Payload) Outcome {
	info, err := os.Stat(projectPath)
	if err != nil {
		return m.failed(projectPath, fmt.Errorf("stat project: %w", err))
	}

	payload.LastActivity = payload.LastActivity.UTC()
	payload.TrackingFiles = utcTracking(payload.TrackingFiles)
	payload.GitInsights = utcInsights(payload.GitInsights)
	rec := Record{
		Path:       projectPath,
		Name:       filepath.Base(projectPath),
		DirModTime: info.ModTime().UTC(),
		CachedAt:   m.now().UTC(),
		Payload:    payload,
	}
	if err := m.write(rec); err != nil {
		return m.failed(projectPath, err)
	}
	return Outcome{Stored: true}
}

// UpdateGitInsightsOnly replaces the git snapshot of an existing record and
// leaves everything else, including CachedAt, untouched. Without a record
// it does nothing.
func (m *Manager) UpdateGitInsightsOnly(projectPath string, insights *GitInsights) Outcome {
	data, err := os.ReadFile(m.file(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return Outcome{}
		}
		return m.failed(projectPath, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return m.failed(projectPath, fmt.Errorf("parse record: %w", err))
	}

	rec.Payload.GitInsights = utcInsights(insights)
	if err := m.write(rec); err != nil {
		return m.failed(projectPath, err)
	}
	return Outcome{Stored: true}
}

// Clear deletes every record and returns how many were removed.
func (m *Manager) Clear() (int, error) {
	files, err := m.recordFiles()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err == nil {
			removed++
		}
	}
	m.logger.Info("cache cleared", "removed", removed)
	return removed, nil
}

// Prune deletes records written more than maxAgeHours ago, plus any that
// cannot be parsed.
func (m *Manager) Prune(maxAgeHours float64) (int, error) {
	if maxAgeHours < 0 {
		return 0, fmt.Errorf("max age must not be negative, got %v", maxAgeHours)
	}
	files, err := m.recordFiles()
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-time.Duration(maxAgeHours * float64(time.Hour)))
	removed := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err == nil && !rec.CachedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(f); err == nil {
			removed++
		}
	}
	m.logger.Info("cache pruned", "removed", removed, "max_age_hours", maxAgeHours)
	return removed, nil
}

// Usage describes the records on disk.
type Usage struct {
	Entries int
	Bytes   int64
}

// Usage counts the records currently on disk.
func (m *Manager) Usage() (Usage, error) {
	files, err := m.recordFiles()
	if err != nil {
		return Usage{}, err
	}
	var u Usage
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			u.Entries++
			u.Bytes += info.Size()
		}
	}
	return u, nil
}

// Stats returns the lookup counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// ResetStats zeroes the lookup counters.
func (m *Manager) ResetStats() {
	m.mu.Lock()
	m.stats = Stats{}
	m.mu.Unlock()
}

func (m *Manager) count(hit, invalidated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.stats.Hits++
		return
	}
	m.stats.Misses++
	if invalidated {
		m.stats.Invalidations++
	}
}

func (m *Manager) file(projectPath string) string {
	return filepath.Join(m.dir, FileName(projectPath))
}

func (m *Manager) recordFiles() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(m.dir, e.Name()))
		}
	}
	return files, nil
}

func (m *Manager) remove(file string) {
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("cache record not removed", "file", file, "error", err)
	}
}

func (m *Manager) failed(projectPath string, err error) Outcome {
	m.logger.Warn("cache write skipped", "path", projectPath, "error", err)
	return Outcome{Err: err}
}

// write stores rec under the directory lock with an atomic rename, so a
// concurrent reader sees either the old record or the new one.
func (m *Manager) write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(m.dir, lockFileName))
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock cache dir: %w", err)
	}
	if !locked {
		return errLockBusy
	}
	defer func() { _ = lock.Unlock() }()

	return atomicWrite(m.file(rec.Path), data)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	tmp = nil
	return nil
}

func utcTracking(files []TrackingFile) []TrackingFile {
	if files == nil {
		return nil
	}
	out := make([]TrackingFile, len(files))
	for i, f := range files {
		f.ModTime = f.ModTime.UTC()
		out[i] = f
	}
	return out
}

func utcInsights(insights *GitInsights) *GitInsights {
	if insights == nil {
		return nil
	}
	copied := *insights
	copied.CollectedAt = copied.CollectedAt.UTC()
	copied.LastCommitAt = copied.LastCommitAt.UTC()
	return &copied
}
