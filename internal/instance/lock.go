// pattern: Imperative Shell
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

const (
	lockFileName = "watch.lock"
	pidFileName  = "watch.pid"
)

// ErrRunning is returned when another watcher holds the lock.
var ErrRunning = errors.New("another projscan watch is already running")

// Lock acquires an exclusive file lock so only one watcher rescans into a
// cache at a time. The caller must defer Cleanup.
func Lock(stateDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	fl := flock.New(filepath.Join(stateDir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		if pid, ok := ReadPID(stateDir); ok {
			return nil, fmt.Errorf("%w (pid %d)", ErrRunning, pid)
		}
		return nil, ErrRunning
	}
	if err := os.WriteFile(filepath.Join(stateDir, pidFileName), []byte(strconv.Itoa(os.Getpid())), 0600); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return fl, nil
}

// ReadPID returns the pid recorded by the current lock holder.
func ReadPID(stateDir string) (int, bool) {
	data, err := os.ReadFile(filepath.Join(stateDir, pidFileName))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Cleanup removes the pid file and releases the file lock.
func Cleanup(stateDir string, fl *flock.Flock) {
	_ = os.Remove(filepath.Join(stateDir, pidFileName))
	if fl != nil {
		_ = fl.Unlock()
	}
}
