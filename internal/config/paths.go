package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	schedulesFile = "schedules.json"
	waitersFile   = "active_waiters.json"
	historyFile   = "history.db"
	runnersDir    = "runners"
)

// DefaultStateDir returns <home>/.claude/plugins/.emailingessay without creating it.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "plugins", ".emailingessay"), nil
}

// Paths resolves the files of the persistent layout.
type Paths struct {
	base string
}

// NewPaths resolves the default persistent directory under the user's home.
func NewPaths() (*Paths, error) {
	dir, err := DefaultStateDir()
	if err != nil {
		return nil, err
	}
	return &Paths{base: dir}, nil
}

// NewPathsAt roots the layout at base instead of the home directory.
func NewPathsAt(base string) *Paths {
	return &Paths{base: base}
}

// Base returns the persistent directory without creating it.
func (p *Paths) Base() string { return p.base }

// PersistentDir returns the persistent directory, creating it if needed.
func (p *Paths) PersistentDir() (string, error) {
	if err := os.MkdirAll(p.base, 0o755); err != nil {
		return "", fmt.Errorf("ensure state dir: %w", err)
	}
	return p.base, nil
}

// RunnersDir returns the runner script directory, creating it if needed.
func (p *Paths) RunnersDir() (string, error) {
	dir := filepath.Join(p.base, runnersDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure runners dir: %w", err)
	}
	return dir, nil
}

// SchedulesFile is the primary catalog path.
func (p *Paths) SchedulesFile() string { return filepath.Join(p.base, schedulesFile) }

// WaitersFile is the waiter registry path.
func (p *Paths) WaitersFile() string { return filepath.Join(p.base, waitersFile) }

// HistoryFile is the SQLite history journal path.
func (p *Paths) HistoryFile() string { return filepath.Join(p.base, historyFile) }
