package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	waiterScriptName = "essay_waiter_temp.py"
	waiterLogName    = "essay_wait.log"

	dateTimeLayout = "2006-01-02 15:04"
)

// WaiterStore tracks detached waiter processes.
type WaiterStore interface {
	Register(pid int, targetTime, theme string) error
	Active() ([]WaiterEntry, error)
}

// ProcessSpawner starts a script in a detached process and returns its PID.
type ProcessSpawner interface {
	Spawn(ctx context.Context, scriptPath string) (int, error)
}

// Waiter starts one-shot background processes that run the delegated command
// at a target time.
type Waiter struct {
	// mu serializes registry reads and writes within the process.
	mu sync.Mutex

	store    WaiterStore
	spawner  ProcessSpawner
	paths    PathResolver
	scripts  ScriptRenderer
	commands CommandBuilder
	journal  Journal
	logger   *slog.Logger
	now      func() time.Time
}

// NewWaiter constructs a waiter orchestrator.
func NewWaiter(store WaiterStore, spawner ProcessSpawner, paths PathResolver, scripts ScriptRenderer, commands CommandBuilder, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter{
		store:    store,
		spawner:  spawner,
		paths:    paths,
		scripts:  scripts,
		commands: commands,
		logger:   logger,
		now:      time.Now,
	}
}

// SetJournal installs a history journal.
func (w *Waiter) SetJournal(j Journal) {
	w.journal = j
}

// ParseTarget resolves "HH:MM" (today, or tomorrow if already past) or
// "YYYY-MM-DD HH:MM" (must be in the future) relative to now.
func ParseTarget(target string, now time.Time) (time.Time, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return time.Time{}, patternErr(target, "target time is required")
	}
	if !strings.Contains(target, " ") {
		hour, minute, err := ParseClock(target)
		if err != nil {
			return time.Time{}, err
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}
	at, err := time.ParseInLocation(dateTimeLayout, target, now.Location())
	if err != nil {
		return time.Time{}, patternErr(target, "target must be HH:MM or YYYY-MM-DD HH:MM")
	}
	if !at.After(now) {
		return time.Time{}, validationErr("target %s is not in the future", target)
	}
	return at, nil
}

// Wait renders the waiter script, spawns it detached and registers its PID.
func (w *Waiter) Wait(ctx context.Context, req WaitRequest) (*WaitResult, error) {
	at, err := ParseTarget(req.Target, w.now())
	if err != nil {
		return nil, err
	}
	lang, err := normalizeLang(req.Lang)
	if err != nil {
		return nil, err
	}

	dir, err := w.paths.PersistentDir()
	if err != nil {
		return nil, err
	}
	scriptPath := filepath.Join(dir, waiterScriptName)
	logPath := filepath.Join(dir, waiterLogName)

	command := w.commands.Build(Payload{Theme: req.Theme, Context: req.Context, FileList: req.FileList, Lang: lang})
	script, err := w.scripts.WaiterScript(at, command, logPath)
	if err != nil {
		return nil, fmt.Errorf("render waiter script: %w", err)
	}
	if err := os.WriteFile(scriptPath, script, 0o644); err != nil {
		return nil, err
	}

	pid, err := w.spawner.Spawn(ctx, scriptPath)
	if err != nil {
		return nil, fmt.Errorf("spawn waiter: %w", err)
	}
	if err := w.register(pid, strings.TrimSpace(req.Target), req.Theme); err != nil {
		w.logger.Warn("waiter running but not registered", "pid", pid, "err", err)
		return nil, fmt.Errorf("waiter %d is already running but could not be registered: %w", pid, err)
	}

	recordEvent(ctx, w.journal, w.logger, w.now(), EventWaiterStarted, "",
		fmt.Sprintf("pid %d until %s", pid, at.Format(dateTimeLayout)))
	w.logger.Info("waiter started", "pid", pid, "target", at.Format(dateTimeLayout))

	return &WaitResult{
		PID:        pid,
		Target:     at,
		ScriptPath: scriptPath,
		LogPath:    logPath,
		Command:    command,
	}, nil
}

func (w *Waiter) register(pid int, target, theme string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Register(pid, target, theme)
}

// ListActive returns the waiters whose processes are still alive.
func (w *Waiter) ListActive(ctx context.Context) ([]WaiterEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Active()
}
