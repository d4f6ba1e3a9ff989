package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ScheduleStore persists the schedule catalog.
type ScheduleStore interface {
	// Load never fails; unreadable catalogs yield an empty list.
	Load() []ScheduleEntry
	Save(entries []ScheduleEntry, forceBackup bool) error
}

// SchedulerBackend owns the OS scheduler entries prefixed with TaskPrefix.
type SchedulerBackend interface {
	Name() string
	// Native reports whether the pattern can be registered without a runner script.
	Native(p Pattern) bool
	Add(ctx context.Context, reg Registration) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// PathResolver locates the persistent directory and the runner script directory,
// creating them on first access.
type PathResolver interface {
	PersistentDir() (string, error)
	RunnersDir() (string, error)
}

// ScriptRenderer emits the generated Python helpers.
type ScriptRenderer interface {
	RunnerScript(spec MonthlySpec, command string) ([]byte, error)
	WaiterScript(target time.Time, command, logPath string) ([]byte, error)
}

// Journal records state changes. Failures never abort the caller.
type Journal interface {
	Record(ctx context.Context, ev Event) error
}

// Scheduler registers recurring essays with the OS scheduler and mirrors them
// in the catalog.
type Scheduler struct {
	// mu serializes catalog and OS scheduler updates within the process.
	mu sync.Mutex

	backend  SchedulerBackend
	store    ScheduleStore
	paths    PathResolver
	scripts  ScriptRenderer
	commands CommandBuilder
	journal  Journal
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler constructs a scheduler with the given dependencies.
func NewScheduler(backend SchedulerBackend, store ScheduleStore, paths PathResolver, scripts ScriptRenderer, commands CommandBuilder, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		backend:  backend,
		store:    store,
		paths:    paths,
		scripts:  scripts,
		commands: commands,
		logger:   logger,
		now:      time.Now,
	}
}

// SetJournal installs a history journal.
func (s *Scheduler) SetJournal(j Journal) {
	s.journal = j
}

// Add validates the request, registers it with the OS scheduler and persists
// it in the catalog. A failure after registration removes the OS entry again.
func (s *Scheduler) Add(ctx context.Context, req ScheduleRequest) (*AddResult, error) {
	pattern, err := ParsePattern(req.Frequency, req.Time, req.Weekday, req.DaySpec)
	if err != nil {
		return nil, err
	}
	lang, err := normalizeLang(req.Lang)
	if err != nil {
		return nil, err
	}

	name := TaskName(req)
	command := s.commands.Build(Payload{Theme: req.Theme, Context: req.Context, FileList: req.FileList, Lang: lang})

	s.mu.Lock()
	defer s.mu.Unlock()

	reg := Registration{TaskName: name, Command: command, Pattern: pattern}
	var runnerPath, staged string
	if !s.backend.Native(pattern) {
		runnerPath, staged, err = s.stageRunner(name, pattern.Monthly, command)
		if err != nil {
			return nil, err
		}
		reg.Command = s.commands.RunnerCommand(runnerPath)
		reg.Pattern = pattern.Daily()
	}

	// The runner of an existing schedule with this name stays in place until
	// the new OS entry is registered.
	if err := s.backend.Add(ctx, reg); err != nil {
		if staged != "" {
			_ = os.Remove(staged)
		}
		return nil, err
	}
	if staged != "" {
		if err := os.Rename(staged, runnerPath); err != nil {
			_ = os.Remove(staged)
			s.rollback(ctx, name, "", err)
			return nil, fmt.Errorf("install runner script: %w", err)
		}
	}

	entry := ScheduleEntry{
		Name:      name,
		Frequency: string(pattern.Frequency),
		Time:      pattern.Clock(),
		Theme:     req.Theme,
		Context:   req.Context,
		FileList:  req.FileList,
		Lang:      lang,
		Created:   s.now().Format(time.RFC3339),
	}
	switch pattern.Frequency {
	case FrequencyWeekly:
		entry.Weekday = WeekdayName(pattern.Weekday)
	case FrequencyMonthly:
		entry.DaySpec = strings.ToLower(strings.TrimSpace(req.DaySpec))
		entry.MonthlyType = string(pattern.Monthly.Kind)
	}

	if err := s.persist(entry); err != nil {
		s.rollback(ctx, name, runnerPath, err)
		return nil, err
	}
	if runnerPath == "" {
		s.dropStaleRunner(name)
	}

	s.record(ctx, EventScheduleAdded, name, fmt.Sprintf("%s %s via %s", entry.Frequency, entry.Time, s.backend.Name()))
	s.logger.Info("schedule registered", "name", name, "frequency", entry.Frequency, "time", entry.Time, "runner", runnerPath != "")

	return &AddResult{
		Entry:      entry,
		Command:    reg.Command,
		RunnerPath: runnerPath,
		NextRun:    NextRun(pattern, s.now()),
	}, nil
}

func (s *Scheduler) persist(entry ScheduleEntry) error {
	existing := s.store.Load()
	entries := make([]ScheduleEntry, 0, len(existing)+1)
	for _, e := range existing {
		if e.Name != entry.Name {
			entries = append(entries, e)
		}
	}
	entries = append(entries, entry)
	return s.store.Save(entries, false)
}

// rollback undoes an OS registration; its own failures are logged, never returned.
func (s *Scheduler) rollback(ctx context.Context, name, runnerPath string, cause error) {
	if err := s.backend.Remove(ctx, name); err != nil {
		s.logger.Warn("rollback scheduler entry", "name", name, "err", err)
	}
	if runnerPath != "" {
		if err := os.Remove(runnerPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("rollback runner script", "path", runnerPath, "err", err)
		}
	}
	s.record(ctx, EventScheduleRolledBack, name, cause.Error())
}

// stageRunner renders the runner script for name into a temporary file next
// to its final path and returns both paths.
func (s *Scheduler) stageRunner(name string, spec MonthlySpec, command string) (string, string, error) {
	path, err := s.runnerPath(name)
	if err != nil {
		return "", "", err
	}
	script, err := s.scripts.RunnerScript(spec, command)
	if err != nil {
		return "", "", fmt.Errorf("render runner script: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), name+".*.tmp")
	if err != nil {
		return "", "", err
	}
	staged := tmp.Name()
	_, err = tmp.Write(script)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(staged, 0o755)
	}
	if err != nil {
		_ = os.Remove(staged)
		return "", "", fmt.Errorf("write runner script: %w", err)
	}
	return path, staged, nil
}

func (s *Scheduler) runnerPath(name string) (string, error) {
	dir, err := s.paths.RunnersDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".py"), nil
}

// dropStaleRunner deletes a runner left behind when a name is overwritten by a native pattern.
func (s *Scheduler) dropStaleRunner(name string) {
	path, err := s.runnerPath(name)
	if err != nil {
		return
	}
	if err := os.Remove(path); err == nil {
		s.logger.Debug("removed stale runner script", "path", path)
	}
}

// List reconciles the OS scheduler with the catalog.
func (s *Scheduler) List(ctx context.Context) ([]ListedSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	osNames, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	inOS := make(map[string]bool, len(osNames))
	for _, name := range osNames {
		inOS[name] = true
	}

	now := s.now()
	entries := s.store.Load()
	inCatalog := make(map[string]bool, len(entries))
	listed := make([]ListedSchedule, 0, len(entries)+len(osNames))
	for i := range entries {
		entry := entries[i]
		inCatalog[entry.Name] = true
		item := ListedSchedule{Name: entry.Name, Status: StatusOrphaned, Entry: &entry}
		if inOS[entry.Name] {
			item.Status = StatusActive
		}
		if p, err := ParsePattern(entry.Frequency, entry.Time, entry.Weekday, entry.DaySpec); err == nil {
			item.NextRun = NextRun(p, now)
		}
		listed = append(listed, item)
	}

	var osOnly []string
	for _, name := range osNames {
		if !inCatalog[name] {
			osOnly = append(osOnly, name)
			inCatalog[name] = true
		}
	}
	sort.Strings(osOnly)
	for _, name := range osOnly {
		listed = append(listed, ListedSchedule{Name: name, Status: StatusOSOnly})
	}
	return listed, nil
}

// Remove deletes the OS entry, the runner script and the catalog row.
// OS failures are downgraded to warnings; a missing row is not an error.
func (s *Scheduler) Remove(ctx context.Context, name string) (*RemoveResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("schedule name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &RemoveResult{Name: name}

	if err := s.backend.Remove(ctx, name); err != nil {
		s.logger.Warn("remove scheduler entry", "name", name, "err", err)
	} else {
		res.SchedulerRemoved = true
	}

	if path, err := s.runnerPath(name); err == nil {
		if err := os.Remove(path); err == nil {
			res.RunnerRemoved = true
		} else if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("remove runner script", "path", path, "err", err)
		}
	}

	existing := s.store.Load()
	kept := make([]ScheduleEntry, 0, len(existing))
	for _, e := range existing {
		if e.Name == name {
			res.Found = true
			continue
		}
		kept = append(kept, e)
	}
	if !res.Found {
		return res, nil
	}
	if err := s.store.Save(kept, false); err != nil {
		return nil, err
	}
	s.record(ctx, EventScheduleRemoved, name, "")
	s.logger.Info("schedule removed", "name", name)
	return res, nil
}

// Preview validates a pattern and returns its next n fire times.
func (s *Scheduler) Preview(frequency, clock, weekday, daySpec string, n int) (Pattern, []time.Time, error) {
	p, err := ParsePattern(frequency, clock, weekday, daySpec)
	if err != nil {
		return Pattern{}, nil, err
	}
	times, err := NextRuns(p, s.now(), n)
	if err != nil {
		return Pattern{}, nil, err
	}
	return p, times, nil
}

// Native reports whether p registers directly, without a runner script.
func (s *Scheduler) Native(p Pattern) bool {
	return s.backend.Native(p)
}

// Backend names the OS scheduler in use.
func (s *Scheduler) Backend() string {
	return s.backend.Name()
}

func (s *Scheduler) record(ctx context.Context, kind EventKind, name, detail string) {
	recordEvent(ctx, s.journal, s.logger, s.now(), kind, name, detail)
}

func recordEvent(ctx context.Context, j Journal, logger *slog.Logger, now time.Time, kind EventKind, name, detail string) {
	if j == nil {
		return
	}
	ev := Event{ID: NewEventID(now), Kind: kind, TaskName: name, Detail: detail, CreatedAt: now.UTC()}
	if err := j.Record(ctx, ev); err != nil {
		logger.Warn("record history", "kind", kind, "name", name, "err", err)
	}
}

func normalizeLang(lang string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(lang)); l {
	case "":
		return "auto", nil
	case "ja", "en", "auto":
		return l, nil
	default:
		return "", validationErr("lang must be ja, en or auto, got %q", lang)
	}
}
