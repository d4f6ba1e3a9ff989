package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePaths struct {
	base string
}

func (p fakePaths) PersistentDir() (string, error) {
	return p.base, os.MkdirAll(p.base, 0o755)
}

func (p fakePaths) RunnersDir() (string, error) {
	dir := filepath.Join(p.base, "runners")
	return dir, os.MkdirAll(dir, 0o755)
}

type fakeRenderer struct{}

func (fakeRenderer) RunnerScript(spec MonthlySpec, command string) ([]byte, error) {
	return []byte("if " + spec.Predicate() + ":\n    run(" + command + ")\n"), nil
}

func (fakeRenderer) WaiterScript(target time.Time, command, logPath string) ([]byte, error) {
	return []byte(target.Format(dateTimeLayout) + "\n" + command + "\n" + logPath + "\n"), nil
}

// fakeBackend behaves like crontab by default: monthly patterns are not native.
type fakeBackend struct {
	nativeMonthly bool
	entries       map[string]Registration
	adds          []Registration
	removes       []string
	addErr        error
	listErr       error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: make(map[string]Registration)}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Native(p Pattern) bool {
	if p.Frequency != FrequencyMonthly {
		return true
	}
	return b.nativeMonthly && p.Monthly.Kind != MonthlyLastDay
}

func (b *fakeBackend) Add(_ context.Context, reg Registration) error {
	b.adds = append(b.adds, reg)
	if b.addErr != nil {
		return b.addErr
	}
	b.entries[reg.TaskName] = reg
	return nil
}

func (b *fakeBackend) Remove(_ context.Context, name string) error {
	b.removes = append(b.removes, name)
	if _, ok := b.entries[name]; !ok {
		return &SchedulerError{Op: "remove", Err: ErrScheduleNotFound}
	}
	delete(b.entries, name)
	return nil
}

func (b *fakeBackend) List(context.Context) ([]string, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type fakeStore struct {
	entries []ScheduleEntry
	saveErr error
	saves   int
}

func (s *fakeStore) Load() []ScheduleEntry {
	return append([]ScheduleEntry(nil), s.entries...)
}

func (s *fakeStore) Save(entries []ScheduleEntry, _ bool) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = append([]ScheduleEntry(nil), entries...)
	return nil
}

type fakeJournal struct {
	events []Event
	err    error
}

func (j *fakeJournal) Record(_ context.Context, ev Event) error {
	j.events = append(j.events, ev)
	return j.err
}

func (j *fakeJournal) kinds() []EventKind {
	kinds := make([]EventKind, 0, len(j.events))
	for _, ev := range j.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type fakeWaiterStore struct {
	registered []WaiterEntry
	err        error
}

func (s *fakeWaiterStore) Register(pid int, targetTime, theme string) error {
	if s.err != nil {
		return s.err
	}
	s.registered = append(s.registered, WaiterEntry{PID: pid, TargetTime: targetTime, Theme: theme})
	return nil
}

func (s *fakeWaiterStore) Active() ([]WaiterEntry, error) {
	return s.registered, s.err
}

type fakeSpawner struct {
	pid     int
	err     error
	scripts []string
}

func (s *fakeSpawner) Spawn(_ context.Context, scriptPath string) (int, error) {
	s.scripts = append(s.scripts, scriptPath)
	return s.pid, s.err
}
