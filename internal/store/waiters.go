package store

import (
	"log/slog"
	"time"

	"essaycron/internal/core"

	"github.com/tidwall/gjson"
)

// LivenessChecker answers whether a PID is still running.
type LivenessChecker interface {
	IsAlive(pid int) bool
}

type waitersDocument struct {
	Waiters []core.WaiterEntry `json:"waiters"`
}

// WaiterFile is the JSON registry of detached waiter processes.
type WaiterFile struct {
	path     string
	liveness LivenessChecker
	logger   *slog.Logger
	now      func() time.Time
}

// NewWaiterFile returns a registry stored at path.
func NewWaiterFile(path string, liveness LivenessChecker, logger *slog.Logger) *WaiterFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &WaiterFile{path: path, liveness: liveness, logger: logger, now: time.Now}
}

// Register appends a waiter with a fresh timestamp.
func (f *WaiterFile) Register(pid int, targetTime, theme string) error {
	entries, err := f.read()
	if err != nil {
		return err
	}
	entries = append(entries, core.WaiterEntry{
		PID:          pid,
		TargetTime:   targetTime,
		Theme:        theme,
		RegisteredAt: f.now().Format(time.RFC3339),
	})
	return writeDocument(f.path, waitersDocument{Waiters: entries})
}

// Active returns the waiters whose processes are alive. When any were pruned
// the file is rewritten with the survivors.
func (f *WaiterFile) Active() ([]core.WaiterEntry, error) {
	entries, err := f.read()
	if err != nil {
		return nil, err
	}
	alive := make([]core.WaiterEntry, 0, len(entries))
	for _, e := range entries {
		if f.liveness.IsAlive(e.PID) {
			alive = append(alive, e)
		}
	}
	if len(alive) != len(entries) {
		f.logger.Debug("pruned dead waiters", "pruned", len(entries)-len(alive))
		if err := writeDocument(f.path, waitersDocument{Waiters: alive}); err != nil {
			f.logger.Warn("rewrite waiter registry", "path", f.path, "err", err)
		}
	}
	return alive, nil
}

// read drops malformed rows. A corrupt registry reads as empty.
func (f *WaiterFile) read() ([]core.WaiterEntry, error) {
	doc, err := readDocument(f.path)
	if err != nil {
		if isCorrupt(err) {
			f.logger.Warn("waiter registry is corrupt", "path", f.path, "err", err)
			return []core.WaiterEntry{}, nil
		}
		return nil, err
	}
	entries := []core.WaiterEntry{}
	for _, row := range rows(doc, "waiters") {
		pid := row.Get("pid")
		if pid.Type != gjson.Number || pid.Num != float64(int(pid.Num)) {
			continue
		}
		if !hasStrings(row, false, "target_time", "theme", "registered_at") {
			continue
		}
		entries = append(entries, core.WaiterEntry{
			PID:          int(pid.Num),
			TargetTime:   row.Get("target_time").Str,
			Theme:        row.Get("theme").Str,
			RegisteredAt: row.Get("registered_at").Str,
		})
	}
	return entries, nil
}
