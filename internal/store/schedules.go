package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"essaycron/internal/core"
)

const (
	backupSizeThreshold = 1024
	backupMaxAge        = time.Hour
)

type schedulesDocument struct {
	Schedules []core.ScheduleEntry `json:"schedules"`
}

// ScheduleFile is the JSON schedule catalog with a rotating .bak sibling.
type ScheduleFile struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewScheduleFile returns a catalog stored at path.
func NewScheduleFile(path string, logger *slog.Logger) *ScheduleFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleFile{path: path, logger: logger, now: time.Now}
}

// Path returns the primary catalog path.
func (f *ScheduleFile) Path() string { return f.path }

// BackupPath returns the backup path.
func (f *ScheduleFile) BackupPath() string { return f.path + ".bak" }

// Load returns the catalog rows. It never fails: a corrupt file is restored
// from the backup when possible, and rows missing name, frequency or time are
// dropped.
func (f *ScheduleFile) Load() []core.ScheduleEntry {
	entries, err := f.read()
	if err == nil {
		return entries
	}
	if !isCorrupt(err) {
		f.logger.Warn("read schedule catalog", "path", f.path, "err", err)
		return []core.ScheduleEntry{}
	}

	f.logger.Warn("schedule catalog is corrupt", "path", f.path, "err", err)
	if !f.restoreBackup() {
		return []core.ScheduleEntry{}
	}
	entries, err = f.read()
	if err != nil {
		f.logger.Warn("read restored schedule catalog", "path", f.path, "err", err)
		return []core.ScheduleEntry{}
	}
	f.logger.Warn("schedule catalog restored from backup", "path", f.path, "entries", len(entries))
	return entries
}

func (f *ScheduleFile) read() ([]core.ScheduleEntry, error) {
	doc, err := readDocument(f.path)
	if err != nil {
		return nil, err
	}
	entries := []core.ScheduleEntry{}
	for _, row := range rows(doc, "schedules") {
		if !hasStrings(row, true, "name", "frequency", "time") {
			continue
		}
		var entry core.ScheduleEntry
		if err := json.Unmarshal([]byte(row.Raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// restoreBackup replaces the primary file with the backup when the backup
// parses and carries a schedules key.
func (f *ScheduleFile) restoreBackup() bool {
	doc, err := readDocument(f.BackupPath())
	if err != nil || !doc.IsObject() || !doc.Get("schedules").Exists() {
		return false
	}
	if err := copyFile(f.BackupPath(), f.path); err != nil {
		f.logger.Warn("restore schedule backup", "path", f.BackupPath(), "err", err)
		return false
	}
	return true
}

// Save overwrites the catalog. The current file is first copied to the backup
// when forced, when it has grown to 1 KiB, or when the backup is missing or
// older than an hour.
func (f *ScheduleFile) Save(entries []core.ScheduleEntry, forceBackup bool) error {
	if f.shouldBackup(forceBackup) {
		if err := copyFile(f.path, f.BackupPath()); err != nil {
			f.logger.Warn("backup schedule catalog", "path", f.BackupPath(), "err", err)
		}
	}
	if entries == nil {
		entries = []core.ScheduleEntry{}
	}
	return writeDocument(f.path, schedulesDocument{Schedules: entries})
}

func (f *ScheduleFile) shouldBackup(force bool) bool {
	info, err := os.Stat(f.path)
	if err != nil {
		return false
	}
	if force || info.Size() >= backupSizeThreshold {
		return true
	}
	bak, err := os.Stat(f.BackupPath())
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	if err != nil {
		return false
	}
	return f.now().Sub(bak.ModTime()) > backupMaxAge
}
