package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"essaycron/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduleFile(t *testing.T) *ScheduleFile {
	t.Helper()
	return NewScheduleFile(filepath.Join(t.TempDir(), "schedules.json"), testLogger())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestScheduleFileCorruptionRecovery(t *testing.T) {
	f := newTestScheduleFile(t)
	writeFile(t, f.Path(), "{corrupted")

	assert.Empty(t, f.Load())

	row := core.ScheduleEntry{Name: "A", Frequency: "daily", Time: "22:00"}
	require.NoError(t, f.Save([]core.ScheduleEntry{row}, false))
	assert.Equal(t, []core.ScheduleEntry{row}, f.Load())
}

func TestScheduleFileLoadTolerance(t *testing.T) {
	inputs := map[string]string{
		"empty":           "",
		"whitespace":      "  \n\t",
		"array":           "[]",
		"number":          "42",
		"string":          `"schedules"`,
		"null":            "null",
		"schedules int":   `{"schedules": 5}`,
		"non-object rows": `{"schedules": [1, "x", null, []]}`,
		"missing keys":    `{"schedules": [{"name": "A"}, {"frequency": "daily", "time": "09:00"}]}`,
		"truncated":       `{"schedules": [{"name": "A", "frequency": "dai`,
		"binary":          "\x00\xff\xfe",
	}
	for name, content := range inputs {
		t.Run(name, func(t *testing.T) {
			f := newTestScheduleFile(t)
			writeFile(t, f.Path(), content)
			assert.Empty(t, f.Load())
		})
	}

	t.Run("missing file", func(t *testing.T) {
		f := newTestScheduleFile(t)
		got := f.Load()
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestScheduleFileDropsInvalidRows(t *testing.T) {
	f := newTestScheduleFile(t)
	writeFile(t, f.Path(), `{"schedules": [
		{"name": "Essay_ok", "frequency": "weekly", "time": "09:00", "weekday": "monday", "theme": "ok"},
		{"name": 5, "frequency": "daily", "time": "09:00"},
		{"name": "", "frequency": "daily", "time": "09:00"},
		{"name": "Essay_no_time", "frequency": "daily"},
		"garbage"
	]}`)

	got := f.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "Essay_ok", got[0].Name)
	assert.Equal(t, "monday", got[0].Weekday)
	assert.Equal(t, "ok", got[0].Theme)
}

func TestScheduleFileRestoresBackup(t *testing.T) {
	f := newTestScheduleFile(t)
	backup := `{"schedules": [{"name": "Essay_saved", "frequency": "daily", "time": "07:00"}]}`
	writeFile(t, f.BackupPath(), backup)
	writeFile(t, f.Path(), "{corrupted")

	got := f.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "Essay_saved", got[0].Name)
	assert.Equal(t, backup, readFile(t, f.Path()))
}

func TestScheduleFileIgnoresUnusableBackup(t *testing.T) {
	for name, backup := range map[string]string{
		"corrupt":    "{also corrupted",
		"no key":     `{"entries": []}`,
		"not object": `[{"name": "A"}]`,
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			f := newTestScheduleFile(t)
			writeFile(t, f.BackupPath(), backup)
			writeFile(t, f.Path(), "{corrupted")

			assert.Empty(t, f.Load())
			assert.Equal(t, "{corrupted", readFile(t, f.Path()))
		})
	}
}

func TestScheduleFileSaveFormat(t *testing.T) {
	f := newTestScheduleFile(t)
	row := core.ScheduleEntry{Name: "Essay_jp", Frequency: "daily", Time: "09:00", Theme: "日本語 <b>&</b>"}
	require.NoError(t, f.Save([]core.ScheduleEntry{row}, false))

	raw := readFile(t, f.Path())
	assert.Contains(t, raw, "日本語 <b>&</b>")
	assert.Contains(t, raw, "\n  \"schedules\"")

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Len(t, doc["schedules"], 1)
	assert.Equal(t, "Essay_jp", doc["schedules"][0]["name"])

	require.NoError(t, f.Save(nil, false))
	assert.Contains(t, readFile(t, f.Path()), `"schedules": []`)
}

func TestScheduleFileBackupPolicy(t *testing.T) {
	row := func(name string) []core.ScheduleEntry {
		return []core.ScheduleEntry{{Name: name, Frequency: "daily", Time: "09:00"}}
	}

	t.Run("no primary no backup", func(t *testing.T) {
		f := newTestScheduleFile(t)
		require.NoError(t, f.Save(row("A"), true))
		assert.NoFileExists(t, f.BackupPath())
	})

	t.Run("missing backup is created", func(t *testing.T) {
		f := newTestScheduleFile(t)
		require.NoError(t, f.Save(row("A"), false))
		first := readFile(t, f.Path())
		require.NoError(t, f.Save(row("B"), false))
		assert.Equal(t, first, readFile(t, f.BackupPath()))
	})

	t.Run("fresh backup is kept", func(t *testing.T) {
		f := newTestScheduleFile(t)
		require.NoError(t, f.Save(row("A"), false))
		first := readFile(t, f.Path())
		require.NoError(t, f.Save(row("B"), false))
		require.NoError(t, f.Save(row("C"), false))
		assert.Equal(t, first, readFile(t, f.BackupPath()))
	})

	t.Run("forced", func(t *testing.T) {
		f := newTestScheduleFile(t)
		require.NoError(t, f.Save(row("A"), false))
		require.NoError(t, f.Save(row("B"), false))
		second := readFile(t, f.Path())
		require.NoError(t, f.Save(row("C"), true))
		assert.Equal(t, second, readFile(t, f.BackupPath()))
	})

	t.Run("stale backup", func(t *testing.T) {
		f := newTestScheduleFile(t)
		require.NoError(t, f.Save(row("A"), false))
		require.NoError(t, f.Save(row("B"), false))
		second := readFile(t, f.Path())

		old := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(f.BackupPath(), old, old))
		require.NoError(t, f.Save(row("C"), false))
		assert.Equal(t, second, readFile(t, f.BackupPath()))
	})

	t.Run("large file", func(t *testing.T) {
		f := newTestScheduleFile(t)
		big := []core.ScheduleEntry{{Name: "Essay_big", Frequency: "daily", Time: "09:00", Context: strings.Repeat("x", 2048)}}
		require.NoError(t, f.Save(row("A"), false))
		require.NoError(t, f.Save(big, false))
		require.NoError(t, f.Save(row("C"), false))
		assert.Contains(t, readFile(t, f.BackupPath()), "Essay_big")
	})
}

func TestScheduleFileSaveError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "state")
	writeFile(t, blocker, "not a directory")

	f := NewScheduleFile(filepath.Join(blocker, "schedules.json"), testLogger())
	assert.Error(t, f.Save([]core.ScheduleEntry{{Name: "A", Frequency: "daily", Time: "09:00"}}, false))
}
