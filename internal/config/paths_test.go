package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsLayout(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "state")
	p := NewPathsAt(base)

	assert.Equal(t, base, p.Base())
	assert.Equal(t, filepath.Join(base, "schedules.json"), p.SchedulesFile())
	assert.Equal(t, filepath.Join(base, "active_waiters.json"), p.WaitersFile())
	assert.Equal(t, filepath.Join(base, "history.db"), p.HistoryFile())
	assert.NoDirExists(t, base)

	dir, err := p.PersistentDir()
	require.NoError(t, err)
	assert.Equal(t, base, dir)
	assert.DirExists(t, base)

	runners, err := p.RunnersDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "runners"), runners)
	assert.DirExists(t, runners)
}

func TestPathsBlockedByFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewPathsAt(blocker).RunnersDir()
	assert.Error(t, err)
}

func TestDefaultStateDir(t *testing.T) {
	dir, err := DefaultStateDir()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(dir, filepath.Join(".claude", "plugins", ".emailingessay")), dir)
}
