package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"essaycron/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T, keep int) *History {
	t.Helper()
	h, err := OpenHistory(context.Background(), filepath.Join(t.TempDir(), "history.db"), keep)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistoryRecordAndList(t *testing.T) {
	h := openTestHistory(t, 10)
	ctx := context.Background()
	base := time.Date(2024, time.May, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Record(ctx, core.Event{Kind: core.EventScheduleAdded, TaskName: "Essay_a", Detail: "daily 09:00", CreatedAt: base}))
	require.NoError(t, h.Record(ctx, core.Event{Kind: core.EventWaiterStarted, Detail: "pid 42", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, h.Record(ctx, core.Event{Kind: core.EventScheduleRemoved, TaskName: "Essay_a", CreatedAt: base.Add(2 * time.Minute)}))

	events, err := h.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, core.EventScheduleRemoved, events[0].Kind)
	assert.Equal(t, core.EventWaiterStarted, events[1].Kind)
	assert.Equal(t, "", events[1].TaskName)
	assert.Equal(t, "pid 42", events[1].Detail)
	assert.Equal(t, core.EventScheduleAdded, events[2].Kind)
	assert.Equal(t, base, events[2].CreatedAt)
	assert.NotEmpty(t, events[2].ID)

	limited, err := h.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, core.EventScheduleRemoved, limited[0].Kind)
}

func TestHistoryPrunesToKeep(t *testing.T) {
	h := openTestHistory(t, 2)
	ctx := context.Background()
	base := time.Date(2024, time.May, 10, 8, 0, 0, 0, time.UTC)

	for i, name := range []string{"Essay_a", "Essay_b", "Essay_c"} {
		require.NoError(t, h.Record(ctx, core.Event{Kind: core.EventScheduleAdded, TaskName: name, CreatedAt: base.Add(time.Duration(i) * time.Second)}))
	}

	events, err := h.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Essay_c", events[0].TaskName)
	assert.Equal(t, "Essay_b", events[1].TaskName)
}

func TestOpenHistoryTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	h, err := OpenHistory(ctx, path, 5)
	require.NoError(t, err)
	require.NoError(t, h.Record(ctx, core.Event{Kind: core.EventScheduleAdded, TaskName: "Essay_a"}))
	require.NoError(t, h.Close())

	h, err = OpenHistory(ctx, path, 5)
	require.NoError(t, err)
	defer h.Close()
	events, err := h.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Essay_a", events[0].TaskName)
}

func TestOpenHistoryRecordsMigrations(t *testing.T) {
	h := openTestHistory(t, 5)

	var versions []string
	rows, err := h.DB.Query(`SELECT version FROM schema_migrations ORDER BY version`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"0001_history"}, versions)
}
