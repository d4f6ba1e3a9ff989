package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"essaycron/internal/core"
)

const (
	defaultHistoryLimit = 20
	// eventTimeLayout is fixed-width so created_at sorts lexically.
	eventTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Record inserts ev and trims the journal to the newest Keep events.
func (h *History) Record(ctx context.Context, ev core.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.ID == "" {
		ev.ID = core.NewEventID(ev.CreatedAt)
	}
	_, err := h.DB.ExecContext(ctx, `
		INSERT INTO events (id, kind, task_name, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ev.ID, string(ev.Kind), nullableString(ev.TaskName), nullableString(ev.Detail),
		ev.CreatedAt.UTC().Format(eventTimeLayout))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return h.prune(ctx)
}

// List returns the newest events first. A non-positive limit selects the default.
func (h *History) List(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, kind, task_name, detail, created_at
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var events []core.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (h *History) prune(ctx context.Context) error {
	_, err := h.DB.ExecContext(ctx, `
		DELETE FROM events
		WHERE id NOT IN (
			SELECT id FROM events
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
	`, h.Keep)
	if err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	return nil
}

func scanEvent(scanner interface {
	Scan(dest ...any) error
}) (core.Event, error) {
	var (
		id        string
		kind      string
		taskName  sql.NullString
		detail    sql.NullString
		createdAt string
	)
	if err := scanner.Scan(&id, &kind, &taskName, &detail, &createdAt); err != nil {
		return core.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev := core.Event{
		ID:       id,
		Kind:     core.EventKind(kind),
		TaskName: taskName.String,
		Detail:   detail.String,
	}
	if t, err := time.Parse(eventTimeLayout, createdAt); err == nil {
		ev.CreatedAt = t
	}
	return ev, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
