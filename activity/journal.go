// Package activity keeps a queryable journal of board events in SQLite.
// It records what happened; the task list itself is never persisted.
package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/task"
)

// DefaultDSN keeps the journal in memory.
const DefaultDSN = "file::memory:?cache=shared"

const schema = `
CREATE TABLE IF NOT EXISTS activity (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	type       TEXT NOT NULL,
	session    TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT '',
	brand_id   TEXT NOT NULL DEFAULT '',
	task_id    INTEGER NOT NULL DEFAULT 0,
	detail     TEXT NOT NULL DEFAULT '',
	task       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS activity_brand ON activity (brand_id, seq);
CREATE INDEX IF NOT EXISTS activity_task ON activity (task_id, seq);
`

// Entry is one journaled event.
type Entry struct {
	Seq       int64       `json:"seq"`
	ID        string      `json:"id"`
	Type      events.Type `json:"type"`
	Session   string      `json:"session,omitempty"`
	Role      task.Role   `json:"role,omitempty"`
	BrandID   string      `json:"brand_id,omitempty"`
	TaskID    int64       `json:"task_id,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	Task      *task.Task  `json:"task,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Filter narrows List. Zero values match everything; entries come back
// newest first.
type Filter struct {
	BrandID string
	TaskID  int64
	Type    events.Type
	Limit   int
}

// Journal is a SQLite-backed activity log.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the journal at dsn. An empty dsn uses DefaultDSN.
// The caller is responsible for calling Close.
func Open(dsn string, logger *slog.Logger) (*Journal, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

// Close releases the underlying database connection.
func (j *Journal) Close() error { return j.db.Close() }

// Record appends ev to the journal.
func (j *Journal) Record(ctx context.Context, ev *events.Event) error {
	var snapshot string
	if ev.Task != nil {
		b, err := json.Marshal(ev.Task)
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}
		snapshot = string(b)
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO activity (id, type, session, role, brand_id, task_id, detail, task, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		ev.ID, string(ev.Type), ev.Session, string(ev.Role), ev.BrandID, ev.TaskID,
		ev.Detail, snapshot, ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Attach subscribes the journal to every event on bus. View changes are
// per-session noise and are skipped.
func (j *Journal) Attach(bus events.Bus) (unsubscribe func()) {
	return bus.Subscribe("", func(ctx context.Context, ev *events.Event) error {
		if ev.Type == events.TypeViewChanged {
			return nil
		}
		if err := j.Record(ctx, ev); err != nil {
			j.logger.Warn("journal event", slog.String("type", string(ev.Type)), slog.Any("err", err))
			return err
		}
		return nil
	})
}

// List returns journal entries matching filter, newest first.
func (j *Journal) List(ctx context.Context, filter Filter) ([]Entry, error) {
	q := strings.Builder{}
	q.WriteString("SELECT seq, id, type, session, role, brand_id, task_id, detail, task, created_at FROM activity WHERE 1=1")
	args := []any{}

	if filter.BrandID != "" {
		q.WriteString(" AND brand_id=?")
		args = append(args, filter.BrandID)
	}
	if filter.TaskID != 0 {
		q.WriteString(" AND task_id=?")
		args = append(args, filter.TaskID)
	}
	if filter.Type != "" {
		q.WriteString(" AND type=?")
		args = append(args, string(filter.Type))
	}
	q.WriteString(" ORDER BY seq DESC")
	if filter.Limit > 0 {
		q.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}

	rows, err := j.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanEntry.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var typ, role, snapshot string
	err := s.Scan(&e.Seq, &e.ID, &typ, &e.Session, &role, &e.BrandID, &e.TaskID, &e.Detail, &snapshot, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Type = events.Type(typ)
	e.Role = task.Role(role)
	if snapshot != "" {
		var t task.Task
		if err := json.Unmarshal([]byte(snapshot), &t); err == nil {
			e.Task = &t
		}
	}
	return e, nil
}
