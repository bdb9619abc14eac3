// Package events carries board change notifications from the registry to
// subscribers such as the SSE hub and the activity journal.
package events

import (
	"context"
	"time"

	"github.com/GoCodeAlone/postboard/task"
)

// Type identifies what happened on the board.
type Type string

const (
	TypeTaskCreated    Type = "task.created"
	TypeTaskDeleted    Type = "task.deleted"
	TypeTaskUpdated    Type = "task.updated" // a free-text field changed
	TypeStatusChanged  Type = "task.status"
	TypeVisualAttached Type = "task.visual"
	TypeSessionOpened  Type = "session.opened"
	TypeSessionClosed  Type = "session.closed"
	TypeViewChanged    Type = "view.changed" // brand, selection or month cursor of one session
)

// Event is a single change notification.
type Event struct {
	ID        string     `json:"id"`
	Type      Type       `json:"type"`
	Session   string     `json:"session,omitempty"`
	Role      task.Role  `json:"role,omitempty"`
	BrandID   string     `json:"brand_id,omitempty"`
	TaskID    int64      `json:"task_id,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	Task      *task.Task `json:"task,omitempty"`     // task after the change; nil for deletes
	Previous  *task.Task `json:"previous,omitempty"` // task before the change
	Timestamp time.Time  `json:"timestamp"`
}

// Handler processes a published event.
type Handler func(ctx context.Context, ev *Event) error

// Bus fans events out to subscribers and keeps a bounded history.
type Bus interface {
	// Publish delivers ev to every subscriber of its type and to every
	// subscriber of all types.
	Publish(ctx context.Context, ev *Event) error

	// Subscribe registers handler for events of type t, or for all events
	// when t is empty. Returns an unsubscribe function.
	Subscribe(t Type, handler Handler) (unsubscribe func())

	// History returns up to limit of the most recent events, oldest first.
	History(limit int) ([]*Event, error)
}
