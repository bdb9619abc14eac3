package board

import (
	"time"

	"github.com/GoCodeAlone/postboard/task"
)

// Action is a user intent applied to a State by Reduce.
type Action interface {
	// Kind names the action for logs and events.
	Kind() string
}

// Login fixes the acting role for the session.
type Login struct {
	Role task.Role `json:"role"`
}

// Logout clears the role and selection.
type Logout struct{}

// SwitchBrand changes the active brand. Tasks are not touched.
type SwitchBrand struct {
	BrandID string `json:"brand_id"`
}

// Select opens a task.
type Select struct {
	ID int64 `json:"id"`
}

// ClearSelection closes the open task.
type ClearSelection struct{}

// ShiftMonth moves the calendar cursor By months.
type ShiftMonth struct {
	By int `json:"by"`
}

// CreateContent adds a content task to the active brand. At is the creation
// time used to issue the id.
type CreateContent struct {
	Input task.ContentInput `json:"input"`
	At    time.Time         `json:"at"`
}

// CreateLink adds an asset-link record to the active brand.
type CreateLink struct {
	Title    string    `json:"title"`
	FileLink string    `json:"file_link"`
	At       time.Time `json:"at"`
}

// Delete removes a task.
type Delete struct {
	ID int64 `json:"id"`
}

// UpdateField replaces one free-text field of a task.
type UpdateField struct {
	ID    int64      `json:"id"`
	Field task.Field `json:"field"`
	Value string     `json:"value"`
}

// UpdateFields replaces several free-text fields of a task in one change.
type UpdateFields struct {
	ID     int64                 `json:"id"`
	Values map[task.Field]string `json:"values"`
}

// SetStatus is the client's unrestricted status override.
type SetStatus struct {
	ID     int64       `json:"id"`
	Status task.Status `json:"status"`
}

// MarkDone is the agency's wording_approve -> done transition.
type MarkDone struct {
	ID int64 `json:"id"`
}

// MarkPosted moves a finished task to posted.
type MarkPosted struct {
	ID int64 `json:"id"`
}

// AttachVisual sets a task's visual reference.
type AttachVisual struct {
	ID  int64  `json:"id"`
	Ref string `json:"ref"`
}

// SetVisualDueDate sets the date the visual is due.
type SetVisualDueDate struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
}

func (Login) Kind() string            { return "login" }
func (Logout) Kind() string           { return "logout" }
func (SwitchBrand) Kind() string      { return "switch_brand" }
func (Select) Kind() string           { return "select" }
func (ClearSelection) Kind() string   { return "clear_selection" }
func (ShiftMonth) Kind() string       { return "shift_month" }
func (CreateContent) Kind() string    { return "create_content" }
func (CreateLink) Kind() string       { return "create_link" }
func (Delete) Kind() string           { return "delete" }
func (UpdateField) Kind() string      { return "update_field" }
func (UpdateFields) Kind() string     { return "update_fields" }
func (SetStatus) Kind() string        { return "set_status" }
func (MarkDone) Kind() string         { return "mark_done" }
func (MarkPosted) Kind() string       { return "mark_posted" }
func (AttachVisual) Kind() string     { return "attach_visual" }
func (SetVisualDueDate) Kind() string { return "set_visual_due_date" }

// taskID returns the task an action targets, or 0.
func taskID(a Action) int64 {
	switch a := a.(type) {
	case Select:
		return a.ID
	case Delete:
		return a.ID
	case UpdateField:
		return a.ID
	case UpdateFields:
		return a.ID
	case SetStatus:
		return a.ID
	case MarkDone:
		return a.ID
	case MarkPosted:
		return a.ID
	case AttachVisual:
		return a.ID
	case SetVisualDueDate:
		return a.ID
	}
	return 0
}
