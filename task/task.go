// Package task defines the content task model, its approval workflow and the
// copy-on-write task list the board is built on.
package task

// Status represents the approval state of a content task.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusNeedApproval     Status = "need_approval"
	StatusWordingApprove   Status = "wording_approve"
	StatusIllustrationDone Status = "illustration_done"
	StatusVideoDone        Status = "video_done"
	StatusPosted           Status = "posted"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{
	StatusDraft,
	StatusNeedApproval,
	StatusWordingApprove,
	StatusIllustrationDone,
	StatusVideoDone,
	StatusPosted,
}

// Valid reports whether s is one of the six workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusNeedApproval, StatusWordingApprove,
		StatusIllustrationDone, StatusVideoDone, StatusPosted:
		return true
	}
	return false
}

// ContentType is the kind of social content a task produces.
type ContentType string

const (
	TypeFeed  ContentType = "Feed"
	TypeReels ContentType = "Reels"
)

// Valid reports whether t is Feed or Reels.
func (t ContentType) Valid() bool {
	return t == TypeFeed || t == TypeReels
}

// Role identifies who is acting on the board.
type Role string

const (
	RoleAgency Role = "agency" // content producer
	RoleClient Role = "client" // content approver
)

// Valid reports whether r is agency or client.
func (r Role) Valid() bool {
	return r == RoleAgency || r == RoleClient
}

// DateTBD marks a task whose publish date has not been decided yet.
const DateTBD = "To be decided"

// DateLayout is the layout of every date string stored on a task.
const DateLayout = "2006-01-02"

// PlaceholderVisual is attached by MarkDone when a task has no visual yet.
const PlaceholderVisual = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?auto=format&fit=crop&q=80&w=300&h=200"

// Task is one piece of scheduled social content.
type Task struct {
	ID            int64       `json:"id"`
	BrandID       string      `json:"brand_id"`
	Title         string      `json:"title"`
	Type          ContentType `json:"type"`
	Date          string      `json:"date"` // publish date or DateTBD
	Status        Status      `json:"status"`
	VisualDueDate string      `json:"visual_due_date"`
	Script        string      `json:"script"`
	Source        string      `json:"source"`
	Caption       string      `json:"caption"`
	Feedback      string      `json:"feedback"`
	ClientNotes   string      `json:"client_notes"`
	FileLink      string      `json:"file_link"`
	Image         string      `json:"image,omitempty"` // remote URL or blob reference; empty when absent
}

// HasImage reports whether a visual is attached.
func (t Task) HasImage() bool { return t.Image != "" }

// Scheduled reports whether the task has a concrete publish date.
func (t Task) Scheduled() bool {
	return t.Date != "" && t.Date != DateTBD
}
