// Package board holds the application state of the content board and the
// pure reducer that applies user actions to it.
package board

import (
	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/calendar"
	"github.com/GoCodeAlone/postboard/task"
)

// State is everything one user session sees: who is acting, which brand and
// task are open, where the calendar cursor is, and the task snapshot.
type State struct {
	Role     task.Role      `json:"role"`
	Brand    string         `json:"brand"`
	Selected *task.Task     `json:"selected,omitempty"`
	Month    calendar.Month `json:"month"`
	Tasks    task.List      `json:"-"`
	Seq      task.Sequence  `json:"-"`
}

// NewState returns a logged-out state over tasks with brandID active.
func NewState(brandID string, tasks task.List, month calendar.Month) State {
	return State{
		Brand: brandID,
		Month: month,
		Tasks: tasks,
		Seq:   task.NewSequence(tasks.MaxID()),
	}
}

// LoggedIn reports whether a role has been set.
func (s State) LoggedIn() bool { return s.Role.Valid() }

// Visible returns the tasks of the active brand.
func (s State) Visible() task.List {
	return s.Tasks.ForBrand(s.Brand)
}

// Stats summarises progress for a brand.
type Stats struct {
	BrandID       string `json:"brand_id"`
	Total         int    `json:"total"`
	Posted        int    `json:"posted"`
	Target        int    `json:"target"`
	Progress      int    `json:"progress"` // percent of target
	PendingReview int    `json:"pending_review"`
}

// Summarize computes the dashboard numbers for b over tasks.
func Summarize(b brand.Brand, tasks task.List) Stats {
	own := tasks.ForBrand(b.ID)
	posted := own.Count(task.StatusPosted)
	return Stats{
		BrandID:       b.ID,
		Total:         own.Len(),
		Posted:        posted,
		Target:        b.Target,
		Progress:      b.Progress(posted),
		PendingReview: own.Count(task.StatusNeedApproval),
	}
}
