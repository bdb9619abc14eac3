package api

import (
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/task"
)

// TaskView is a task as rendered for a role, with derived fields.
type TaskView struct {
	task.Task
	StatusLabel     string           `json:"status_label"`
	DoneLabel       string           `json:"done_label,omitempty"` // set when the role may mark it done
	CaptionDeadline string           `json:"caption_deadline,omitempty"`
	Permissions     task.Permissions `json:"permissions"`
}

func newTaskView(role task.Role, t task.Task) TaskView {
	v := TaskView{
		Task:        t,
		StatusLabel: t.Status.Label(),
		Permissions: task.PermissionsFor(role, t),
	}
	if v.Permissions.MarkDone {
		v.DoneLabel = t.Type.DoneLabel()
	}
	if due, ok := task.CaptionDeadline(t.Date); ok {
		v.CaptionDeadline = due
	}
	return v
}

func taskViews(role task.Role, l task.List) []TaskView {
	out := make([]TaskView, 0, l.Len())
	for _, t := range l.All() {
		out = append(out, newTaskView(role, t))
	}
	return out
}

// BrandView pairs a brand with its dashboard numbers.
type BrandView struct {
	brand.Brand
	Stats board.Stats `json:"stats"`
}

// BoardView is the full state of one session.
type BoardView struct {
	Role       task.Role   `json:"role"`
	Brand      BrandView   `json:"brand"`
	Month      string      `json:"month"`
	MonthLabel string      `json:"month_label"`
	Selected   *TaskView   `json:"selected,omitempty"`
	Tasks      []TaskView  `json:"tasks"`
	Brands     []BrandView `json:"brands"`
}

func newBoardView(brands *brand.Catalog, s board.State) BoardView {
	b, _ := brands.Get(s.Brand)
	v := BoardView{
		Role:       s.Role,
		Brand:      BrandView{Brand: b, Stats: board.Summarize(b, s.Tasks)},
		Month:      s.Month.String(),
		MonthLabel: s.Month.Label(),
		Tasks:      taskViews(s.Role, s.Visible()),
		Brands:     brandViews(brands, s.Tasks),
	}
	if s.Selected != nil {
		sel := newTaskView(s.Role, *s.Selected)
		v.Selected = &sel
	}
	return v
}

func brandViews(brands *brand.Catalog, tasks task.List) []BrandView {
	list := brands.List()
	out := make([]BrandView, 0, len(list))
	for _, b := range list {
		out = append(out, BrandView{Brand: b, Stats: board.Summarize(b, tasks)})
	}
	return out
}
