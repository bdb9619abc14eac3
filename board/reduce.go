package board

import (
	"errors"
	"fmt"

	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/task"
)

var (
	ErrNotLoggedIn   = errors.New("no role: log in first")
	ErrUnknownBrand  = errors.New("unknown brand")
	ErrTaskNotFound  = errors.New("task not found")
	ErrUnknownAction = errors.New("unknown action")
)

// Reducer applies actions to states. It only reads the brand catalog.
type Reducer struct {
	Brands *brand.Catalog
}

// Reduce returns the state that results from applying a to s. It never
// modifies s; on error the returned state equals s.
//
// Task mutations on an id that does not exist leave the tasks unchanged and
// return no error; ids of another brand's tasks are ErrTaskNotFound. Role and
// workflow violations are rejected with the task package's errors.
func (r Reducer) Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case Login:
		if !a.Role.Valid() {
			return s, fmt.Errorf("%w: %q", task.ErrInvalidRole, a.Role)
		}
		s.Role = a.Role
		return s, nil
	case Logout:
		s.Role = ""
		s.Selected = nil
		return s, nil
	}

	if !s.LoggedIn() {
		return s, ErrNotLoggedIn
	}

	// Task actions only reach tasks of the active brand.
	if id := taskID(a); id != 0 {
		if t, ok := s.Tasks.Get(id); ok && t.BrandID != s.Brand {
			return s, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
	}

	var (
		tasks = s.Tasks
		err   error
	)
	switch a := a.(type) {
	case SwitchBrand:
		if !r.Brands.Has(a.BrandID) {
			return s, fmt.Errorf("%w: %q", ErrUnknownBrand, a.BrandID)
		}
		s.Brand = a.BrandID
		if s.Selected != nil && s.Selected.BrandID != a.BrandID {
			s.Selected = nil
		}
		return s, nil

	case Select:
		t, ok := s.Tasks.Get(a.ID)
		if !ok || t.BrandID != s.Brand {
			return s, fmt.Errorf("%w: %d", ErrTaskNotFound, a.ID)
		}
		s.Selected = &t
		return s, nil

	case ClearSelection:
		s.Selected = nil
		return s, nil

	case ShiftMonth:
		s.Month = s.Month.Add(a.By)
		return s, nil

	case CreateContent:
		if !r.Brands.Has(s.Brand) {
			return s, fmt.Errorf("%w: %q", ErrUnknownBrand, s.Brand)
		}
		id, seq := s.Seq.Next(a.At)
		t, err := task.NewContent(id, s.Brand, a.Input)
		if err != nil {
			return s, err
		}
		s.Seq = seq
		tasks = tasks.Prepend(t)

	case CreateLink:
		if !r.Brands.Has(s.Brand) {
			return s, fmt.Errorf("%w: %q", ErrUnknownBrand, s.Brand)
		}
		id, seq := s.Seq.Next(a.At)
		s.Seq = seq
		tasks = tasks.Prepend(task.NewLink(id, s.Brand, a.Title, a.FileLink, a.At))

	case Delete:
		tasks = tasks.Delete(a.ID)
	case UpdateField:
		tasks, err = tasks.UpdateField(a.ID, s.Role, a.Field, a.Value)
	case UpdateFields:
		tasks, err = tasks.UpdateFields(a.ID, s.Role, a.Values)
	case SetStatus:
		tasks, err = tasks.SetStatus(a.ID, s.Role, a.Status)
	case MarkDone:
		tasks, err = tasks.MarkDone(a.ID, s.Role)
	case MarkPosted:
		tasks, err = tasks.MarkPosted(a.ID, s.Role)
	case AttachVisual:
		tasks, err = tasks.AttachVisual(a.ID, s.Role, a.Ref)
	case SetVisualDueDate:
		tasks, err = tasks.SetVisualDueDate(a.ID, s.Role, a.Date)

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	if err != nil {
		return s, err
	}

	s.Tasks = tasks
	s.Selected = refresh(s.Selected, tasks)
	return s, nil
}

// refresh re-reads the selected task from tasks so the open view follows
// every change; a selection whose task is gone is cleared.
func refresh(selected *task.Task, tasks task.List) *task.Task {
	if selected == nil {
		return nil
	}
	t, ok := tasks.Get(selected.ID)
	if !ok {
		return nil
	}
	return &t
}
