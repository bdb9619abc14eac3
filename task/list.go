package task

import "encoding/json"

// List is an immutable snapshot of tasks, most recent first. Every operation
// that changes a task returns a new List; the receiver and any slice handed
// out earlier are never written to.
type List struct {
	tasks []Task
}

// NewList copies tasks into a new List.
func NewList(tasks ...Task) List {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return List{tasks: out}
}

// Len returns the number of tasks.
func (l List) Len() int { return len(l.tasks) }

// All returns a copy of the tasks in list order.
func (l List) All() []Task {
	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Get returns the task with the given id.
func (l List) Get(id int64) (Task, bool) {
	for _, t := range l.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Filter returns the tasks for which keep returns true.
func (l List) Filter(keep func(Task) bool) List {
	var out []Task
	for _, t := range l.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return List{tasks: out}
}

// ForBrand returns the tasks that belong to brandID.
func (l List) ForBrand(brandID string) List {
	return l.Filter(func(t Task) bool { return t.BrandID == brandID })
}

// WithFileLink returns the tasks that carry an asset link.
func (l List) WithFileLink() List {
	return l.Filter(func(t Task) bool { return t.FileLink != "" })
}

// OnDate returns the tasks scheduled for date (YYYY-MM-DD).
func (l List) OnDate(date string) List {
	return l.Filter(func(t Task) bool { return t.Date == date })
}

// Count returns how many tasks are in status s.
func (l List) Count(s Status) int {
	n := 0
	for _, t := range l.tasks {
		if t.Status == s {
			n++
		}
	}
	return n
}

// MaxID returns the largest id in the list, or 0 when empty.
func (l List) MaxID() int64 {
	var max int64
	for _, t := range l.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

// Prepend returns a new list with t in front.
func (l List) Prepend(t Task) List {
	out := make([]Task, 0, len(l.tasks)+1)
	out = append(out, t)
	out = append(out, l.tasks...)
	return List{tasks: out}
}

// Delete returns a new list without the task id. Deleting an id that is not
// present returns an equal list.
func (l List) Delete(id int64) List {
	return l.Filter(func(t Task) bool { return t.ID != id })
}

// apply rebuilds the list with fn applied to the task id. A missing id yields
// the receiver unchanged; an error from fn aborts without producing a list.
func (l List) apply(id int64, fn func(Task) (Task, error)) (List, error) {
	i := -1
	for j, t := range l.tasks {
		if t.ID == id {
			i = j
			break
		}
	}
	if i < 0 {
		return l, nil
	}
	updated, err := fn(l.tasks[i])
	if err != nil {
		return l, err
	}
	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	out[i] = updated
	return List{tasks: out}, nil
}

// MarshalJSON encodes the list as a JSON array; an empty list encodes as [].
func (l List) MarshalJSON() ([]byte, error) {
	if l.tasks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.tasks)
}
