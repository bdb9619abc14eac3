package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/calendar"
	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/task"
)

// ErrNoSession is returned for a session id the registry does not know.
var ErrNoSession = errors.New("session not found")

// view is the per-session part of a State. The selection is kept as an id
// and resolved against the shared snapshot, so a delete from any session
// clears it everywhere.
type view struct {
	role       task.Role
	brand      string
	selectedID int64
	month      calendar.Month
}

// Registry owns the shared task snapshot and the view of every open session.
// Dispatches are serialised; each one swaps in a whole new snapshot, so
// readers never observe a partial update.
type Registry struct {
	mu       sync.RWMutex
	reducer  Reducer
	tasks    task.List
	seq      task.Sequence
	sessions map[string]*view

	// current mirrors tasks for lock-free readers such as bus subscribers.
	current atomic.Pointer[task.List]

	// pubMu is taken before mu is released so events go out in commit order.
	pubMu sync.Mutex

	month        calendar.Month
	defaultBrand string
	bus          events.Bus
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithBus publishes an event for every applied change. Events are delivered
// in commit order; subscribers must not dispatch back into the registry.
func WithBus(bus events.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides time.Now for id issuing and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithMonth sets the calendar cursor new sessions start on.
func WithMonth(m calendar.Month) Option {
	return func(r *Registry) { r.month = m }
}

// WithDefaultBrand sets the brand new sessions start on. Unknown brands
// fall back to the first brand of the catalog.
func WithDefaultBrand(id string) Option {
	return func(r *Registry) { r.defaultBrand = id }
}

// NewRegistry creates a registry over brands and an initial task snapshot.
func NewRegistry(brands *brand.Catalog, tasks task.List, opts ...Option) *Registry {
	r := &Registry{
		reducer:  Reducer{Brands: brands},
		tasks:    tasks,
		seq:      task.NewSequence(tasks.MaxID()),
		sessions: make(map[string]*view),
		now:      time.Now,
	}
	r.current.Store(&tasks)
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.month.IsZero() {
		r.month = calendar.MonthOf(r.now())
	}
	if !brands.Has(r.defaultBrand) {
		r.defaultBrand = brands.Default().ID
	}
	return r
}

// Brands returns the brand catalog.
func (r *Registry) Brands() *brand.Catalog { return r.reducer.Brands }

// Snapshot returns the current task list.
func (r *Registry) Snapshot() task.List {
	return *r.current.Load()
}

// InUse reports whether any task currently shows image.
func (r *Registry) InUse(image string) bool {
	return r.Snapshot().Filter(func(t task.Task) bool { return t.Image == image }).Len() > 0
}

// Open starts a session for role on the default brand and returns its id.
func (r *Registry) Open(ctx context.Context, role task.Role) (string, State, error) {
	r.mu.Lock()
	st := NewState(r.defaultBrand, r.tasks, r.month)
	st.Seq = r.seq
	next, err := r.reducer.Reduce(st, Login{Role: role})
	if err != nil {
		r.mu.Unlock()
		return "", st, err
	}
	id := uuid.NewString()
	r.sessions[id] = &view{role: next.Role, brand: next.Brand, month: next.Month}
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.mu.Unlock()

	r.logger.Info("session opened", slog.String("session", id), slog.String("role", string(role)))
	r.publish(ctx, &events.Event{Type: events.TypeSessionOpened, Session: id, Role: role})
	return id, next, nil
}

// Close ends a session. Closing an unknown session is a no-op.
func (r *Registry) Close(ctx context.Context, sessionID string) {
	r.mu.Lock()
	v, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	if !ok {
		r.mu.Unlock()
		return
	}
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.mu.Unlock()
	r.logger.Info("session closed", slog.String("session", sessionID))
	r.publish(ctx, &events.Event{Type: events.TypeSessionClosed, Session: sessionID, Role: v.role})
}

// State returns the current state of a session.
func (r *Registry) State(sessionID string) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.sessions[sessionID]
	if !ok {
		return State{}, ErrNoSession
	}
	return r.compose(v), nil
}

// Dispatch applies a to the session's state and commits the result. Create
// actions without a timestamp are stamped with the registry clock.
func (r *Registry) Dispatch(ctx context.Context, sessionID string, a Action) (State, error) {
	switch act := a.(type) {
	case CreateContent:
		if act.At.IsZero() {
			act.At = r.now()
		}
		a = act
	case CreateLink:
		if act.At.IsZero() {
			act.At = r.now()
		}
		a = act
	case Login, Logout:
		return State{}, fmt.Errorf("%w: %s goes through Open/Close", ErrUnknownAction, a.Kind())
	}

	r.mu.Lock()
	v, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return State{}, ErrNoSession
	}
	before := r.compose(v)
	after, err := r.reducer.Reduce(before, a)
	if err != nil {
		r.mu.Unlock()
		r.logger.Info("action rejected",
			slog.String("session", sessionID),
			slog.String("action", a.Kind()),
			slog.String("role", string(v.role)),
			slog.Any("err", err))
		return before, err
	}
	r.tasks = after.Tasks
	r.current.Store(&after.Tasks)
	r.seq = after.Seq
	v.brand = after.Brand
	v.month = after.Month
	v.selectedID = 0
	if after.Selected != nil {
		v.selectedID = after.Selected.ID
	}
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.mu.Unlock()

	r.logger.Debug("action applied",
		slog.String("session", sessionID),
		slog.String("action", a.Kind()),
		slog.String("role", string(after.Role)))

	if ev := changeEvent(a, before, after); ev != nil {
		ev.Session = sessionID
		ev.Role = after.Role
		r.publish(ctx, ev)
	}
	return after, nil
}

// compose builds a State from a session view and the shared snapshot.
// Callers must hold r.mu.
func (r *Registry) compose(v *view) State {
	s := State{
		Role:  v.role,
		Brand: v.brand,
		Month: v.month,
		Tasks: r.tasks,
		Seq:   r.seq,
	}
	if v.selectedID != 0 {
		if t, ok := r.tasks.Get(v.selectedID); ok {
			s.Selected = &t
		}
	}
	return s
}

func (r *Registry) publish(ctx context.Context, ev *events.Event) {
	if r.bus == nil {
		return
	}
	ev.ID = uuid.NewString()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now().UTC()
	}
	if err := r.bus.Publish(ctx, ev); err != nil {
		r.logger.Warn("publish event", slog.String("type", string(ev.Type)), slog.Any("err", err))
	}
}

// changeEvent describes what a applied between before and after, or returns
// nil when nothing observable changed (e.g. a no-op on an unknown id).
func changeEvent(a Action, before, after State) *events.Event {
	switch act := a.(type) {
	case SwitchBrand, Select, ClearSelection, ShiftMonth:
		return &events.Event{Type: events.TypeViewChanged, BrandID: after.Brand, TaskID: taskID(a), Detail: a.Kind()}
	case CreateContent, CreateLink:
		t, ok := after.Tasks.Get(after.Seq.Last())
		if !ok {
			return nil
		}
		return &events.Event{Type: events.TypeTaskCreated, BrandID: t.BrandID, TaskID: t.ID, Detail: a.Kind(), Task: &t}
	case Delete:
		t, ok := before.Tasks.Get(act.ID)
		if !ok {
			return nil
		}
		return &events.Event{Type: events.TypeTaskDeleted, BrandID: t.BrandID, TaskID: t.ID, Detail: t.Title, Previous: &t}
	}

	id := taskID(a)
	prev, ok := before.Tasks.Get(id)
	if !ok {
		return nil
	}
	t, _ := after.Tasks.Get(id)
	ev := &events.Event{BrandID: t.BrandID, TaskID: id, Task: &t, Previous: &prev}
	switch act := a.(type) {
	case SetStatus, MarkDone, MarkPosted:
		ev.Type = events.TypeStatusChanged
		ev.Detail = string(prev.Status) + " -> " + string(t.Status)
	case AttachVisual:
		ev.Type = events.TypeVisualAttached
		ev.Detail = act.Ref
	case UpdateField:
		ev.Type = events.TypeTaskUpdated
		ev.Detail = string(act.Field)
	case UpdateFields:
		ev.Type = events.TypeTaskUpdated
		names := make([]string, 0, len(act.Values))
		for _, f := range task.Ordered(act.Values) {
			names = append(names, string(f))
		}
		ev.Detail = strings.Join(names, ",")
	case SetVisualDueDate:
		ev.Type = events.TypeTaskUpdated
		ev.Detail = string(task.FieldVisualDueDate)
	default:
		return nil
	}
	return ev
}
