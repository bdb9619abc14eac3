package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/GoCodeAlone/postboard/activity"
	"github.com/GoCodeAlone/postboard/blob"
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/calendar"
	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/task"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Registry *board.Registry
	Blobs    *blob.Store
	Journal  *activity.Journal // optional
	Logger   *slog.Logger
	Version  string
	Now      func() time.Time // defaults to time.Now
}

// RegisterRoutes registers all protected API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/brands", h.listBrands)

	mux.HandleFunc("GET /api/board", h.getBoard)
	mux.HandleFunc("PUT /api/board/brand", h.switchBrand)
	mux.HandleFunc("PUT /api/board/selection", h.selectTask)
	mux.HandleFunc("DELETE /api/board/selection", h.clearSelection)
	mux.HandleFunc("POST /api/board/month", h.shiftMonth)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	mux.HandleFunc("PUT /api/tasks/{id}/status", h.setStatus)
	mux.HandleFunc("POST /api/tasks/{id}/done", h.markDone)
	mux.HandleFunc("POST /api/tasks/{id}/posted", h.markPosted)
	mux.HandleFunc("POST /api/tasks/{id}/visual", h.attachVisual)
	mux.HandleFunc("PUT /api/tasks/{id}/visual-due-date", h.setVisualDueDate)

	mux.HandleFunc("GET /api/links", h.listLinks)
	mux.HandleFunc("POST /api/links", h.createLink)

	mux.HandleFunc("GET /api/blobs/{ref}", h.getBlob)

	mux.HandleFunc("GET /api/calendar", h.getCalendar)
	mux.HandleFunc("GET /api/calendar.ics", h.exportCalendar)

	mux.HandleFunc("GET /api/activity", h.listActivity)

	mux.HandleFunc("GET /api/version", h.version)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// session returns the caller's session, writing a 401 when there is none.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (Session, bool) {
	s, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return Session{}, false
	}
	return s, true
}

func (h *Handlers) state(w http.ResponseWriter, r *http.Request) (Session, board.State, bool) {
	sess, ok := h.session(w, r)
	if !ok {
		return sess, board.State{}, false
	}
	st, err := h.Registry.State(sess.ID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return sess, board.State{}, false
	}
	return sess, st, true
}

// dispatch applies a for the caller. On failure it writes the error response
// and returns false.
func (h *Handlers) dispatch(w http.ResponseWriter, r *http.Request, a board.Action) (board.State, bool) {
	sess, ok := h.session(w, r)
	if !ok {
		return board.State{}, false
	}
	st, err := h.Registry.Dispatch(r.Context(), sess.ID, a)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.Logger.Error("dispatch", slog.String("action", a.Kind()), slog.Any("err", err))
		}
		writeError(w, code, err.Error())
		return board.State{}, false
	}
	return st, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

// writeTask responds with task id as seen by st, or 204 when the task does
// not exist (mutations on unknown ids are no-ops).
func writeTask(w http.ResponseWriter, st board.State, id int64) {
	t, ok := st.Tasks.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(st.Role, t))
}

// --- Board handlers ---

func (h *Handlers) listBrands(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, brandViews(h.Registry.Brands(), h.Registry.Snapshot()))
}

func (h *Handlers) getBoard(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newBoardView(h.Registry.Brands(), st))
}

func (h *Handlers) switchBrand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BrandID string `json:"brand_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, ok := h.dispatch(w, r, board.SwitchBrand{BrandID: req.BrandID})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newBoardView(h.Registry.Brands(), st))
}

func (h *Handlers) selectTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, ok := h.dispatch(w, r, board.Select{ID: req.ID})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(st.Role, *st.Selected))
}

func (h *Handlers) clearSelection(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dispatch(w, r, board.ClearSelection{}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) shiftMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		By int `json:"by"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, ok := h.dispatch(w, r, board.ShiftMonth{By: req.By})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, calendar.Build(st.Month, st.Visible()))
}

// --- Task handlers ---

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tasks := st.Visible()
	if s := q.Get("status"); s != "" {
		status := task.Status(s)
		tasks = tasks.Filter(func(t task.Task) bool { return t.Status == status })
	}
	if ct := q.Get("type"); ct != "" {
		tasks = tasks.Filter(func(t task.Task) bool { return string(t.Type) == ct })
	}
	if d := q.Get("date"); d != "" {
		tasks = tasks.OnDate(d)
	}
	writeJSON(w, http.StatusOK, taskViews(st.Role, tasks))
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var in task.ContentInput
	if !decodeBody(w, r, &in) {
		return
	}
	st, ok := h.dispatch(w, r, board.CreateContent{Input: in, At: h.now()})
	if !ok {
		return
	}
	t, _ := st.Tasks.Get(st.Seq.Last())
	writeJSON(w, http.StatusCreated, newTaskView(st.Role, t))
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	t, found := st.Visible().Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(st.Role, t))
}

// updateTask applies a map of field -> value as a single change. Every field
// is checked against the caller's role before any is written.
func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req map[string]string
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	values := make(map[task.Field]string, len(req))
	for name, value := range req {
		values[task.Field(name)] = value
	}
	st, ok := h.dispatch(w, r, board.UpdateFields{ID: id, Values: values})
	if !ok {
		return
	}
	writeTask(w, st, id)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := h.dispatch(w, r, board.Delete{ID: id}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status task.Status `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, ok := h.dispatch(w, r, board.SetStatus{ID: id, Status: req.Status})
	if !ok {
		return
	}
	writeTask(w, st, id)
}

func (h *Handlers) markDone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, ok := h.dispatch(w, r, board.MarkDone{ID: id})
	if !ok {
		return
	}
	writeTask(w, st, id)
}

func (h *Handlers) markPosted(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, ok := h.dispatch(w, r, board.MarkPosted{ID: id})
	if !ok {
		return
	}
	writeTask(w, st, id)
}

// attachVisual accepts a multipart upload in the "file" part, or a remote
// image URL in the "url" form value. Nothing is stored for an unknown task.
func (h *Handlers) attachVisual(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, st, ok := h.state(w, r)
	if !ok {
		return
	}
	if !task.CanAttachVisual(sess.Role) {
		writeError(w, http.StatusForbidden, fmt.Sprintf("%v: %s may not attach visuals", task.ErrForbidden, sess.Role))
		return
	}
	t, found := st.Tasks.Get(id)
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if t.BrandID != st.Brand {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%v: %d", board.ErrTaskNotFound, id))
		return
	}

	ref := r.FormValue("url")
	if ref == "" {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file or url")
			return
		}
		defer file.Close()
		ref, err = h.Blobs.Put(header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}

	st, ok = h.dispatch(w, r, board.AttachVisual{ID: id, Ref: ref})
	if !ok {
		h.discard(ref)
		return
	}
	if _, kept := st.Tasks.Get(id); !kept {
		// deleted between the lookup and the dispatch
		h.discard(ref)
	}
	writeTask(w, st, id)
}

// discard frees an upload no task ended up showing.
func (h *Handlers) discard(ref string) {
	if blob.IsRef(ref) && !h.Registry.InUse(ref) {
		h.Blobs.Delete(ref)
	}
}

func (h *Handlers) setVisualDueDate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, ok := h.dispatch(w, r, board.SetVisualDueDate{ID: id, Date: req.Date})
	if !ok {
		return
	}
	writeTask(w, st, id)
}

// --- Asset links ---

func (h *Handlers) listLinks(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, taskViews(st.Role, st.Visible().WithFileLink()))
}

func (h *Handlers) createLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		FileLink string `json:"file_link"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, ok := h.dispatch(w, r, board.CreateLink{Title: req.Title, FileLink: req.FileLink, At: h.now()})
	if !ok {
		return
	}
	t, _ := st.Tasks.Get(st.Seq.Last())
	writeJSON(w, http.StatusCreated, newTaskView(st.Role, t))
}

// --- Blobs ---

func (h *Handlers) getBlob(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}
	b, err := h.Blobs.Get(r.PathValue("ref"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(b.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}

// --- Calendar ---

func (h *Handlers) getCalendar(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	m := st.Month
	if s := r.URL.Query().Get("month"); s != "" {
		parsed, err := calendar.ParseMonth(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m = parsed
	}
	writeJSON(w, http.StatusOK, calendar.Build(m, st.Visible()))
}

func (h *Handlers) exportCalendar(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	b, _ := h.Registry.Brands().Get(st.Brand)
	body := calendar.ExportICS(b.Name+" content", st.Visible(), h.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Brand+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// --- Activity ---

func (h *Handlers) listActivity(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.state(w, r)
	if !ok {
		return
	}
	if h.Journal == nil {
		writeError(w, http.StatusNotFound, "activity journal disabled")
		return
	}
	q := r.URL.Query()
	filter := activity.Filter{BrandID: st.Brand, Type: events.Type(q.Get("type")), Limit: 50}
	if s := q.Get("task_id"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task_id")
			return
		}
		filter.TaskID = n
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}

	entries, err := h.Journal.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list activity", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Status / version ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}

// StatusHandler returns the status handler function for external registration.
func (h *Handlers) StatusHandler() http.HandlerFunc {
	return h.status
}

func (h *Handlers) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": h.Version,
	})
}
