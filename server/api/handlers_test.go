package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoCodeAlone/postboard/activity"
	"github.com/GoCodeAlone/postboard/blob"
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/calendar"
	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/server/api"
	"github.com/GoCodeAlone/postboard/task"
)

// --- Test helpers ---

type testEnv struct {
	mux      http.Handler
	registry *board.Registry
	blobs    *blob.Store
	sessions map[task.Role]string
}

var testNow = time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC)

func newEnv(t *testing.T, journal *activity.Journal, bus events.Bus) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []board.Option{
		board.WithLogger(logger),
		board.WithClock(func() time.Time { return testNow }),
		board.WithMonth(calendar.Month{Year: 2023, Month: time.October}),
	}
	if bus != nil {
		opts = append(opts, board.WithBus(bus))
	}
	reg := board.NewRegistry(brand.Seed(), task.Seed(), opts...)
	blobs := blob.NewStore(16)
	if bus != nil {
		t.Cleanup(blobs.Attach(bus, reg.InUse))
	}

	mux := http.NewServeMux()
	h := &api.Handlers{
		Registry: reg,
		Blobs:    blobs,
		Journal:  journal,
		Logger:   logger,
		Version:  "test",
		Now:      func() time.Time { return testNow },
	}
	h.RegisterRoutes(mux)

	env := &testEnv{registry: reg, blobs: blobs, sessions: make(map[task.Role]string)}
	for _, role := range []task.Role{task.RoleAgency, task.RoleClient} {
		id, _, err := reg.Open(context.Background(), role)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		env.sessions[role] = id
	}
	env.mux = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := task.Role(r.Header.Get("X-Test-Role"))
		ctx := api.WithSession(r.Context(), api.Session{ID: env.sessions[role], Username: string(role), Role: role})
		mux.ServeHTTP(w, r.WithContext(ctx))
	})
	return env
}

func (e *testEnv) do(t *testing.T, role task.Role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("X-Test-Role", string(role))
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body %q)", err, rr.Body.String())
	}
	return v
}

// --- Tests ---

func TestGetBoard_SeedScenario(t *testing.T) {
	env := newEnv(t, nil, nil)
	rr := env.do(t, task.RoleClient, http.MethodGet, "/api/board", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	b := decode[api.BoardView](t, rr)
	if b.Brand.ID != "dconsul" || len(b.Tasks) != 4 {
		t.Fatalf("board brand %q tasks %d", b.Brand.ID, len(b.Tasks))
	}
	if b.Brand.Stats.Posted != 0 || b.Brand.Stats.Progress != 0 || b.Brand.Stats.Target != 11 {
		t.Errorf("stats = %+v", b.Brand.Stats)
	}
	if b.Month != "2023-10" || b.MonthLabel != "October 2023" {
		t.Errorf("month = %q %q", b.Month, b.MonthLabel)
	}
	if len(b.Brands) != 2 {
		t.Errorf("brands = %d, want 2", len(b.Brands))
	}
}

func TestListTasks_DerivedFields(t *testing.T) {
	env := newEnv(t, nil, nil)
	rr := env.do(t, task.RoleAgency, http.MethodGet, "/api/tasks?status=wording_approve", "")
	tasks := decode[[]api.TaskView](t, rr)
	if len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("tasks = %+v", tasks)
	}
	v := tasks[0]
	if v.StatusLabel != "Wording Approve" {
		t.Errorf("StatusLabel = %q", v.StatusLabel)
	}
	if due, _ := task.CaptionDeadline(v.Date); v.CaptionDeadline != due {
		t.Errorf("CaptionDeadline = %q, want %q", v.CaptionDeadline, due)
	}
	if !v.Permissions.MarkDone || v.Permissions.SetStatus {
		t.Errorf("agency permissions = %+v", v.Permissions)
	}
	if v.DoneLabel != "Mark Feed Done" {
		t.Errorf("DoneLabel = %q", v.DoneLabel)
	}

	tasks = decode[[]api.TaskView](t, env.do(t, task.RoleClient, http.MethodGet, "/api/tasks?status=wording_approve", ""))
	if len(tasks) != 1 || tasks[0].DoneLabel != "" {
		t.Errorf("client DoneLabel = %+v", tasks)
	}
}

func TestSwitchBrand_ScopesLists(t *testing.T) {
	env := newEnv(t, nil, nil)
	rr := env.do(t, task.RoleClient, http.MethodPut, "/api/board/brand", `{"brand_id":"d2d"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("switch: expected 200, got %d", rr.Code)
	}
	tasks := decode[[]api.TaskView](t, env.do(t, task.RoleClient, http.MethodGet, "/api/tasks", ""))
	if len(tasks) != 0 {
		t.Errorf("d2d tasks = %d, want 0", len(tasks))
	}
	if rr := env.do(t, task.RoleClient, http.MethodGet, "/api/tasks/1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("cross-brand get: expected 404, got %d", rr.Code)
	}
	// the other session keeps its own brand
	tasks = decode[[]api.TaskView](t, env.do(t, task.RoleAgency, http.MethodGet, "/api/tasks", ""))
	if len(tasks) != 4 {
		t.Errorf("agency tasks = %d, want 4", len(tasks))
	}

	if rr := env.do(t, task.RoleClient, http.MethodPut, "/api/board/brand", `{"brand_id":"acme"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown brand: expected 422, got %d", rr.Code)
	}
}

func TestCreateTaskAndLink(t *testing.T) {
	env := newEnv(t, nil, nil)
	rr := env.do(t, task.RoleAgency, http.MethodPost, "/api/tasks", `{"title":"Launch","type":"Reels","date":"2023-11-20"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[api.TaskView](t, rr)
	if created.Status != task.StatusNeedApproval || created.CaptionDeadline != "2023-10-15" {
		t.Errorf("created = %+v", created)
	}
	if created.ID != testNow.UnixMilli() {
		t.Errorf("ID = %d, want %d", created.ID, testNow.UnixMilli())
	}

	rr = env.do(t, task.RoleClient, http.MethodPost, "/api/links", `{"title":"Brief","file_link":"https://drive/x"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("link: expected 201, got %d", rr.Code)
	}
	link := decode[api.TaskView](t, rr)
	if link.ID <= created.ID || link.Status != task.StatusDraft || link.Date != "2023-10-02" {
		t.Errorf("link = %+v", link)
	}

	links := decode[[]api.TaskView](t, env.do(t, task.RoleAgency, http.MethodGet, "/api/links", ""))
	if len(links) == 0 || links[0].ID != link.ID {
		t.Errorf("links = %+v, want newest first", links)
	}

	if rr := env.do(t, task.RoleAgency, http.MethodPost, "/api/tasks", `{"type":"Story"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad type: expected 422, got %d", rr.Code)
	}
	if rr := env.do(t, task.RoleAgency, http.MethodPost, "/api/tasks", `{`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", rr.Code)
	}
}

func TestUpdateTask_FieldPermissions(t *testing.T) {
	env := newEnv(t, nil, nil)

	rr := env.do(t, task.RoleClient, http.MethodPatch, "/api/tasks/3", `{"caption":"New caption","title":"T"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("client patch: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	v := decode[api.TaskView](t, rr)
	if v.Caption != "New caption" || v.Title != "T" {
		t.Errorf("task = %+v", v)
	}

	if rr := env.do(t, task.RoleAgency, http.MethodPatch, "/api/tasks/3", `{"title":"x","caption":"y"}`); rr.Code != http.StatusForbidden {
		t.Errorf("agency caption: expected 403, got %d", rr.Code)
	}
	got, _ := env.registry.Snapshot().Get(3)
	if got.Title != "T" {
		t.Errorf("title changed by rejected patch: %q", got.Title)
	}
	if rr := env.do(t, task.RoleClient, http.MethodPatch, "/api/tasks/3", `{"feedback":"x"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown field: expected 422, got %d", rr.Code)
	}
	if rr := env.do(t, task.RoleClient, http.MethodPatch, "/api/tasks/999", `{"title":"x"}`); rr.Code != http.StatusNoContent {
		t.Errorf("unknown id: expected 204, got %d", rr.Code)
	}
}

func TestUpdateTask_OneChangePerRequest(t *testing.T) {
	bus := events.NewInMemoryBus()
	env := newEnv(t, nil, bus)
	var updates []*events.Event
	bus.Subscribe(events.TypeTaskUpdated, func(_ context.Context, ev *events.Event) error {
		updates = append(updates, ev)
		return nil
	})

	rr := env.do(t, task.RoleClient, http.MethodPatch, "/api/tasks/2", `{"title":"T","caption":"C","script":"S"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(updates) != 1 {
		t.Fatalf("task.updated events = %d, want 1", len(updates))
	}
	if updates[0].Detail != "title,script,caption" {
		t.Errorf("Detail = %q", updates[0].Detail)
	}
}

func TestTaskActions_OtherBrandNotFound(t *testing.T) {
	env := newEnv(t, nil, nil)
	if rr := env.do(t, task.RoleAgency, http.MethodPut, "/api/board/brand", `{"brand_id":"d2d"}`); rr.Code != http.StatusOK {
		t.Fatalf("switch: expected 200, got %d", rr.Code)
	}

	checks := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/tasks/2/done", ""},
		{http.MethodPost, "/api/tasks/1/posted", ""},
		{http.MethodPatch, "/api/tasks/2", `{"title":"x"}`},
		{http.MethodDelete, "/api/tasks/4", ""},
		{http.MethodPut, "/api/tasks/3/visual-due-date", `{"date":"2023-10-01"}`},
	}
	for _, c := range checks {
		if rr := env.do(t, task.RoleAgency, c.method, c.path, c.body); rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", c.method, c.path, rr.Code)
		}
	}
	if rr := uploadVisual(t, env, "/api/tasks/3/visual", "png"); rr.Code != http.StatusNotFound {
		t.Errorf("visual: expected 404, got %d", rr.Code)
	}
	if env.blobs.Len() != 0 {
		t.Errorf("blobs = %d, want 0", env.blobs.Len())
	}

	got, _ := env.registry.Snapshot().Get(2)
	if got.Status != task.StatusWordingApprove || got.Title == "x" {
		t.Errorf("task 2 changed from another brand: %+v", got)
	}
	if env.registry.Snapshot().Len() != 4 {
		t.Errorf("tasks = %d, want 4", env.registry.Snapshot().Len())
	}
}

func TestStatusTransitions(t *testing.T) {
	env := newEnv(t, nil, nil)

	if rr := env.do(t, task.RoleAgency, http.MethodPost, "/api/tasks/3/done", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("done from need_approval: expected 422, got %d", rr.Code)
	}
	if rr := env.do(t, task.RoleClient, http.MethodPost, "/api/tasks/2/done", ""); rr.Code != http.StatusForbidden {
		t.Errorf("client done: expected 403, got %d", rr.Code)
	}
	rr := env.do(t, task.RoleAgency, http.MethodPost, "/api/tasks/2/done", "")
	if v := decode[api.TaskView](t, rr); v.Status != task.StatusIllustrationDone {
		t.Errorf("after done = %s", v.Status)
	}
	rr = env.do(t, task.RoleClient, http.MethodPost, "/api/tasks/2/posted", "")
	if v := decode[api.TaskView](t, rr); v.Status != task.StatusPosted {
		t.Errorf("after posted = %s", v.Status)
	}

	if rr := env.do(t, task.RoleClient, http.MethodPut, "/api/tasks/4/status", `{"status":"archived"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status: expected 422, got %d", rr.Code)
	}
	rr = env.do(t, task.RoleClient, http.MethodPut, "/api/tasks/4/status", `{"status":"video_done"}`)
	if v := decode[api.TaskView](t, rr); v.Status != task.StatusVideoDone {
		t.Errorf("client override = %s", v.Status)
	}

	b := decode[api.BoardView](t, env.do(t, task.RoleClient, http.MethodGet, "/api/board", ""))
	if b.Brand.Stats.Posted != 1 || b.Brand.Stats.Progress != 9 {
		t.Errorf("stats = %+v", b.Brand.Stats)
	}
}

func TestDeleteTask_Idempotent(t *testing.T) {
	env := newEnv(t, nil, nil)
	if rr := env.do(t, task.RoleClient, http.MethodPut, "/api/board/selection", `{"id":4}`); rr.Code != http.StatusOK {
		t.Fatalf("select: expected 200, got %d", rr.Code)
	}
	for i := 0; i < 2; i++ {
		if rr := env.do(t, task.RoleAgency, http.MethodDelete, "/api/tasks/4", ""); rr.Code != http.StatusNoContent {
			t.Errorf("delete #%d: expected 204, got %d", i+1, rr.Code)
		}
	}
	b := decode[api.BoardView](t, env.do(t, task.RoleClient, http.MethodGet, "/api/board", ""))
	if b.Selected != nil {
		t.Errorf("selection survived delete: %+v", b.Selected)
	}
	if len(b.Tasks) != 3 {
		t.Errorf("tasks = %d, want 3", len(b.Tasks))
	}
	if rr := env.do(t, task.RoleAgency, http.MethodDelete, "/api/tasks/abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rr.Code)
	}
}

func TestAttachVisual_Upload(t *testing.T) {
	env := newEnv(t, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cover.png")
	fw.Write([]byte("png-data")) //nolint:errcheck
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/3/visual", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-Role", string(task.RoleAgency))
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	v := decode[api.TaskView](t, rr)
	if !blob.IsRef(v.Image) {
		t.Fatalf("Image = %q, want blob ref", v.Image)
	}

	rr = env.do(t, task.RoleClient, http.MethodGet, "/api/blobs/"+v.Image, "")
	if rr.Code != http.StatusOK || rr.Body.String() != "png-data" {
		t.Errorf("blob: %d %q", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, task.RoleClient, http.MethodGet, "/api/blobs/blob:missing", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing blob: expected 404, got %d", rr.Code)
	}
}

func uploadVisual(t *testing.T, env *testEnv, path, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cover.png")
	fw.Write([]byte(content)) //nolint:errcheck
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-Role", string(task.RoleAgency))
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)
	return rr
}

func TestAttachVisual_UnknownTaskStoresNothing(t *testing.T) {
	env := newEnv(t, nil, nil)
	rr := uploadVisual(t, env, "/api/tasks/999999/visual", "png")
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if env.blobs.Len() != 0 {
		t.Errorf("blobs = %d, want 0", env.blobs.Len())
	}
}

func TestAttachVisual_FreesDroppedUploads(t *testing.T) {
	env := newEnv(t, nil, events.NewInMemoryBus())

	first := decode[api.TaskView](t, uploadVisual(t, env, "/api/tasks/3/visual", "one"))
	second := decode[api.TaskView](t, uploadVisual(t, env, "/api/tasks/3/visual", "two"))
	if first.Image == second.Image {
		t.Fatalf("same ref for two uploads: %q", first.Image)
	}
	if env.blobs.Len() != 1 {
		t.Errorf("blobs after replace = %d, want 1", env.blobs.Len())
	}
	if _, err := env.blobs.Get(second.Image); err != nil {
		t.Errorf("current visual: %v", err)
	}

	if rr := env.do(t, task.RoleAgency, http.MethodDelete, "/api/tasks/3", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	if env.blobs.Len() != 0 {
		t.Errorf("blobs after delete = %d, want 0", env.blobs.Len())
	}
}

func TestAttachVisual_Rejections(t *testing.T) {
	env := newEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/3/visual?url=https://img/x.png", nil)
	req.Header.Set("X-Test-Role", string(task.RoleClient))
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("client attach: expected 403, got %d", rr.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "huge.png")
	fw.Write(bytes.Repeat([]byte("x"), 64)) //nolint:errcheck
	mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/tasks/3/visual", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-Role", string(task.RoleAgency))
	rr = httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized: expected 413, got %d", rr.Code)
	}
	if env.blobs.Len() != 0 {
		t.Errorf("blobs = %d, want 0", env.blobs.Len())
	}
}

func TestVisualDueDate(t *testing.T) {
	env := newEnv(t, nil, nil)
	rr := env.do(t, task.RoleAgency, http.MethodPut, "/api/tasks/3/visual-due-date", `{"date":"2023-10-06"}`)
	if v := decode[api.TaskView](t, rr); v.VisualDueDate != "2023-10-06" {
		t.Errorf("VisualDueDate = %q", v.VisualDueDate)
	}
	if rr := env.do(t, task.RoleClient, http.MethodPut, "/api/tasks/3/visual-due-date", `{"date":"2023-10-07"}`); rr.Code != http.StatusForbidden {
		t.Errorf("client: expected 403, got %d", rr.Code)
	}
}

func TestCalendar(t *testing.T) {
	env := newEnv(t, nil, nil)
	view := decode[calendar.View](t, env.do(t, task.RoleClient, http.MethodGet, "/api/calendar", ""))
	if view.Month != "2023-10" || len(view.Days) != 31 {
		t.Errorf("view = %s with %d days", view.Month, len(view.Days))
	}

	rr := env.do(t, task.RoleClient, http.MethodPost, "/api/board/month", `{"by":1}`)
	if view := decode[calendar.View](t, rr); view.Month != "2023-11" {
		t.Errorf("after shift = %s", view.Month)
	}
	if rr := env.do(t, task.RoleClient, http.MethodGet, "/api/calendar?month=bad", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad month: expected 400, got %d", rr.Code)
	}

	rr = env.do(t, task.RoleClient, http.MethodGet, "/api/calendar.ics", "")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(rr.Body.String(), "BEGIN:VEVENT"); n != 4 {
		t.Errorf("events = %d, want 4", n)
	}
}

func TestActivity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := activity.Open(t.TempDir()+"/activity.db", logger)
	if err != nil {
		t.Fatalf("activity.Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	bus := events.NewInMemoryBus()
	j.Attach(bus)

	env := newEnv(t, j, bus)
	env.do(t, task.RoleAgency, http.MethodPost, "/api/tasks/2/done", "")
	env.do(t, task.RoleAgency, http.MethodDelete, "/api/tasks/1", "")

	rr := env.do(t, task.RoleClient, http.MethodGet, "/api/activity", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	entries := decode[[]activity.Entry](t, rr)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Type != events.TypeTaskDeleted || entries[1].Type != events.TypeStatusChanged {
		t.Errorf("types = %s, %s", entries[0].Type, entries[1].Type)
	}

	entries = decode[[]activity.Entry](t, env.do(t, task.RoleClient, http.MethodGet, "/api/activity?task_id=2", ""))
	if len(entries) != 1 {
		t.Errorf("task 2 entries = %d, want 1", len(entries))
	}
}

func TestActivity_Disabled(t *testing.T) {
	env := newEnv(t, nil, nil)
	if rr := env.do(t, task.RoleClient, http.MethodGet, "/api/activity", ""); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	env := newEnv(t, nil, nil)
	resp := decode[map[string]string](t, env.do(t, task.RoleClient, http.MethodGet, "/api/version", ""))
	if resp["version"] != "test" {
		t.Errorf("expected version 'test', got %q", resp["version"])
	}
}
