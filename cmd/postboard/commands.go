package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GoCodeAlone/postboard/activity"
	"github.com/GoCodeAlone/postboard/calendar"
	"github.com/GoCodeAlone/postboard/server/api"
	"github.com/GoCodeAlone/postboard/task"
)

func needArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: postboard %s", usage)
	}
	return nil
}

func parseID(s string) (string, error) {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", fmt.Errorf("invalid task id %q", s)
	}
	return s, nil
}

// --- session ---

func (c *Client) cmdStatus(_ []string) error {
	var result map[string]string
	if err := c.get("/api/status", &result); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "status:  %s\n", result["status"])
	fmt.Fprintf(c.Out, "version: %s\n", result["version"])
	return nil
}

func (c *Client) cmdLogin(args []string) error {
	if err := needArgs(args, 2, "login <user> <password>"); err != nil {
		return err
	}
	var resp struct {
		Token string    `json:"token"`
		Role  task.Role `json:"role"`
	}
	if err := c.post("/api/auth/login", map[string]string{"username": args[0], "password": args[1]}, &resp); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "logged in as %s\nexport POSTBOARD_TOKEN=%s\n", resp.Role, resp.Token)
	return nil
}

func (c *Client) cmdLogout(_ []string) error {
	if err := c.post("/api/auth/logout", nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "logged out")
	return nil
}

// --- board ---

func (c *Client) cmdBoard(_ []string) error {
	var b api.BoardView
	if err := c.get("/api/board", &b); err != nil {
		return err
	}
	c.printBoard(b)
	return nil
}

func (c *Client) cmdBrand(args []string) error {
	if err := needArgs(args, 1, "brand <id>"); err != nil {
		return err
	}
	var b api.BoardView
	if err := c.do(http.MethodPut, "/api/board/brand", map[string]string{"brand_id": args[0]}, &b); err != nil {
		return err
	}
	c.printBoard(b)
	return nil
}

func (c *Client) printBoard(b api.BoardView) {
	s := b.Brand.Stats
	fmt.Fprintf(c.Out, "[%s] %s  (%s)\n", b.Brand.Logo, b.Brand.Name, b.Role)
	fmt.Fprintf(c.Out, "posted %d/%d (%d%%), %d pending review\n\n", s.Posted, s.Target, s.Progress, s.PendingReview)
	c.printTasks(b.Tasks)
}

// --- tasks ---

func (c *Client) cmdTasks(args []string) error {
	path := "/api/tasks"
	if len(args) > 0 {
		path += "?status=" + url.QueryEscape(args[0])
	}
	var tasks []api.TaskView
	if err := c.get(path, &tasks); err != nil {
		return err
	}
	c.printTasks(tasks)
	return nil
}

func (c *Client) printTasks(tasks []api.TaskView) {
	if len(tasks) == 0 {
		fmt.Fprintln(c.Out, "no tasks")
		return
	}
	fmt.Fprintf(c.Out, "%-14s %-6s %-14s %-18s %-12s %s\n", "ID", "TYPE", "DATE", "STATUS", "CAPTION DUE", "TITLE")
	fmt.Fprintln(c.Out, strings.Repeat("-", 100))
	for _, t := range tasks {
		due := t.CaptionDeadline
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(c.Out, "%-14d %-6s %-14s %-18s %-12s %s\n",
			t.ID, t.Type, truncate(t.Date, 14), t.StatusLabel, due, truncate(t.Title, 40))
	}
}

func (c *Client) printTask(t api.TaskView) {
	fmt.Fprintf(c.Out, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(c.Out, "  type:          %s\n", t.Type)
	fmt.Fprintf(c.Out, "  date:          %s\n", t.Date)
	fmt.Fprintf(c.Out, "  status:        %s\n", t.StatusLabel)
	if t.CaptionDeadline != "" {
		fmt.Fprintf(c.Out, "  caption due:   %s\n", t.CaptionDeadline)
	}
	if t.DoneLabel != "" {
		fmt.Fprintf(c.Out, "  next:          %s (postboard done %d)\n", t.DoneLabel, t.ID)
	}
	for _, kv := range [][2]string{
		{"visual due", t.VisualDueDate},
		{"script", t.Script},
		{"source", t.Source},
		{"caption", t.Caption},
		{"feedback", t.Feedback},
		{"client notes", t.ClientNotes},
		{"file link", t.FileLink},
		{"image", t.Image},
	} {
		if kv[1] != "" {
			fmt.Fprintf(c.Out, "  %-14s %s\n", kv[0]+":", kv[1])
		}
	}
}

func (c *Client) cmdTask(args []string) error {
	if err := needArgs(args, 1, "task <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var t api.TaskView
	if err := c.get("/api/tasks/"+id, &t); err != nil {
		return err
	}
	c.printTask(t)
	return nil
}

func (c *Client) cmdNew(args []string) error {
	if err := needArgs(args, 3, "new <Feed|Reels> <date|-> <title>"); err != nil {
		return err
	}
	in := task.ContentInput{
		Type:  task.ContentType(args[0]),
		Title: strings.Join(args[2:], " "),
	}
	if args[1] != "-" {
		in.Date = args[1]
	}
	var t api.TaskView
	if err := c.post("/api/tasks", in, &t); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "created task %d\n", t.ID)
	return nil
}

func (c *Client) cmdLink(args []string) error {
	if err := needArgs(args, 2, "link <url> <title>"); err != nil {
		return err
	}
	body := map[string]string{"file_link": args[0], "title": strings.Join(args[1:], " ")}
	var t api.TaskView
	if err := c.post("/api/links", body, &t); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "created link %d\n", t.ID)
	return nil
}

func (c *Client) cmdLinks(_ []string) error {
	var tasks []api.TaskView
	if err := c.get("/api/links", &tasks); err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(c.Out, "no links")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintf(c.Out, "%-14d %-12s %-30s %s\n", t.ID, t.Date, truncate(t.Title, 29), t.FileLink)
	}
	return nil
}

// transition posts to a task action endpoint and prints the new status.
func (c *Client) transition(args []string, action string) error {
	if err := needArgs(args, 1, action+" <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var t api.TaskView
	if err := c.post("/api/tasks/"+id+"/"+action, nil, &t); err != nil {
		return err
	}
	c.printResult(id, t)
	return nil
}

// printResult reports the task after a mutation; a zero view means the id
// was unknown and nothing changed.
func (c *Client) printResult(id string, t api.TaskView) {
	if t.ID == 0 {
		fmt.Fprintf(c.Out, "task %s not found, nothing changed\n", id)
		return
	}
	fmt.Fprintf(c.Out, "task %d: %s\n", t.ID, t.StatusLabel)
}

func (c *Client) cmdDone(args []string) error   { return c.transition(args, "done") }
func (c *Client) cmdPosted(args []string) error { return c.transition(args, "posted") }

func (c *Client) cmdSetStatus(args []string) error {
	if err := needArgs(args, 2, "status-set <id> <status>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var t api.TaskView
	if err := c.do(http.MethodPut, "/api/tasks/"+id+"/status", map[string]string{"status": args[1]}, &t); err != nil {
		return err
	}
	c.printResult(id, t)
	return nil
}

func (c *Client) cmdSet(args []string) error {
	if err := needArgs(args, 3, "set <id> <field> <value>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	body := map[string]string{args[1]: strings.Join(args[2:], " ")}
	var t api.TaskView
	if err := c.do(http.MethodPatch, "/api/tasks/"+id, body, &t); err != nil {
		return err
	}
	if t.ID == 0 {
		fmt.Fprintf(c.Out, "task %s not found, nothing changed\n", id)
		return nil
	}
	fmt.Fprintf(c.Out, "task %d: %s updated\n", t.ID, args[1])
	return nil
}

func (c *Client) cmdVisual(args []string) error {
	if err := needArgs(args, 2, "visual <id> <file|url>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	path := "/api/tasks/" + id + "/visual"
	var t api.TaskView
	src := args[1]
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		err = c.post(path+"?url="+url.QueryEscape(src), nil, &t)
	} else {
		f, openErr := os.Open(src)
		if openErr != nil {
			return openErr
		}
		defer f.Close() //nolint:errcheck
		err = c.upload(path, filepath.Base(src), f, &t)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "task %d: visual %s\n", t.ID, t.Image)
	return nil
}

func (c *Client) cmdRemove(args []string) error {
	if err := needArgs(args, 1, "rm <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := c.do(http.MethodDelete, "/api/tasks/"+id, nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "task %s deleted\n", id)
	return nil
}

// --- calendar ---

func (c *Client) cmdCalendar(args []string) error {
	var view calendar.View
	switch {
	case len(args) == 0:
		if err := c.get("/api/calendar", &view); err != nil {
			return err
		}
	case strings.HasPrefix(args[0], "+") || strings.HasPrefix(args[0], "-"):
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid month shift %q", args[0])
		}
		if err := c.post("/api/board/month", map[string]int{"by": n}, &view); err != nil {
			return err
		}
	default:
		if err := c.get("/api/calendar?month="+url.QueryEscape(args[0]), &view); err != nil {
			return err
		}
	}
	c.printCalendar(view)
	return nil
}

func (c *Client) printCalendar(v calendar.View) {
	fmt.Fprintln(c.Out, v.Label)
	empty := true
	for _, d := range v.Days {
		for _, t := range d.Tasks {
			empty = false
			fmt.Fprintf(c.Out, "  %s  [%s] %s (%s)\n", d.Date, t.Type, t.Title, t.Status.Label())
		}
	}
	if empty {
		fmt.Fprintln(c.Out, "  nothing scheduled")
	}
}

func (c *Client) cmdICS(_ []string) error {
	return c.get("/api/calendar.ics", c.Out)
}

// --- activity ---

func (c *Client) cmdActivity(args []string) error {
	path := "/api/activity"
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		path += "?task_id=" + id
	}
	var entries []activity.Entry
	if err := c.get(path, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.Out, "no activity")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(c.Out, "%s  %-8s %-14s task %-14d %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Role, e.Type, e.TaskID, e.Detail)
	}
	return nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
