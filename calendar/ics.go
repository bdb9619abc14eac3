package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/GoCodeAlone/postboard/task"
)

const icsDateLayout = "20060102"

// ExportICS renders every scheduled task in tasks as an all-day iCalendar
// event on its publish date. Tasks with no date, the TBD sentinel or an
// unparseable date are skipped.
func ExportICS(calName string, tasks task.List, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Postboard//Editorial Calendar//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	if calName != "" {
		lines = append(lines, "X-WR-CALNAME:"+escapeICSText(calName))
	}
	stamp := now.UTC().Format("20060102T150405Z")

	for _, t := range tasks.All() {
		if !t.Scheduled() {
			continue
		}
		day, err := time.Parse(task.DateLayout, t.Date)
		if err != nil {
			continue
		}
		title := strings.TrimSpace(t.Title)
		if title == "" {
			title = "Untitled post"
		}
		lines = append(lines,
			"BEGIN:VEVENT",
			fmt.Sprintf("UID:task-%d@postboard", t.ID),
			"DTSTAMP:"+stamp,
			"SUMMARY:"+escapeICSText(fmt.Sprintf("[%s] %s", t.Type.Label(), title)),
			"DTSTART;VALUE=DATE:"+day.Format(icsDateLayout),
			"DTEND;VALUE=DATE:"+day.AddDate(0, 0, 1).Format(icsDateLayout),
			"DESCRIPTION:"+escapeICSText(describe(t)),
			"END:VEVENT",
		)
	}
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func describe(t task.Task) string {
	parts := []string{"Status: " + t.Status.Label()}
	if due, ok := task.CaptionDeadline(t.Date); ok {
		parts = append(parts, "Caption deadline: "+due)
	}
	if t.VisualDueDate != "" {
		parts = append(parts, "Visual due: "+t.VisualDueDate)
	}
	if t.FileLink != "" {
		parts = append(parts, "Assets: "+t.FileLink)
	}
	return strings.Join(parts, "\n")
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
