// Package calendar provides the month cursor and month views of the editorial
// calendar, and exports scheduled tasks as iCalendar.
package calendar

import (
	"fmt"
	"time"

	"github.com/GoCodeAlone/postboard/task"
)

const monthLayout = "2006-01"

// Month is a calendar month cursor.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("month must be YYYY-MM: %q", s)
	}
	return MonthOf(t), nil
}

func (m Month) first() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String returns the month as YYYY-MM.
func (m Month) String() string { return m.first().Format(monthLayout) }

// Label returns the month as e.g. "October 2023".
func (m Month) Label() string { return m.first().Format("January 2006") }

// Add moves the cursor n months forward (or back when n is negative).
func (m Month) Add(n int) Month {
	return MonthOf(m.first().AddDate(0, n, 0))
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.first().AddDate(0, 1, -1).Day()
}

// Date returns day of the month as YYYY-MM-DD.
func (m Month) Date(day int) string {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC).Format(task.DateLayout)
}

// IsZero reports whether the cursor is unset.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// MarshalText encodes the month as YYYY-MM.
func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a YYYY-MM month.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Day is one cell of a month view.
type Day struct {
	Day   int         `json:"day"`
	Date  string      `json:"date"`
	Tasks []task.Task `json:"tasks"`
}

// View is a month of days with the tasks published on each. Leading is the
// number of empty cells before the 1st in a Sunday-first week grid.
type View struct {
	Month   string `json:"month"`
	Label   string `json:"label"`
	Leading int    `json:"leading"`
	Days    []Day  `json:"days"`
}

// Build lays out tasks by publish date over month m. Tasks without a date in
// m are left out.
func Build(m Month, tasks task.List) View {
	v := View{
		Month:   m.String(),
		Label:   m.Label(),
		Leading: int(m.first().Weekday()),
		Days:    make([]Day, 0, m.Days()),
	}
	for d := 1; d <= m.Days(); d++ {
		date := m.Date(d)
		day := Day{Day: d, Date: date, Tasks: tasks.OnDate(date).All()}
		v.Days = append(v.Days, day)
	}
	return v
}
