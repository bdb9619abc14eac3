package task

import "time"

// CaptionDeadline returns the date by which the caption for a post published
// on date must be final: the 15th of the month before the publish month.
// It reports false when date is empty, DateTBD, or not YYYY-MM-DD.
//
// The publish day is dropped before stepping back a month, so the 31st of a
// month never rolls over into the following month: 2023-03-31 -> 2023-02-15.
func CaptionDeadline(date string) (string, bool) {
	if date == "" || date == DateTBD {
		return "", false
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", false
	}
	// time.Date normalises month 0 to December of the previous year.
	due := time.Date(d.Year(), d.Month()-1, 15, 0, 0, 0, 0, time.UTC)
	return due.Format(DateLayout), true
}
