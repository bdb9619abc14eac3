package task

import (
	"fmt"
	"strings"
	"time"
)

// ContentInput carries the fields of a new content task.
type ContentInput struct {
	Title         string      `json:"title"`
	Type          ContentType `json:"type"`
	Date          string      `json:"date"`
	Script        string      `json:"script"`
	Source        string      `json:"source"`
	Caption       string      `json:"caption"`
	FileLink      string      `json:"file_link"`
	Image         string      `json:"image"`
	VisualDueDate string      `json:"visual_due_date"`
}

// NewContent builds a content task awaiting approval. An empty type means
// Feed and an empty date means DateTBD. Dates are stored as given.
func NewContent(id int64, brandID string, in ContentInput) (Task, error) {
	ct := in.Type
	if ct == "" {
		ct = TypeFeed
	}
	if !ct.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = DateTBD
	}
	return Task{
		ID:            id,
		BrandID:       brandID,
		Title:         in.Title,
		Type:          ct,
		Date:          date,
		Status:        StatusNeedApproval,
		VisualDueDate: in.VisualDueDate,
		Script:        in.Script,
		Source:        in.Source,
		Caption:       in.Caption,
		FileLink:      in.FileLink,
		Image:         in.Image,
	}, nil
}

// NewLink builds a minimal asset-link record: a draft Feed task dated on the
// day it was created, carrying only a title and a link.
func NewLink(id int64, brandID, title, fileLink string, now time.Time) Task {
	return Task{
		ID:       id,
		BrandID:  brandID,
		Title:    title,
		Type:     TypeFeed,
		Date:     now.UTC().Format(DateLayout),
		Status:   StatusDraft,
		FileLink: fileLink,
	}
}
