package task

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label returns the display label of a status, e.g. "Wording Approve".
// Unknown statuses are labelled as drafts.
func (s Status) Label() string {
	if !s.Valid() {
		s = StatusDraft
	}
	// Casers carry state and must not be shared across goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// Label returns the display label of a content type.
func (t ContentType) Label() string {
	if t == TypeReels {
		return "Reels"
	}
	return "Feed"
}

// DoneLabel names the mark-done action for a content type, e.g. "Mark Reels Done".
func (t ContentType) DoneLabel() string {
	return "Mark " + t.Label() + " Done"
}
