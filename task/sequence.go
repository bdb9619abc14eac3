package task

import "time"

// Sequence issues task ids. An id is the creation time in Unix milliseconds,
// bumped past the last issued id when the clock has not moved on, so ids keep
// increasing for the lifetime of the process even across deletes.
type Sequence struct {
	last int64
}

// NewSequence returns a Sequence whose next id is greater than last.
func NewSequence(last int64) Sequence {
	return Sequence{last: last}
}

// Next returns a fresh id and the advanced sequence.
func (s Sequence) Next(now time.Time) (int64, Sequence) {
	id := now.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	return id, Sequence{last: id}
}

// Last returns the most recently issued id.
func (s Sequence) Last() int64 { return s.last }
