package task

import "fmt"

// Field names a free-text task attribute that can be edited in place.
type Field string

const (
	FieldTitle         Field = "title"
	FieldScript        Field = "script"
	FieldSource        Field = "source"
	FieldCaption       Field = "caption"
	FieldClientNotes   Field = "client_notes"
	FieldVisualDueDate Field = "visual_due_date"
	FieldFileLink      Field = "file_link"
)

// Fields lists every editable field.
var Fields = []Field{
	FieldTitle,
	FieldScript,
	FieldSource,
	FieldCaption,
	FieldClientNotes,
	FieldVisualDueDate,
	FieldFileLink,
}

// editors maps each field to the roles allowed to write it.
var editors = map[Field][]Role{
	FieldTitle:         {RoleAgency, RoleClient},
	FieldSource:        {RoleAgency, RoleClient},
	FieldFileLink:      {RoleAgency, RoleClient},
	FieldScript:        {RoleClient},
	FieldCaption:       {RoleClient},
	FieldClientNotes:   {RoleClient},
	FieldVisualDueDate: {RoleAgency},
}

// Valid reports whether f is an editable field.
func (f Field) Valid() bool {
	_, ok := editors[f]
	return ok
}

// CanEdit reports whether role may write field f.
func CanEdit(role Role, f Field) bool {
	for _, r := range editors[f] {
		if r == role {
			return true
		}
	}
	return false
}

// UpdateField replaces one field of task id with value, leaving every other
// field untouched. Values are not validated; empty strings are accepted for
// every field. A missing id is a no-op.
func (l List) UpdateField(id int64, role Role, f Field, value string) (List, error) {
	return l.UpdateFields(id, role, map[Field]string{f: value})
}

// UpdateFields replaces several fields of task id at once. Every field is
// checked against role before any is written, so either all values land in
// the returned list or none do.
func (l List) UpdateFields(id int64, role Role, values map[Field]string) (List, error) {
	for f := range values {
		if !f.Valid() {
			return l, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
		if !CanEdit(role, f) {
			return l, fmt.Errorf("%w: %s cannot edit %s", ErrForbidden, role, f)
		}
	}
	return l.apply(id, func(t Task) (Task, error) {
		for f, value := range values {
			setField(&t, f, value)
		}
		return t, nil
	})
}

// Ordered returns the fields present in values in the order of Fields.
func Ordered(values map[Field]string) []Field {
	out := make([]Field, 0, len(values))
	for _, f := range Fields {
		if _, ok := values[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// SetVisualDueDate is UpdateField for the visual due date.
func (l List) SetVisualDueDate(id int64, role Role, date string) (List, error) {
	return l.UpdateField(id, role, FieldVisualDueDate, date)
}

func setField(t *Task, f Field, value string) {
	switch f {
	case FieldTitle:
		t.Title = value
	case FieldScript:
		t.Script = value
	case FieldSource:
		t.Source = value
	case FieldCaption:
		t.Caption = value
	case FieldClientNotes:
		t.ClientNotes = value
	case FieldVisualDueDate:
		t.VisualDueDate = value
	case FieldFileLink:
		t.FileLink = value
	}
}
