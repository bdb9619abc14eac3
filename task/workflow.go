package task

import "fmt"

// DoneStatus returns the status a task of type ct reaches when its visual is
// finished: illustration_done for Feed, video_done for Reels.
func DoneStatus(ct ContentType) Status {
	if ct == TypeReels {
		return StatusVideoDone
	}
	return StatusIllustrationDone
}

// CanSetStatus reports whether role may set an arbitrary status. Only the
// client has this override.
func CanSetStatus(role Role) bool {
	return role == RoleClient
}

// CanMarkDone reports whether role may move t out of wording_approve.
func CanMarkDone(role Role, t Task) bool {
	return role == RoleAgency && t.Status == StatusWordingApprove
}

// CanMarkPosted reports whether role may move t to posted.
func CanMarkPosted(role Role, t Task) bool {
	return role.Valid() && (t.Status == StatusIllustrationDone || t.Status == StatusVideoDone)
}

// CanAttachVisual reports whether role may upload or replace a task visual.
func CanAttachVisual(role Role) bool {
	return role == RoleAgency
}

// Permissions summarises which operations a role may perform on a task, so a
// presentation layer can decide which controls to offer.
type Permissions struct {
	SetStatus    bool    `json:"set_status"`
	MarkDone     bool    `json:"mark_done"`
	MarkPosted   bool    `json:"mark_posted"`
	AttachVisual bool    `json:"attach_visual"`
	Fields       []Field `json:"fields"`
}

// PermissionsFor returns the permissions role holds on t.
func PermissionsFor(role Role, t Task) Permissions {
	p := Permissions{
		SetStatus:    CanSetStatus(role),
		MarkDone:     CanMarkDone(role, t),
		MarkPosted:   CanMarkPosted(role, t),
		AttachVisual: CanAttachVisual(role),
		Fields:       []Field{},
	}
	for _, f := range Fields {
		if CanEdit(role, f) {
			p.Fields = append(p.Fields, f)
		}
	}
	return p
}

// SetStatus moves task id to s. Only the client may do this, and any status
// may be reached from any other, including leaving posted.
func (l List) SetStatus(id int64, role Role, s Status) (List, error) {
	if !s.Valid() {
		return l, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	if !CanSetStatus(role) {
		return l, fmt.Errorf("%w: %s cannot set status directly", ErrForbidden, role)
	}
	return l.apply(id, func(t Task) (Task, error) {
		t.Status = s
		return t, nil
	})
}

// MarkDone advances a wording_approve task to the done status for its type.
// A task without a visual gets PlaceholderVisual; an existing visual is kept.
func (l List) MarkDone(id int64, role Role) (List, error) {
	if role != RoleAgency {
		return l, fmt.Errorf("%w: %s cannot mark done", ErrForbidden, role)
	}
	return l.apply(id, func(t Task) (Task, error) {
		if t.Status != StatusWordingApprove {
			return t, fmt.Errorf("%w: mark done from %s", ErrInvalidTransition, t.Status)
		}
		t.Status = DoneStatus(t.Type)
		if !t.HasImage() {
			t.Image = PlaceholderVisual
		}
		return t, nil
	})
}

// MarkPosted moves a finished task to posted. Either role may do this.
func (l List) MarkPosted(id int64, role Role) (List, error) {
	if !role.Valid() {
		return l, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return l.apply(id, func(t Task) (Task, error) {
		if !CanMarkPosted(role, t) {
			return t, fmt.Errorf("%w: mark posted from %s", ErrInvalidTransition, t.Status)
		}
		t.Status = StatusPosted
		return t, nil
	})
}

// AttachVisual replaces the visual reference of task id.
func (l List) AttachVisual(id int64, role Role, ref string) (List, error) {
	if !CanAttachVisual(role) {
		return l, fmt.Errorf("%w: %s cannot attach visuals", ErrForbidden, role)
	}
	return l.apply(id, func(t Task) (Task, error) {
		t.Image = ref
		return t, nil
	})
}
