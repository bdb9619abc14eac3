package task

import "errors"

var (
	// ErrForbidden is returned when the acting role may not perform an operation.
	ErrForbidden = errors.New("operation not permitted for role")
	// ErrInvalidTransition is returned when a task is not in a state the operation can leave.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidType       = errors.New("invalid content type")
	ErrInvalidRole       = errors.New("invalid role")
	ErrUnknownField      = errors.New("unknown task field")
)
