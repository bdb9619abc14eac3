package api

import (
	"errors"
	"net/http"

	"github.com/GoCodeAlone/postboard/blob"
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/task"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, task.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, board.ErrNoSession), errors.Is(err, board.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, task.ErrInvalidTransition),
		errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrInvalidType),
		errors.Is(err, task.ErrInvalidRole),
		errors.Is(err, task.ErrUnknownField),
		errors.Is(err, board.ErrUnknownBrand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrTaskNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, blob.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, board.ErrUnknownAction):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
