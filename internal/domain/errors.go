package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("not found")
	ErrParentNotFound = errors.New("parent not found")
	ErrHasChildren    = errors.New("has children")
	ErrInternal       = errors.New("internal error")
)

// NotFoundError reports a missing record of a specific kind. It matches
// ErrNotFound under errors.Is.
type NotFoundError struct {
	Kind Kind
	ID   uint
}

func NotFound(kind Kind, id uint) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s Not Found", e.Kind.Label())
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Internal wraps a persistence failure so callers can classify it.
func Internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// HTTPStatus maps the error taxonomy onto response codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrParentNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrHasChildren):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text shown to clients; internals never leak.
func PublicMessage(err error) string {
	var nf *NotFoundError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &nf):
		return nf.Error()
	case errors.Is(err, ErrParentNotFound):
		return "Parent Not Found"
	case errors.Is(err, ErrNotFound):
		return "Not Found"
	case errors.Is(err, ErrBadRequest):
		return "Bad Request"
	case errors.Is(err, ErrHasChildren):
		return "Has Children"
	}
	return "Internal Server Error"
}

// RemoteError is a failure reported by a server, classified back into the
// taxonomy by its status code so errors.Is works on the client side too.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *RemoteError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return ErrParentNotFound
	case http.StatusConflict:
		return ErrHasChildren
	}
	return ErrInternal
}
