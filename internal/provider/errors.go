package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/harborline/harbormaster/internal/api"
)

// Kind classifies provider failures.
type Kind int

const (
	KindUnavailable Kind = iota
	KindNotFound
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	default:
		return "unavailable"
	}
}

// Sentinels matched by *Error via errors.Is.
var (
	ErrUnavailable = errors.New("provider unavailable")
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid request")
)

// Error is the only error type providers return.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalid:
		return e.Kind == KindInvalid
	}
	return false
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalid reports whether err means the request was rejected.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }

// classify maps a client error onto a provider error kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}

	kind := KindUnavailable
	var statusErr *api.StatusError
	switch {
	case errors.As(err, &statusErr):
		switch statusErr.Code {
		case http.StatusNotFound:
			kind = KindNotFound
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			kind = KindInvalid
		}
	case errors.Is(err, api.ErrInvalidPatch):
		kind = KindInvalid
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
