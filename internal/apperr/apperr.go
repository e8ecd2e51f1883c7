package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Config         Kind = "config"
	Classification Kind = "classification"
	Network        Kind = "network"
	Duplicate      Kind = "duplicate"
	NotFound       Kind = "not_found"
	Invalid        Kind = "invalid"
	Internal       Kind = "internal"
)

// AppError carries a Kind so callers can decide between fatal, per-item
// failure and skip without string matching.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Message: msg, Err: err}
}

func Configf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: Config, Message: fmt.Sprintf(format, args...)}
}

func Networkf(err error, format string, args ...interface{}) error {
	return &AppError{Kind: Network, Message: fmt.Sprintf(format, args...), Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns Internal for errors that were never classified.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Invalid, Config:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Duplicate:
		return http.StatusConflict
	case Classification:
		return http.StatusUnprocessableEntity
	case Network:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
