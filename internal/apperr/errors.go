// Package apperr defines the error kinds shared by stores, services and handlers.
//
// Every typed error unwraps to one sentinel kind so callers can branch with errors.Is
// without knowing which layer produced the failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStore              = errors.New("store failure")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Op    string
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Msg != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, ErrValidation, e.Msg)
	case e.Field != "":
		return fmt.Sprintf("%s: %v: %s is required", e.Op, ErrValidation, e.Field)
	default:
		return fmt.Sprintf("%s: %v", e.Op, ErrValidation)
	}
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a missing user, post or file.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNotFound, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a uniqueness violation on a logical field ("login").
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// StoreError wraps a database or I/O failure.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStore, e.Err)
}

func (e StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

// Store wraps err as a StoreError unless it already carries a known kind.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return StoreError{Op: op, Err: err}
}

// IsKnown reports whether err already unwraps to one of the sentinel kinds.
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStore) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err represents ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidation reports whether err represents ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// HTTPStatus maps an error kind to the response status used by the API.
// A duplicate login answers 400 and bad credentials answer 404, as clients expect.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text shown to API clients for err.
// Store failures and unknown errors never expose their cause.
func PublicMessage(err error) string {
	var (
		ve ValidationError
		ne NotFoundError
		ce ConflictError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		switch {
		case ve.Msg != "":
			return ve.Msg
		case ve.Field != "":
			return ve.Field + " is required"
		default:
			return ErrValidation.Error()
		}
	case errors.As(err, &ne):
		if ne.Resource == "" {
			return ErrNotFound.Error()
		}
		return ne.Resource + " not found"
	case errors.As(err, &ce):
		if ce.Field == "" {
			return ErrConflict.Error()
		}
		return ce.Field + " already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err.Error()
	default:
		return "internal server error"
	}
}
