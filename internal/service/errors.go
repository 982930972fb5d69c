package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services.  internal/handler maps each of
// them to exactly one HTTP status.
var (
	ErrUnauthorized         = errors.New("authentication required")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbidden            = errors.New("forbidden")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrNotFound             = errors.New("not found")
	ErrBookNotFound         = errors.New("book not found")
	ErrNotInLibrary         = errors.New("book not in library")
	ErrAlreadyInLibrary     = errors.New("book already in library")
	ErrEmailInUse           = errors.New("email already in use")
	ErrBookReferenced       = errors.New("book is saved in user libraries")
	ErrInvalidPlan          = errors.New("invalid plan type")
	ErrQueryTooShort        = errors.New("search query must be at least 2 characters")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
