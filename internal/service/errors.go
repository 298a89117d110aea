package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Service level failures. Handlers translate them into HTTP responses.
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrDuplicateLoginID   = errors.New("login id already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrUserNotFound       = errors.New("user not found")
	ErrStoreUnavailable   = errors.New("user store unavailable")
)

// storeFault marks a repository failure so callers can report the service
// as unavailable instead of failing with an internal error.
func storeFault(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// ValidationError lists the rejected input fields. It matches ErrValidationFailed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// newValidationError converts ozzo validation output. Anything other than
// field errors is returned unchanged.
func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for name, ferr := range fieldErrs {
		if ferr != nil {
			fields[name] = ferr.Error()
		}
	}
	return &ValidationError{Fields: fields}
}
