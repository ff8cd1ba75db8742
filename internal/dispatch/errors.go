package dispatch

import (
	"errors"
	"fmt"
)

// ErrNilHandler is returned by Register when the supplied handler is nil.
// A nil handler would otherwise sit in the table and panic at dispatch time.
var ErrNilHandler = errors.New("handler must not be nil")

// DuplicateRegistrationError reports an attempt to register a handler for a
// (category, name) pair that already has one. The existing registration is
// left untouched.
type DuplicateRegistrationError struct {
	Category Category
	Name     string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s %q is already registered", e.Category, e.Name)
}

// UnknownOperationError reports a dispatch to a (category, name) pair that
// has no registered handler. It names both parts of the pair so callers can
// report exactly what was asked for.
type UnknownOperationError struct {
	Category Category
	Name     string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Category, e.Name)
}

// IsDuplicateRegistration reports whether err is a DuplicateRegistrationError.
func IsDuplicateRegistration(err error) bool {
	var dup *DuplicateRegistrationError
	return errors.As(err, &dup)
}

// IsUnknownOperation reports whether err is an UnknownOperationError.
func IsUnknownOperation(err error) bool {
	var unknown *UnknownOperationError
	return errors.As(err, &unknown)
}

// Compile-time interface checks
var (
	_ error = (*DuplicateRegistrationError)(nil)
	_ error = (*UnknownOperationError)(nil)
)
