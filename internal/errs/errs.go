// Package errs provides common errors thrown in the app that are expected to be caught upstream
package errs

import "errors"

var (
	// ErrCommandFailed is returned when an external tool exits non-zero or cannot be started.
	ErrCommandFailed = errors.New("external command failed")
	// ErrNotFound is returned when a named output, monitor or profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfig is returned when the profile file is malformed.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInconsistentState means a mutation left the live state in a shape we did not expect.
	ErrInconsistentState = errors.New("inconsistent state")
)
