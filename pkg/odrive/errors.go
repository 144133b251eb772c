package odrive

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrStateTimeout = errors.New("timed out waiting for axis to become idle")
)

// CommError represents a communication-level failure.
type CommError struct {
	Op  string // "write" or "read"
	Err error  // Underlying transport or context error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("communication error during %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a parameter value cannot be read as a number.
type ParseError struct {
	Path  string // Parameter path that was read
	Value string // Raw response line
	Err   error  // Underlying strconv error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parameter %s: cannot parse %q: %v", e.Path, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsCommError returns true if err is or wraps a CommError.
func IsCommError(err error) bool {
	var commErr *CommError
	return errors.As(err, &commErr)
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
