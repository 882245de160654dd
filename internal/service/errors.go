package service

import "fmt"

// ValidationError reports a missing or malformed field. It is always raised
// before any write happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// DuplicateError reports a unique-constraint violation on a natural key.
type DuplicateError struct {
	Entity string
	Key    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

// NotFoundError reports an absent update/delete target.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// PersistenceError wraps an underlying store failure after rollback.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExternalProcessError reports a subprocess that exited non-zero or produced
// unparsable output.
type ExternalProcessError struct {
	Script string
	Stderr string
	Err    error
}

func (e *ExternalProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Script, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Script, e.Err)
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }
