package task

import (
	"errors"
	"fmt"
)

// ErrDuplicateRegistration is returned when a job name is bound twice in the
// same process. Registration is a start-up-time configuration step; hitting
// this at runtime means the worker wiring is wrong.
var ErrDuplicateRegistration = errors.New("job name already registered")

// ErrUnknownJob is returned by Dispatch when no handler is bound for the job
// name. Registries across workers are expected to agree on the name set, so
// this signals a deployment mismatch rather than a caller mistake.
var ErrUnknownJob = errors.New("no handler registered for job")

// Kind classifies a handler failure for the caller.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Failure is a domain-level failure raised inside a handler. It travels back
// to the waiting caller as a structured outcome instead of crashing the
// worker.
type Failure struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NotFound builds a not_found failure. Handlers treat missing records as a
// normal outcome, not an unexpected crash.
func NotFound(format string, args ...interface{}) error {
	return &Failure{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a validation failure.
func Invalid(format string, args ...interface{}) error {
	return &Failure{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict failure (e.g. a unique-key collision).
func Conflict(format string, args ...interface{}) error {
	return &Failure{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an internal failure.
func Internal(format string, args ...interface{}) error {
	return &Failure{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
