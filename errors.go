package sqlbatch

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the batch compiler. Every typed error below
// matches one of them with errors.Is.
var (
	// ErrUnknownEntity is returned when an entity type is not part of the model.
	ErrUnknownEntity = errors.New("sqlbatch: entity type not found in model")

	// ErrConfig is returned for invalid resolver or compiler configuration,
	// for example supplying both an include and an exclude list.
	ErrConfig = errors.New("sqlbatch: invalid configuration")

	// ErrEngine is returned when a query object does not expose the shape
	// the compiler depends on (text, arguments or the expected SELECT form).
	ErrEngine = errors.New("sqlbatch: unsupported query engine")

	// ErrEmptySet is returned when an UPDATE would have an empty SET clause.
	ErrEmptySet = errors.New("sqlbatch: empty SET clause")
)

// ModelError is returned when entity metadata cannot be resolved from the model.
type ModelError struct {
	Type string // Go type name of the entity
	Err  error  // ErrUnknownEntity, ErrConfig or a wrapped cause
}

// Error returns the error string.
func (e *ModelError) Error() string {
	return fmt.Sprintf("sqlbatch: resolving %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError returns a new ModelError for the given type name.
func NewModelError(typ string, err error) *ModelError {
	return &ModelError{Type: typ, Err: err}
}

// IsModelError returns true if the error is a ModelError.
func IsModelError(err error) bool {
	if err == nil {
		return false
	}
	var e *ModelError
	return errors.As(err, &e)
}

// EngineError is returned when the query object or its generated text does not
// have the shape the compiler expects. It indicates an incompatible query
// engine and is never retried.
type EngineError struct {
	Op  string // Stage that failed (e.g. "extract", "split")
	Msg string
}

// Error returns the error string.
func (e *EngineError) Error() string {
	return fmt.Sprintf("sqlbatch: %s: %s", e.Op, e.Msg)
}

// Is reports whether the target error matches EngineError.
// This allows errors.Is(engineErr, ErrEngine) to return true.
func (e *EngineError) Is(err error) bool {
	return err == ErrEngine
}

// NewEngineError returns a new EngineError with a formatted message.
func NewEngineError(op, format string, args ...any) *EngineError {
	return &EngineError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsEngineError returns true if the error is an EngineError.
func IsEngineError(err error) bool {
	if err == nil {
		return false
	}
	var e *EngineError
	return errors.As(err, &e) || errors.Is(err, ErrEngine)
}

// SynthesisError is returned when a SET clause cannot be built.
type SynthesisError struct {
	Entity string // Entity type being updated
	Msg    string
	Err    error // Optional underlying error
}

// Error returns the error string.
func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sqlbatch: update %s: %s: %v", e.Entity, e.Msg, e.Err)
	}
	return fmt.Sprintf("sqlbatch: update %s: %s", e.Entity, e.Msg)
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// NewSynthesisError returns a new SynthesisError.
func NewSynthesisError(entity, msg string, err error) *SynthesisError {
	return &SynthesisError{Entity: entity, Msg: msg, Err: err}
}

// IsSynthesisError returns true if the error is a SynthesisError.
func IsSynthesisError(err error) bool {
	if err == nil {
		return false
	}
	var e *SynthesisError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation raised while
// executing a batch statement.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("sqlbatch: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// MutationError wraps an execution error with the statement context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation ("update" or "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("sqlbatch: batch %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sqlbatch: batch %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
