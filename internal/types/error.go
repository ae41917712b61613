package types

import (
	"errors"
	"fmt"
)

// Sentinel failure classes checked by callers with errors.Is.
var (
	// ErrNotFound marks a single-row fetch with no match, or a scoped write
	// that matched zero rows the viewer was allowed to touch.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an operation rejected by the role check before any
	// store write was attempted.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate marks a unique-constraint violation (username, email, or
	// collaborator pair). Never retried.
	ErrDuplicate = errors.New("duplicate")

	// ErrValidation marks input rejected before any store write.
	ErrValidation = errors.New("validation failed")
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// OpError labels a store failure with the entity and operation that produced
// it, e.g. "task create failed: ...". The underlying error stays reachable
// through Unwrap for sentinel checks.
type OpError struct {
	Entity string
	Op     string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Entity, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Opf wraps err with an entity/operation label, passing nil through.
func Opf(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Entity: entity, Op: op, Err: err}
}
