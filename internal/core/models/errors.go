package models

import (
	"errors"
	"fmt"

	"github.com/zeusync/dataobjects/internal/core/fields"
)

// Error taxonomy shared by the registry, streams and buffers. Operation-specific errors
// wrap one of these so callers can classify with errors.Is or Class.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrAllocation = errors.New("allocation failed")
)

// Registry errors
var (
	ErrNilEntity         = fmt.Errorf("%w: nil entity", ErrValidation)
	ErrNilType           = fmt.Errorf("%w: nil type descriptor", ErrValidation)
	ErrAlreadyRegistered = fmt.Errorf("%w: entity already registered", ErrValidation)
	ErrEntityNotFound    = fmt.Errorf("entity %w", ErrNotFound)
	ErrTypeNotFound      = fmt.Errorf("type %w", ErrNotFound)
	ErrUniqueIDTaken     = fmt.Errorf("%w unique id", ErrDuplicate)
	ErrTypeRegistered    = fmt.Errorf("%w type registration", ErrDuplicate)
	ErrIDSpaceExhausted  = fmt.Errorf("%w: entity id space exhausted", ErrAllocation)
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassValidation
	ClassNotFound
	ClassDuplicate
	ClassAllocation
	ClassUnknownType
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassNotFound:
		return "not_found"
	case ClassDuplicate:
		return "duplicate"
	case ClassAllocation:
		return "allocation"
	case ClassUnknownType:
		return "unknown_type"
	default:
		return "none"
	}
}

// Fatal reports whether errors of this class terminate the process.
func (c ErrorClass) Fatal() bool {
	return c == ClassAllocation
}

// Class maps err onto the taxonomy.
func Class(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, fields.ErrUnknownType), errors.Is(err, fields.ErrNotNumeric):
		return ClassUnknownType
	case errors.Is(err, ErrAllocation):
		return ClassAllocation
	case errors.Is(err, ErrDuplicate):
		return ClassDuplicate
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrValidation):
		return ClassValidation
	default:
		return ClassNone
	}
}
