package snapshot

import (
	"errors"
	"fmt"

	"github.com/dd0wney/campusnav/pkg/constraints"
)

// Common sentinel errors
var (
	ErrNotFound          = errors.New("snapshot not found")
	ErrInvalid           = errors.New("snapshot failed validation")
	ErrCorrupt           = errors.New("snapshot is corrupt")
	ErrUnsupportedScheme = errors.New("unsupported snapshot location")
	ErrNotLoaded         = errors.New("no snapshot loaded")
)

// InvalidError carries the validation result of a rejected document
type InvalidError struct {
	Result *constraints.ValidationResult
	Cause  error // set when the graph itself refused the document
}

func (e *InvalidError) Error() string {
	n := 0
	if e.Result != nil {
		n = len(e.Result.Errors())
	}
	if e.Cause != nil {
		return fmt.Sprintf("%v: %d error(s): %v", ErrInvalid, n, e.Cause)
	}
	return fmt.Sprintf("%v: %d error(s)", ErrInvalid, n)
}

func (e *InvalidError) Unwrap() error { return ErrInvalid }

// DecodeError wraps a JSON or compression failure
type DecodeError struct {
	Location string
	Cause    error
}

func (e *DecodeError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s: %v: %v", e.Location, ErrCorrupt, e.Cause)
	}
	return fmt.Sprintf("%v: %v", ErrCorrupt, e.Cause)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrCorrupt, e.Cause} }
