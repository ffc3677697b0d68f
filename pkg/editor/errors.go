package editor

import (
	"errors"
	"fmt"

	"github.com/dd0wney/campusnav/pkg/constraints"
)

var (
	// ErrExportRefused means the graph has error-severity violations
	ErrExportRefused = errors.New("export refused: graph has validation errors")
	// ErrNeedsConfirmation means the graph has warnings the caller has not
	// acknowledged
	ErrNeedsConfirmation = errors.New("export needs confirmation: graph has warnings")
	// ErrInvalidCoordinate rejects NaN and infinite pixel coordinates
	ErrInvalidCoordinate = errors.New("coordinates must be finite")
)

// ExportError carries the validation result that stopped an export
type ExportError struct {
	Result *constraints.ValidationResult
	Cause  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%v (%d errors, %d warnings)", e.Cause, len(e.Result.Errors()), len(e.Result.Warnings()))
}

func (e *ExportError) Unwrap() error { return e.Cause }
