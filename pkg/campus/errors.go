package campus

import (
	"errors"
	"fmt"
	"math"
)

// Common sentinel errors
var (
	ErrMissingNode        = errors.New("node not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrBuildingNotFound   = errors.New("building not found")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrInvalidCalibration = errors.New("invalid calibration")
)

// MissingNodeError reports an operation that referenced an absent node.
type MissingNodeError struct {
	Op     string // Operation that failed (e.g., "AddEdge")
	NodeID string
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("%s: node %q: %v", e.Op, e.NodeID, ErrMissingNode)
}

func (e *MissingNodeError) Unwrap() error { return ErrMissingNode }

// DuplicateIDError reports an id that already exists for its entity kind.
type DuplicateIDError struct {
	Entity string // "node", "edge" or "building"
	ID     string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s id %q: %v", e.Entity, e.ID, ErrDuplicateID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// InvalidCalibrationError carries the rejected value and why it was rejected.
type InvalidCalibrationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidCalibrationError) Error() string {
	return fmt.Sprintf("%s=%v: %s: %v", e.Field, e.Value, e.Reason, ErrInvalidCalibration)
}

func (e *InvalidCalibrationError) Unwrap() error { return ErrInvalidCalibration }

// NotFoundError reports a missing edge or building.
type NotFoundError struct {
	Op     string
	Entity string
	ID     string
	Cause  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

func edgeNotFound(op, id string) error {
	return &NotFoundError{Op: op, Entity: "edge", ID: id, Cause: ErrEdgeNotFound}
}

func buildingNotFound(op, id string) error {
	return &NotFoundError{Op: op, Entity: "building", ID: id, Cause: ErrBuildingNotFound}
}

// CheckPositive returns an InvalidCalibrationError unless v is finite and > 0.
func CheckPositive(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &InvalidCalibrationError{Field: field, Value: v, Reason: "must be finite"}
	case v <= 0:
		return &InvalidCalibrationError{Field: field, Value: v, Reason: "must be strictly positive"}
	}
	return nil
}

// IsNotFound returns true if err is any of the not found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMissingNode) || errors.Is(err, ErrEdgeNotFound) || errors.Is(err, ErrBuildingNotFound)
}
