package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for route planning
var (
	ErrNoStops         = errors.New("request must include a list of building codes")
	ErrTooFewStops     = errors.New("at least two building codes are required")
	ErrUnknownBuilding = errors.New("unknown building code")
	ErrNoEntrance      = errors.New("building has no entrance")
	ErrUnreachable     = errors.New("no available path")
)

// Error kinds reported to API clients
const (
	KindNoStops         = "no_stops"
	KindTooFewStops     = "too_few_stops"
	KindUnknownBuilding = "unknown_building"
	KindNoEntrance      = "no_entrance"
	KindUnreachable     = "unreachable"
)

// UnknownBuildingCodeError lists every requested code that names no building,
// in request order.
type UnknownBuildingCodeError struct {
	Codes []string
}

func (e *UnknownBuildingCodeError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownBuilding, strings.Join(e.Codes, ", "))
}

func (e *UnknownBuildingCodeError) Unwrap() error { return ErrUnknownBuilding }

// NoEntranceError names a building that has no entrance node
type NoEntranceError struct {
	Building string
}

func (e *NoEntranceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Building, ErrNoEntrance)
}

func (e *NoEntranceError) Unwrap() error { return ErrNoEntrance }

// UnreachableError names the consecutive pair of buildings that could not be
// connected.
type UnreachableError struct {
	From string
	To   string
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%v between %s and %s", ErrUnreachable, e.From, e.To)
}

func (e *UnreachableError) Unwrap() error { return ErrUnreachable }

// ErrorKind maps a planning error to its kind, or "" for foreign errors
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNoStops):
		return KindNoStops
	case errors.Is(err, ErrTooFewStops):
		return KindTooFewStops
	case errors.Is(err, ErrUnknownBuilding):
		return KindUnknownBuilding
	case errors.Is(err, ErrNoEntrance):
		return KindNoEntrance
	case errors.Is(err, ErrUnreachable):
		return KindUnreachable
	default:
		return ""
	}
}

// ErrorDetail returns the structured detail of a planning error: the unknown
// codes, the building without entrances or the failing pair.
func ErrorDetail(err error) map[string]any {
	var unknown *UnknownBuildingCodeError
	var noEntrance *NoEntranceError
	var unreachable *UnreachableError
	switch {
	case errors.As(err, &unknown):
		return map[string]any{"codes": unknown.Codes}
	case errors.As(err, &noEntrance):
		return map[string]any{"building": noEntrance.Building}
	case errors.As(err, &unreachable):
		return map[string]any{"from": unreachable.From, "to": unreachable.To}
	default:
		return nil
	}
}
