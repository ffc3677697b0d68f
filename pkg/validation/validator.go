package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/campusnav/pkg/calibration"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxIDLength   = 64
	MaxNameLength = 100

	// Regular expressions
	idPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		default:
			return true
		}
	})
}

// RouteRequest asks for an itinerary visiting buildings in order. The list
// length and the codes themselves are checked by the routing engine so
// that its error kinds reach the client.
type RouteRequest struct {
	Buildings      []string `json:"buildings" validate:"max=50"`
	AvoidStairs    bool     `json:"avoid_stairs"`
	AccessibleOnly bool     `json:"accessible_only"`
}

// NodeRequest creates or updates a node in the editor
type NodeRequest struct {
	X          float64 `json:"x" validate:"finite"`
	Y          float64 `json:"y" validate:"finite"`
	Name       string  `json:"name" validate:"max=100"`
	Type       string  `json:"type" validate:"omitempty,oneof=intersection entrance other"`
	BuildingID string  `json:"buildingId" validate:"max=64"`
	Entrance   bool    `json:"entrance"`
}

// EdgeRequest connects two nodes in the editor
type EdgeRequest struct {
	From       string   `json:"from" validate:"required,max=64"`
	To         string   `json:"to" validate:"required,max=64"`
	Accessible *bool    `json:"accessible"`
	Stairs     bool     `json:"stairs"`
	Covered    bool     `json:"covered"`
	Steep      bool     `json:"steep"`
	PenaltyS   *float64 `json:"penalty_s" validate:"omitempty,finite"`
}

// AssignRequest assigns a node to a building
type AssignRequest struct {
	NodeID       string `json:"nodeId" validate:"required,max=64"`
	BuildingID   string `json:"buildingId" validate:"max=64"`
	BuildingName string `json:"buildingName" validate:"max=100"`
	Entrance     bool   `json:"entrance"`
}

// CalibrateRequest carries a reference segment of known length
type CalibrateRequest struct {
	P1     calibration.Point `json:"p1"`
	P2     calibration.Point `json:"p2"`
	Meters float64           `json:"meters" validate:"gt=0,finite"`
}

// ValidateRouteRequest validates a route request
func ValidateRouteRequest(req *RouteRequest) error {
	if req == nil {
		return errors.New("route request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	for i, code := range req.Buildings {
		if len(code) > MaxIDLength {
			return fmt.Errorf("Buildings: code at index %d exceeds maximum length of %d characters", i, MaxIDLength)
		}
	}
	return nil
}

// ValidateNodeRequest validates a node creation/update request
func ValidateNodeRequest(req *NodeRequest) error {
	if req == nil {
		return errors.New("node request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if req.BuildingID != "" {
		if err := ValidateID(req.BuildingID); err != nil {
			return fmt.Errorf("BuildingID: %w", err)
		}
	}
	return nil
}

// ValidateEdgeRequest validates an edge creation request
func ValidateEdgeRequest(req *EdgeRequest) error {
	if req == nil {
		return errors.New("edge request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateAssignRequest validates a building assignment
func ValidateAssignRequest(req *AssignRequest) error {
	if req == nil {
		return errors.New("assign request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if req.BuildingID != "" {
		if err := ValidateID(req.BuildingID); err != nil {
			return fmt.Errorf("BuildingID: %w", err)
		}
	}
	return nil
}

// ValidateCalibrateRequest validates a calibration request
func ValidateCalibrateRequest(req *CalibrateRequest) error {
	if req == nil {
		return errors.New("calibrate request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateID validates a node, edge or building identifier
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id '%s' exceeds maximum length of %d characters", id, MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id '%s' contains invalid characters (only alphanumeric, '_', '.' and '-' allowed)", id)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "finite":
			return fmt.Errorf("%s: must be a finite number", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
