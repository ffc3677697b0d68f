package constraints

import (
	"time"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// ValidationResult contains the results of validating a graph against constraints
type ValidationResult struct {
	Valid      bool        `json:"valid"`      // True if no error-severity violations found
	Violations []Violation `json:"violations"` // List of all violations
	CheckedAt  time.Time   `json:"checked_at"` // When validation was performed
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Errors returns the export-blocking violations
func (vr *ValidationResult) Errors() []Violation {
	return vr.GetViolationsBySeverity(Error)
}

// Warnings returns the violations a caller may choose to accept
func (vr *ValidationResult) Warnings() []Violation {
	return vr.GetViolationsBySeverity(Warning)
}

// Validator manages a set of constraints and validates graphs against them
type Validator struct {
	constraints []Constraint
}

// NewValidator creates a new empty validator
func NewValidator() *Validator {
	return &Validator{
		constraints: make([]Constraint, 0),
	}
}

// DefaultValidator returns a validator with every campus constraint.
// shortSegmentM is the length in meters below which an edge is reported.
func DefaultValidator(shortSegmentM float64) *Validator {
	v := NewValidator()
	v.AddConstraints([]Constraint{
		&SettingsConstraint{},
		&UniqueIDConstraint{},
		&EndpointConstraint{},
		&ShortSegmentConstraint{MinLengthM: shortSegmentM},
		&LengthConsistencyConstraint{},
		&DegreeConstraint{},
		&BuildingReferenceConstraint{},
		&EntranceConstraint{},
		&OverrideConstraint{},
	})
	return v
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// AddConstraints adds multiple constraints to the validator
func (v *Validator) AddConstraints(constraints []Constraint) {
	v.constraints = append(v.constraints, constraints...)
}

// Validate runs all constraints against the document and returns the results.
// Only error-severity violations make the result invalid.
func (v *Validator) Validate(doc *campus.Document) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
		CheckedAt:  time.Now(),
	}

	// Run each constraint
	for _, constraint := range v.constraints {
		violations, err := constraint.Validate(doc)
		if err != nil {
			return nil, err
		}

		for _, violation := range violations {
			if violation.Severity == Error {
				result.Valid = false
			}
		}
		result.Violations = append(result.Violations, violations...)
	}

	return result, nil
}

// ValidateGraph validates the exported form of a live graph
func (v *Validator) ValidateGraph(g *campus.Graph) (*ValidationResult, error) {
	return v.Validate(g.Document())
}

// GetConstraints returns all constraints in the validator
func (v *Validator) GetConstraints() []Constraint {
	return v.constraints
}

// ClearConstraints removes all constraints from the validator
func (v *Validator) ClearConstraints() {
	v.constraints = make([]Constraint, 0)
}
