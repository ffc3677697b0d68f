package constraints

import (
	"encoding/json"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// MarshalJSON writes the severity name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	DuplicateNodeID ViolationType = iota
	DuplicateEdgeID
	DuplicateBuildingID
	MissingEndpoint
	InvalidSettings
	ShortSegment
	OrphanNode
	StaleLength
	UnknownBuilding
	NoEntrance
	DanglingOverride
)

func (vt ViolationType) String() string {
	switch vt {
	case DuplicateNodeID:
		return "DuplicateNodeID"
	case DuplicateEdgeID:
		return "DuplicateEdgeID"
	case DuplicateBuildingID:
		return "DuplicateBuildingID"
	case MissingEndpoint:
		return "MissingEndpoint"
	case InvalidSettings:
		return "InvalidSettings"
	case ShortSegment:
		return "ShortSegment"
	case OrphanNode:
		return "OrphanNode"
	case StaleLength:
		return "StaleLength"
	case UnknownBuilding:
		return "UnknownBuilding"
	case NoEntrance:
		return "NoEntrance"
	case DanglingOverride:
		return "DanglingOverride"
	default:
		return "Unknown"
	}
}

// MarshalJSON writes the type name
func (vt ViolationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(vt.String())
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType  `json:"type"`
	Severity   Severity       `json:"severity"`
	NodeID     string         `json:"node_id,omitempty"`
	EdgeID     string         `json:"edge_id,omitempty"`
	BuildingID string         `json:"building_id,omitempty"`
	Constraint string         `json:"constraint"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// Constraint is the interface that all constraint types must implement.
// Constraints read the document form of a graph because it can hold
// duplicate ids and dangling edges that a campus.Graph rejects.
type Constraint interface {
	// Validate checks the constraint against the document
	// Returns a list of violations (empty if valid)
	Validate(doc *campus.Document) ([]Violation, error)

	// Name returns a human-readable name for the constraint
	Name() string
}
