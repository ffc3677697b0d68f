package constraints

import (
	"fmt"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// DegreeConstraint reports nodes with no incident edge. Entrances are exempt:
// a building may be drawn before its paths are.
type DegreeConstraint struct{}

// Name returns the constraint name
func (dc *DegreeConstraint) Name() string {
	return "Degree"
}

// Validate checks the degree of every node
func (dc *DegreeConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	violations := make([]Violation, 0)

	degree := make(map[string]int, len(doc.Nodes))
	for _, e := range doc.Edges {
		degree[e.From]++
		degree[e.To]++
	}

	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		if degree[node.ID] > 0 || node.IsEntrance() {
			continue
		}
		violations = append(violations, Violation{
			Type:       OrphanNode,
			Severity:   Warning,
			NodeID:     node.ID,
			Constraint: dc.Name(),
			Message:    fmt.Sprintf("Node %s has no edges", node.ID),
			Details: map[string]any{
				"x":    node.X,
				"y":    node.Y,
				"type": string(node.Type),
			},
		})
	}

	return violations, nil
}
