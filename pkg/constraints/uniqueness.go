package constraints

import (
	"fmt"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// UniqueIDConstraint reports node, edge and building ids that appear more
// than once. Each repeated id is reported once, with its occurrence count.
type UniqueIDConstraint struct{}

// Name returns a human-readable name for this constraint
func (c *UniqueIDConstraint) Name() string {
	return "UniqueID"
}

// Validate checks every id space of the document
func (c *UniqueIDConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	var violations []Violation

	nodeIDs := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	for _, dup := range duplicates(nodeIDs) {
		violations = append(violations, Violation{
			Type:       DuplicateNodeID,
			Severity:   Error,
			NodeID:     dup.id,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("Node id %q is used %d times", dup.id, dup.count),
			Details:    map[string]any{"count": dup.count},
		})
	}

	edgeIDs := make([]string, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		edgeIDs = append(edgeIDs, e.ID)
	}
	for _, dup := range duplicates(edgeIDs) {
		violations = append(violations, Violation{
			Type:       DuplicateEdgeID,
			Severity:   Error,
			EdgeID:     dup.id,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("Edge id %q is used %d times", dup.id, dup.count),
			Details:    map[string]any{"count": dup.count},
		})
	}

	buildingIDs := make([]string, 0, len(doc.Buildings))
	for _, b := range doc.Buildings {
		buildingIDs = append(buildingIDs, b.ID)
	}
	for _, dup := range duplicates(buildingIDs) {
		violations = append(violations, Violation{
			Type:       DuplicateBuildingID,
			Severity:   Error,
			BuildingID: dup.id,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("Building code %q is used %d times", dup.id, dup.count),
			Details:    map[string]any{"count": dup.count},
		})
	}

	return violations, nil
}

type duplicate struct {
	id    string
	count int
}

// duplicates returns ids seen more than once, in order of first appearance
func duplicates(ids []string) []duplicate {
	counts := make(map[string]int, len(ids))
	var order []string
	for _, id := range ids {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	var out []duplicate
	for _, id := range order {
		if counts[id] > 1 {
			out = append(out, duplicate{id: id, count: counts[id]})
		}
	}
	return out
}
