package constraints

import (
	"fmt"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// EndpointConstraint reports edges that reference a missing node
type EndpointConstraint struct{}

// Name returns the constraint name
func (ec *EndpointConstraint) Name() string {
	return "Endpoint"
}

// Validate checks both endpoints of every edge
func (ec *EndpointConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	known := make(map[string]struct{}, len(doc.Nodes))
	for _, n := range doc.Nodes {
		known[n.ID] = struct{}{}
	}

	var violations []Violation
	for _, e := range doc.Edges {
		for _, end := range []struct{ side, id string }{{"from", e.From}, {"to", e.To}} {
			if _, ok := known[end.id]; ok {
				continue
			}
			violations = append(violations, Violation{
				Type:       MissingEndpoint,
				Severity:   Error,
				EdgeID:     e.ID,
				NodeID:     end.id,
				Constraint: ec.Name(),
				Message:    fmt.Sprintf("Edge %s references missing node %q as %s", e.ID, end.id, end.side),
				Details:    map[string]any{"side": end.side},
			})
		}
	}
	return violations, nil
}

// BuildingReferenceConstraint reports nodes assigned to a building code that
// does not exist.
type BuildingReferenceConstraint struct{}

// Name returns the constraint name
func (bc *BuildingReferenceConstraint) Name() string {
	return "BuildingReference"
}

// Validate checks every node's building assignment
func (bc *BuildingReferenceConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	buildings := make(map[string]struct{}, len(doc.Buildings))
	for _, b := range doc.Buildings {
		buildings[b.ID] = struct{}{}
	}

	var violations []Violation
	for _, n := range doc.Nodes {
		if n.BuildingID == "" {
			continue
		}
		if _, ok := buildings[n.BuildingID]; ok {
			continue
		}
		violations = append(violations, Violation{
			Type:       UnknownBuilding,
			Severity:   Warning,
			NodeID:     n.ID,
			BuildingID: n.BuildingID,
			Constraint: bc.Name(),
			Message:    fmt.Sprintf("Node %s is assigned to unknown building %q", n.ID, n.BuildingID),
		})
	}
	return violations, nil
}

// EntranceConstraint reports buildings that no route can reach
type EntranceConstraint struct{}

// Name returns the constraint name
func (ec *EntranceConstraint) Name() string {
	return "Entrance"
}

// Validate counts entrances from node fields, ignoring the cached lists
func (ec *EntranceConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	entrances := make(map[string]int)
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.BuildingID != "" && n.IsEntrance() {
			entrances[n.BuildingID]++
		}
	}

	var violations []Violation
	for _, b := range doc.Buildings {
		if entrances[b.ID] > 0 {
			continue
		}
		violations = append(violations, Violation{
			Type:       NoEntrance,
			Severity:   Warning,
			BuildingID: b.ID,
			Constraint: ec.Name(),
			Message:    fmt.Sprintf("Building %s has no entrance", b.ID),
		})
	}
	return violations, nil
}

// OverrideConstraint reports blocked-edge overrides naming no edge
type OverrideConstraint struct{}

// Name returns the constraint name
func (oc *OverrideConstraint) Name() string {
	return "Override"
}

// Validate checks every override id
func (oc *OverrideConstraint) Validate(doc *campus.Document) ([]Violation, error) {
	edges := make(map[string]struct{}, len(doc.Edges))
	for _, e := range doc.Edges {
		edges[e.ID] = struct{}{}
	}

	var violations []Violation
	for _, id := range doc.Overrides.BlockedEdgeIDs {
		if _, ok := edges[id]; ok {
			continue
		}
		violations = append(violations, Violation{
			Type:       DanglingOverride,
			Severity:   Info,
			EdgeID:     id,
			Constraint: oc.Name(),
			Message:    fmt.Sprintf("Override blocks unknown edge %s", id),
		})
	}
	return violations, nil
}
