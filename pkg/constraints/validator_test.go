package constraints

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// cleanDocument returns a document that passes every constraint
func cleanDocument() *campus.Document {
	return &campus.Document{
		Version:  campus.CurrentVersion,
		Settings: campus.DefaultSettings(),
		Nodes: []campus.Node{
			{ID: "n1", X: 0, Y: 0, Type: campus.NodeEntrance, BuildingID: "A", Entrance: true},
			{ID: "n2", X: 30, Y: 40, Type: campus.NodeIntersection},
			{ID: "n3", X: 60, Y: 80, Type: campus.NodeEntrance, BuildingID: "B", Entrance: true},
		},
		Edges: []campus.Edge{
			{ID: "e1", From: "n1", To: "n2", LengthPx: 50, LengthM: 50, Flags: campus.DefaultEdgeFlags()},
			{ID: "e2", From: "n2", To: "n3", LengthPx: 50, LengthM: 50, Flags: campus.DefaultEdgeFlags()},
		},
		Buildings: []campus.Building{
			{ID: "A", Name: "Alpha", EntranceNodeIDs: []string{"n1"}},
			{ID: "B", Name: "Beta", EntranceNodeIDs: []string{"n3"}},
		},
	}
}

func validate(t *testing.T, doc *campus.Document) *ValidationResult {
	t.Helper()
	result, err := DefaultValidator(DefaultShortSegmentM).Validate(doc)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	return result
}

// TestValidator_CleanDocument tests that a consistent campus has no findings
func TestValidator_CleanDocument(t *testing.T) {
	result := validate(t, cleanDocument())

	if !result.Valid {
		t.Error("Expected validation to pass")
	}
	if len(result.Violations) != 0 {
		t.Errorf("Expected no violations, got %+v", result.Violations)
	}
	if result.CheckedAt.IsZero() {
		t.Error("Expected CheckedAt to be set")
	}
}

// TestValidator_DuplicateIDs tests that repeated ids are export-blocking
func TestValidator_DuplicateIDs(t *testing.T) {
	doc := cleanDocument()
	doc.Nodes = append(doc.Nodes, campus.Node{ID: "n2", X: 30, Y: 40, Type: campus.NodeIntersection})
	doc.Edges = append(doc.Edges, doc.Edges[0], doc.Edges[0])
	doc.Buildings = append(doc.Buildings, doc.Buildings[1])

	result := validate(t, doc)
	if result.Valid {
		t.Fatal("Expected validation to fail")
	}

	nodes := result.GetViolationsByType(DuplicateNodeID)
	if len(nodes) != 1 || nodes[0].NodeID != "n2" {
		t.Errorf("Expected one duplicate node n2, got %+v", nodes)
	}
	edges := result.GetViolationsByType(DuplicateEdgeID)
	if len(edges) != 1 || edges[0].EdgeID != "e1" || edges[0].Details["count"] != 3 {
		t.Errorf("Expected e1 used 3 times, got %+v", edges)
	}
	if len(result.GetViolationsByType(DuplicateBuildingID)) != 1 {
		t.Error("Expected one duplicate building")
	}
}

// TestValidator_MissingEndpoint tests dangling edges
func TestValidator_MissingEndpoint(t *testing.T) {
	doc := cleanDocument()
	doc.Edges = append(doc.Edges, campus.Edge{ID: "e9", From: "ghost", To: "n1", LengthM: 5})

	result := validate(t, doc)
	errs := result.Errors()
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %+v", errs)
	}
	if errs[0].Type != MissingEndpoint || errs[0].NodeID != "ghost" || errs[0].EdgeID != "e9" {
		t.Errorf("Unexpected violation %+v", errs[0])
	}
}

// TestValidator_WarningsKeepResultValid tests that warnings never block
func TestValidator_WarningsKeepResultValid(t *testing.T) {
	doc := cleanDocument()
	doc.Nodes = append(doc.Nodes,
		campus.Node{ID: "n4", X: 100, Y: 100, Type: campus.NodeIntersection},
		campus.Node{ID: "n5", X: 0, Y: 0.5, Type: campus.NodeIntersection},
	)
	doc.Edges = append(doc.Edges, campus.Edge{ID: "e3", From: "n1", To: "n5", LengthPx: 0.5, LengthM: 0.5})

	result := validate(t, doc)
	if !result.Valid {
		t.Fatalf("Warnings must not invalidate, got errors %+v", result.Errors())
	}

	orphans := result.GetViolationsByType(OrphanNode)
	if len(orphans) != 1 || orphans[0].NodeID != "n4" {
		t.Errorf("Expected orphan n4, got %+v", orphans)
	}
	short := result.GetViolationsByType(ShortSegment)
	if len(short) != 1 || short[0].EdgeID != "e3" {
		t.Errorf("Expected short segment e3, got %+v", short)
	}
	if len(result.Warnings()) != 2 {
		t.Errorf("Expected 2 warnings, got %+v", result.Warnings())
	}
}

// TestDegreeConstraint_EntranceExempt tests that lone entrances are not orphans
func TestDegreeConstraint_EntranceExempt(t *testing.T) {
	doc := cleanDocument()
	doc.Nodes = append(doc.Nodes, campus.Node{ID: "n9", Type: campus.NodeEntrance, BuildingID: "A"})

	violations, err := (&DegreeConstraint{}).Validate(doc)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("Entrance should be exempt, got %+v", violations)
	}
}

// TestShortSegmentConstraint_Threshold tests custom thresholds
func TestShortSegmentConstraint_Threshold(t *testing.T) {
	doc := cleanDocument()

	violations, _ := (&ShortSegmentConstraint{MinLengthM: 60}).Validate(doc)
	if len(violations) != 2 {
		t.Errorf("Expected both 50m edges reported under 60m, got %d", len(violations))
	}
	violations, _ = (&ShortSegmentConstraint{}).Validate(doc)
	if len(violations) != 0 {
		t.Errorf("Default threshold should accept 50m edges, got %d", len(violations))
	}
}

// TestLengthConsistencyConstraint tests stale length detection
func TestLengthConsistencyConstraint(t *testing.T) {
	doc := cleanDocument()
	doc.Edges[1].LengthM = 12

	violations, err := (&LengthConsistencyConstraint{}).Validate(doc)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(violations) != 1 || violations[0].EdgeID != "e2" {
		t.Errorf("Expected stale e2, got %+v", violations)
	}
}

// TestSettingsConstraint tests calibration checks
func TestSettingsConstraint(t *testing.T) {
	doc := cleanDocument()
	doc.Settings.PxPerMeter = 0
	doc.Settings.WalkingSpeedMPS = -1

	result := validate(t, doc)
	if len(result.GetViolationsByType(InvalidSettings)) != 2 {
		t.Errorf("Expected 2 settings errors, got %+v", result.Errors())
	}
	if result.Valid {
		t.Error("Invalid settings must block export")
	}
}

// TestReferenceConstraints tests building and override references
func TestReferenceConstraints(t *testing.T) {
	doc := cleanDocument()
	doc.Nodes[1].BuildingID = "Z"
	doc.Buildings = append(doc.Buildings, campus.Building{ID: "C", Name: "Closed"})
	doc.Overrides.BlockedEdgeIDs = []string{"e77"}

	result := validate(t, doc)
	if !result.Valid {
		t.Errorf("Reference findings must not block, got %+v", result.Errors())
	}
	if v := result.GetViolationsByType(UnknownBuilding); len(v) != 1 || v[0].BuildingID != "Z" {
		t.Errorf("Expected unknown building Z, got %+v", v)
	}
	if v := result.GetViolationsByType(NoEntrance); len(v) != 1 || v[0].BuildingID != "C" {
		t.Errorf("Expected building C without entrance, got %+v", v)
	}
	if v := result.GetViolationsBySeverity(Info); len(v) != 1 || v[0].EdgeID != "e77" {
		t.Errorf("Expected dangling override e77, got %+v", v)
	}
}

// TestViolation_JSON tests the wire form used by the API
func TestViolation_JSON(t *testing.T) {
	data, err := json.Marshal(Violation{Type: OrphanNode, Severity: Warning, NodeID: "n4", Constraint: "Degree", Message: "m"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type":"OrphanNode"`, `"severity":"Warning"`, `"node_id":"n4"`} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %s in %s", want, s)
		}
	}
	if strings.Contains(s, "edge_id") {
		t.Errorf("Empty edge id should be omitted: %s", s)
	}
}

// TestValidator_ClearConstraints tests constraint management
func TestValidator_ClearConstraints(t *testing.T) {
	v := DefaultValidator(0)
	if len(v.GetConstraints()) == 0 {
		t.Fatal("Expected default constraints")
	}
	v.ClearConstraints()
	if len(v.GetConstraints()) != 0 {
		t.Error("Expected no constraints after clear")
	}
}
