package campus

import (
	"encoding/json"
	"errors"
	"testing"
)

// sampleDocument returns a small two-building campus used across tests
func sampleDocument() *Document {
	return &Document{
		Version: CurrentVersion,
		Image:   Image{Filename: "campus.png", WidthPx: 800, HeightPx: 600},
		Settings: Settings{
			PxPerMeter:      2,
			WalkingSpeedMPS: 1.4,
			Penalties:       Penalties{StairsS: 10, SteepS: 5, CoveredS: -2},
		},
		Nodes: []Node{
			{ID: "n1", X: 0, Y: 0, Type: NodeEntrance, BuildingID: "A", Entrance: true},
			{ID: "n2", X: 30, Y: 40, Type: NodeIntersection},
			{ID: "n7", X: 60, Y: 80, Type: NodeEntrance, BuildingID: "B", Entrance: true},
		},
		Edges: []Edge{
			{ID: "e1", From: "n1", To: "n2", LengthPx: 50, LengthM: 25, Flags: DefaultEdgeFlags()},
			{ID: "e4", From: "n2", To: "n7", LengthPx: 50, LengthM: 25, Flags: EdgeFlags{Accessible: true, Stairs: true}},
		},
		Buildings: []Building{
			{ID: "A", Name: "Library", EntranceNodeIDs: []string{"n1"}},
			{ID: "B", Name: "Gym", EntranceNodeIDs: []string{}},
		},
		Overrides: Overrides{BlockedEdgeIDs: []string{}},
		Meta:      Meta{Created: "2024-01-01T00:00:00Z", EditedBy: "test"},
	}
}

func TestFromDocument_SeedsCounters(t *testing.T) {
	g, err := FromDocument(sampleDocument())
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}

	n := g.AddNode(1, 1, NodeAttrs{})
	if n.ID != "n8" {
		t.Errorf("Expected next node id n8, got %s", n.ID)
	}

	e, err := g.AddEdge("n1", n.ID)
	if err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if e.ID != "e5" {
		t.Errorf("Expected next edge id e5, got %s", e.ID)
	}
}

func TestFromDocument_RejectsDuplicateNode(t *testing.T) {
	doc := sampleDocument()
	doc.Nodes = append(doc.Nodes, Node{ID: "n1"})

	_, err := FromDocument(doc)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Expected ErrDuplicateID, got %v", err)
	}
	var dup *DuplicateIDError
	if !errors.As(err, &dup) || dup.Entity != "node" || dup.ID != "n1" {
		t.Errorf("Unexpected duplicate error detail: %v", err)
	}
}

func TestFromDocument_RejectsDanglingEdge(t *testing.T) {
	doc := sampleDocument()
	doc.Edges = append(doc.Edges, Edge{ID: "e9", From: "n1", To: "ghost"})

	_, err := FromDocument(doc)
	var missing *MissingNodeError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingNodeError, got %v", err)
	}
	if missing.NodeID != "ghost" {
		t.Errorf("Expected missing node ghost, got %s", missing.NodeID)
	}
}

func TestFromDocument_RejectsBadSettings(t *testing.T) {
	doc := sampleDocument()
	doc.Settings.PxPerMeter = 0

	_, err := FromDocument(doc)
	if !errors.Is(err, ErrInvalidCalibration) {
		t.Fatalf("Expected ErrInvalidCalibration, got %v", err)
	}
}

func TestDocument_RoundTripIsExact(t *testing.T) {
	doc := sampleDocument()
	doc.Overrides.BlockedEdgeIDs = []string{"e4"}

	original, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Document
	if err := json.Unmarshal(original, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	g, err := FromDocument(&decoded)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}

	exported, err := json.Marshal(g.Document())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(original) != string(exported) {
		t.Errorf("Round trip changed the document:\n  in:  %s\n  out: %s", original, exported)
	}
}

func TestNode_BuildingIDNull(t *testing.T) {
	data, err := json.Marshal(Node{ID: "n1", Type: NodeIntersection})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"id":"n1","x":0,"y":0,"name":"","type":"intersection","buildingId":null,"entrance":false}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	var n Node
	if err := json.Unmarshal([]byte(`{"id":"n2","buildingId":"SCI"}`), &n); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n.BuildingID != "SCI" {
		t.Errorf("Expected building SCI, got %q", n.BuildingID)
	}
}

func TestEdgeFlags_SteepOmittedWhenFalse(t *testing.T) {
	data, _ := json.Marshal(DefaultEdgeFlags())
	want := `{"accessible":true,"stairs":false,"covered":false,"blocked":false}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestEdge_DecodeDefaultsAccessible(t *testing.T) {
	tests := []struct {
		name string
		data string
		want EdgeFlags
	}{
		{"no flags", `{"id":"e1","from":"n1","to":"n2"}`, EdgeFlags{Accessible: true}},
		{"null flags", `{"id":"e1","from":"n1","to":"n2","flags":null}`, EdgeFlags{Accessible: true}},
		{"accessible absent", `{"id":"e1","from":"n1","to":"n2","flags":{"stairs":true}}`, EdgeFlags{Accessible: true, Stairs: true}},
		{"explicitly inaccessible", `{"id":"e1","from":"n1","to":"n2","flags":{"accessible":false}}`, EdgeFlags{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Edge
			if err := json.Unmarshal([]byte(tt.data), &e); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if e.Flags != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, e.Flags)
			}
			if e.ID != "e1" || e.From != "n1" || e.To != "n2" {
				t.Errorf("Edge fields lost: %+v", e)
			}
		})
	}
}

func TestClone_IsIndependent(t *testing.T) {
	g, err := FromDocument(sampleDocument())
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}
	c := g.Clone()

	if _, err := g.DeleteNode("n2"); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}
	if c.NodeCount() != 3 || c.EdgeCount() != 2 {
		t.Errorf("Clone changed with its source: %d nodes, %d edges", c.NodeCount(), c.EdgeCount())
	}

	// Counters carry over so the clone allocates the same ids
	if got := c.AddNode(0, 0, NodeAttrs{}).ID; got != "n8" {
		t.Errorf("Expected clone to allocate n8, got %s", got)
	}
}

func TestCheckPositive(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		ok    bool
	}{
		{"positive", 2.5, true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"nan", nan(), false},
		{"inf", inf(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPositive("px_per_meter", tt.value)
			if tt.ok && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidCalibration) {
				t.Errorf("Expected ErrInvalidCalibration, got %v", err)
			}
		})
	}
}
