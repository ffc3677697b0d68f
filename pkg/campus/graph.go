package campus

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
)

const (
	nodeIDPrefix = "n"
	edgeIDPrefix = "e"
)

var numericSuffix = regexp.MustCompile(`(\d+)$`)

// Graph is the in-memory campus walking graph.
//
// Nodes, edges and buildings live in flat maps keyed by id; the order slices
// preserve import order so that an exported document matches its source.
// A Graph is not safe for concurrent mutation. Routing reads a Clone that is
// never mutated again.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string

	edges     map[string]*Edge
	edgeOrder []string

	buildings     map[string]*Building
	buildingOrder []string

	settings Settings
	blocked  map[string]struct{}
	// blockedOrder keeps override ids in document order
	blockedOrder []string

	image Image
	meta  Meta

	nextNodeID uint64
	nextEdgeID uint64
}

// NewGraph creates an empty graph with default settings
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		edges:      make(map[string]*Edge),
		buildings:  make(map[string]*Building),
		blocked:    make(map[string]struct{}),
		settings:   DefaultSettings(),
		nextNodeID: 1,
		nextEdgeID: 1,
	}
}

// FromDocument builds a graph from a persisted snapshot.
//
// Duplicate ids and dangling edges are rejected; run the constraints
// validator first to get every issue at once. Stored lengths are kept as they
// are; call RecomputeLengths to re-derive them.
func FromDocument(doc *Document) (*Graph, error) {
	g := NewGraph()
	if doc == nil {
		return g, nil
	}
	if err := CheckPositive("px_per_meter", doc.Settings.PxPerMeter); err != nil {
		return nil, err
	}
	if err := CheckPositive("walking_speed_mps", doc.Settings.WalkingSpeedMPS); err != nil {
		return nil, err
	}
	g.settings = doc.Settings
	g.image = doc.Image
	g.meta = doc.Meta

	for i := range doc.Nodes {
		n := doc.Nodes[i]
		if _, exists := g.nodes[n.ID]; exists {
			return nil, &DuplicateIDError{Entity: "node", ID: n.ID}
		}
		if n.Type == "" {
			n.Type = NodeIntersection
		}
		g.nodes[n.ID] = &n
		g.nodeOrder = append(g.nodeOrder, n.ID)
	}

	for i := range doc.Edges {
		e := doc.Edges[i]
		if _, exists := g.edges[e.ID]; exists {
			return nil, &DuplicateIDError{Entity: "edge", ID: e.ID}
		}
		if _, ok := g.nodes[e.From]; !ok {
			return nil, &MissingNodeError{Op: "import edge " + e.ID, NodeID: e.From}
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, &MissingNodeError{Op: "import edge " + e.ID, NodeID: e.To}
		}
		g.edges[e.ID] = &e
		g.edgeOrder = append(g.edgeOrder, e.ID)
	}

	for i := range doc.Buildings {
		b := doc.Buildings[i]
		if _, exists := g.buildings[b.ID]; exists {
			return nil, &DuplicateIDError{Entity: "building", ID: b.ID}
		}
		b.EntranceNodeIDs = slices.Clone(b.EntranceNodeIDs)
		g.buildings[b.ID] = &b
		g.buildingOrder = append(g.buildingOrder, b.ID)
	}

	for _, id := range doc.Overrides.BlockedEdgeIDs {
		g.addOverride(id)
	}

	g.nextNodeID = maxSuffix(g.nodeOrder) + 1
	g.nextEdgeID = max(maxSuffix(g.edgeOrder), maxSuffix(g.blockedOrder)) + 1
	return g, nil
}

// maxSuffix returns the largest trailing number found in ids, or 0
func maxSuffix(ids []string) uint64 {
	var highest uint64
	for _, id := range ids {
		m := numericSuffix.FindString(id)
		if m == "" {
			continue
		}
		v, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		if v > highest {
			highest = v
		}
	}
	return highest
}

// Document exports the graph in the persisted snapshot format
func (g *Graph) Document() *Document {
	doc := &Document{
		Version:   CurrentVersion,
		Image:     g.image,
		Settings:  g.settings,
		Nodes:     make([]Node, 0, len(g.nodeOrder)),
		Edges:     make([]Edge, 0, len(g.edgeOrder)),
		Buildings: make([]Building, 0, len(g.buildingOrder)),
		Overrides: Overrides{BlockedEdgeIDs: slices.Clone(g.blockedOrder)},
		Meta:      g.meta,
	}
	if doc.Overrides.BlockedEdgeIDs == nil {
		doc.Overrides.BlockedEdgeIDs = []string{}
	}
	for _, id := range g.nodeOrder {
		doc.Nodes = append(doc.Nodes, *g.nodes[id])
	}
	for _, id := range g.edgeOrder {
		doc.Edges = append(doc.Edges, *g.edges[id])
	}
	for _, id := range g.buildingOrder {
		b := *g.buildings[id]
		b.EntranceNodeIDs = slices.Clone(b.EntranceNodeIDs)
		if b.EntranceNodeIDs == nil {
			b.EntranceNodeIDs = []string{}
		}
		doc.Buildings = append(doc.Buildings, b)
	}
	return doc
}

// Clone returns a deep copy that shares nothing with g
func (g *Graph) Clone() *Graph {
	c, err := FromDocument(g.Document())
	if err != nil {
		// A live graph always satisfies the import checks.
		panic(fmt.Sprintf("campus: clone of consistent graph failed: %v", err))
	}
	c.nextNodeID = g.nextNodeID
	c.nextEdgeID = g.nextEdgeID
	return c
}

// Settings returns the current settings
func (g *Graph) Settings() Settings { return g.settings }

// SetWalkingSpeed updates the walking speed used by the cost function
func (g *Graph) SetWalkingSpeed(mps float64) error {
	if err := CheckPositive("walking_speed_mps", mps); err != nil {
		return err
	}
	g.settings.WalkingSpeedMPS = mps
	return nil
}

// SetPenalties replaces the terrain penalties
func (g *Graph) SetPenalties(p Penalties) {
	g.settings.Penalties = p
}

// Image returns the map image descriptor
func (g *Graph) Image() Image { return g.image }

// SetImage replaces the map image descriptor
func (g *Graph) SetImage(img Image) { g.image = img }

// Meta returns the provenance record
func (g *Graph) Meta() Meta { return g.meta }

// SetMeta replaces the provenance record
func (g *Graph) SetMeta(m Meta) { g.meta = m }

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Building returns the building with the given code
func (g *Graph) Building(id string) (*Building, bool) {
	b, ok := g.buildings[id]
	return b, ok
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// Buildings returns all buildings in insertion order
func (g *Graph) Buildings() []*Building {
	out := make([]*Building, 0, len(g.buildingOrder))
	for _, id := range g.buildingOrder {
		out = append(out, g.buildings[id])
	}
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// BuildingCount returns the number of buildings
func (g *Graph) BuildingCount() int { return len(g.buildings) }

// BlockedOverrides returns the override set as a lookup map.
// The map is shared; callers must not modify it.
func (g *Graph) BlockedOverrides() map[string]struct{} {
	return g.blocked
}

// IsOverridden reports whether the edge id is in the override set
func (g *Graph) IsOverridden(edgeID string) bool {
	_, ok := g.blocked[edgeID]
	return ok
}

func (g *Graph) addOverride(id string) {
	if _, ok := g.blocked[id]; ok {
		return
	}
	g.blocked[id] = struct{}{}
	g.blockedOrder = append(g.blockedOrder, id)
}

func (g *Graph) removeOverride(id string) {
	if _, ok := g.blocked[id]; !ok {
		return
	}
	delete(g.blocked, id)
	g.blockedOrder = slices.DeleteFunc(g.blockedOrder, func(s string) bool { return s == id })
}

// SetOverride adds or removes an id from the override set without touching
// the edge flag. The id does not have to name an existing edge.
func (g *Graph) SetOverride(edgeID string, blocked bool) {
	if blocked {
		g.addOverride(edgeID)
	} else {
		g.removeOverride(edgeID)
	}
}

// Distance returns the Euclidean pixel distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
