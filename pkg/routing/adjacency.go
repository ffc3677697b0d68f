package routing

import "github.com/dd0wney/campusnav/pkg/campus"

// Arc is one traversable direction of an edge
type Arc struct {
	To     string
	EdgeID string
	Time   float64
}

// Adjacency maps a node id to the arcs leaving it.
// Every node of the source graph has an entry, possibly empty.
type Adjacency map[string][]Arc

// BuildAdjacency builds the routing view of g. Excluded edges are left out
// and every other edge is added in both directions. Edges with an endpoint
// missing from the node set are skipped.
//
// The result belongs to one snapshot; build a fresh one for every request.
func BuildAdjacency(g *campus.Graph, cost CostFunction) Adjacency {
	if cost == nil {
		cost = WalkingTime
	}
	settings := g.Settings()
	overrides := g.BlockedOverrides()

	adj := make(Adjacency, g.NodeCount())
	for _, n := range g.Nodes() {
		adj[n.ID] = nil
	}

	for _, e := range g.Edges() {
		t, ok := cost.Time(e, settings, overrides)
		if !ok {
			continue
		}
		if _, ok := adj[e.From]; !ok {
			continue
		}
		if _, ok := adj[e.To]; !ok {
			continue
		}
		adj[e.From] = append(adj[e.From], Arc{To: e.To, EdgeID: e.ID, Time: t})
		adj[e.To] = append(adj[e.To], Arc{To: e.From, EdgeID: e.ID, Time: t})
	}
	return adj
}

// ArcCount returns the number of directed arcs
func (a Adjacency) ArcCount() int {
	n := 0
	for _, arcs := range a {
		n += len(arcs)
	}
	return n
}
