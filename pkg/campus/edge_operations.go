package campus

import (
	"slices"
	"strconv"
)

// allocEdgeID returns a fresh edge id. Ids named by a blocked override are
// skipped so a new edge never inherits a stale block.
func (g *Graph) allocEdgeID() string {
	for {
		id := edgeIDPrefix + strconv.FormatUint(g.nextEdgeID, 10)
		g.nextEdgeID++
		if _, taken := g.edges[id]; taken {
			continue
		}
		if _, blocked := g.blocked[id]; blocked {
			continue
		}
		return id
	}
}

// deriveLength recomputes both lengths of e from current coordinates
func (g *Graph) deriveLength(e *Edge) {
	from := g.nodes[e.From]
	to := g.nodes[e.To]
	e.LengthPx = Distance(from.X, from.Y, to.X, to.Y)
	e.LengthM = e.LengthPx / g.settings.PxPerMeter
}

// AddEdge connects two existing nodes. Self-loops and parallel edges are
// accepted, matching what the annotator can draw.
func (g *Graph) AddEdge(fromID, toID string) (*Edge, error) {
	if _, ok := g.nodes[fromID]; !ok {
		return nil, &MissingNodeError{Op: "AddEdge", NodeID: fromID}
	}
	if _, ok := g.nodes[toID]; !ok {
		return nil, &MissingNodeError{Op: "AddEdge", NodeID: toID}
	}

	e := &Edge{
		ID:    g.allocEdgeID(),
		From:  fromID,
		To:    toID,
		Flags: DefaultEdgeFlags(),
	}
	g.deriveLength(e)
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	return e, nil
}

// DeleteEdge removes a single edge. Its override entry, if any, is dropped
// with it.
func (g *Graph) DeleteEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return edgeNotFound("DeleteEdge", id)
	}
	delete(g.edges, id)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(s string) bool { return s == id })
	g.removeOverride(id)
	return nil
}

// ToggleBlocked flips the edge's blocked flag and mirrors the new state into
// the override set. It returns the new state.
func (g *Graph) ToggleBlocked(id string) (bool, error) {
	e, ok := g.edges[id]
	if !ok {
		return false, edgeNotFound("ToggleBlocked", id)
	}
	e.Flags.Blocked = !e.Flags.Blocked
	if e.Flags.Blocked {
		g.addOverride(id)
	} else {
		g.removeOverride(id)
	}
	return e.Flags.Blocked, nil
}

// SetEdgeFlags replaces the terrain flags of an edge. The blocked flag is
// applied through the same path as ToggleBlocked so both block mechanisms
// agree afterwards.
func (g *Graph) SetEdgeFlags(id string, flags EdgeFlags) error {
	e, ok := g.edges[id]
	if !ok {
		return edgeNotFound("SetEdgeFlags", id)
	}
	blocked := flags.Blocked
	flags.Blocked = e.Flags.Blocked
	e.Flags = flags
	if e.Flags.Blocked != blocked {
		if _, err := g.ToggleBlocked(id); err != nil {
			return err
		}
	}
	return nil
}

// SetEdgePenalty sets the custom additive seconds of an edge
func (g *Graph) SetEdgePenalty(id string, seconds float64) error {
	e, ok := g.edges[id]
	if !ok {
		return edgeNotFound("SetEdgePenalty", id)
	}
	e.PenaltyS = seconds
	return nil
}

// SetCalibration sets px_per_meter and recomputes length_m for every edge.
// length_px depends only on coordinates and is not touched.
func (g *Graph) SetCalibration(pxPerMeter float64) error {
	if err := CheckPositive("px_per_meter", pxPerMeter); err != nil {
		return err
	}
	g.settings.PxPerMeter = pxPerMeter
	for _, e := range g.edges {
		e.LengthM = e.LengthPx / pxPerMeter
	}
	return nil
}

// RecomputeLengths re-derives length_px and length_m for every edge from the
// current coordinates, discarding whatever values were imported.
func (g *Graph) RecomputeLengths() {
	for _, e := range g.edges {
		g.deriveLength(e)
	}
}

// IncidentEdges returns the edges touching the node, in insertion order
func (g *Graph) IncidentEdges(nodeID string) []*Edge {
	var out []*Edge
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.From == nodeID || e.To == nodeID {
			out = append(out, e)
		}
	}
	return out
}
