package campus

import (
	"slices"
	"strconv"
)

// allocNodeID returns a fresh node id. The counter is seeded on import from
// the highest numeric suffix, so merged graphs never collide.
func (g *Graph) allocNodeID() string {
	for {
		id := nodeIDPrefix + strconv.FormatUint(g.nextNodeID, 10)
		g.nextNodeID++
		if _, taken := g.nodes[id]; !taken {
			return id
		}
	}
}

// AddNode places a new node at pixel coordinates (x, y)
func (g *Graph) AddNode(x, y float64, attrs NodeAttrs) *Node {
	t := attrs.Type
	if !t.Valid() {
		t = NodeIntersection
	}
	n := &Node{
		ID:         g.allocNodeID(),
		X:          x,
		Y:          y,
		Name:       attrs.Name,
		Type:       t,
		BuildingID: attrs.BuildingID,
		Entrance:   attrs.Entrance,
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return n
}

// DeleteNode removes a node and every edge that touches it.
// It returns the ids of the removed edges.
func (g *Graph) DeleteNode(id string) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, &MissingNodeError{Op: "DeleteNode", NodeID: id}
	}

	var removed []string
	kept := g.edgeOrder[:0]
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.From == id || e.To == id {
			delete(g.edges, eid)
			g.removeOverride(eid)
			removed = append(removed, eid)
			continue
		}
		kept = append(kept, eid)
	}
	g.edgeOrder = kept

	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })
	return removed, nil
}

// MoveNode changes a node's coordinates and re-derives the length of every
// incident edge.
func (g *Graph) MoveNode(id string, x, y float64) error {
	n, ok := g.nodes[id]
	if !ok {
		return &MissingNodeError{Op: "MoveNode", NodeID: id}
	}
	n.X, n.Y = x, y
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.From == id || e.To == id {
			g.deriveLength(e)
		}
	}
	return nil
}

// RenameNode changes a node id and rewrites every edge endpoint and building
// entrance cache entry that referenced the old id.
func (g *Graph) RenameNode(oldID, newID string) error {
	n, ok := g.nodes[oldID]
	if !ok {
		return &MissingNodeError{Op: "RenameNode", NodeID: oldID}
	}
	if oldID == newID {
		return nil
	}
	if _, exists := g.nodes[newID]; exists {
		return &DuplicateIDError{Entity: "node", ID: newID}
	}

	n.ID = newID
	delete(g.nodes, oldID)
	g.nodes[newID] = n
	for i, id := range g.nodeOrder {
		if id == oldID {
			g.nodeOrder[i] = newID
			break
		}
	}
	for _, e := range g.edges {
		if e.From == oldID {
			e.From = newID
		}
		if e.To == oldID {
			e.To = newID
		}
	}
	for _, b := range g.buildings {
		for i, id := range b.EntranceNodeIDs {
			if id == oldID {
				b.EntranceNodeIDs[i] = newID
			}
		}
	}
	return nil
}

// UpdateNode changes a node's descriptive attributes
func (g *Graph) UpdateNode(id, name string, t NodeType) error {
	n, ok := g.nodes[id]
	if !ok {
		return &MissingNodeError{Op: "UpdateNode", NodeID: id}
	}
	n.Name = name
	if t.Valid() {
		n.Type = t
	}
	return nil
}

// SetBuildingAssignment attaches a node to a building (or detaches it when
// buildingID is empty) and sets its entrance flag. The building entrance
// cache is left untouched; call RebuildEntranceIndex afterwards.
func (g *Graph) SetBuildingAssignment(nodeID, buildingID string, entrance bool) error {
	n, ok := g.nodes[nodeID]
	if !ok {
		return &MissingNodeError{Op: "SetBuildingAssignment", NodeID: nodeID}
	}
	n.BuildingID = buildingID
	n.Entrance = entrance
	return nil
}

// Degree returns the number of edge endpoints at the node. A self-loop
// counts twice.
func (g *Graph) Degree(id string) int {
	d := 0
	for _, e := range g.edges {
		if e.From == id {
			d++
		}
		if e.To == id {
			d++
		}
	}
	return d
}
