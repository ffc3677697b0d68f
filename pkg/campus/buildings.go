package campus

// UpsertBuilding creates a building or renames an existing one. The entrance
// cache of an existing building is kept.
func (g *Graph) UpsertBuilding(id, name string) *Building {
	if b, ok := g.buildings[id]; ok {
		b.Name = name
		return b
	}
	b := &Building{ID: id, Name: name, EntranceNodeIDs: []string{}}
	g.buildings[id] = b
	g.buildingOrder = append(g.buildingOrder, id)
	return b
}

// AddBuilding creates a building, failing if the code is already taken
func (g *Graph) AddBuilding(id, name string) (*Building, error) {
	if _, ok := g.buildings[id]; ok {
		return nil, &DuplicateIDError{Entity: "building", ID: id}
	}
	return g.UpsertBuilding(id, name), nil
}

// DeleteBuilding removes a building. Nodes assigned to it keep their
// buildingId; the validator does not treat such nodes as errors.
func (g *Graph) DeleteBuilding(id string) error {
	if _, ok := g.buildings[id]; !ok {
		return buildingNotFound("DeleteBuilding", id)
	}
	delete(g.buildings, id)
	for i, bid := range g.buildingOrder {
		if bid == id {
			g.buildingOrder = append(g.buildingOrder[:i], g.buildingOrder[i+1:]...)
			break
		}
	}
	return nil
}

// EntrancesOf returns the entrance nodes of a building by filtering the node
// set. It never consults the stored cache.
func (g *Graph) EntrancesOf(buildingID string) []string {
	var out []string
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.BuildingID == buildingID && n.IsEntrance() {
			out = append(out, id)
		}
	}
	return out
}

// RebuildEntranceIndex refreshes every building's EntranceNodeIDs from the
// node set, in node insertion order.
func (g *Graph) RebuildEntranceIndex() {
	index := make(map[string][]string, len(g.buildings))
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.BuildingID == "" || !n.IsEntrance() {
			continue
		}
		if _, ok := g.buildings[n.BuildingID]; !ok {
			continue
		}
		index[n.BuildingID] = append(index[n.BuildingID], id)
	}
	for id, b := range g.buildings {
		ids := index[id]
		if ids == nil {
			ids = []string{}
		}
		b.EntranceNodeIDs = ids
	}
}
