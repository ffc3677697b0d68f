package routing

import (
	"errors"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// PathResult is the cheapest connection found between two buildings
type PathResult struct {
	Time float64
	Path []string
}

// BestEntrancePath tries every entrance of building a against every entrance
// of building b and keeps the cheapest connection. Entrances are read from
// the node set, not from the building's cached list.
func BestEntrancePath(g *campus.Graph, adj Adjacency, a, b string) (PathResult, error) {
	return bestEntrancePath(g, adj, a, b, nil)
}

func bestEntrancePath(g *campus.Graph, adj Adjacency, a, b string, obs Observer) (PathResult, error) {
	starts := g.EntrancesOf(a)
	if len(starts) == 0 {
		return PathResult{}, &NoEntranceError{Building: a}
	}
	goals := g.EntrancesOf(b)
	if len(goals) == 0 {
		return PathResult{}, &NoEntranceError{Building: b}
	}

	var best PathResult
	found := false
	for _, s := range starts {
		for _, t := range goals {
			if obs != nil {
				obs.ObserveDijkstraRun()
			}
			cost, path, err := ShortestPath(adj, s, t)
			if errors.Is(err, ErrUnreachable) {
				continue
			}
			if !found || cost < best.Time {
				best = PathResult{Time: cost, Path: path}
				found = true
			}
		}
	}

	if !found {
		return PathResult{}, &UnreachableError{From: a, To: b}
	}
	return best, nil
}
