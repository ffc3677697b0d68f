package routing

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// randomCampus builds a ring of eight junctions with chords taken from
// pairs. Nodes 0 and 4 are the entrances of buildings A and B.
func randomCampus(weights []uint8, pairs []uint8) *campus.Graph {
	g := campus.NewGraph()
	g.UpsertBuilding("A", "A")
	g.UpsertBuilding("B", "B")

	var ids []string
	for i := 0; i < 8; i++ {
		attrs := campus.NodeAttrs{}
		switch i {
		case 0:
			attrs = campus.NodeAttrs{BuildingID: "A", Entrance: true}
		case 4:
			attrs = campus.NodeAttrs{BuildingID: "B", Entrance: true}
		}
		ids = append(ids, g.AddNode(float64(i*10), 0, attrs).ID)
	}

	weight := func(i int) float64 {
		if len(weights) == 0 {
			return 1
		}
		return float64(weights[i%len(weights)]%20 + 1)
	}
	k := 0
	connect := func(from, to string) {
		e, err := g.AddEdge(from, to)
		if err != nil {
			return
		}
		g.SetEdgePenalty(e.ID, weight(k))
		k++
	}
	for i := range ids {
		connect(ids[i], ids[(i+1)%len(ids)])
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		connect(ids[int(pairs[i])%len(ids)], ids[int(pairs[i+1])%len(ids)])
	}
	return g
}

// TestRoutingProperties checks route cost invariants on random campuses
func TestRoutingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("blocking an edge never makes a route cheaper", prop.ForAll(
		func(weights []uint8, pairs []uint8, pick uint8) bool {
			g := randomCampus(weights, pairs)
			before, err := ComposeRoute(g, []string{"A", "B"})
			if err != nil {
				return false // the ring keeps A and B connected
			}

			edges := g.Edges()
			victim := edges[int(pick)%len(edges)].ID
			if _, err := g.ToggleBlocked(victim); err != nil {
				return false
			}

			after, err := ComposeRoute(g, []string{"A", "B"})
			if err != nil {
				// Becoming unreachable is allowed
				return ErrorKind(err) == KindUnreachable
			}
			return after.TotalTimeS >= before.TotalTimeS
		},
		gen.SliceOf(gen.UInt8()),
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))

	properties.Property("route cost is never negative", prop.ForAll(
		func(weights []uint8, pairs []uint8, covered int8) bool {
			g := randomCampus(weights, pairs)
			g.SetPenalties(campus.Penalties{CoveredS: float64(covered)})
			for _, e := range g.Edges() {
				g.SetEdgeFlags(e.ID, campus.EdgeFlags{Accessible: true, Covered: true})
				g.SetEdgePenalty(e.ID, 0)
			}
			it, err := ComposeRoute(g, []string{"A", "B"})
			if err != nil {
				return false
			}
			return it.TotalTimeS >= 0
		},
		gen.SliceOf(gen.UInt8()),
		gen.SliceOf(gen.UInt8()),
		gen.Int8(),
	))

	properties.Property("leg times sum to the total", prop.ForAll(
		func(weights []uint8, pairs []uint8) bool {
			g := randomCampus(weights, pairs)
			it, err := ComposeRoute(g, []string{"A", "B", "A", "B"})
			if err != nil {
				return false
			}
			sum := 0.0
			for _, leg := range it.Legs {
				sum += leg.TimeS
			}
			return sum == it.TotalTimeS
		},
		gen.SliceOf(gen.UInt8()),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
