package routing

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// fixture describes a campus where every edge length is given directly in
// meters and walking speed is 1 m/s, so length_m equals seconds.
type fixture struct {
	nodes     []campus.Node
	edges     []campus.Edge
	buildings []campus.Building
}

func entrance(id, building string) campus.Node {
	return campus.Node{ID: id, Type: campus.NodeEntrance, BuildingID: building, Entrance: true}
}

func junction(id string) campus.Node {
	return campus.Node{ID: id, Type: campus.NodeIntersection}
}

func walk(id, from, to string, seconds float64) campus.Edge {
	return campus.Edge{ID: id, From: from, To: to, LengthPx: seconds, LengthM: seconds, Flags: campus.DefaultEdgeFlags()}
}

func (f fixture) graph(t *testing.T) *campus.Graph {
	t.Helper()
	doc := &campus.Document{
		Version: campus.CurrentVersion,
		Settings: campus.Settings{
			PxPerMeter:      1,
			WalkingSpeedMPS: 1,
			Penalties:       campus.Penalties{StairsS: 10, SteepS: 5, CoveredS: -2},
		},
		Nodes:     f.nodes,
		Edges:     f.edges,
		Buildings: f.buildings,
	}
	g, err := campus.FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}
	return g
}

// twoEntranceFixture is building A with entrances n1, n2 and building B with
// entrance n3.
func twoEntranceFixture() fixture {
	return fixture{
		nodes: []campus.Node{entrance("n1", "A"), entrance("n2", "A"), entrance("n3", "B")},
		edges: []campus.Edge{walk("e1", "n1", "n3", 10), walk("e2", "n2", "n3", 5)},
		buildings: []campus.Building{
			{ID: "A", Name: "Alpha"},
			{ID: "B", Name: "Beta"},
		},
	}
}

func TestComposeRoute_PicksCheapestEntrance(t *testing.T) {
	g := twoEntranceFixture().graph(t)

	it, err := ComposeRoute(g, []string{"A", "B"})
	if err != nil {
		t.Fatalf("ComposeRoute failed: %v", err)
	}
	if it.TotalTimeS != 5 {
		t.Errorf("Expected total 5, got %v", it.TotalTimeS)
	}
	if len(it.Legs) != 1 {
		t.Fatalf("Expected 1 leg, got %d", len(it.Legs))
	}
	leg := it.Legs[0]
	if leg.FromBuilding != "A" || leg.ToBuilding != "B" {
		t.Errorf("Unexpected leg endpoints: %s -> %s", leg.FromBuilding, leg.ToBuilding)
	}
	if !slices.Equal(leg.Path, []string{"n2", "n3"}) {
		t.Errorf("Expected path [n2 n3], got %v", leg.Path)
	}
}

func TestComposeRoute_BlockedEdgeIsUnreachable(t *testing.T) {
	f := fixture{
		nodes:     []campus.Node{entrance("n1", "A"), entrance("n2", "B")},
		edges:     []campus.Edge{walk("e1", "n1", "n2", 10)},
		buildings: []campus.Building{{ID: "A"}, {ID: "B"}},
	}

	t.Run("flag", func(t *testing.T) {
		g := f.graph(t)
		g.ToggleBlocked("e1")
		_, err := ComposeRoute(g, []string{"A", "B"})
		var unreachable *UnreachableError
		if !errors.As(err, &unreachable) {
			t.Fatalf("Expected UnreachableError, got %v", err)
		}
		if unreachable.From != "A" || unreachable.To != "B" {
			t.Errorf("Expected pair A/B, got %s/%s", unreachable.From, unreachable.To)
		}
	})

	t.Run("override only", func(t *testing.T) {
		g := f.graph(t)
		g.SetOverride("e1", true)
		_, err := ComposeRoute(g, []string{"A", "B"})
		if !errors.Is(err, ErrUnreachable) {
			t.Fatalf("Expected ErrUnreachable, got %v", err)
		}
	})
}

func TestComposeRoute_UnknownCodesListedTogether(t *testing.T) {
	g := twoEntranceFixture().graph(t)

	_, err := ComposeRoute(g, []string{"X", "A", "Y"})
	var unknown *UnknownBuildingCodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownBuildingCodeError, got %v", err)
	}
	if !slices.Equal(unknown.Codes, []string{"X", "Y"}) {
		t.Errorf("Expected [X Y], got %v", unknown.Codes)
	}
	if ErrorKind(err) != KindUnknownBuilding {
		t.Errorf("Unexpected kind %q", ErrorKind(err))
	}
}

func TestComposeRoute_StopCount(t *testing.T) {
	g := twoEntranceFixture().graph(t)

	if _, err := ComposeRoute(g, nil); !errors.Is(err, ErrNoStops) {
		t.Errorf("Expected ErrNoStops, got %v", err)
	}
	if _, err := ComposeRoute(g, []string{"A"}); !errors.Is(err, ErrTooFewStops) {
		t.Errorf("Expected ErrTooFewStops, got %v", err)
	}
	// Unknown codes win over the stop count
	if _, err := ComposeRoute(g, []string{"Z"}); !errors.Is(err, ErrUnknownBuilding) {
		t.Errorf("Expected ErrUnknownBuilding, got %v", err)
	}
}

func TestComposeRoute_NoEntrance(t *testing.T) {
	f := twoEntranceFixture()
	f.buildings = append(f.buildings, campus.Building{ID: "C", Name: "Closed"})
	g := f.graph(t)

	_, err := ComposeRoute(g, []string{"A", "C"})
	var noEntrance *NoEntranceError
	if !errors.As(err, &noEntrance) {
		t.Fatalf("Expected NoEntranceError, got %v", err)
	}
	if noEntrance.Building != "C" {
		t.Errorf("Expected building C, got %s", noEntrance.Building)
	}
}

func TestComposeRoute_IgnoresStaleEntranceCache(t *testing.T) {
	f := twoEntranceFixture()
	// The cache claims n1 is B's entrance; only node fields count
	f.buildings[1].EntranceNodeIDs = []string{"n1"}
	g := f.graph(t)

	it, err := ComposeRoute(g, []string{"A", "B"})
	if err != nil {
		t.Fatalf("ComposeRoute failed: %v", err)
	}
	if it.TotalTimeS != 5 {
		t.Errorf("Expected total 5, got %v", it.TotalTimeS)
	}
}

func TestComposeRoute_LegsAreIndependent(t *testing.T) {
	// B has two entrances far apart. The cheapest arrival from A uses b1,
	// the cheapest departure to C uses b2.
	f := fixture{
		nodes: []campus.Node{
			entrance("a1", "A"),
			entrance("b1", "B"), entrance("b2", "B"),
			entrance("c1", "C"),
		},
		edges: []campus.Edge{
			walk("e1", "a1", "b1", 3),
			walk("e2", "a1", "b2", 50),
			walk("e3", "b1", "c1", 50),
			walk("e4", "b2", "c1", 4),
		},
		buildings: []campus.Building{{ID: "A"}, {ID: "B"}, {ID: "C"}},
	}
	g := f.graph(t)

	it, err := ComposeRoute(g, []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("ComposeRoute failed: %v", err)
	}
	if it.TotalTimeS != 7 {
		t.Errorf("Expected total 7, got %v", it.TotalTimeS)
	}
	arrive := it.Legs[0].Path[len(it.Legs[0].Path)-1]
	depart := it.Legs[1].Path[0]
	if arrive != "b1" || depart != "b2" {
		t.Errorf("Expected arrival at b1 and departure from b2, got %s and %s", arrive, depart)
	}
	// No junction is shared, so nothing is deduplicated
	if got := it.CombinedPath(); !slices.Equal(got, []string{"a1", "b1", "b2", "c1"}) {
		t.Errorf("Unexpected combined path %v", got)
	}
}

func TestCombinedPath_DedupesSharedJunction(t *testing.T) {
	it := &Itinerary{Legs: []Leg{
		{Path: []string{"n1", "n2", "n3"}},
		{Path: []string{"n3", "n4"}},
	}}
	if got := it.CombinedPath(); !slices.Equal(got, []string{"n1", "n2", "n3", "n4"}) {
		t.Errorf("Unexpected combined path %v", got)
	}
}

func TestComposeRoute_PolylineAndLabel(t *testing.T) {
	f := fixture{
		nodes: []campus.Node{
			{ID: "n1", X: 0, Y: 0, BuildingID: "A", Entrance: true},
			{ID: "n2", X: 10, Y: 0, Type: campus.NodeIntersection},
			{ID: "n3", X: 20, Y: 30, BuildingID: "B", Entrance: true},
		},
		edges:     []campus.Edge{walk("e1", "n1", "n2", 10), walk("e2", "n2", "n3", 10)},
		buildings: []campus.Building{{ID: "A"}, {ID: "B"}},
	}
	g := f.graph(t)

	it, err := ComposeRoute(g, []string{"A", "B"})
	if err != nil {
		t.Fatalf("ComposeRoute failed: %v", err)
	}
	leg := it.Legs[0]
	want := []Point{{0, 0}, {10, 0}, {20, 30}}
	if !slices.Equal(leg.Polyline, want) {
		t.Errorf("Expected polyline %v, got %v", want, leg.Polyline)
	}
	if leg.LabelPosition != (Point{X: 10, Y: 10}) {
		t.Errorf("Expected label at (10,10), got %v", leg.LabelPosition)
	}
}

func TestLabelPosition_Empty(t *testing.T) {
	if got := LabelPosition(nil); got != (Point{}) {
		t.Errorf("Expected origin, got %v", got)
	}
}

func TestWalkingTime_ClampsNegative(t *testing.T) {
	s := campus.Settings{
		PxPerMeter:      1,
		WalkingSpeedMPS: 1,
		Penalties:       campus.Penalties{CoveredS: -5},
	}
	e := &campus.Edge{ID: "e1", LengthM: 1, Flags: campus.EdgeFlags{Accessible: true, Covered: true}}

	raw, ok := RawTime(e, s, nil)
	if !ok || raw != -4 {
		t.Fatalf("Expected raw -4, got %v (ok=%v)", raw, ok)
	}
	clamped, ok := WalkingTime.Time(e, s, nil)
	if !ok || clamped != 0 {
		t.Errorf("Expected clamped 0, got %v (ok=%v)", clamped, ok)
	}
}

func TestWalkingTime_Penalties(t *testing.T) {
	s := campus.Settings{
		PxPerMeter:      1,
		WalkingSpeedMPS: 2,
		Penalties:       campus.Penalties{StairsS: 10, SteepS: 5, CoveredS: -2},
	}

	tests := []struct {
		name  string
		flags campus.EdgeFlags
		extra float64
		want  float64
	}{
		{"plain", campus.EdgeFlags{}, 0, 10},
		{"stairs", campus.EdgeFlags{Stairs: true}, 0, 20},
		{"steep", campus.EdgeFlags{Steep: true}, 0, 15},
		{"covered", campus.EdgeFlags{Covered: true}, 0, 8},
		{"all", campus.EdgeFlags{Stairs: true, Steep: true, Covered: true}, 0, 23},
		{"custom penalty", campus.EdgeFlags{}, 7, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &campus.Edge{ID: "e", LengthM: 20, Flags: tt.flags, PenaltyS: tt.extra}
			got, ok := WalkingTime.Time(e, s, nil)
			if !ok || got != tt.want {
				t.Errorf("Expected %v, got %v (ok=%v)", tt.want, got, ok)
			}
		})
	}
}

func TestCostWrappers(t *testing.T) {
	s := campus.DefaultSettings()
	stairs := &campus.Edge{ID: "s", LengthM: 1, Flags: campus.EdgeFlags{Accessible: true, Stairs: true}}
	rough := &campus.Edge{ID: "r", LengthM: 1, Flags: campus.EdgeFlags{}}

	if _, ok := AvoidStairs(WalkingTime).Time(stairs, s, nil); ok {
		t.Error("AvoidStairs should exclude stairs")
	}
	if _, ok := AvoidStairs(WalkingTime).Time(rough, s, nil); !ok {
		t.Error("AvoidStairs should keep other edges")
	}
	if _, ok := AccessibleOnly(WalkingTime).Time(rough, s, nil); ok {
		t.Error("AccessibleOnly should exclude inaccessible edges")
	}

	both := Preferences{AvoidStairs: true, AccessibleOnly: true}.Cost(WalkingTime)
	if _, ok := both.Time(stairs, s, nil); ok {
		t.Error("Preferences should exclude stairs")
	}
	if _, ok := both.Time(rough, s, nil); ok {
		t.Error("Preferences should exclude inaccessible edges")
	}
	if _, ok := (Preferences{}).Cost(WalkingTime).Time(stairs, s, nil); !ok {
		t.Error("Empty preferences should keep every edge")
	}
}

func TestBuildAdjacency(t *testing.T) {
	f := twoEntranceFixture()
	f.nodes = append(f.nodes, junction("lonely"))
	g := f.graph(t)
	g.ToggleBlocked("e1")

	adj := BuildAdjacency(g, nil)
	if adj.ArcCount() != 2 {
		t.Errorf("Expected 2 arcs for the one open edge, got %d", adj.ArcCount())
	}
	if _, ok := adj["lonely"]; !ok {
		t.Error("Isolated node should still have an entry")
	}
	if len(adj["n1"]) != 0 {
		t.Errorf("Blocked edge leaked into adjacency: %v", adj["n1"])
	}
}

func TestShortestPath(t *testing.T) {
	adj := Adjacency{
		"a": {{To: "b", Time: 1}, {To: "c", Time: 5}},
		"b": {{To: "a", Time: 1}, {To: "c", Time: 1}},
		"c": {{To: "a", Time: 5}, {To: "b", Time: 1}},
		"d": nil,
	}

	cost, path, err := ShortestPath(adj, "a", "c")
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if cost != 2 || !slices.Equal(path, []string{"a", "b", "c"}) {
		t.Errorf("Expected a-b-c at 2, got %v at %v", path, cost)
	}

	cost, path, err = ShortestPath(adj, "d", "d")
	if err != nil || cost != 0 || !slices.Equal(path, []string{"d"}) {
		t.Errorf("Expected trivial path, got %v %v %v", path, cost, err)
	}

	if _, _, err := ShortestPath(adj, "a", "d"); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

type countingObserver struct{ runs int }

func (c *countingObserver) ObserveDijkstraRun() { c.runs++ }

func TestPlanner_ObservesEveryEntrancePair(t *testing.T) {
	g := twoEntranceFixture().graph(t)
	obs := &countingObserver{}

	if _, err := NewPlanner(WithObserver(obs)).ComposeRoute(g, []string{"A", "B", "A"}); err != nil {
		t.Fatalf("ComposeRoute failed: %v", err)
	}
	// 2x1 pairs for A->B and 1x2 for B->A
	if obs.runs != 4 {
		t.Errorf("Expected 4 Dijkstra runs, got %d", obs.runs)
	}
}

// bruteForceBest runs a full single-source search from every entrance and
// takes the minimum over all entrance pairs.
func bruteForceBest(g *campus.Graph, adj Adjacency, a, b string) (float64, bool) {
	best := math.Inf(1)
	for _, s := range g.EntrancesOf(a) {
		dist := Distances(adj, s)
		for _, t := range g.EntrancesOf(b) {
			if d, ok := dist[t]; ok && d < best {
				best = d
			}
		}
	}
	return best, !math.IsInf(best, 1)
}

func TestBestEntrancePath_MatchesBruteForce(t *testing.T) {
	// A 4x4 grid with entrances for two buildings on opposite corners
	f := fixture{buildings: []campus.Building{{ID: "A"}, {ID: "B"}}}
	id := func(r, c int) string { return fmt.Sprintf("g%d_%d", r, c) }
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			n := junction(id(r, c))
			switch {
			case r == 0 && c < 2:
				n = entrance(id(r, c), "A")
			case r == 3 && c > 1:
				n = entrance(id(r, c), "B")
			}
			f.nodes = append(f.nodes, n)
		}
	}
	k := 0
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if c+1 < 4 {
				k++
				f.edges = append(f.edges, walk(fmt.Sprintf("e%d", k), id(r, c), id(r, c+1), float64(1+(r*7+c*3)%5)))
			}
			if r+1 < 4 {
				k++
				f.edges = append(f.edges, walk(fmt.Sprintf("e%d", k), id(r, c), id(r+1, c), float64(1+(r*5+c*11)%4)))
			}
		}
	}
	g := f.graph(t)
	adj := BuildAdjacency(g, nil)

	res, err := BestEntrancePath(g, adj, "A", "B")
	if err != nil {
		t.Fatalf("BestEntrancePath failed: %v", err)
	}
	want, ok := bruteForceBest(g, adj, "A", "B")
	if !ok {
		t.Fatal("Brute force found no path")
	}
	if res.Time != want {
		t.Errorf("Expected cost %v, got %v", want, res.Time)
	}
	if first, last := res.Path[0], res.Path[len(res.Path)-1]; first[:2] != "g0" || last[:2] != "g3" {
		t.Errorf("Path should run between the two entrance rows, got %v", res.Path)
	}
}
