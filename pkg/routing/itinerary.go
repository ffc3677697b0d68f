package routing

import (
	"github.com/dd0wney/campusnav/pkg/campus"
)

// Point is a pixel position on the campus map
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Leg is the walk between two consecutive stops
type Leg struct {
	FromBuilding  string   `json:"from_building"`
	ToBuilding    string   `json:"to_building"`
	TimeS         float64  `json:"time_s"`
	Path          []string `json:"-"`
	Polyline      []Point  `json:"polyline"`
	LabelPosition Point    `json:"label_position"`
}

// Itinerary is a complete multi-stop route.
//
// Each leg is optimized on its own, so the entrance a leg arrives at may
// differ from the entrance the next leg departs from. No connecting segment
// is added inside the intermediate building.
type Itinerary struct {
	Legs       []Leg   `json:"legs"`
	TotalTimeS float64 `json:"total_time_s"`
}

// CombinedPath concatenates the node paths of all legs, dropping the repeated
// node where one leg ends exactly where the next one starts.
func (it *Itinerary) CombinedPath() []string {
	var combined []string
	for _, leg := range it.Legs {
		path := leg.Path
		if len(combined) > 0 && len(path) > 0 && combined[len(combined)-1] == path[0] {
			path = path[1:]
		}
		combined = append(combined, path...)
	}
	return combined
}

// Observer receives routing events, typically to update metrics
type Observer interface {
	ObserveDijkstraRun()
}

// Option configures a Planner
type Option func(*Planner)

// WithCost replaces the default walking time cost
func WithCost(c CostFunction) Option {
	return func(p *Planner) {
		p.cost = c
	}
}

// WithObserver registers an observer for routing events
func WithObserver(o Observer) Option {
	return func(p *Planner) {
		p.observer = o
	}
}

// Planner composes multi-stop itineraries over a graph snapshot.
// A Planner holds no per-request state and is safe for concurrent use as long
// as the graphs it is given are not mutated.
type Planner struct {
	cost     CostFunction
	observer Observer
}

// NewPlanner creates a planner with the walking time cost
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{cost: WalkingTime}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ComposeRoute plans a route with the default planner
func ComposeRoute(g *campus.Graph, codes []string) (*Itinerary, error) {
	return NewPlanner().ComposeRoute(g, codes)
}

// ComposeRoute plans a route visiting the buildings in order. Unknown codes
// are reported before the stop count is checked. No partial itinerary is
// returned on failure.
func (p *Planner) ComposeRoute(g *campus.Graph, codes []string) (*Itinerary, error) {
	if len(codes) == 0 {
		return nil, ErrNoStops
	}

	var unknown []string
	for _, code := range codes {
		if _, ok := g.Building(code); !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		return nil, &UnknownBuildingCodeError{Codes: unknown}
	}

	if len(codes) < 2 {
		return nil, ErrTooFewStops
	}

	adj := BuildAdjacency(g, p.cost)

	it := &Itinerary{Legs: make([]Leg, 0, len(codes)-1)}
	for i := 0; i+1 < len(codes); i++ {
		from, to := codes[i], codes[i+1]
		res, err := bestEntrancePath(g, adj, from, to, p.observer)
		if err != nil {
			return nil, err
		}

		polyline := Polyline(g, res.Path)
		it.Legs = append(it.Legs, Leg{
			FromBuilding:  from,
			ToBuilding:    to,
			TimeS:         res.Time,
			Path:          res.Path,
			Polyline:      polyline,
			LabelPosition: LabelPosition(polyline),
		})
		it.TotalTimeS += res.Time
	}
	return it, nil
}

// Polyline maps node ids to their coordinates, skipping unknown ids
func Polyline(g *campus.Graph, path []string) []Point {
	points := make([]Point, 0, len(path))
	for _, id := range path {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		points = append(points, Point{X: n.X, Y: n.Y})
	}
	return points
}

// LabelPosition returns the mean of the points, or the origin for none
func LabelPosition(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sum Point
	for _, pt := range points {
		sum.X += pt.X
		sum.Y += pt.Y
	}
	n := float64(len(points))
	return Point{X: sum.X / n, Y: sum.Y / n}
}
