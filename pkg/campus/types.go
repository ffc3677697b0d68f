package campus

import (
	"encoding/json"
)

// NodeType classifies a point in the walking graph
type NodeType string

const (
	NodeIntersection NodeType = "intersection"
	NodeEntrance     NodeType = "entrance"
	NodeOther        NodeType = "other"
)

// Valid reports whether t is one of the known node types
func (t NodeType) Valid() bool {
	switch t {
	case NodeIntersection, NodeEntrance, NodeOther:
		return true
	default:
		return false
	}
}

// Node is a point in pixel space on the campus map
type Node struct {
	ID         string   `json:"id"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Name       string   `json:"name"`
	Type       NodeType `json:"type"`
	BuildingID string   `json:"buildingId"`
	Entrance   bool     `json:"entrance"`
}

// IsEntrance reports whether the node is a building access point.
// Either the entrance flag or the entrance type is enough.
func (n *Node) IsEntrance() bool {
	return n.Entrance || n.Type == NodeEntrance
}

type nodeJSON struct {
	ID         string   `json:"id"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Name       string   `json:"name"`
	Type       NodeType `json:"type"`
	BuildingID *string  `json:"buildingId"`
	Entrance   bool     `json:"entrance"`
}

// MarshalJSON writes an unassigned building as null
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		ID:       n.ID,
		X:        n.X,
		Y:        n.Y,
		Name:     n.Name,
		Type:     n.Type,
		Entrance: n.Entrance,
	}
	if n.BuildingID != "" {
		b := n.BuildingID
		out.BuildingID = &b
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a null, absent or string buildingId
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Node{
		ID:       in.ID,
		X:        in.X,
		Y:        in.Y,
		Name:     in.Name,
		Type:     in.Type,
		Entrance: in.Entrance,
	}
	if in.BuildingID != nil {
		n.BuildingID = *in.BuildingID
	}
	return nil
}

// EdgeFlags are the terrain and availability markers of a walkable segment
type EdgeFlags struct {
	Accessible bool `json:"accessible"`
	Stairs     bool `json:"stairs"`
	Covered    bool `json:"covered"`
	Blocked    bool `json:"blocked"`
	Steep      bool `json:"steep,omitempty"`
}

// DefaultEdgeFlags returns the flags a freshly drawn edge starts with
func DefaultEdgeFlags() EdgeFlags {
	return EdgeFlags{Accessible: true}
}

// UnmarshalJSON decodes flags over the defaults, so an absent accessible
// key means accessible
func (f *EdgeFlags) UnmarshalJSON(data []byte) error {
	type plain EdgeFlags
	out := plain(DefaultEdgeFlags())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*f = EdgeFlags(out)
	return nil
}

// Edge is a walkable segment between two nodes
type Edge struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	LengthPx float64   `json:"length_px"`
	LengthM  float64   `json:"length_m"`
	Flags    EdgeFlags `json:"flags"`
	PenaltyS float64   `json:"penalty_s"`
}

// UnmarshalJSON starts from the default flags so an edge without a flags
// object is accessible
func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	out := plain{Flags: DefaultEdgeFlags()}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*e = Edge(out)
	return nil
}

// Other returns the endpoint opposite to id
func (e *Edge) Other(id string) string {
	if e.From == id {
		return e.To
	}
	return e.From
}

// Building is a named campus structure with zero or more entrances.
// EntranceNodeIDs is a cache refreshed by Graph.RebuildEntranceIndex.
type Building struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	EntranceNodeIDs []string `json:"entranceNodeIds"`
}

// Penalties are signed seconds added per terrain flag
type Penalties struct {
	StairsS  float64 `json:"stairs_s"`
	SteepS   float64 `json:"steep_s"`
	CoveredS float64 `json:"covered_s"`
}

// Settings hold the calibration and walking model
type Settings struct {
	PxPerMeter      float64   `json:"px_per_meter"`
	WalkingSpeedMPS float64   `json:"walking_speed_mps"`
	Penalties       Penalties `json:"penalties"`
}

// DefaultSettings returns the settings of an empty graph
func DefaultSettings() Settings {
	return Settings{
		PxPerMeter:      1.0,
		WalkingSpeedMPS: 1.4,
		Penalties: Penalties{
			StairsS:  10,
			SteepS:   5,
			CoveredS: -2,
		},
	}
}

// Overrides hold routing exclusions kept apart from the edges themselves
type Overrides struct {
	BlockedEdgeIDs []string `json:"blockedEdgeIds"`
}

// Image describes the campus map the pixel coordinates refer to
type Image struct {
	Filename string `json:"filename"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
}

// Meta records provenance of a snapshot
type Meta struct {
	Created  string `json:"created"`
	EditedBy string `json:"editedBy"`
}

// Document is the persisted snapshot format. It can hold states a Graph
// refuses to represent (duplicate ids, dangling edges) so that imports can be
// validated before they are accepted.
type Document struct {
	Version   int        `json:"version"`
	Image     Image      `json:"image"`
	Settings  Settings   `json:"settings"`
	Nodes     []Node     `json:"nodes"`
	Edges     []Edge     `json:"edges"`
	Buildings []Building `json:"buildings"`
	Overrides Overrides  `json:"overrides"`
	Meta      Meta       `json:"meta"`
}

// CurrentVersion is written into exported documents
const CurrentVersion = 1

// NodeAttrs are the optional attributes of AddNode
type NodeAttrs struct {
	Name       string
	Type       NodeType
	BuildingID string
	Entrance   bool
}
