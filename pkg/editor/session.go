// Package editor holds the single-writer graph editing session behind the
// editor endpoints.
package editor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dd0wney/campusnav/pkg/audit"
	"github.com/dd0wney/campusnav/pkg/calibration"
	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

// Recorder receives editor outcomes, typically a *metrics.Registry
type Recorder interface {
	RecordEditorOperation(operation, status string)
	RecordExport(status string, errors, warnings int)
}

// Publisher persists an exported document and makes it the routing snapshot
type Publisher interface {
	Publish(ctx context.Context, doc *campus.Document) (*snapshot.Snapshot, error)
}

// Auditor receives one history event per operation, typically an
// *audit.AuditLogger
type Auditor interface {
	Log(event *audit.Event) error
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithRecorder records every operation
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithAuditLog keeps an edit history in a
func WithAuditLog(a Auditor) Option {
	return func(s *Session) {
		s.auditor = a
	}
}

// WithEditedBy sets meta.editedBy on exported documents
func WithEditedBy(name string) Option {
	return func(s *Session) {
		s.editedBy = name
	}
}

// WithShortSegmentM sets the short segment warning threshold of the
// default validator
func WithShortSegmentM(m float64) Option {
	return func(s *Session) {
		s.validator = constraints.DefaultValidator(m)
	}
}

// WithValidator replaces the validator used by Validate and Export
func WithValidator(v *constraints.Validator) Option {
	return func(s *Session) {
		s.validator = v
	}
}

// EdgeOptions are the optional attributes of a new edge
type EdgeOptions struct {
	Flags    campus.EdgeFlags
	PenaltyS float64
}

// Session serializes edits to one graph. Every exported method runs under
// the session mutex, and values returned are copies.
type Session struct {
	mu        sync.Mutex
	graph     *campus.Graph
	revision  uint64
	editedBy  string
	validator *constraints.Validator
	logger    logging.Logger
	recorder  Recorder
	auditor   Auditor
	now       func() time.Time
}

// NewSession creates a session editing an empty graph
func NewSession(opts ...Option) *Session {
	s := &Session{
		graph:     campus.NewGraph(),
		editedBy:  "editor",
		validator: constraints.DefaultValidator(constraints.DefaultShortSegmentM),
		logger:    logging.NewNopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// do runs one mutation under the lock and records its outcome. fn returns
// the id of the element it touched. The revision advances only when fn
// succeeds.
func (s *Session) do(op string, res audit.ResourceType, fn func(g *campus.Graph) (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := fn(s.graph)
	status := "ok"
	if err != nil {
		status = "error"
		s.logger.Debug("editor operation failed", logging.Operation(op), subjectField(res, id), logging.Error(err))
	} else {
		s.revision++
	}
	if s.recorder != nil {
		s.recorder.RecordEditorOperation(op, status)
	}
	s.audit(op, res, id, err)
	return err
}

// subjectField names the element an operation touched in log output
func subjectField(res audit.ResourceType, id string) logging.Field {
	switch res {
	case audit.ResourceNode:
		return logging.NodeID(id)
	case audit.ResourceEdge:
		return logging.EdgeID(id)
	case audit.ResourceBuilding:
		return logging.Building(id)
	}
	return logging.String("resource", string(res))
}

// audit logs a history event. Callers hold s.mu.
func (s *Session) audit(op string, res audit.ResourceType, id string, err error) {
	if s.auditor == nil {
		return
	}
	event := &audit.Event{
		Timestamp:    s.now(),
		Actor:        s.editedBy,
		Operation:    op,
		ResourceType: res,
		ResourceID:   id,
		Status:       audit.StatusSuccess,
		Revision:     s.revision,
	}
	if err != nil {
		event.Status = audit.StatusFailure
		event.ErrorMessage = err.Error()
	}
	if logErr := s.auditor.Log(event); logErr != nil {
		s.logger.Warn("edit history write failed", logging.Operation(op), logging.Error(logErr))
	}
}

// Revision counts successful mutations since the session started
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Load replaces the edited graph wholesale with doc
func (s *Session) Load(doc *campus.Document) error {
	return s.do("load", audit.ResourceGraph, func(_ *campus.Graph) (string, error) {
		g, err := campus.FromDocument(doc)
		if err != nil {
			return "", err
		}
		g.RebuildEntranceIndex()
		s.graph = g
		s.logger.Info("editor graph loaded",
			logging.Int("nodes", g.NodeCount()),
			logging.Int("edges", g.EdgeCount()),
			logging.Int("buildings", g.BuildingCount()))
		return "", nil
	})
}

// Clear replaces the edited graph with an empty one
func (s *Session) Clear() {
	s.do("clear", audit.ResourceGraph, func(_ *campus.Graph) (string, error) {
		s.graph = campus.NewGraph()
		return "", nil
	})
}

// Document returns the current graph in snapshot form
func (s *Session) Document() *campus.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Document()
}

// AddNode places a node. A building id in attrs creates the building when
// it does not exist yet.
func (s *Session) AddNode(x, y float64, attrs campus.NodeAttrs) (campus.Node, error) {
	var node campus.Node
	err := s.do("add_node", audit.ResourceNode, func(g *campus.Graph) (string, error) {
		if err := checkCoordinates(x, y); err != nil {
			return "", err
		}
		if attrs.BuildingID != "" {
			if _, ok := g.Building(attrs.BuildingID); !ok {
				g.UpsertBuilding(attrs.BuildingID, attrs.BuildingID)
			}
		}
		node = *g.AddNode(x, y, attrs)
		g.RebuildEntranceIndex()
		return node.ID, nil
	})
	return node, err
}

// MoveNode moves a node and re-derives its edges' lengths
func (s *Session) MoveNode(id string, x, y float64) (campus.Node, error) {
	var node campus.Node
	err := s.do("move_node", audit.ResourceNode, func(g *campus.Graph) (string, error) {
		if err := checkCoordinates(x, y); err != nil {
			return id, err
		}
		if err := g.MoveNode(id, x, y); err != nil {
			return id, err
		}
		n, _ := g.Node(id)
		node = *n
		return id, nil
	})
	return node, err
}

// UpdateNode changes a node's name and type
func (s *Session) UpdateNode(id, name string, t campus.NodeType) (campus.Node, error) {
	var node campus.Node
	err := s.do("update_node", audit.ResourceNode, func(g *campus.Graph) (string, error) {
		if err := g.UpdateNode(id, name, t); err != nil {
			return id, err
		}
		g.RebuildEntranceIndex()
		n, _ := g.Node(id)
		node = *n
		return id, nil
	})
	return node, err
}

// DeleteNode removes a node and its incident edges, returning the removed
// edge ids.
func (s *Session) DeleteNode(id string) ([]string, error) {
	var removed []string
	err := s.do("delete_node", audit.ResourceNode, func(g *campus.Graph) (string, error) {
		var err error
		removed, err = g.DeleteNode(id)
		if err != nil {
			return id, err
		}
		g.RebuildEntranceIndex()
		return id, nil
	})
	return removed, err
}

// AddEdge connects two nodes and applies opts
func (s *Session) AddEdge(from, to string, opts EdgeOptions) (campus.Edge, error) {
	var edge campus.Edge
	err := s.do("add_edge", audit.ResourceEdge, func(g *campus.Graph) (string, error) {
		e, err := g.AddEdge(from, to)
		if err != nil {
			return "", err
		}
		if err := g.SetEdgeFlags(e.ID, opts.Flags); err != nil {
			return e.ID, err
		}
		if err := g.SetEdgePenalty(e.ID, opts.PenaltyS); err != nil {
			return e.ID, err
		}
		edge = *e
		return e.ID, nil
	})
	return edge, err
}

// DeleteEdge removes one edge
func (s *Session) DeleteEdge(id string) error {
	return s.do("delete_edge", audit.ResourceEdge, func(g *campus.Graph) (string, error) {
		return id, g.DeleteEdge(id)
	})
}

// ToggleBlocked flips an edge's blocked state and returns the new state
func (s *Session) ToggleBlocked(id string) (bool, error) {
	var blocked bool
	err := s.do("toggle_blocked", audit.ResourceEdge, func(g *campus.Graph) (string, error) {
		var err error
		blocked, err = g.ToggleBlocked(id)
		return id, err
	})
	return blocked, err
}

// AssignBuilding attaches a node to a building, creating or renaming the
// building when a name is given. An empty buildingID detaches the node.
func (s *Session) AssignBuilding(nodeID, buildingID, buildingName string, entrance bool) (campus.Node, error) {
	var node campus.Node
	err := s.do("assign_building", audit.ResourceBuilding, func(g *campus.Graph) (string, error) {
		if _, ok := g.Node(nodeID); !ok {
			return nodeID, &campus.MissingNodeError{Op: "AssignBuilding", NodeID: nodeID}
		}
		if buildingID != "" {
			if _, ok := g.Building(buildingID); buildingName != "" || !ok {
				name := buildingName
				if name == "" {
					name = buildingID
				}
				g.UpsertBuilding(buildingID, name)
			}
		}
		if err := g.SetBuildingAssignment(nodeID, buildingID, entrance); err != nil {
			return nodeID, err
		}
		g.RebuildEntranceIndex()
		n, _ := g.Node(nodeID)
		node = *n
		return nodeID, nil
	})
	return node, err
}

// Calibrate sets px_per_meter from a reference segment of known length
func (s *Session) Calibrate(p1, p2 calibration.Point, meters float64) (float64, error) {
	var ratio float64
	err := s.do("calibrate", audit.ResourceSettings, func(g *campus.Graph) (string, error) {
		var err error
		ratio, err = calibration.FromTwoPoints(g, p1, p2, meters)
		return "px_per_meter", err
	})
	return ratio, err
}

// SetImage records the campus map the coordinates refer to
func (s *Session) SetImage(img campus.Image) {
	s.do("set_image", audit.ResourceSettings, func(g *campus.Graph) (string, error) {
		g.SetImage(img)
		return img.Filename, nil
	})
}

// Validate checks the current graph
func (s *Session) Validate() (*constraints.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

func (s *Session) validate() (*constraints.ValidationResult, error) {
	return s.validator.ValidateGraph(s.graph)
}

// Export returns the graph as a snapshot document stamped with meta. It
// refuses when the graph has errors, and when it has warnings unless
// confirm is set.
func (s *Session) Export(confirm bool) (*campus.Document, *constraints.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.export(confirm)
}

func (s *Session) export(confirm bool) (*campus.Document, *constraints.ValidationResult, error) {
	result, err := s.validate()
	if err != nil {
		return nil, nil, err
	}
	errs, warnings := len(result.Errors()), len(result.Warnings())

	status := "ok"
	var exportErr error
	switch {
	case errs > 0:
		status = "refused"
		exportErr = &ExportError{Result: result, Cause: ErrExportRefused}
	case warnings > 0 && !confirm:
		status = "needs_confirmation"
		exportErr = &ExportError{Result: result, Cause: ErrNeedsConfirmation}
	}
	if s.recorder != nil {
		s.recorder.RecordExport(status, errs, warnings)
	}
	if exportErr != nil {
		s.logger.Info("export stopped", logging.String("status", status),
			logging.Int("errors", errs), logging.Int("warnings", warnings))
		return nil, result, exportErr
	}

	s.graph.RebuildEntranceIndex()
	doc := s.graph.Document()
	doc.Meta = campus.Meta{
		Created:  s.now().UTC().Format(time.RFC3339),
		EditedBy: s.editedBy,
	}
	return doc, result, nil
}

// Publish exports the graph and hands it to p. The session stays locked
// until p returns so the published document matches the graph.
func (s *Session) Publish(ctx context.Context, p Publisher, confirm bool) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.export(confirm)
	if err == nil {
		var snap *snapshot.Snapshot
		snap, err = p.Publish(ctx, doc)
		if err == nil {
			s.graph.SetMeta(doc.Meta)
			s.logger.Info("editor graph published", logging.Fingerprint(snap.Fingerprint))
			if s.recorder != nil {
				s.recorder.RecordEditorOperation("publish", "ok")
			}
			s.audit("publish", audit.ResourceSnapshot, snap.Fingerprint, nil)
			return snap, nil
		}
	}
	if s.recorder != nil {
		s.recorder.RecordEditorOperation("publish", "error")
	}
	s.audit("publish", audit.ResourceSnapshot, "", err)
	return nil, err
}

func checkCoordinates(x, y float64) error {
	for _, v := range []float64{x, y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, x, y)
		}
	}
	return nil
}
