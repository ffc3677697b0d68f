package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dd0wney/campusnav/pkg/audit"
	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/editor"
	"github.com/dd0wney/campusnav/pkg/snapshot"
	"github.com/dd0wney/campusnav/pkg/validation"
)

func (s *Server) registerEditorRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /editor/graph", s.handleEditorGraph)
	mux.HandleFunc("PUT /editor/graph", s.handleEditorLoad)
	mux.HandleFunc("DELETE /editor/graph", s.handleEditorClear)

	mux.HandleFunc("POST /editor/nodes", s.handleEditorAddNode)
	mux.HandleFunc("PUT /editor/nodes/{id}", s.handleEditorUpdateNode)
	mux.HandleFunc("DELETE /editor/nodes/{id}", s.handleEditorDeleteNode)

	mux.HandleFunc("POST /editor/edges", s.handleEditorAddEdge)
	mux.HandleFunc("DELETE /editor/edges/{id}", s.handleEditorDeleteEdge)
	mux.HandleFunc("POST /editor/edges/{id}/toggle-blocked", s.handleEditorToggleBlocked)

	mux.HandleFunc("POST /editor/assign", s.handleEditorAssign)
	mux.HandleFunc("POST /editor/calibrate", s.handleEditorCalibrate)

	mux.HandleFunc("GET /editor/validate", s.handleEditorValidate)
	mux.HandleFunc("GET /editor/export", s.handleEditorExport)
	mux.HandleFunc("POST /editor/publish", s.handleEditorPublish)

	if s.history != nil {
		mux.HandleFunc("GET /editor/history", s.handleEditorHistory)
	}
}

// pathID extracts and validates the {id} path segment
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := validation.ValidateID(id); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

// confirmed reads the confirm query flag that acknowledges warnings
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

func (s *Server) handleEditorGraph(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.editor.Document())
}

func (s *Server) handleEditorLoad(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	doc, err := snapshot.Decode(data)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.editor.Load(doc); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, s.editor.Document())
}

func (s *Server) handleEditorClear(w http.ResponseWriter, r *http.Request) {
	s.editor.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditorAddNode(w http.ResponseWriter, r *http.Request) {
	var req validation.NodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateNodeRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := s.editor.AddNode(req.X, req.Y, campus.NodeAttrs{
		Name:       req.Name,
		Type:       campus.NodeType(req.Type),
		BuildingID: req.BuildingID,
		Entrance:   req.Entrance,
	})
	if err != nil {
		s.respondDomainError(w, r, err, "add node")
		return
	}
	s.respondJSON(w, http.StatusCreated, EditorNodeResponse{Node: node})
}

// handleEditorUpdateNode moves a node and sets its name and type
func (s *Server) handleEditorUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req validation.NodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateNodeRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.editor.MoveNode(id, req.X, req.Y); err != nil {
		s.respondDomainError(w, r, err, "move node")
		return
	}
	node, err := s.editor.UpdateNode(id, req.Name, campus.NodeType(req.Type))
	if err != nil {
		s.respondDomainError(w, r, err, "update node")
		return
	}
	s.respondJSON(w, http.StatusOK, EditorNodeResponse{Node: node})
}

func (s *Server) handleEditorDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	removed, err := s.editor.DeleteNode(id)
	if err != nil {
		s.respondDomainError(w, r, err, "delete node")
		return
	}
	if removed == nil {
		removed = []string{}
	}
	s.respondJSON(w, http.StatusOK, DeleteNodeResponse{NodeID: id, RemovedEdges: removed})
}

func (s *Server) handleEditorAddEdge(w http.ResponseWriter, r *http.Request) {
	var req validation.EdgeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateEdgeRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flags := campus.DefaultEdgeFlags()
	if req.Accessible != nil {
		flags.Accessible = *req.Accessible
	}
	flags.Stairs = req.Stairs
	flags.Covered = req.Covered
	flags.Steep = req.Steep

	opts := editor.EdgeOptions{Flags: flags}
	if req.PenaltyS != nil {
		opts.PenaltyS = *req.PenaltyS
	}

	edge, err := s.editor.AddEdge(req.From, req.To, opts)
	if err != nil {
		s.respondDomainError(w, r, err, "add edge")
		return
	}
	s.respondJSON(w, http.StatusCreated, EditorEdgeResponse{Edge: edge})
}

func (s *Server) handleEditorDeleteEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.editor.DeleteEdge(id); err != nil {
		s.respondDomainError(w, r, err, "delete edge")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditorToggleBlocked(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	blocked, err := s.editor.ToggleBlocked(id)
	if err != nil {
		s.respondDomainError(w, r, err, "toggle blocked")
		return
	}
	s.respondJSON(w, http.StatusOK, ToggleBlockedResponse{EdgeID: id, Blocked: blocked})
}

func (s *Server) handleEditorAssign(w http.ResponseWriter, r *http.Request) {
	var req validation.AssignRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateAssignRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	node, err := s.editor.AssignBuilding(req.NodeID, req.BuildingID, req.BuildingName, req.Entrance)
	if err != nil {
		s.respondDomainError(w, r, err, "assign building")
		return
	}
	s.respondJSON(w, http.StatusOK, EditorNodeResponse{Node: node})
}

func (s *Server) handleEditorCalibrate(w http.ResponseWriter, r *http.Request) {
	var req validation.CalibrateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateCalibrateRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ratio, err := s.editor.Calibrate(req.P1, req.P2, req.Meters)
	if err != nil {
		s.respondDomainError(w, r, err, "calibrate")
		return
	}
	s.respondJSON(w, http.StatusOK, CalibrateResponse{PxPerMeter: ratio})
}

func (s *Server) handleEditorValidate(w http.ResponseWriter, r *http.Request) {
	result, err := s.editor.Validate()
	if err != nil {
		s.respondDomainError(w, r, err, "validate")
		return
	}
	s.respondJSON(w, http.StatusOK, newValidationResponse(result))
}

// respondExportError answers a stopped export with the validation result:
// 422 for errors, 409 for warnings awaiting confirmation.
func (s *Server) respondExportError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var exportErr *editor.ExportError
	if !errors.As(err, &exportErr) {
		s.respondDomainError(w, r, err, operation)
		return
	}

	status, kind := http.StatusUnprocessableEntity, "export_refused"
	if errors.Is(err, editor.ErrNeedsConfirmation) {
		status, kind = http.StatusConflict, "needs_confirmation"
	}
	s.respondJSON(w, status, ExportResponse{
		ErrorResponse: ErrorResponse{
			Error:   http.StatusText(status),
			Message: err.Error(),
			Code:    status,
			Kind:    kind,
		},
		Validation: newValidationResponse(exportErr.Result),
	})
}

func (s *Server) handleEditorExport(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.editor.Export(confirmed(r))
	if err != nil {
		s.respondExportError(w, r, err, "export")
		return
	}
	data, err := snapshot.Encode(doc)
	if err != nil {
		s.respondDomainError(w, r, err, "export")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="campus.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleEditorPublish saves the edited graph to the snapshot store and makes
// it the routing snapshot.
func (s *Server) handleEditorPublish(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Publish(r.Context(), s.holder, confirmed(r))
	if err != nil {
		s.respondExportError(w, r, err, "publish")
		return
	}
	s.respondJSON(w, http.StatusOK, PublishResponse{
		Fingerprint: snap.Fingerprint,
		Nodes:       snap.Graph.NodeCount(),
		Edges:       snap.Graph.EdgeCount(),
		Buildings:   snap.Graph.BuildingCount(),
		PublishedAt: snap.LoadedAt,
	})
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// handleEditorHistory lists recent edits, newest first
func (s *Server) handleEditorHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			s.respondError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = n
	}

	filter := &audit.Filter{
		Operation:    q.Get("operation"),
		ResourceType: audit.ResourceType(q.Get("resource")),
		ResourceID:   q.Get("resource_id"),
		Status:       audit.Status(q.Get("status")),
	}
	events := s.history.GetRecentEvents(limit, filter)
	s.respondJSON(w, http.StatusOK, HistoryResponse{
		Events: events,
		Count:  len(events),
		Total:  s.history.GetEventCount(),
	})
}
