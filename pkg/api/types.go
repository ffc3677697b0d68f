package api

import (
	"time"

	"github.com/dd0wney/campusnav/pkg/audit"
	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/routing"
)

// API Request/Response Types

// ErrorResponse is the body of every non-2xx response. Kind and Detail are
// set for routing and export failures so clients can react without parsing
// Message.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Code    int            `json:"code"`
	Kind    string         `json:"kind,omitempty"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// ImageInfo describes the campus map polylines are drawn on
type ImageInfo struct {
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	URL      string `json:"url"`
}

// RouteResponse is an itinerary plus the map it refers to
type RouteResponse struct {
	*routing.Itinerary
	Image ImageInfo `json:"image"`
}

// BuildingSummary is one entry of the building picker
type BuildingSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BuildingsResponse lists routable buildings in document order
type BuildingsResponse struct {
	Buildings []BuildingSummary `json:"buildings"`
	Image     ImageInfo         `json:"image"`
}

// ValidationResponse splits violations by severity
type ValidationResponse struct {
	Valid    bool                    `json:"valid"`
	Errors   []constraints.Violation `json:"errors"`
	Warnings []constraints.Violation `json:"warnings"`
	Info     []constraints.Violation `json:"info,omitempty"`
}

// ExportResponse is returned by a refused export
type ExportResponse struct {
	ErrorResponse
	Validation ValidationResponse `json:"validation"`
}

// DeleteNodeResponse lists the edges removed with a node
type DeleteNodeResponse struct {
	NodeID       string   `json:"node_id"`
	RemovedEdges []string `json:"removed_edges"`
}

// ToggleBlockedResponse reports an edge's new blocked state
type ToggleBlockedResponse struct {
	EdgeID  string `json:"edge_id"`
	Blocked bool   `json:"blocked"`
}

// CalibrateResponse reports the new ratio
type CalibrateResponse struct {
	PxPerMeter float64 `json:"px_per_meter"`
}

// PublishResponse describes the snapshot now served for routing
type PublishResponse struct {
	Fingerprint string    `json:"fingerprint"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	Buildings   int       `json:"buildings"`
	PublishedAt time.Time `json:"published_at"`
}

// HistoryResponse lists edit history events, newest first
type HistoryResponse struct {
	Events []*audit.Event `json:"events"`
	Count  int            `json:"count"`
	Total  int64          `json:"total"`
}

// EditorNodeResponse wraps a node returned by the editor
type EditorNodeResponse struct {
	Node campus.Node `json:"node"`
}

// EditorEdgeResponse wraps an edge returned by the editor
type EditorEdgeResponse struct {
	Edge campus.Edge `json:"edge"`
}

func newValidationResponse(result *constraints.ValidationResult) ValidationResponse {
	resp := ValidationResponse{
		Valid:    result.Valid,
		Errors:   result.Errors(),
		Warnings: result.Warnings(),
		Info:     result.GetViolationsBySeverity(constraints.Info),
	}
	if resp.Errors == nil {
		resp.Errors = []constraints.Violation{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []constraints.Violation{}
	}
	return resp
}
