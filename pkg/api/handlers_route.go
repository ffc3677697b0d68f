package api

import (
	"net/http"

	"github.com/dd0wney/campusnav/pkg/api/middleware"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/routing"
	"github.com/dd0wney/campusnav/pkg/validation"
)

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	timer := logging.StartTimer(s.logger, "route", logging.RequestID(middleware.GetRequestID(r)))

	var req validation.RouteRequest
	if !s.decodeJSON(w, r, &req) {
		s.metricsRegistry.RecordRoute("invalid", timer.Elapsed(), 0, 0)
		return
	}
	if err := validation.ValidateRouteRequest(&req); err != nil {
		s.metricsRegistry.RecordRoute("invalid", timer.Elapsed(), 0, 0)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The whole request reads one snapshot even if a reload swaps it meanwhile
	snap := s.holder.Current()
	if snap == nil {
		s.metricsRegistry.RecordRoute("unavailable", timer.Elapsed(), 0, 0)
		s.respondError(w, http.StatusServiceUnavailable, "no campus snapshot loaded")
		return
	}

	prefs := routing.Preferences{
		AvoidStairs:    req.AvoidStairs,
		AccessibleOnly: req.AccessibleOnly,
	}
	it, err := s.planner(prefs).ComposeRoute(snap.Graph, req.Buildings)
	if err != nil {
		kind := routing.ErrorKind(err)
		if kind == "" {
			s.metricsRegistry.RecordRoute("error", timer.Elapsed(), 0, 0)
			s.respondDomainError(w, r, err, "route")
			return
		}
		took := timer.Finish(logging.InfoLevel, kind, logging.Buildings(req.Buildings))
		s.metricsRegistry.RecordRoute(kind, took, 0, 0)
		s.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: err.Error(),
			Code:    http.StatusBadRequest,
			Kind:    kind,
			Detail:  routing.ErrorDetail(err),
		})
		return
	}

	took := timer.Finish(logging.DebugLevel, "ok",
		logging.Buildings(req.Buildings),
		logging.Count(len(it.Legs)),
		logging.Float64("total_time_s", it.TotalTimeS),
		logging.Fingerprint(snap.Fingerprint))
	s.metricsRegistry.RecordRoute("ok", took, len(it.Legs), it.TotalTimeS)

	s.respondJSON(w, http.StatusOK, RouteResponse{
		Itinerary: it,
		Image:     s.imageInfo(snap.Graph),
	})
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Current()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no campus snapshot loaded")
		return
	}

	buildings := snap.Graph.Buildings()
	resp := BuildingsResponse{
		Buildings: make([]BuildingSummary, 0, len(buildings)),
		Image:     s.imageInfo(snap.Graph),
	}
	for _, b := range buildings {
		resp.Buildings = append(resp.Buildings, BuildingSummary{ID: b.ID, Name: b.Name})
	}

	w.Header().Set("ETag", etag(snap.Fingerprint))
	s.respondJSON(w, http.StatusOK, resp)
}
