package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

// etag quotes a snapshot fingerprint as a strong entity tag
func etag(fingerprint string) string {
	return `"` + fingerprint + `"`
}

// etagMatches reports whether an If-None-Match header names tag
func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}

// handleGraph serves the routing snapshot in its persisted form
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Current()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no campus snapshot loaded")
		return
	}

	tag := etag(snap.Fingerprint)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if inm := r.Header.Get("If-None-Match"); inm != "" && etagMatches(inm, tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := snapshot.Encode(snap.Graph.Document())
	if err != nil {
		s.respondDomainError(w, r, err, "encode snapshot")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleValidateGraph validates a posted snapshot without loading it
func (s *Server) handleValidateGraph(w http.ResponseWriter, r *http.Request) {
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

	result, err := constraints.DefaultValidator(s.config.Snapshot.ShortSegmentM).Validate(doc)
	if err != nil {
		s.respondDomainError(w, r, err, "validate")
		return
	}
	s.respondJSON(w, http.StatusOK, newValidationResponse(result))
}
