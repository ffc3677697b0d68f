package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dd0wney/campusnav/pkg/api/middleware"
	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/editor"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondDomainError maps an error from the campus, editor or snapshot
// packages to a status code. Unrecognized errors are logged and reported as
// a generic failure of operation.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status := http.StatusInternalServerError
	switch {
	case campus.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, campus.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, campus.ErrInvalidCalibration),
		errors.Is(err, editor.ErrInvalidCoordinate):
		status = http.StatusBadRequest
	case errors.Is(err, snapshot.ErrInvalid):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, snapshot.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	}

	if status != http.StatusInternalServerError {
		s.respondError(w, status, err.Error())
		return
	}
	s.logger.Error(operation+" failed",
		logging.Error(err),
		logging.RequestID(middleware.GetRequestID(r)))
	s.respondError(w, status, fmt.Sprintf("%s failed", operation))
}

// decodeJSON decodes the request body into v, answering 400 or 413 itself
// when it cannot.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			s.respondError(w, http.StatusBadRequest, "request body is empty")
		default:
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		}
		return false
	}
	return true
}

// imageInfo describes the map of a graph at the configured URL
func (s *Server) imageInfo(g *campus.Graph) ImageInfo {
	img := g.Image()
	return ImageInfo{
		WidthPx:  img.WidthPx,
		HeightPx: img.HeightPx,
		URL:      s.config.Map.ImageURL,
	}
}

// imageSources returns the CSP origin of an absolute image URL
func imageSources(imageURL string) []string {
	u, err := url.Parse(imageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}
