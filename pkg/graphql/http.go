package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/campusnav/pkg/logging"
)

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
}

// QueryRecorder counts executed queries by outcome
type QueryRecorder interface {
	RecordGraphQLQuery(status string)
}

// HandlerOption configures a GraphQLHandler
type HandlerOption func(*GraphQLHandler)

// WithMaxDepth overrides DefaultMaxDepth
func WithMaxDepth(depth int) HandlerOption {
	return func(h *GraphQLHandler) {
		h.maxDepth = depth
	}
}

// WithRecorder records every query outcome
func WithRecorder(r QueryRecorder) HandlerOption {
	return func(h *GraphQLHandler) {
		h.recorder = r
	}
}

// WithLogger sets the logger used for rejected queries
func WithLogger(l logging.Logger) HandlerOption {
	return func(h *GraphQLHandler) {
		h.logger = l
	}
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
	recorder QueryRecorder
	logger   logging.Logger
}

// NewGraphQLHandler creates a new GraphQL HTTP handler
func NewGraphQLHandler(schema graphql.Schema, opts ...HandlerOption) *GraphQLHandler {
	h := &GraphQLHandler{
		schema:   schema,
		maxDepth: DefaultMaxDepth,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles HTTP requests for GraphQL queries. Query errors are
// reported in the body with status 200, as GraphQL clients expect.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(GraphQLResponse{Errors: []GraphQLError{{Message: "method not allowed"}}})
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		h.record("invalid")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GraphQLResponse{Errors: []GraphQLError{{Message: "invalid request body"}}})
		return
	}

	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		h.record("rejected")
		h.logger.Warn("graphql query rejected", logging.Error(err))
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(GraphQLResponse{Errors: []GraphQLError{{Message: err.Error()}}})
		return
	}

	result := ExecuteQuery(r.Context(), h.schema, req.Query, req.Variables, req.OperationName)

	response := GraphQLResponse{
		Data: result.Data,
	}
	if result.HasErrors() {
		h.record("error")
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{
				Message: err.Message,
			}
		}
	} else {
		h.record("ok")
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (h *GraphQLHandler) record(status string) {
	if h.recorder != nil {
		h.recorder.RecordGraphQLQuery(status)
	}
}
