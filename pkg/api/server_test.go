package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/campusnav/pkg/audit"
	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/config"
	"github.com/dd0wney/campusnav/pkg/editor"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/metrics"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

// testDocument is a straight walk A -> B -> C. With one pixel per meter and
// one meter per second every leg takes 10 seconds.
func testDocument() *campus.Document {
	edge := func(id, from, to string, length float64) campus.Edge {
		return campus.Edge{ID: id, From: from, To: to, LengthPx: length, LengthM: length, Flags: campus.DefaultEdgeFlags()}
	}
	return &campus.Document{
		Version:  campus.CurrentVersion,
		Image:    campus.Image{Filename: "campus.png", WidthPx: 800, HeightPx: 600},
		Settings: campus.Settings{PxPerMeter: 1, WalkingSpeedMPS: 1},
		Nodes: []campus.Node{
			{ID: "n1", X: 0, Y: 0, Type: campus.NodeEntrance, BuildingID: "A", Entrance: true},
			{ID: "n2", X: 3, Y: 4, Type: campus.NodeIntersection},
			{ID: "n3", X: 6, Y: 8, Type: campus.NodeEntrance, BuildingID: "B", Entrance: true},
			{ID: "n4", X: 6, Y: 18, Type: campus.NodeEntrance, BuildingID: "C", Entrance: true},
		},
		Edges: []campus.Edge{
			edge("e1", "n1", "n2", 5),
			edge("e2", "n2", "n3", 5),
			edge("e3", "n3", "n4", 10),
		},
		Buildings: []campus.Building{
			{ID: "A", Name: "Library", EntranceNodeIDs: []string{"n1"}},
			{ID: "B", Name: "Gym", EntranceNodeIDs: []string{"n3"}},
			{ID: "C", Name: "Chapel", EntranceNodeIDs: []string{"n4"}},
		},
		Overrides: campus.Overrides{BlockedEdgeIDs: []string{}},
		Meta:      campus.Meta{Created: "2024-01-01T00:00:00Z", EditedBy: "test"},
	}
}

type testEnv struct {
	server  *Server
	handler http.Handler
	holder  *snapshot.Holder
	metrics *metrics.Registry
	path    string
}

type envOption func(*Options)

func withEditor() envOption {
	return func(o *Options) {
		o.Editor = editor.NewSession(editor.WithRecorder(o.Metrics))
	}
}

// withHistory enables the editor with an edit history of size n
func withHistory(n int) envOption {
	return func(o *Options) {
		o.History = audit.NewAuditLogger(n)
		o.Editor = editor.NewSession(editor.WithRecorder(o.Metrics), editor.WithAuditLog(o.History))
	}
}

func withLogger(l logging.Logger) envOption {
	return func(o *Options) { o.Logger = l }
}

// newTestEnv serves testDocument from a file store in a temp dir. A nil doc
// leaves the store empty and the holder unloaded.
func newTestEnv(t *testing.T, doc *campus.Document, opts ...envOption) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "campus.json")
	store := snapshot.NewFileStore(path)
	reg := metrics.NewRegistry()
	holder := snapshot.NewHolder(store, snapshot.WithMetrics(reg))

	if doc != nil {
		data, err := snapshot.Encode(doc)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		_, err = holder.Reload(context.Background())
		require.NoError(t, err)
	}

	o := Options{Holder: holder, Config: config.Default(), Metrics: reg, Version: "test"}
	for _, opt := range opts {
		opt(&o)
	}
	server, err := NewServer(o)
	require.NoError(t, err)

	return &testEnv{server: server, handler: server.Handler(), holder: holder, metrics: reg, path: path}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).Write(&m))
	return m.Counter.GetValue()
}

type routeBody struct {
	Legs []struct {
		FromBuilding  string `json:"from_building"`
		ToBuilding    string `json:"to_building"`
		TimeS         float64
		Polyline      []struct{ X, Y float64 } `json:"polyline"`
		LabelPosition struct{ X, Y float64 }   `json:"label_position"`
	} `json:"legs"`
	TotalTimeS float64   `json:"total_time_s"`
	Image      ImageInfo `json:"image"`
}

func TestNewServer_RequiresHolder(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestRoute_MultiStop(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "B", "C"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[routeBody](t, rec)
	require.Len(t, body.Legs, 2)
	assert.Equal(t, "A", body.Legs[0].FromBuilding)
	assert.Equal(t, "B", body.Legs[0].ToBuilding)
	assert.Equal(t, "C", body.Legs[1].ToBuilding)
	assert.InDelta(t, 20, body.TotalTimeS, 1e-9)

	require.Len(t, body.Legs[0].Polyline, 3)
	assert.Equal(t, 3.0, body.Legs[0].Polyline[1].X)
	assert.Equal(t, 4.0, body.Legs[0].Polyline[1].Y)

	assert.Equal(t, 800, body.Image.WidthPx)
	assert.Equal(t, config.DefaultImageURL, body.Image.URL)

	assert.Equal(t, 1.0, counterValue(t, env.metrics.RoutesTotal, "ok"))
}

func TestRoute_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		kind   string
		detail map[string]any
	}{
		{"no stops", map[string]any{"buildings": []string{}}, "no_stops", nil},
		{"missing list", map[string]any{}, "no_stops", nil},
		{"one stop", map[string]any{"buildings": []string{"A"}}, "too_few_stops", nil},
		{
			"unknown codes", map[string]any{"buildings": []string{"A", "X", "Y"}}, "unknown_building",
			map[string]any{"codes": []any{"X", "Y"}},
		},
		{
			"unknown before count", map[string]any{"buildings": []string{"Z"}}, "unknown_building",
			map[string]any{"codes": []any{"Z"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testDocument())
			rec := env.do(t, http.MethodPost, "/route", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, tt.detail, resp.Detail)
			assert.Equal(t, 1.0, counterValue(t, env.metrics.RoutesTotal, tt.kind))
		})
	}
}

func TestRoute_Unreachable(t *testing.T) {
	doc := testDocument()
	doc.Overrides.BlockedEdgeIDs = []string{"e3"}
	env := newTestEnv(t, doc)

	rec := env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "C"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "unreachable", resp.Kind)
	assert.Equal(t, "no available path between A and C", resp.Message)
	assert.Equal(t, map[string]any{"from": "A", "to": "C"}, resp.Detail)
}

func TestRoute_LogsOutcome(t *testing.T) {
	doc := testDocument()
	doc.Overrides.BlockedEdgeIDs = []string{"e3"}
	var buf bytes.Buffer
	env := newTestEnv(t, doc, withLogger(logging.NewJSONLogger(&buf, logging.DebugLevel)))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "B"}}).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "C"}}).Code)

	var outcomes []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry logging.LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry.Message != "route" {
			continue
		}
		outcomes = append(outcomes, entry.Fields["outcome"].(string))
		assert.Contains(t, entry.Fields, "latency")
		assert.Contains(t, entry.Fields, "buildings")
	}
	assert.Equal(t, []string{"ok", "unreachable"}, outcomes)
}

func TestRoute_AvoidStairs(t *testing.T) {
	doc := testDocument()
	doc.Edges[1].Flags.Stairs = true
	env := newTestEnv(t, doc)

	rec := env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "B"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "B"}, "avoid_stairs": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unreachable", decodeBody[ErrorResponse](t, rec).Kind)
}

func TestRoute_BadRequests(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodPost, "/route", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/route", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body is empty")

	rec = env.do(t, http.MethodGet, "/route", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, 2.0, counterValue(t, env.metrics.RoutesTotal, "invalid"))
}

func TestRoute_NoSnapshot(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "B"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/buildings", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestBuildings(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodGet, "/buildings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, etag(env.holder.Current().Fingerprint), rec.Header().Get("ETag"))

	resp := decodeBody[BuildingsResponse](t, rec)
	assert.Equal(t, []BuildingSummary{
		{ID: "A", Name: "Library"},
		{ID: "B", Name: "Gym"},
		{ID: "C", Name: "Chapel"},
	}, resp.Buildings)
	assert.Equal(t, 600, resp.Image.HeightPx)
}

func TestGraph_ETag(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodGet, "/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	doc, err := snapshot.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 4)

	req := httptest.NewRequest(http.MethodGet, "/graph", nil)
	req.Header.Set("If-None-Match", `"stale", `+tag)
	cached := httptest.NewRecorder()
	env.handler.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Empty(t, cached.Body.Bytes())
}

func TestETagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"abc"`, `"abc"`))
	assert.True(t, etagMatches(`W/"abc"`, `"abc"`))
	assert.True(t, etagMatches(`"x", "abc"`, `"abc"`))
	assert.True(t, etagMatches(`*`, `"abc"`))
	assert.False(t, etagMatches(`"x"`, `"abc"`))
	assert.False(t, etagMatches(``, `"abc"`))
}

func TestValidateGraph(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodPost, "/graph/validate", testDocument())
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ValidationResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)

	broken := testDocument()
	broken.Edges = append(broken.Edges, campus.Edge{ID: "e9", From: "n1", To: "n99", Flags: campus.DefaultEdgeFlags()})
	broken.Nodes = append(broken.Nodes, campus.Node{ID: "n5", X: 400, Y: 400, Type: campus.NodeIntersection})

	rec = env.do(t, http.MethodPost, "/graph/validate", broken)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[ValidationResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Errors)
	assert.NotEmpty(t, resp.Warnings)

	rec = env.do(t, http.MethodPost, "/graph/validate", "{oops")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphQL(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodPost, "/graphql", map[string]any{
		"query": `{ route(buildings: ["A", "C"]) { totalTimeS legs { fromBuilding toBuilding } } }`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Route struct {
				TotalTimeS float64 `json:"totalTimeS"`
				Legs       []struct {
					FromBuilding string `json:"fromBuilding"`
					ToBuilding   string `json:"toBuilding"`
				} `json:"legs"`
			} `json:"route"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Errors)
	assert.InDelta(t, 20, resp.Data.Route.TotalTimeS, 1e-9)
	require.Len(t, resp.Data.Route.Legs, 1)
	assert.Equal(t, 1.0, counterValue(t, env.metrics.GraphQLQueriesTotal, "ok"))
}

func TestMonitoringEndpoints(t *testing.T) {
	env := newTestEnv(t, testDocument())

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Version string `json:"version"`
		Checks  map[string]struct {
			Status  string         `json:"status"`
			Details map[string]any `json:"details"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Checks["snapshot"].Status)
	assert.Equal(t, "file", health.Checks["store"].Details["kind"])
	assert.Equal(t, "test", health.Version)

	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", decodeBody[map[string]any](t, rec)["version"])

	env.do(t, http.MethodPost, "/route", map[string]any{"buildings": []string{"A", "B"}})
	rec = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `campusnav_routes_total{status="ok"} 1`)
	assert.Contains(t, out, `path="POST /route"`)
	assert.Contains(t, out, "campusnav_dijkstra_runs_total")
}

func TestMiddlewareChain(t *testing.T) {
	env := newTestEnv(t, testDocument())

	req := httptest.NewRequest(http.MethodGet, "/buildings", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src")

	rec = env.do(t, http.MethodGet, "/buildings", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBodySizeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 64
	env := newTestEnv(t, testDocument(), func(o *Options) { o.Config = cfg })

	big := `{"buildings": ["` + strings.Repeat("A", 200) + `"]}`
	rec := env.do(t, http.MethodPost, "/route", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestImageSources(t *testing.T) {
	assert.Equal(t, []string{"https://cdn.example.com"}, imageSources("https://cdn.example.com/maps/campus.png"))
	assert.Nil(t, imageSources("/static/campus.png"))
}
