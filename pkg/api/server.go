// Package api serves campus routing, the graph editor and monitoring over
// HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/campusnav/pkg/api/middleware"
	"github.com/dd0wney/campusnav/pkg/audit"
	"github.com/dd0wney/campusnav/pkg/config"
	"github.com/dd0wney/campusnav/pkg/editor"
	"github.com/dd0wney/campusnav/pkg/graphql"
	"github.com/dd0wney/campusnav/pkg/health"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/metrics"
	"github.com/dd0wney/campusnav/pkg/routing"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

// Options wire a Server to its collaborators. Holder is required; a nil
// Editor disables the /editor endpoints.
type Options struct {
	Holder  *snapshot.Holder
	Editor  *editor.Session
	History *audit.AuditLogger
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Registry
	Version string
}

// Server represents the HTTP API server
type Server struct {
	holder          *snapshot.Holder
	editor          *editor.Session
	history         *audit.AuditLogger
	config          *config.Config
	logger          logging.Logger
	metricsRegistry *metrics.Registry
	healthChecker   *health.HealthChecker
	graphqlHandler  *graphql.GraphQLHandler
	startTime       time.Time
	version         string
}

// NewServer creates a new API server
func NewServer(opts Options) (*Server, error) {
	if opts.Holder == nil {
		return nil, errors.New("api: server needs a snapshot holder")
	}

	s := &Server{
		holder:          opts.Holder,
		editor:          opts.Editor,
		history:         opts.History,
		config:          opts.Config,
		logger:          opts.Logger,
		metricsRegistry: opts.Metrics,
		startTime:       time.Now(),
		version:         opts.Version,
	}
	if s.config == nil {
		s.config = config.Default()
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	if s.metricsRegistry == nil {
		s.metricsRegistry = metrics.NewRegistry()
	}
	if s.version == "" {
		s.version = "dev"
	}

	schema, err := graphql.GenerateSchema(graphql.SchemaConfig{
		Source:   s.holder.Graph,
		Observer: s.metricsRegistry,
	})
	if err != nil {
		return nil, err
	}
	s.graphqlHandler = graphql.NewGraphQLHandler(schema,
		graphql.WithRecorder(s.metricsRegistry),
		graphql.WithLogger(s.logger.With(logging.Component("graphql"))))

	s.healthChecker = s.newHealthChecker()
	return s, nil
}

func (s *Server) newHealthChecker() *health.HealthChecker {
	hc := health.NewHealthChecker(health.WithVersion(s.version))

	snapshotCheck := health.SnapshotCheck(s.snapshotState)
	hc.RegisterCheck("snapshot", snapshotCheck)
	hc.RegisterReadinessCheck("snapshot", snapshotCheck)

	var ping func(context.Context) error
	kind := "none"
	if store := s.holder.Store(); store != nil {
		kind = store.Kind()
		if p, ok := store.(interface{ Ping(context.Context) error }); ok {
			ping = p.Ping
		}
	}
	storeCheck := health.StoreCheck(kind, ping, 2*time.Second)
	hc.RegisterCheck("store", storeCheck)

	memoryCheck := health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	})
	hc.RegisterCheck("memory", memoryCheck)
	hc.RegisterLivenessCheck("memory", memoryCheck)
	return hc
}

func (s *Server) snapshotState() health.SnapshotState {
	snap := s.holder.Current()
	if snap == nil {
		return health.SnapshotState{}
	}
	return health.SnapshotState{
		Loaded:      true,
		Fingerprint: snap.Fingerprint,
		Source:      snap.Source,
		LoadedAt:    snap.LoadedAt,
		Nodes:       snap.Graph.NodeCount(),
		Buildings:   snap.Graph.BuildingCount(),
	}
}

// Handler returns the complete handler: routes wrapped in the middleware
// chain. Metrics wraps the mux directly so the matched pattern is visible
// when the request completes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	cors := middleware.DefaultCORSConfig()
	if len(s.config.Server.CORSOrigins) > 0 {
		cors.AllowedOrigins = s.config.Server.CORSOrigins
	}

	var handler http.Handler = middleware.Metrics(s.metricsRegistry)(mux)
	handler = middleware.BodySizeLimit(s.config.Server.MaxBodyBytes)(handler)
	handler = middleware.CORS(cors)(handler)
	handler = middleware.SecurityHeaders(&middleware.SecurityHeadersConfig{
		ImageSources: imageSources(s.config.Map.ImageURL),
	})(handler)
	handler = middleware.Logging(s.logger.With(logging.Component("http")))(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(s.logger)(handler)
	return handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Routing
	mux.HandleFunc("POST /route", s.handleRoute)
	mux.HandleFunc("GET /buildings", s.handleBuildings)

	// Snapshot
	mux.HandleFunc("GET /graph", s.handleGraph)
	mux.HandleFunc("POST /graph/validate", s.handleValidateGraph)

	// GraphQL
	mux.Handle("POST /graphql", s.graphqlHandler)

	// Monitoring
	mux.HandleFunc("GET /health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("GET /ready", s.healthChecker.ReadinessHandler())
	mux.HandleFunc("GET /live", s.healthChecker.LivenessHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metricsRegistry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /version", s.handleVersion)

	if s.editor != nil {
		s.registerEditorRoutes(mux)
	}

	if dir := s.config.Map.StaticDir; dir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"version":        s.version,
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

// planner returns a planner honouring the request's preferences
func (s *Server) planner(prefs routing.Preferences) *routing.Planner {
	return routing.NewPlanner(
		routing.WithCost(prefs.Cost(routing.WalkingTime)),
		routing.WithObserver(s.metricsRegistry),
	)
}
