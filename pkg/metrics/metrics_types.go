package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Routing Metrics
	RoutesTotal         *prometheus.CounterVec
	RouteDuration       prometheus.Histogram
	RouteLegs           prometheus.Histogram
	RouteTimeSeconds    prometheus.Histogram
	DijkstraRunsTotal   prometheus.Counter
	GraphQLQueriesTotal *prometheus.CounterVec

	// Snapshot Metrics
	SnapshotNodes        prometheus.Gauge
	SnapshotEdges        prometheus.Gauge
	SnapshotBuildings    prometheus.Gauge
	SnapshotBlockedEdges prometheus.Gauge
	SnapshotReloadsTotal *prometheus.CounterVec
	SnapshotLoadDuration *prometheus.HistogramVec
	SnapshotLastReloadAt prometheus.Gauge
	SnapshotSizeBytes    prometheus.Gauge

	// Editor Metrics
	EditorOperationsTotal *prometheus.CounterVec
	EditorExportsTotal    *prometheus.CounterVec
	ValidationIssues      *prometheus.GaugeVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initHTTPMetrics()
	r.initRoutingMetrics()
	r.initSnapshotMetrics()
	r.initEditorMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
