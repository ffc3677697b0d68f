package metrics

import (
	"runtime"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks a request as started
func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight marks a request as finished
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordRoute records a route request. status is "ok" or an error kind.
func (r *Registry) RecordRoute(status string, duration time.Duration, legs int, walkingSeconds float64) {
	r.RoutesTotal.WithLabelValues(status).Inc()
	r.RouteDuration.Observe(duration.Seconds())
	if status == "ok" {
		r.RouteLegs.Observe(float64(legs))
		r.RouteTimeSeconds.Observe(walkingSeconds)
	}
}

// ObserveDijkstraRun counts one shortest path search
func (r *Registry) ObserveDijkstraRun() {
	r.DijkstraRunsTotal.Inc()
}

// RecordGraphQLQuery records a GraphQL query outcome
func (r *Registry) RecordGraphQLQuery(status string) {
	r.GraphQLQueriesTotal.WithLabelValues(status).Inc()
}

// SnapshotStats are the sizes published for the current snapshot
type SnapshotStats struct {
	Nodes        int
	Edges        int
	Buildings    int
	BlockedEdges int
	SizeBytes    int
}

// RecordSnapshotSwap records a successful reload and the new snapshot sizes
func (r *Registry) RecordSnapshotSwap(store string, duration time.Duration, stats SnapshotStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.SnapshotReloadsTotal.WithLabelValues("swapped").Inc()
	r.SnapshotLoadDuration.WithLabelValues(store).Observe(duration.Seconds())
	r.SnapshotNodes.Set(float64(stats.Nodes))
	r.SnapshotEdges.Set(float64(stats.Edges))
	r.SnapshotBuildings.Set(float64(stats.Buildings))
	r.SnapshotBlockedEdges.Set(float64(stats.BlockedEdges))
	r.SnapshotSizeBytes.Set(float64(stats.SizeBytes))
	r.SnapshotLastReloadAt.Set(float64(time.Now().Unix()))
}

// RecordSnapshotReload records a reload that did not swap: "unchanged" or
// "error".
func (r *Registry) RecordSnapshotReload(status string) {
	r.SnapshotReloadsTotal.WithLabelValues(status).Inc()
}

// RecordEditorOperation records an editor mutation
func (r *Registry) RecordEditorOperation(operation, status string) {
	r.EditorOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordExport records an export attempt and the validation issue counts
func (r *Registry) RecordExport(status string, errors, warnings int) {
	r.EditorExportsTotal.WithLabelValues(status).Inc()
	r.ValidationIssues.WithLabelValues("error").Set(float64(errors))
	r.ValidationIssues.WithLabelValues("warning").Set(float64(warnings))
}

// UpdateSystemMetrics samples uptime, goroutines and memory
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}
