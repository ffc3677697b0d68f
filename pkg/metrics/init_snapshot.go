package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSnapshotMetrics() {
	r.SnapshotNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "campusnav_snapshot_nodes",
			Help: "Number of nodes in the routing snapshot",
		},
	)

	r.SnapshotEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "campusnav_snapshot_edges",
			Help: "Number of edges in the routing snapshot",
		},
	)

	r.SnapshotBuildings = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "campusnav_snapshot_buildings",
			Help: "Number of buildings in the routing snapshot",
		},
	)

	r.SnapshotBlockedEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "campusnav_snapshot_blocked_edges",
			Help: "Number of edges excluded by flag or override",
		},
	)

	r.SnapshotReloadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_snapshot_reloads_total",
			Help: "Total number of snapshot reload attempts by outcome",
		},
		[]string{"status"},
	)

	r.SnapshotLoadDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusnav_snapshot_load_duration_seconds",
			Help:    "Snapshot load duration in seconds by store",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"store"},
	)

	r.SnapshotLastReloadAt = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "campusnav_snapshot_last_reload_timestamp_seconds",
			Help: "Unix time of the last successful snapshot swap",
		},
	)

	r.SnapshotSizeBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "campusnav_snapshot_size_bytes",
			Help: "Encoded size of the routing snapshot in bytes",
		},
	)
}
