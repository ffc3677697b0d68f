package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRoutingMetrics() {
	r.RoutesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_routes_total",
			Help: "Total number of route requests by outcome",
		},
		[]string{"status"},
	)

	r.RouteDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campusnav_route_duration_seconds",
			Help:    "Time spent composing a route in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	r.RouteLegs = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campusnav_route_legs",
			Help:    "Number of legs per successful route",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	r.RouteTimeSeconds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campusnav_route_walking_time_seconds",
			Help:    "Total walking time of successful routes",
			Buckets: []float64{60, 120, 300, 600, 900, 1200, 1800, 3600},
		},
	)

	r.DijkstraRunsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "campusnav_dijkstra_runs_total",
			Help: "Total number of single-pair shortest path searches",
		},
	)

	r.GraphQLQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_graphql_queries_total",
			Help: "Total number of GraphQL queries by outcome",
		},
		[]string{"status"},
	)
}
