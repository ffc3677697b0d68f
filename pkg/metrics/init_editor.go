package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEditorMetrics() {
	r.EditorOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_editor_operations_total",
			Help: "Total number of editor mutations",
		},
		[]string{"operation", "status"},
	)

	r.EditorExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_editor_exports_total",
			Help: "Total number of export attempts by outcome",
		},
		[]string{"status"},
	)

	r.ValidationIssues = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "campusnav_validation_issues",
			Help: "Issues found by the most recent validation, by severity",
		},
		[]string{"severity"},
	)
}
