// Package metrics provides Prometheus metrics for the Figma bridge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Import run metrics
	importRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figmabridge_import_runs_total",
			Help: "Total number of import runs",
		},
		[]string{"status"},
	)

	importDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "figmabridge_import_duration_seconds",
			Help:    "Duration of a full import run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Document metrics
	nodesIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "figmabridge_nodes_indexed",
			Help: "Number of document nodes in the last built index",
		},
	)

	nodesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figmabridge_nodes_classified_total",
			Help: "Nodes classified, by render tag",
		},
		[]string{"tag"},
	)

	imageFillsDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figmabridge_image_fills_discovered_total",
			Help: "Image fill references discovered during classification",
		},
	)

	// Generation metrics
	transformsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figmabridge_transforms_resolved_total",
			Help: "Rect transforms resolved, by mode",
		},
		[]string{"mode"},
	)

	componentsPromoted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figmabridge_components_promoted_total",
			Help: "Instance nodes promoted to component definitions",
		},
	)

	instancesExpanded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figmabridge_instances_expanded_total",
			Help: "Component instances expanded into generated subtrees",
		},
	)

	// Merge metrics
	mergeActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figmabridge_merge_actions_total",
			Help: "Reconciliation plan actions, by kind",
		},
		[]string{"action"},
	)

	// Snapshot metrics
	snapshotOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figmabridge_snapshot_operations_total",
			Help: "Snapshot store operations, by op and status",
		},
		[]string{"op", "status"},
	)
)

// RecordImportRun records a completed import run.
func RecordImportRun(status string, d time.Duration) {
	importRunsTotal.WithLabelValues(status).Inc()
	importDuration.Observe(d.Seconds())
}

// SetNodesIndexed records the size of the last document index.
func SetNodesIndexed(n int) {
	nodesIndexed.Set(float64(n))
}

// RecordClassification records a classified node.
func RecordClassification(tag string) {
	nodesClassified.WithLabelValues(tag).Inc()
}

// RecordImageFill records a discovered image fill reference.
func RecordImageFill() {
	imageFillsDiscovered.Inc()
}

// RecordTransform records a resolved transform ("relative" or "absolute").
func RecordTransform(mode string) {
	transformsResolved.WithLabelValues(mode).Inc()
}

// RecordPromotion records an instance promoted to a component definition.
func RecordPromotion() {
	componentsPromoted.Inc()
}

// RecordExpansion records an expanded component instance.
func RecordExpansion() {
	instancesExpanded.Inc()
}

// RecordMergeAction records a reconciliation plan action.
func RecordMergeAction(action string) {
	mergeActions.WithLabelValues(action).Inc()
}

// RecordSnapshotOp records a snapshot store operation.
func RecordSnapshotOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	snapshotOps.WithLabelValues(op, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a metrics HTTP server on addr. Blocks until the server
// stops; meant to run in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
