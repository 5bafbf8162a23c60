// Package metrics records fetch and clear counters on a private Prometheus
// registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch results.
const (
	ResultOK        = "ok"
	ResultEmpty     = "empty"
	ResultError     = "error"
	ResultCached    = "cached"
	ResultNoSession = "no_session"
)

// Recorder holds the cosmoclear collectors.
type Recorder struct {
	registry *prometheus.Registry

	fetchTotal        *prometheus.CounterVec
	itemsDeleted      prometheus.Counter
	deleteFailures    prometheus.Counter
	containersCleared prometheus.Counter
}

// New creates a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cosmoclear",
				Name:      "fetch_total",
				Help:      "Child list lookups by level and result",
			},
			[]string{"level", "result"},
		),
		itemsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmoclear",
			Name:      "items_deleted_total",
			Help:      "Documents deleted by clear operations",
		}),
		deleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmoclear",
			Name:      "item_delete_failures_total",
			Help:      "Documents that could not be archived or deleted",
		}),
		containersCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmoclear",
			Name:      "containers_cleared_total",
			Help:      "Containers visited by clear operations",
		}),
	}
	r.registry.MustRegister(r.fetchTotal, r.itemsDeleted, r.deleteFailures, r.containersCleared)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveFetch counts one child list lookup.
func (r *Recorder) ObserveFetch(level, result string) {
	if r == nil {
		return
	}
	r.fetchTotal.WithLabelValues(level, result).Inc()
}

// ItemDeleted counts one deleted document.
func (r *Recorder) ItemDeleted() {
	if r == nil {
		return
	}
	r.itemsDeleted.Inc()
}

// DeleteFailed counts one document that was not deleted.
func (r *Recorder) DeleteFailed() {
	if r == nil {
		return
	}
	r.deleteFailures.Inc()
}

// ContainerCleared counts one container visited by a clear.
func (r *Recorder) ContainerCleared() {
	if r == nil {
		return
	}
	r.containersCleared.Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
