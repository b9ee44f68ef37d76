// Package obs holds the Prometheus metrics shared by the storage layers.
package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// StoreOperations counts load/save cycles per backend ("json", "sqlite").
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fmea_store_operations_total",
		Help: "Document store operations by backend, operation and result.",
	}, []string{"backend", "op", "result"})

	// StoreDuration observes how long a whole-document load or save takes.
	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fmea_store_operation_duration_seconds",
		Help:    "Document store operation latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})

	// StoreRecoveries counts loads that fell back to the empty schema.
	StoreRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fmea_store_recoveries_total",
		Help: "Loads that substituted the empty schema for an unreadable document.",
	}, []string{"reason"})

	// CascadeDeleted counts dependent records removed by cascading deletes.
	CascadeDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fmea_cascade_deleted_records_total",
		Help: "Records removed by cascading deletes, by collection.",
	}, []string{"collection"})

	SessionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fmea_session_cache_hits_total",
		Help: "Session validations served from the in-memory cache.",
	})
	SessionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fmea_session_cache_misses_total",
		Help: "Session validations that had to read the document.",
	})
)

// ObserveStore records one store operation.
func ObserveStore(backend, op string, start time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	StoreOperations.WithLabelValues(backend, op, result).Inc()
	StoreDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
