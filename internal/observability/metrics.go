package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	submissionsTotal      *prometheus.CounterVec
	submissionsRejected   *prometheus.CounterVec
	indexSyncTotal        *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	uploadRecoveriesTotal *prometheus.CounterVec
	ratingLocksTotal      prometheus.Counter
	schemaEvolutionsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the submission
// pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of submission events appended to submission logs.",
		}, []string{"kind"})

		submissionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_rejected_total",
			Help: "Total number of submissions rejected before any write.",
		}, []string{"reason"})

		indexSyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "index_sync_total",
			Help: "Outcomes of master index synchronization attempts.",
		}, []string{"outcome"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_latency_seconds",
			Help:    "Latency distribution of upload finalize calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		uploadRecoveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_recoveries_total",
			Help: "Outcomes of the upload finalize recovery search.",
		}, []string{"outcome"})

		ratingLocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_lock_rejections_total",
			Help: "Total number of peer rating submissions rejected by the write-once lock.",
		})

		schemaEvolutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schema_evolutions_total",
			Help: "Total number of submission log headers extended by the schema engine.",
		})

		prometheus.MustRegister(
			submissionsTotal,
			submissionsRejected,
			indexSyncTotal,
			uploadLatencySeconds,
			uploadRecoveriesTotal,
			ratingLocksTotal,
			schemaEvolutionsTotal,
		)
	})
}

// Submissions exposes the counter for appended submission events.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// SubmissionsRejected exposes the counter for pre-write rejections.
func SubmissionsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsRejected
}

// IndexSync exposes the counter for index synchronization outcomes.
func IndexSync() *prometheus.CounterVec {
	RegisterMetrics()
	return indexSyncTotal
}

// UploadLatency exposes the finalize latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// UploadRecoveries exposes the counter for recovery search outcomes.
func UploadRecoveries() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRecoveriesTotal
}

// RatingLocks exposes the counter for rejected duplicate ratings.
func RatingLocks() prometheus.Counter {
	RegisterMetrics()
	return ratingLocksTotal
}

// SchemaEvolutions exposes the counter for header extensions.
func SchemaEvolutions() prometheus.Counter {
	RegisterMetrics()
	return schemaEvolutionsTotal
}
