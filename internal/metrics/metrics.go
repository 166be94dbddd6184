// Package metrics exposes the pool's Prometheus instrumentation. Metrics are
// registered with the default registry; binaries serve them via promhttp.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalRecords atomic.Int64

var (
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_jobs_submitted_total",
		Help: "Total number of jobs accepted by Submit",
	})

	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_jobs_completed_total",
		Help: "Total number of jobs that produced results",
	})

	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_jobs_failed_total",
		Help: "Total number of jobs that failed during inference",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "translate_queue_depth",
		Help: "Jobs currently waiting in the pool queue",
	})

	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_batch_size_records",
		Help:    "Distribution of submitted batch sizes",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	TranslateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_duration_seconds",
		Help:    "Wall time of engine translate calls per job",
		Buckets: prometheus.DefBuckets,
	})

	RecordsTranslated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_records_total",
		Help: "Total number of input records translated successfully",
	})

	FileBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_file_batches_total",
		Help: "Total number of batches submitted by the file streamer",
	})
)

// RecordSubmit records one accepted job and the queue depth after enqueue.
func RecordSubmit(batchSize, queueDepth int) {
	JobsSubmitted.Inc()
	BatchSize.Observe(float64(batchSize))
	QueueDepth.Set(float64(queueDepth))
}

// RecordQueueDepth updates the queue depth gauge after a dequeue.
func RecordQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordJobSuccess records one completed job covering records inputs.
func RecordJobSuccess(records int, duration time.Duration) {
	JobsCompleted.Inc()
	RecordsTranslated.Add(float64(records))
	TranslateDuration.Observe(duration.Seconds())
	totalRecords.Add(int64(records))
}

// RecordJobFailure records one job that surfaced an inference error.
func RecordJobFailure() {
	JobsFailed.Inc()
}

// RecordFileBatch records one batch submitted by the file streamer.
func RecordFileBatch() {
	FileBatches.Inc()
}

// TotalRecords reports the in-process count of successfully translated
// records, independent of the Prometheus registry.
func TotalRecords() int64 {
	return totalRecords.Load()
}
