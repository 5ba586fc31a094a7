// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GRPCServerHandlingSeconds is a histogram for gRPC server request latencies
	GRPCServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of gRPC that had been application-level handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "code"},
	)

	// HTTPServerHandlingSeconds is a histogram for HTTP request latencies
	HTTPServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of HTTP requests handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"path", "code"},
	)

	// RecordsScoredTotal counts records by outcome
	RecordsScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_scored_total",
			Help: "Total number of records scored, by status.",
		},
		[]string{"status"},
	)

	// InferenceBatchSize is a histogram for tracking mini-batch sizes
	InferenceBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_batch_size",
			Help:    "Histogram of batch sizes for scoring requests.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
	)

	// InferenceLatencySeconds is a histogram for single-row predict latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of single-row prediction latency (seconds).",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	// BatchDurationSeconds is a histogram for end-to-end mini-batch latency
	BatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batch_duration_seconds",
			Help:    "Histogram of mini-batch processing time (seconds) including file reads.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"status"},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordGRPCLatency records the latency of a gRPC method call
func RecordGRPCLatency(method, code string, seconds float64) {
	GRPCServerHandlingSeconds.WithLabelValues(method, code).Observe(seconds)
}

// RecordHTTPLatency records the latency of an HTTP request
func RecordHTTPLatency(path, code string, seconds float64) {
	HTTPServerHandlingSeconds.WithLabelValues(path, code).Observe(seconds)
}

// RecordScored adds n records with the given status
func RecordScored(status string, n int) {
	RecordsScoredTotal.WithLabelValues(status).Add(float64(n))
}

// RecordInferenceBatch records the size of a scored batch
func RecordInferenceBatch(size int) {
	InferenceBatchSize.Observe(float64(size))
}

// RecordInferenceLatency records the latency of a single predict call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// RecordBatchDuration records how long a mini-batch took
func RecordBatchDuration(status string, seconds float64) {
	BatchDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
