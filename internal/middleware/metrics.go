// internal/middleware/metrics.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/batch-score-service/internal/metrics"
)

// UnaryMetricsInterceptor records Prometheus histogram metrics for gRPC unary calls.
// It measures the duration of each call and records it with method and status code labels.
func UnaryMetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		// Call the handler
		resp, err := handler(ctx, req)

		// Record the duration
		duration := time.Since(start).Seconds()

		// Extract status code
		code := "OK"
		if err != nil {
			if st, ok := status.FromError(err); ok {
				code = st.Code().String()
			} else {
				code = "Unknown"
			}
		}

		// Record the metric
		metrics.RecordGRPCLatency(info.FullMethod, code, duration)

		return resp, err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMetrics records Prometheus latency histograms for HTTP requests,
// labelled with the request path and response status code.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.RecordHTTPLatency(r.URL.Path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
