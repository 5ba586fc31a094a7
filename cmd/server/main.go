// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/SyedDaiam9101/batch-score-service/internal/app"
	"github.com/SyedDaiam9101/batch-score-service/internal/config"
	"github.com/SyedDaiam9101/batch-score-service/internal/handler"
	"github.com/SyedDaiam9101/batch-score-service/internal/logging"
	"github.com/SyedDaiam9101/batch-score-service/internal/metrics"
	"github.com/SyedDaiam9101/batch-score-service/internal/middleware"
	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
	"github.com/SyedDaiam9101/batch-score-service/internal/telemetry"
)

const serviceName = "batch-score-server"

func main() {
	port := flag.Int("port", 0, "gRPC admin port (default: 50051)")
	metricsPort := flag.Int("metrics", 0, "HTTP port for scoring, metrics and health (default: 9100)")
	model := flag.String("model", "", "Model identifier, name or name:version (default: diabetes_model)")
	registryRoot := flag.String("registry", "", "Model registry root directory (default: ./models)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *metricsPort > 0 {
		cfg.MetricsPort = *metricsPort
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *registryRoot != "" {
		cfg.Registry.Root = *registryRoot
	}
	if *useMock {
		cfg.UseMockInference = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting "+serviceName,
		zap.Int("port", cfg.Port),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.String("model", cfg.Model),
		zap.Bool("otel", cfg.OTELEnabled))

	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = telemetry.InitTracer(serviceName, cfg.OTELEndpoint, logger)
		if err != nil {
			logger.Warn("failed to initialize tracer", zap.Error(err))
		}
	}

	// Model initialization happens exactly once; a failure prevents startup
	predictor, err := app.LoadModel(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to load model", zap.Error(err))
	}
	defer predictor.Close()

	healthServer := health.NewServer()

	h := handler.New(scorer.New(predictor), logger)
	httpServer := startHTTPServer(cfg.MetricsPort, healthServer, h, logger)

	interceptors := []grpc.UnaryServerInterceptor{
		middleware.UnaryRequestIDInterceptor(),
		middleware.UnaryMetricsInterceptor(),
	}
	if cfg.OTELEnabled {
		interceptors = append(interceptors, otelgrpc.UnaryServerInterceptor())
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	addr := fmt.Sprintf(":%d", cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}

	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	metrics.SetHealthy()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutting down", zap.String("signal", sig.String()))

		healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		metrics.SetUnhealthy()

		// Give load balancers time to notice the unhealthy status
		time.Sleep(5 * time.Second)

		grpcServer.GracefulStop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)

		if tracerShutdown != nil {
			tracerShutdown(ctx)
		}
	}()

	logger.Info("gRPC admin server listening", zap.String("addr", addr))

	if err := grpcServer.Serve(lis); err != nil {
		logger.Fatal("failed to serve", zap.Error(err))
	}

	logger.Info("server shutdown complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadWithConfigFile(path)
	}
	return config.Load()
}

func startHTTPServer(port int, healthServer *health.Server, h *handler.Handler, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	h.Register(mux)

	check := func(ok, fail string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			resp, err := healthServer.Check(r.Context(), &healthpb.HealthCheckRequest{})
			if err != nil || resp.Status != healthpb.HealthCheckResponse_SERVING {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(fail))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(ok))
		}
	}
	mux.HandleFunc("/healthz", check("OK", "Service Unavailable"))
	// The model is loaded before the server starts, so readiness follows health
	mux.HandleFunc("/readyz", check("Ready", "Not Ready"))

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestID(middleware.HTTPMetrics(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening (score, metrics, health)", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return server
}
