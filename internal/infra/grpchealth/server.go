package grpchealth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"staycal/internal/infra/obs"
)

// ServiceName is the name probes ask for; the empty name reports the same.
const ServiceName = "staycal.Calendar"

// Server publishes readiness over the standard gRPC health protocol. Status is
// refreshed from the same checks /readyz runs.
type Server struct {
	Checks   obs.HealthHandlers
	Interval time.Duration
	Logger   *slog.Logger

	health *health.Server
	grpc   *grpc.Server
}

func New(checks obs.HealthHandlers, interval time.Duration, logger *slog.Logger) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &Server{Checks: checks, Interval: interval, Logger: logger, health: health.NewServer(), grpc: grpc.NewServer()}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go s.watch(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(lis) }()
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// Refresh runs the checks once and updates the served status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	failures := s.Checks.Run(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		if s.Logger != nil {
			s.Logger.Warn("readiness check failed", "checks", failures)
		}
	}
	s.setStatus(status)
	return status
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		s.Refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
