package grpchealth

import (
	"context"
	"errors"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"staycal/internal/infra/obs"
)

func TestRefreshFollowsChecks(t *testing.T) {
	healthy := true
	checks := obs.HealthHandlers{Checks: map[string]obs.Check{
		"backend": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("unreachable")
		},
	}}
	s := New(checks, 0, nil)
	ctx := context.Background()

	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before first refresh, got %v %v", resp, err)
	}
	if got := s.Refresh(ctx); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", got)
	}
	healthy = false
	s.Refresh(ctx)
	resp, err = s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING after failure, got %v %v", resp, err)
	}
}
