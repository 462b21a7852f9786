package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name clients may pass to Health/Check. The empty name
// reports on the server as a whole and answers the same way.
const ServiceName = "smartscan.admingate"

// Pinger reports whether the credential store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer answers grpc.health.v1 checks by pinging the store on every
// call. Watch is not supported.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	db Pinger
}

func NewHealthServer(db Pinger) *HealthServer {
	return &HealthServer{db: db}
}

func (h *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if err := h.db.PingContext(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
